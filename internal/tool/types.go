package tool

import (
	"context"
	"slices"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// DefaultCategory is assigned to tools registered without a category.
const DefaultCategory = "general"

// Handler executes a tool. args holds the validated arguments: declared
// parameters only, with defaults filled in. Handlers may block and should
// honour ctx.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Executor runs a tool by name. *Registry implements it; decorators such as
// the tool-call audit wrap it.
type Executor interface {
	ExecuteTool(ctx context.Context, name string, args map[string]any) (any, error)
}

// Parameter describes one named argument of a tool.
//
// An empty Type accepts any JSON value and is exported without a "type"
// keyword.
type Parameter struct {
	Name        string
	Type        jsonschema.DataType
	Description string
	Required    bool
	Enum        []any
	Minimum     *float64
	Maximum     *float64
	Default     any
}

// Tool is a registered handler and its metadata.
type Tool struct {
	Name        string
	Description string
	Category    string
	Parameters  []Parameter
	Handler     Handler
}

// clone returns a copy that shares no slices with t.
func (t Tool) clone() Tool {
	out := t
	out.Parameters = make([]Parameter, len(t.Parameters))
	for i, p := range t.Parameters {
		p.Enum = slices.Clone(p.Enum)
		out.Parameters[i] = p
	}
	return out
}

// Bound returns a pointer to v, for Parameter.Minimum and Parameter.Maximum.
func Bound(v float64) *float64 {
	return &v
}
