package tool

import (
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// FormatOpenAI is the only ExportSchema format.
const FormatOpenAI = "openai"

// Schema is the JSON Schema object describing a tool's arguments.
type Schema struct {
	Type       jsonschema.DataType       `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

// PropertySchema describes a single argument.
type PropertySchema struct {
	Type        jsonschema.DataType `json:"type,omitempty"`
	Description string              `json:"description"`
	Enum        []any               `json:"enum,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Default     any                 `json:"default,omitempty"`
}

// InputSchema builds the argument schema of t. Properties and Required are
// never nil so they encode as {} and [].
func (t Tool) InputSchema() Schema {
	s := Schema{
		Type:       jsonschema.Object,
		Properties: make(map[string]PropertySchema, len(t.Parameters)),
		Required:   []string{},
	}
	for _, p := range t.Parameters {
		s.Properties[p.Name] = PropertySchema{
			Type:        p.Type,
			Description: p.Description,
			Enum:        p.Enum,
			Minimum:     p.Minimum,
			Maximum:     p.Maximum,
			Default:     p.Default,
		}
		if p.Required {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

// OpenAITool projects t into the OpenAI function-calling format.
func (t Tool) OpenAITool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.InputSchema(),
		},
	}
}

// OpenAITools returns every registered tool in the OpenAI function-calling
// format, in registration order. It has no side effects.
func (r *Registry) OpenAITools() []openai.Tool {
	tools := r.Tools()
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.OpenAITool())
	}
	return out
}

// ExportSchema serialises the registry in the named format. Only
// FormatOpenAI is supported; it produces indented JSON.
func (r *Registry) ExportSchema(format string) ([]byte, error) {
	if format != FormatOpenAI {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	data, err := json.MarshalIndent(r.OpenAITools(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding openai schema: %w", err)
	}
	return data, nil
}
