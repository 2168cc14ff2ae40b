package tool

import (
	"encoding/json"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

func newSchemaRegistry(t *testing.T) *Registry {
	t.Helper()

	reg := NewRegistry()
	tools := []Tool{
		{Name: "connect", Description: "Connect to the Mijia cloud", Category: "mijia"},
		{
			Name:        "set_property_value",
			Description: "Set a device property",
			Category:    "mijia",
			Parameters: []Parameter{
				{Name: "device_id", Type: jsonschema.String, Description: "Device ID", Required: true},
				{Name: "siid", Type: jsonschema.Integer, Description: "Service ID", Required: true, Minimum: Bound(1)},
				{Name: "value", Description: "New value", Required: true},
				{Name: "mode", Type: jsonschema.String, Enum: []any{"a", "b"}, Default: "a"},
			},
		},
	}
	for _, tl := range tools {
		tl.Handler = staticHandler(nil)
		if err := reg.Register(tl); err != nil {
			t.Fatalf("Register(%s) error = %v", tl.Name, err)
		}
	}
	return reg
}

func TestOpenAITools_LengthAndNames(t *testing.T) {
	reg := newSchemaRegistry(t)

	tools := reg.OpenAITools()
	if len(tools) != reg.Len() {
		t.Fatalf("len(OpenAITools()) = %d, want %d", len(tools), reg.Len())
	}

	for i, name := range reg.Names() {
		if tools[i].Type != openai.ToolTypeFunction {
			t.Errorf("tools[%d].Type = %q, want function", i, tools[i].Type)
		}
		if tools[i].Function == nil || tools[i].Function.Name != name {
			t.Errorf("tools[%d] name mismatch, want %q", i, name)
		}
	}
}

func TestOpenAITools_Shape(t *testing.T) {
	reg := newSchemaRegistry(t)

	data, err := json.Marshal(reg.OpenAITools())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded []struct {
		Type     string `json:"type"`
		Function struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Parameters  struct {
				Type       string                    `json:"type"`
				Properties map[string]map[string]any `json:"properties"`
				Required   []string                  `json:"required"`
			} `json:"parameters"`
		} `json:"function"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	connect := decoded[0].Function.Parameters
	if connect.Type != "object" {
		t.Errorf("connect parameters type = %q, want object", connect.Type)
	}
	if connect.Properties == nil || connect.Required == nil {
		t.Error("empty properties/required must encode as {} and []")
	}

	set := decoded[1].Function.Parameters
	if len(set.Required) != 3 {
		t.Errorf("required = %v, want device_id, siid, value", set.Required)
	}
	siid := set.Properties["siid"]
	if siid["type"] != "integer" || siid["minimum"] != 1.0 {
		t.Errorf("siid schema = %v, want integer with minimum 1", siid)
	}
	if _, hasType := set.Properties["value"]["type"]; hasType {
		t.Errorf("untyped parameter exported with a type: %v", set.Properties["value"])
	}
	if set.Properties["mode"]["default"] != "a" {
		t.Errorf("mode default = %v, want a", set.Properties["mode"]["default"])
	}
}

func TestExportSchema(t *testing.T) {
	reg := newSchemaRegistry(t)

	data, err := reg.ExportSchema(FormatOpenAI)
	if err != nil {
		t.Fatalf("ExportSchema() error = %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(decoded) != reg.Len() {
		t.Errorf("exported %d tools, want %d", len(decoded), reg.Len())
	}

	if _, err := reg.ExportSchema("anthropic"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ExportSchema(anthropic) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestExportSchema_EmptyRegistry(t *testing.T) {
	data, err := NewRegistry().ExportSchema(FormatOpenAI)
	if err != nil {
		t.Fatalf("ExportSchema() error = %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("ExportSchema() = %s, want []", data)
	}
}
