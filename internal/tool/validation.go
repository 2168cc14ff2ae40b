package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// validateArguments checks args against params and returns the arguments
// the handler receives: every supplied declared parameter, plus defaults for
// absent optional ones. Undeclared arguments are dropped.
func validateArguments(params []Parameter, args map[string]any) (map[string]any, error) {
	validated := make(map[string]any, len(params))

	for _, p := range params {
		value, present := args[p.Name]
		if !present {
			if p.Required {
				return nil, fmt.Errorf("%w: required parameter %q is missing", ErrInvalidArguments, p.Name)
			}
			if p.Default != nil {
				validated[p.Name] = p.Default
			}
			continue
		}

		if !matchesType(value, p.Type) {
			return nil, fmt.Errorf("%w: parameter %q must be of type %s", ErrInvalidArguments, p.Name, p.Type)
		}

		if len(p.Enum) > 0 && !inEnum(value, p.Enum) {
			return nil, fmt.Errorf("%w: parameter %q must be one of %v", ErrInvalidArguments, p.Name, p.Enum)
		}

		if n, ok := toFloat(value); ok {
			if p.Minimum != nil && n < *p.Minimum {
				return nil, fmt.Errorf("%w: parameter %q must be >= %v", ErrInvalidArguments, p.Name, *p.Minimum)
			}
			if p.Maximum != nil && n > *p.Maximum {
				return nil, fmt.Errorf("%w: parameter %q must be <= %v", ErrInvalidArguments, p.Name, *p.Maximum)
			}
		}

		validated[p.Name] = value
	}

	return validated, nil
}

// matchesType reports whether a JSON-decoded value fits the declared type.
// Unknown or empty types accept anything.
func matchesType(value any, typ jsonschema.DataType) bool {
	switch typ {
	case jsonschema.String:
		_, ok := value.(string)
		return ok
	case jsonschema.Integer:
		n, ok := toFloat(value)
		return ok && n == math.Trunc(n) && !math.IsInf(n, 0)
	case jsonschema.Number:
		_, ok := toFloat(value)
		return ok
	case jsonschema.Boolean:
		_, ok := value.(bool)
		return ok
	case jsonschema.Array:
		if value == nil {
			return false
		}
		k := reflect.TypeOf(value).Kind()
		return k == reflect.Slice || k == reflect.Array
	case jsonschema.Object:
		if value == nil {
			return false
		}
		return reflect.TypeOf(value).Kind() == reflect.Map
	default:
		return true
	}
}

// toFloat converts numeric values, as produced by encoding/json or by Go
// callers, to float64. Booleans are not numbers.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// inEnum compares numerically when both sides are numbers so that 1 and
// 1.0 match, and by deep equality otherwise.
func inEnum(value any, enum []any) bool {
	n, numeric := toFloat(value)
	for _, candidate := range enum {
		if numeric {
			if c, ok := toFloat(candidate); ok && c == n {
				return true
			}
			continue
		}
		if reflect.DeepEqual(value, candidate) {
			return true
		}
	}
	return false
}
