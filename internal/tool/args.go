package tool

import (
	"fmt"
	"math"
	"reflect"
)

// StringArg returns args[name] as a string.
func StringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidArguments, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is %T, want string", ErrInvalidArguments, name, v)
	}
	return s, nil
}

// IntArg returns args[name] as an int. JSON numbers with a fractional part
// are rejected.
func IntArg(args map[string]any, name string) (int, error) {
	v, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrInvalidArguments, name)
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidArguments, name)
	}
	return int(f), nil
}

// FloatArg returns args[name] as a float64.
func FloatArg(args map[string]any, name string) (float64, error) {
	v, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrInvalidArguments, name)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("%w: %q is %T, want number", ErrInvalidArguments, name, v)
	}
	return f, nil
}

// BoolArg returns args[name] as a bool.
func BoolArg(args map[string]any, name string) (bool, error) {
	v, ok := args[name]
	if !ok {
		return false, fmt.Errorf("%w: missing %q", ErrInvalidArguments, name)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q is %T, want boolean", ErrInvalidArguments, name, v)
	}
	return b, nil
}

// SliceArg returns args[name] as []any. A missing or nil value yields nil.
func SliceArg(args map[string]any, name string) ([]any, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	if s, ok := v.([]any); ok {
		return s, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %q is %T, want array", ErrInvalidArguments, name, v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
