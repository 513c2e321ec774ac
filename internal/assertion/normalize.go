package assertion

import (
	"encoding/json"
	"reflect"
)

// normalizeNumeric recursively coerces every integer-family type (int,
// int32, int64, json.Number) to float64 so that values which cross a
// JSON decode boundary compare equal to literals written directly in a
// test case's expected block. Adapted from the equivalent helper used by
// the assert.equals/assert.contains actions.
func normalizeNumeric(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeNumeric(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeNumeric(e)
		}
		return out
	default:
		return v
	}
}

// deepEqual compares two already-normalized values structurally.
func deepEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
