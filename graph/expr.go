package graph

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// EvalPath evaluates a minimal path expression against a JSON-compatible
// value (map[string]any, []any, or scalar), per §4.6: a leading "$." anchors
// at the root, dot segments traverse object keys, and a bare identifier is
// treated as a top-level key. No side effects, no arithmetic.
//
// Path reads are delegated to gjson, which already implements dotted-path
// traversal over raw JSON; we marshal the root value once and let gjson
// walk it rather than re-implementing key lookup by hand.
func EvalPath(root any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return root, true
	}
	path = strings.TrimPrefix(path, "$.")
	path = strings.TrimPrefix(path, "$")
	if path == "" {
		return root, true
	}

	raw, err := json.Marshal(root)
	if err != nil {
		return nil, false
	}
	result := gjson.GetBytes(raw, path)
	if !result.Exists() {
		return nil, false
	}
	return jsonValue(result), true
}

// jsonValue converts a gjson.Result into a plain Go value using the same
// representation encoding/json would produce (map[string]any, []any,
// float64, string, bool, nil).
func jsonValue(r gjson.Result) any {
	var v any
	if err := json.Unmarshal([]byte(r.Raw), &v); err != nil {
		return r.Value()
	}
	return v
}

// EvalCondition evaluates a condition expression against a node's input.
// Conditions additionally accept a JSON literal (e.g. "true", "\"slow\"",
// "42") that is returned as-is rather than resolved as a path, letting
// Conditional branch matching compare literal-to-literal.
func EvalCondition(input map[string]any, expr string) (any, bool) {
	trimmed := strings.TrimSpace(expr)
	if trimmed != "" && !strings.HasPrefix(trimmed, "$") {
		var lit any
		if err := json.Unmarshal([]byte(trimmed), &lit); err == nil {
			return lit, true
		}
	}
	return EvalPath(input, expr)
}

// ApplyTransform applies an edge transform expression to a source value.
// An empty transform passes the value through unchanged. A non-empty
// transform is evaluated as a path expression against the value wrapped as
// {"value": sourceValue}, letting "$.value.field" project into structured
// outputs; sjson is used to build that wrapper so transform chains compose
// with the same library that writes ports.
func ApplyTransform(value any, transform string) (any, error) {
	if strings.TrimSpace(transform) == "" {
		return value, nil
	}
	wrapped, err := sjson.SetBytes([]byte(`{}`), "value", value)
	if err != nil {
		return nil, err
	}
	var root any
	if err := json.Unmarshal(wrapped, &root); err != nil {
		return nil, err
	}
	m, _ := root.(map[string]any)
	out, ok := EvalPath(m, transform)
	if !ok {
		return nil, nil
	}
	return out, nil
}

// JSONEqual reports whether two JSON-ish values are structurally equal,
// used by Conditional branch matching (literal equality on Branch.Value).
func JSONEqual(a, b any) bool {
	return reflect.DeepEqual(normalizeNumbers(a), normalizeNumbers(b))
}

// normalizeNumbers recursively converts integer-ish float64s produced by one
// decode path to the same representation as the other, so 2 == 2.0.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = normalizeNumbers(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = normalizeNumbers(vv)
		}
		return out
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return v
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

// RawToAny decodes a json.RawMessage into a plain Go value (nil if empty).
func RawToAny(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
