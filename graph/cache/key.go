// Package cache provides the content-addressed execution cache described in
// spec.md §4.3: a tool invocation that has already run with the same
// tool_ref, input, config, and tool version may be served from cache instead
// of re-dispatched.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Key computes the deterministic cache key for a tool invocation, grounded
// on the teacher's computeIdempotencyKey (graph/checkpoint.go): canonicalize
// the inputs, hash with SHA-256, and prefix with the hash algorithm name for
// format versioning.
func Key(toolRef string, input, config map[string]any, toolVersion string) (string, error) {
	canonical, err := canonicalize(map[string]any{
		"tool_ref":     toolRef,
		"tool_version": toolVersion,
		"input":        input,
		"config":       config,
	})
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(h[:]), nil
}

// canonicalize produces a stable byte representation of v by recursively
// sorting map keys before marshaling, so that two structurally equal inputs
// with different key insertion order hash identically.
func canonicalize(v any) ([]byte, error) {
	normalized := normalize(v)
	return json.Marshal(normalized)
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make([]keyValue, 0, len(keys))
		for _, k := range keys {
			ordered = append(ordered, keyValue{Key: k, Value: normalize(t[k])})
		}
		return ordered
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}

// keyValue preserves sorted-key ordering through JSON marshaling, since a Go
// map loses order information.
type keyValue struct {
	Key   string `json:"k"`
	Value any    `json:"v"`
}
