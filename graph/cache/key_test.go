package cache_test

import (
	"testing"

	"github.com/dshills/workflow-engine/graph/cache"
	"github.com/stretchr/testify/require"
)

func TestKeyIsStableUnderMapOrdering(t *testing.T) {
	a, err := cache.Key("core/http@1", map[string]any{"a": 1, "b": 2}, map[string]any{"x": "y"}, "1")
	require.NoError(t, err)

	b, err := cache.Key("core/http@1", map[string]any{"b": 2, "a": 1}, map[string]any{"x": "y"}, "1")
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.Contains(t, a, "sha256:")
}

func TestKeyDiffersOnInput(t *testing.T) {
	a, err := cache.Key("core/http@1", map[string]any{"a": 1}, nil, "1")
	require.NoError(t, err)
	b, err := cache.Key("core/http@1", map[string]any{"a": 2}, nil, "1")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestKeyDiffersOnToolVersion(t *testing.T) {
	a, err := cache.Key("core/http@1", map[string]any{"a": 1}, nil, "1")
	require.NoError(t, err)
	b, err := cache.Key("core/http@1", map[string]any{"a": 1}, nil, "2")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestKeyDiffersOnNestedArrayOrder(t *testing.T) {
	a, err := cache.Key("core/http@1", map[string]any{"items": []any{1, 2, 3}}, nil, "1")
	require.NoError(t, err)
	b, err := cache.Key("core/http@1", map[string]any{"items": []any{3, 2, 1}}, nil, "1")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
