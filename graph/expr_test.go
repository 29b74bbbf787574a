package graph_test

import (
	"testing"

	"github.com/dshills/workflow-engine/graph"
	"github.com/stretchr/testify/require"
)

func TestEvalPath(t *testing.T) {
	root := map[string]any{
		"user": map[string]any{"name": "ada", "age": float64(30)},
		"tags": []any{"a", "b"},
	}

	v, ok := graph.EvalPath(root, "$.user.name")
	require.True(t, ok)
	require.Equal(t, "ada", v)

	v, ok = graph.EvalPath(root, "user.age")
	require.True(t, ok)
	require.Equal(t, float64(30), v)

	_, ok = graph.EvalPath(root, "$.missing.key")
	require.False(t, ok)

	v, ok = graph.EvalPath(root, "")
	require.True(t, ok)
	require.Equal(t, root, v)
}

func TestEvalConditionLiteralVsPath(t *testing.T) {
	input := map[string]any{"status": "slow"}

	v, ok := graph.EvalCondition(input, `"slow"`)
	require.True(t, ok)
	require.Equal(t, "slow", v)

	v, ok = graph.EvalCondition(input, "true")
	require.True(t, ok)
	require.Equal(t, true, v)

	v, ok = graph.EvalCondition(input, "$.status")
	require.True(t, ok)
	require.Equal(t, "slow", v)
}

func TestApplyTransform(t *testing.T) {
	out, err := graph.ApplyTransform("hello", "")
	require.NoError(t, err)
	require.Equal(t, "hello", out)

	out, err = graph.ApplyTransform(map[string]any{"field": "x"}, "$.value.field")
	require.NoError(t, err)
	require.Equal(t, "x", out)
}

func TestJSONEqualNumberNormalization(t *testing.T) {
	require.True(t, graph.JSONEqual(2, 2.0))
	require.True(t, graph.JSONEqual(map[string]any{"n": 1}, map[string]any{"n": 1.0}))
	require.False(t, graph.JSONEqual("a", "b"))
}

func TestRawToAny(t *testing.T) {
	v, err := graph.RawToAny(nil)
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = graph.RawToAny([]byte(`{"a":1}`))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"a": float64(1)}, v)
}
