package graph_test

import (
	"testing"

	"github.com/dshills/workflow-engine/graph"
	"github.com/stretchr/testify/require"
)

func TestComputeDirtySetPropagatesForward(t *testing.T) {
	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{primitiveNode("a"), primitiveNode("b"), primitiveNode("c"), primitiveNode("d")},
		Edges: []graph.EdgeSpec{
			dataEdge("a", "out", "b", "in"),
			dataEdge("b", "out", "c", "in"),
			dataEdge("a", "out", "d", "in"),
		},
	}

	dirty := graph.ComputeDirtySet(spec, map[string]bool{"b": true})
	require.True(t, dirty["b"])
	require.True(t, dirty["c"])
	require.False(t, dirty["a"])
	require.False(t, dirty["d"])
}

func TestComputeDirtySetEmptyChangeIsEmpty(t *testing.T) {
	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{primitiveNode("a"), primitiveNode("b")},
		Edges: []graph.EdgeSpec{dataEdge("a", "out", "b", "in")},
	}

	dirty := graph.ComputeDirtySet(spec, map[string]bool{})
	require.Empty(t, dirty)
}
