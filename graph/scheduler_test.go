package graph_test

import (
	"testing"

	"github.com/dshills/workflow-engine/graph"
	"github.com/stretchr/testify/require"
)

func primitiveNode(id string) graph.NodeEntry {
	return graph.NodeEntry{
		Kind:      graph.NodePrimitive,
		Primitive: &graph.PrimitiveNode{ID: id, ToolRef: "core-tools/echo@1"},
	}
}

func dataEdge(src, srcPort, tgt, tgtPort string) graph.EdgeSpec {
	return graph.EdgeSpec{SourceNode: src, SourcePort: srcPort, TargetNode: tgt, TargetPort: tgtPort, Kind: graph.EdgeData}
}

func TestLevelizeDiamond(t *testing.T) {
	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{primitiveNode("a"), primitiveNode("b"), primitiveNode("c"), primitiveNode("d")},
		Edges: []graph.EdgeSpec{
			dataEdge("a", "out", "b", "in"),
			dataEdge("a", "out", "c", "in"),
			dataEdge("b", "out", "d", "in_b"),
			dataEdge("c", "out", "d", "in_c"),
		},
	}

	levels, err := graph.Levelize(spec)
	require.NoError(t, err)
	require.Len(t, levels, 3)
	require.ElementsMatch(t, []string{"a"}, levels[0])
	require.ElementsMatch(t, []string{"b", "c"}, levels[1])
	require.ElementsMatch(t, []string{"d"}, levels[2])
}

func TestLevelizeLinearChain(t *testing.T) {
	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{primitiveNode("a"), primitiveNode("b"), primitiveNode("c")},
		Edges: []graph.EdgeSpec{
			dataEdge("a", "out", "b", "in"),
			dataEdge("b", "out", "c", "in"),
		},
	}

	levels, err := graph.Levelize(spec)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, levels)
}

func TestLevelizeDetectsCycle(t *testing.T) {
	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{primitiveNode("a"), primitiveNode("b")},
		Edges: []graph.EdgeSpec{
			dataEdge("a", "out", "b", "in"),
			dataEdge("b", "out", "a", "in"),
		},
	}

	_, err := graph.Levelize(spec)
	require.Error(t, err)
}

func TestLevelizeIgnoresControlAndErrorEdges(t *testing.T) {
	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{primitiveNode("a"), primitiveNode("b")},
		Edges: []graph.EdgeSpec{
			{SourceNode: "a", SourcePort: "out", TargetNode: "b", TargetPort: "in", Kind: graph.EdgeControl},
			{SourceNode: "b", SourcePort: "err", TargetNode: "a", TargetPort: "in", Kind: graph.EdgeError},
		},
	}

	levels, err := graph.Levelize(spec)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, levels[0])
}
