package tool_test

import (
	"testing"

	"github.com/dshills/workflow-engine/graph"
	"github.com/dshills/workflow-engine/graph/tool"
	"github.com/stretchr/testify/require"
)

func echoInterface() tool.Interface {
	return tool.Interface{
		ID:      "echo",
		Version: "1",
		Runtime: tool.RuntimeSpec{Kind: tool.RuntimeNative},
		Inputs: []graph.PortSpec{
			{Name: "msg", Type: graph.PortString, Required: true},
		},
	}
}

func newRegistryWithEcho(t *testing.T) *tool.Registry {
	t.Helper()
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register("core-tools", echoInterface()))
	reg.Freeze()
	return reg
}

func primitive(id, toolRef string) graph.NodeEntry {
	return graph.NodeEntry{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: id, ToolRef: toolRef}}
}

func TestValidateAgainstRegistryAcceptsFedRequiredPort(t *testing.T) {
	reg := newRegistryWithEcho(t)
	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "src", ToolRef: "core-tools/echo@1", Config: map[string]any{"msg": "seed"}}},
			primitive("dst", "core-tools/echo@1"),
		},
		Edges: []graph.EdgeSpec{
			{SourceNode: "src", SourcePort: "out", TargetNode: "dst", TargetPort: "msg", Kind: graph.EdgeData},
		},
	}
	require.NoError(t, tool.ValidateAgainstRegistry(spec, reg))
}

func TestValidateAgainstRegistryRejectsUnresolvedToolRef(t *testing.T) {
	reg := newRegistryWithEcho(t)
	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{primitive("a", "core-tools/missing@1")},
	}
	err := tool.ValidateAgainstRegistry(spec, reg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "is not registered")
}

func TestValidateAgainstRegistryRejectsUnfedRequiredPort(t *testing.T) {
	reg := newRegistryWithEcho(t)
	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{primitive("a", "core-tools/echo@1")},
	}
	err := tool.ValidateAgainstRegistry(spec, reg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "required input port")
}

func TestValidateAgainstRegistryAcceptsConfigFedRequiredPort(t *testing.T) {
	reg := newRegistryWithEcho(t)
	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{
				ID: "a", ToolRef: "core-tools/echo@1",
				Config: map[string]any{"msg": "hello"},
			}},
		},
	}
	require.NoError(t, tool.ValidateAgainstRegistry(spec, reg))
}
