package main

import (
	"path/filepath"
	"testing"

	"github.com/dshills/workflow-engine/graph"
	"github.com/stretchr/testify/require"
)

func sampleSpec() graph.WorkflowSpec {
	spec := graph.NewWorkflowSpec("cli-sample")
	spec.Nodes = []graph.NodeEntry{
		{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{
			ID: "a", ToolRef: "core-tools/echo@1",
			Config: map[string]any{"msg": "hello"},
		}},
	}
	return spec
}

func TestSaveAndLoadSpecFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.json")
	spec := sampleSpec()

	require.NoError(t, saveSpecFile(path, spec))
	loaded, err := loadSpecFile(path)
	require.NoError(t, err)
	require.Equal(t, spec.ID, loaded.ID)
	require.Equal(t, spec.Metadata.Name, loaded.Metadata.Name)
}

func TestSaveAndLoadSpecFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	spec := sampleSpec()

	require.NoError(t, saveSpecFile(path, spec))
	loaded, err := loadSpecFile(path)
	require.NoError(t, err)
	require.Equal(t, spec.ID, loaded.ID)
	require.Len(t, loaded.Nodes, 1)
}

func TestLoadSpecFileUnrecognizedExtension(t *testing.T) {
	_, err := loadSpecFile("/tmp/whatever.txt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unrecognized spec file extension")
}

func TestSaveSpecFileUnrecognizedExtension(t *testing.T) {
	err := saveSpecFile("/tmp/whatever.txt", sampleSpec())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unrecognized spec file extension")
}
