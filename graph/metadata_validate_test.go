package graph_test

import (
	"testing"

	"github.com/dshills/workflow-engine/graph"
	"github.com/stretchr/testify/require"
)

func TestValidateMetadataAcceptsWellFormedSpec(t *testing.T) {
	spec := graph.NewWorkflowSpec("demo")
	require.NoError(t, graph.ValidateMetadata(&spec))
}

func TestValidateMetadataRejectsMissingName(t *testing.T) {
	spec := graph.NewWorkflowSpec("")
	err := graph.ValidateMetadata(&spec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Name")
}

func TestValidateMetadataRejectsWrongSchemaVersion(t *testing.T) {
	spec := graph.NewWorkflowSpec("demo")
	spec.SchemaVersion = "0.9"
	err := graph.ValidateMetadata(&spec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "SchemaVersion")
}

func TestValidateMetadataRejectsIncompleteVariable(t *testing.T) {
	spec := graph.NewWorkflowSpec("demo")
	spec.Variables = []graph.Variable{{Name: "input"}}
	err := graph.ValidateMetadata(&spec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Type")
}
