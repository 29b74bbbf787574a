package main

import (
	"path/filepath"
	"testing"

	"github.com/dshills/workflow-engine/graph"
	"github.com/stretchr/testify/require"
)

func TestCompileCommandWritesSpecFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "rag.json")
	_, err := executeCLI("compile", "--task-type", "rag", "--slot", "data_source=docs/", "--out", outPath)
	require.NoError(t, err)

	spec, err := loadSpecFile(outPath)
	require.NoError(t, err)
	require.NotEmpty(t, spec.Nodes)
	require.NoError(t, graph.Validate(&spec))
}

func TestCompileCommandPrintsToStdoutWithoutOut(t *testing.T) {
	out, err := executeCLI("compile", "--task-type", "summarize")
	require.NoError(t, err)
	require.Contains(t, out, "\"nodes\"")
}

func TestCompileCommandRejectsMissingTaskType(t *testing.T) {
	_, err := executeCLI("compile")
	require.Error(t, err)
}
