package main

import (
	"encoding/json"
	"testing"

	"github.com/dshills/workflow-engine/graph"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSpansCommandReturnsSpansFromPriorRun(t *testing.T) {
	path := writeSpecFile(t, "spec.json")
	dataDir := t.TempDir()

	runOut, err := executeCLI("run", "--spec", path, "--data-dir", dataDir)
	require.NoError(t, err)

	var record graph.ExecutionRecord
	require.NoError(t, json.Unmarshal([]byte(runOut), &record))

	spansOut, err := executeCLI("spans", "--execution-id", record.ExecutionID.String(), "--data-dir", dataDir)
	require.NoError(t, err)

	var spans []graph.NodeSpan
	require.NoError(t, json.Unmarshal([]byte(spansOut), &spans))
	require.NotEmpty(t, spans)
}

func TestSpansCommandRejectsMalformedExecutionID(t *testing.T) {
	_, err := executeCLI("spans", "--execution-id", "not-a-uuid", "--data-dir", t.TempDir())
	require.Error(t, err)
}

func TestSpansCommandUnknownExecutionIDReturnsStorageMiss(t *testing.T) {
	dataDir := t.TempDir()
	_, err := executeCLI("spans", "--execution-id", uuid.New().String(), "--data-dir", dataDir)
	require.NoError(t, err)
}
