package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/dshills/workflow-engine/graph"
	"github.com/stretchr/testify/require"
)

func TestRunCommandExecutesEchoSpecAndPrintsRecord(t *testing.T) {
	path := writeSpecFile(t, "spec.json")
	dataDir := t.TempDir()

	out, err := executeCLI("run", "--spec", path, "--data-dir", dataDir)
	require.NoError(t, err)

	var record graph.ExecutionRecord
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	require.Equal(t, graph.ExecutionCompleted, record.Status)
	require.Equal(t, 1, record.CompletedNodes)
}

func TestRunCommandRejectsMissingSpecFile(t *testing.T) {
	dataDir := t.TempDir()
	_, err := executeCLI("run", "--spec", filepath.Join(dataDir, "missing.json"), "--data-dir", dataDir)
	require.Error(t, err)
}
