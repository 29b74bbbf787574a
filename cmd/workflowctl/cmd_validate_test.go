package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func executeCLI(args ...string) (string, error) {
	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func writeSpecFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, saveSpecFile(path, sampleSpec()))
	return path
}

func TestValidateCommandAcceptsWellFormedSpec(t *testing.T) {
	path := writeSpecFile(t, "spec.json")
	_, err := executeCLI("validate", "--spec", path)
	require.NoError(t, err)
}

func TestValidateCommandRejectsMissingSpecFlag(t *testing.T) {
	_, err := executeCLI("validate")
	require.Error(t, err)
}

func TestValidateCommandAgainstRegistryRejectsUnknownToolRef(t *testing.T) {
	spec := sampleSpec()
	spec.Nodes[0].Primitive.ToolRef = "core-tools/does-not-exist@1"
	path := filepath.Join(t.TempDir(), "spec.json")
	require.NoError(t, saveSpecFile(path, spec))

	dataDir := t.TempDir()
	_, err := executeCLI("validate", "--spec", path, "--against-registry", "--data-dir", dataDir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "is not registered")
}

func TestValidateCommandAgainstRegistryAcceptsKnownToolRef(t *testing.T) {
	path := writeSpecFile(t, "spec.json")
	dataDir := t.TempDir()
	_, err := executeCLI("validate", "--spec", path, "--against-registry", "--data-dir", dataDir)
	require.NoError(t, err)
}
