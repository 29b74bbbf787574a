package main

import (
	"fmt"
	"strings"

	"github.com/dshills/workflow-engine/graph"
)

// loadSpecFile reads a WorkflowSpec, dispatching on path's extension so the
// same CLI accepts both the human-authored YAML form and the wire JSON
// form.
func loadSpecFile(path string) (graph.WorkflowSpec, error) {
	switch {
	case strings.HasSuffix(path, ".json"):
		return graph.LoadSpecJSON(path)
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return graph.LoadSpecYAML(path)
	default:
		return graph.WorkflowSpec{}, fmt.Errorf("unrecognized spec file extension: %s (want .yaml or .json)", path)
	}
}

// saveSpecFile writes a WorkflowSpec, dispatching on path's extension.
func saveSpecFile(path string, spec graph.WorkflowSpec) error {
	switch {
	case strings.HasSuffix(path, ".json"):
		return graph.SaveSpecJSON(path, spec)
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return graph.SaveSpecYAML(path, spec)
	default:
		return fmt.Errorf("unrecognized spec file extension: %s (want .yaml or .json)", path)
	}
}
