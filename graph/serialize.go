package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSpecYAML reads and parses a human-authored WorkflowSpec file. It
// normalizes the spec but does not validate it; callers call Validate
// separately so a caller can choose to inspect an invalid spec.
func LoadSpecYAML(path string) (WorkflowSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return WorkflowSpec{}, fmt.Errorf("graph: read spec %s: %w", path, err)
	}
	var spec WorkflowSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return WorkflowSpec{}, fmt.Errorf("graph: parse spec %s: %w", path, err)
	}
	spec.Normalize()
	return spec, nil
}

// SaveSpecYAML writes spec to path in the human-authored YAML format, with
// file mode 0640 (owner read/write, group read-only), matching the
// workflow tool's other artifact writes.
func SaveSpecYAML(path string, spec WorkflowSpec) error {
	raw, err := yaml.Marshal(spec)
	if err != nil {
		return fmt.Errorf("graph: marshal spec: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o640); err != nil {
		return fmt.Errorf("graph: write spec %s: %w", path, err)
	}
	return nil
}

// LoadSpecJSON reads a WorkflowSpec from its wire JSON form, the format used
// by the MCP and host IPC surfaces.
func LoadSpecJSON(path string) (WorkflowSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return WorkflowSpec{}, fmt.Errorf("graph: read spec %s: %w", path, err)
	}
	var spec WorkflowSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return WorkflowSpec{}, fmt.Errorf("graph: parse spec %s: %w", path, err)
	}
	spec.Normalize()
	return spec, nil
}

// SaveSpecJSON writes spec to path as wire-format JSON.
func SaveSpecJSON(path string, spec WorkflowSpec) error {
	raw, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("graph: marshal spec: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o640); err != nil {
		return fmt.Errorf("graph: write spec %s: %w", path, err)
	}
	return nil
}
