package tool

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// portSchema converts a port's declared PortType into a minimal JSON Schema
// document, used by ValidatePayload to check a JSON payload against it.
func portSchema(t string) map[string]any {
	switch t {
	case "string":
		return map[string]any{"type": "string"}
	case "number":
		return map[string]any{"type": "number"}
	case "boolean":
		return map[string]any{"type": "boolean"}
	case "array":
		return map[string]any{"type": "array"}
	case "json", "binary", "any":
		return map[string]any{}
	default:
		return map[string]any{}
	}
}

// ValidatePayload validates a raw JSON payload against the port's declared
// type using santhosh-tekuri/jsonschema/v6. It is intentionally permissive
// for the "json"/"binary"/"any" port types, which admit anything.
func ValidatePayload(portType string, payload json.RawMessage) error {
	schemaDoc := portSchema(portType)
	if len(schemaDoc) == 0 {
		return nil
	}

	compiler := jsonschema.NewCompiler()
	raw, err := json.Marshal(schemaDoc)
	if err != nil {
		return fmt.Errorf("tool: marshal generated schema: %w", err)
	}
	unmarshaled, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("tool: unmarshal generated schema: %w", err)
	}
	const resourceURL = "mem://port-schema.json"
	if err := compiler.AddResource(resourceURL, unmarshaled); err != nil {
		return fmt.Errorf("tool: add schema resource: %w", err)
	}
	schema, err := compiler.Compile(resourceURL)
	if err != nil {
		return fmt.Errorf("tool: compile schema: %w", err)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("tool: payload is not valid JSON: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("tool: payload does not satisfy port type %q: %w", portType, err)
	}
	return nil
}
