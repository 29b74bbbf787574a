package executor

import (
	"context"
	"encoding/json"

	"github.com/dshills/workflow-engine/graph/mcp"
	"github.com/dshills/workflow-engine/graph/tool"
)

// McpRuntime dispatches tool_refs whose RuntimeSpec.Kind is MCP. It keys
// clients by ServerID through a shared mcp.ClientCache, so one run
// initializes each MCP server at most once regardless of how many nodes
// call it.
type McpRuntime struct {
	clients *mcp.ClientCache
}

// NewMcpRuntime returns an McpRuntime sharing the given client cache.
func NewMcpRuntime(clients *mcp.ClientCache) *McpRuntime {
	return &McpRuntime{clients: clients}
}

func (r *McpRuntime) Dispatch(ctx context.Context, iface tool.Interface, input ToolInput) (ToolOutput, error) {
	client := r.clients.Get(iface.Runtime.ServerID)

	toolName := iface.ID
	raw, err := client.CallTool(ctx, toolName, input.Inputs)
	if err != nil {
		return ToolOutput{}, &Error{Code: "McpServerError", Message: err.Error(), Cause: err}
	}

	var outputs map[string]any
	if err := json.Unmarshal(raw, &outputs); err != nil {
		// A scalar/array result is wrapped under a single "result" key so
		// ToolOutput's port-keyed contract still holds.
		var scalar any
		if scalarErr := json.Unmarshal(raw, &scalar); scalarErr != nil {
			return ToolOutput{}, &Error{Code: "MalformedOutput", Message: scalarErr.Error(), Cause: scalarErr}
		}
		outputs = map[string]any{"result": scalar}
	}
	return ToolOutput{Outputs: outputs}, nil
}
