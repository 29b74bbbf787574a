// Package builtin supplies the closed set of Native-runtime tools the core
// ships with: a diagnostic echo tool, an HTTP client tool, and native
// adapters for the Anthropic, OpenAI, and Gemini chat APIs.
package builtin

import (
	"context"

	"github.com/dshills/workflow-engine/graph"
	"github.com/dshills/workflow-engine/graph/executor"
	"github.com/dshills/workflow-engine/graph/tool"
)

// EchoInterface describes "core-tools/echo@1", the idempotent diagnostic tool
// used by the cache end-to-end scenario (spec.md §8 scenario 3).
var EchoInterface = tool.Interface{
	ID:          "echo",
	Version:     "1",
	DisplayName: "Echo",
	Description: "Returns its input verbatim under output port \"msg\".",
	Capabilities: []string{"diagnostic"},
	Inputs: []graph.PortSpec{
		{Name: "msg", Type: graph.PortAny, Required: true},
	},
	Outputs: []graph.PortSpec{
		{Name: "msg", Type: graph.PortAny},
	},
	SideEffect: tool.SideEffectNone,
	ErrorModel: tool.ErrorModel{Idempotent: true},
	Runtime:    tool.RuntimeSpec{Kind: tool.RuntimeNative},
}

// Echo is the NativeHandler for EchoInterface.
func Echo(_ context.Context, input executor.ToolInput) (map[string]any, error) {
	return map[string]any{"msg": input.Inputs["msg"]}, nil
}
