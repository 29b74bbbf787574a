package builtin

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dshills/workflow-engine/graph"
	"github.com/dshills/workflow-engine/graph/executor"
	"github.com/dshills/workflow-engine/graph/tool"
)

// AnthropicInterface describes "core-tools/llm.anthropic@1": a single-turn chat
// completion against Claude, adapted from the teacher's model/anthropic
// ChatModel into a Native tool rather than a generic ChatModel interface.
var AnthropicInterface = tool.Interface{
	ID:          "llm.anthropic",
	Version:     "1",
	DisplayName: "Anthropic Claude",
	Description: "Single-turn chat completion via the Anthropic Messages API.",
	Capabilities: []string{"llm", "llm.chat"},
	Inputs: []graph.PortSpec{
		{Name: "system", Type: graph.PortString},
		{Name: "prompt", Type: graph.PortString, Required: true},
	},
	Outputs: []graph.PortSpec{
		{Name: "text", Type: graph.PortString},
	},
	SideEffect: tool.SideEffectNetwork,
	Cost: tool.CostHint{
		MonetaryBucket:  "medium",
		ScalesWithInput: true,
	},
	ErrorModel: tool.ErrorModel{
		Codes: []tool.ErrorCodeSpec{
			{Code: "RATE_LIMITED", Retryable: true},
			{Code: "INVALID_REQUEST", Retryable: false},
		},
	},
	Runtime: tool.RuntimeSpec{Kind: tool.RuntimeNative},
}

// AnthropicHandler returns a NativeHandler calling modelName with apiKey.
func AnthropicHandler(apiKey, modelName string) func(context.Context, executor.ToolInput) (map[string]any, error) {
	if modelName == "" {
		modelName = "claude-3-5-sonnet-20241022"
	}
	return func(ctx context.Context, input executor.ToolInput) (map[string]any, error) {
		prompt, _ := input.Inputs["prompt"].(string)
		system, _ := input.Inputs["system"].(string)

		client := anthropicsdk.NewClient(option.WithAPIKey(apiKey))
		params := anthropicsdk.MessageNewParams{
			Model:     anthropicsdk.Model(modelName),
			MaxTokens: 1024,
			Messages: []anthropicsdk.MessageParam{
				anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)),
			},
		}
		if system != "" {
			params.System = []anthropicsdk.TextBlockParam{{Text: system}}
		}

		msg, err := client.Messages.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("anthropic: %w", err)
		}

		var text string
		for _, block := range msg.Content {
			if tb, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
				text += tb.Text
			}
		}
		return map[string]any{"text": text}, nil
	}
}
