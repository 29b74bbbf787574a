package builtin

import (
	"context"
	"fmt"

	"github.com/dshills/workflow-engine/graph"
	"github.com/dshills/workflow-engine/graph/executor"
	"github.com/dshills/workflow-engine/graph/tool"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIInterface describes "core-tools/llm.openai@1", adapted from the teacher's
// model/openai ChatModel into a Native tool.
var OpenAIInterface = tool.Interface{
	ID:          "llm.openai",
	Version:     "1",
	DisplayName: "OpenAI Chat",
	Description: "Single-turn chat completion via the OpenAI Chat Completions API.",
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

// OpenAIHandler returns a NativeHandler calling modelName with apiKey.
func OpenAIHandler(apiKey, modelName string) func(context.Context, executor.ToolInput) (map[string]any, error) {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return func(ctx context.Context, input executor.ToolInput) (map[string]any, error) {
		prompt, _ := input.Inputs["prompt"].(string)
		system, _ := input.Inputs["system"].(string)

		client := openaisdk.NewClient(option.WithAPIKey(apiKey))

		messages := []openaisdk.ChatCompletionMessageParamUnion{}
		if system != "" {
			messages = append(messages, openaisdk.SystemMessage(system))
		}
		messages = append(messages, openaisdk.UserMessage(prompt))

		params := openaisdk.ChatCompletionNewParams{
			Model:    openaisdk.ChatModel(modelName),
			Messages: messages,
		}

		resp, err := client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		if len(resp.Choices) == 0 {
			return map[string]any{"text": ""}, nil
		}
		return map[string]any{"text": resp.Choices[0].Message.Content}, nil
	}
}
