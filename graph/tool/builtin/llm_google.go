package builtin

import (
	"context"
	"fmt"

	"github.com/dshills/workflow-engine/graph"
	"github.com/dshills/workflow-engine/graph/executor"
	"github.com/dshills/workflow-engine/graph/tool"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GoogleInterface describes "core-tools/llm.google@1", adapted from the teacher's
// model/google ChatModel into a Native tool.
var GoogleInterface = tool.Interface{
	ID:          "llm.google",
	Version:     "1",
	DisplayName: "Google Gemini",
	Description: "Single-turn chat completion via the Gemini GenerateContent API.",
	Capabilities: []string{"llm", "llm.chat"},
	Inputs: []graph.PortSpec{
		{Name: "prompt", Type: graph.PortString, Required: true},
	},
	Outputs: []graph.PortSpec{
		{Name: "text", Type: graph.PortString},
	},
	SideEffect: tool.SideEffectNetwork,
	Cost: tool.CostHint{
		MonetaryBucket:  "low",
		ScalesWithInput: true,
	},
	ErrorModel: tool.ErrorModel{
		Codes: []tool.ErrorCodeSpec{
			{Code: "SAFETY_BLOCKED", Retryable: false},
			{Code: "RATE_LIMITED", Retryable: true},
		},
	},
	Runtime: tool.RuntimeSpec{Kind: tool.RuntimeNative},
}

// GoogleHandler returns a NativeHandler calling modelName with apiKey.
func GoogleHandler(apiKey, modelName string) func(context.Context, executor.ToolInput) (map[string]any, error) {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return func(ctx context.Context, input executor.ToolInput) (map[string]any, error) {
		prompt, _ := input.Inputs["prompt"].(string)

		client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return nil, fmt.Errorf("google: client: %w", err)
		}
		defer client.Close()

		genModel := client.GenerativeModel(modelName)
		resp, err := genModel.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, fmt.Errorf("google: %w", err)
		}

		var text string
		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			for _, part := range resp.Candidates[0].Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text += string(t)
				}
			}
		}
		return map[string]any{"text": text}, nil
	}
}
