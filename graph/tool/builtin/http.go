package builtin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dshills/workflow-engine/graph"
	"github.com/dshills/workflow-engine/graph/executor"
	"github.com/dshills/workflow-engine/graph/tool"
)

// HTTPInterface describes "core-tools/http@1", grounded on the teacher's
// HTTPTool: GET/POST with a status code, headers, and body result.
var HTTPInterface = tool.Interface{
	ID:          "http",
	Version:     "1",
	DisplayName: "HTTP Request",
	Description: "Issues an HTTP GET or POST request and returns status, headers, and body.",
	Capabilities: []string{"network.http"},
	Inputs: []graph.PortSpec{
		{Name: "method", Type: graph.PortString},
		{Name: "url", Type: graph.PortString, Required: true},
		{Name: "headers", Type: graph.PortJSON},
		{Name: "body", Type: graph.PortString},
	},
	Outputs: []graph.PortSpec{
		{Name: "status_code", Type: graph.PortNumber},
		{Name: "headers", Type: graph.PortJSON},
		{Name: "body", Type: graph.PortString},
	},
	SideEffect: tool.SideEffectNetwork,
	ErrorModel: tool.ErrorModel{
		Codes: []tool.ErrorCodeSpec{
			{Code: "NETWORK_ERROR", Retryable: true},
			{Code: "BAD_REQUEST", Retryable: false},
		},
	},
	Runtime: tool.RuntimeSpec{Kind: tool.RuntimeNative},
}

// HTTPHandler returns a NativeHandler bound to the given *http.Client.
func HTTPHandler(client *http.Client) func(context.Context, executor.ToolInput) (map[string]any, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return func(ctx context.Context, input executor.ToolInput) (map[string]any, error) {
		urlStr, _ := input.Inputs["url"].(string)
		if urlStr == "" {
			return nil, fmt.Errorf("url is required")
		}
		method := "GET"
		if m, ok := input.Inputs["method"].(string); ok && m != "" {
			method = strings.ToUpper(m)
		}

		var bodyReader io.Reader
		if body, ok := input.Inputs["body"].(string); ok && body != "" {
			bodyReader = bytes.NewReader([]byte(body))
		}

		req, err := http.NewRequestWithContext(ctx, method, urlStr, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		if headers, ok := input.Inputs["headers"].(map[string]any); ok {
			for k, v := range headers {
				if s, ok := v.(string); ok {
					req.Header.Set(k, s)
				}
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}

		respHeaders := map[string]any{}
		for k := range resp.Header {
			respHeaders[k] = resp.Header.Get(k)
		}

		return map[string]any{
			"status_code": resp.StatusCode,
			"headers":     respHeaders,
			"body":        string(respBody),
		}, nil
	}
}
