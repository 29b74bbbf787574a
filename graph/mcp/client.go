package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
)

// Client is a JSON-RPC 2.0 client bound to one MCP server URL. The first
// call performs the initialize handshake; subsequent calls reuse the
// connection. Safe for concurrent use.
type Client struct {
	serverURL   string
	httpClient  *http.Client
	nextID      atomic.Uint64
	initialized sync.Once
	initErr     error
}

// NewClient returns a Client for serverURL. No network I/O happens until
// the first Call.
func NewClient(serverURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{serverURL: serverURL, httpClient: httpClient}
}

func (c *Client) ensureInitialized(ctx context.Context) error {
	c.initialized.Do(func() {
		c.initErr = c.initialize(ctx)
	})
	return c.initErr
}

func (c *Client) initialize(ctx context.Context) error {
	params := InitializeParams{
		ProtocolVersion: protocolVersion,
		ClientInfo:      ClientInfo{Name: "workflow-engine", Version: "1.0"},
		Capabilities:    map[string]any{},
	}
	var result InitializeResult
	return c.call(ctx, "initialize", params, &result)
}

// ListTools issues tools/list.
func (c *Client) ListTools(ctx context.Context) (ToolsListResult, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return ToolsListResult{}, err
	}
	var result ToolsListResult
	if err := c.call(ctx, "tools/list", nil, &result); err != nil {
		return ToolsListResult{}, err
	}
	return result, nil
}

// CallTool issues tools/call with name and arguments, returning the first
// text content block's value as raw JSON (parsing it as JSON if valid,
// wrapping as a JSON string otherwise).
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (json.RawMessage, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}
	params := ToolsCallParams{Name: name, Arguments: arguments}
	var result ToolsCallResult
	if err := c.call(ctx, "tools/call", params, &result); err != nil {
		return nil, err
	}
	if result.IsError {
		msg := ""
		if len(result.Content) > 0 && result.Content[0].Text != nil {
			msg = *result.Content[0].Text
		}
		return nil, &RPCError{Code: ErrInternalError, Message: msg}
	}
	return decodeContent(result.Content)
}

func decodeContent(blocks []ContentBlock) (json.RawMessage, error) {
	if len(blocks) == 0 {
		return nil, errors.New("mcp: empty tool-call content")
	}
	block := blocks[0]
	if block.Text == nil {
		return nil, errors.New("mcp: content block has no text")
	}
	raw := []byte(*block.Text)
	if json.Valid(raw) {
		return raw, nil
	}
	return json.Marshal(*block.Text)
}

// call sends one JSON-RPC request over HTTP POST and decodes the result
// into out (skipped when out is nil).
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	req := newRequest(c.nextID.Add(1), method, params)
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("mcp: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mcp: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("mcp: dial %s: %w", c.serverURL, err)
	}
	defer resp.Body.Close()

	var rpcResp Response
	if err := json.NewDecoder(bufio.NewReader(resp.Body)).Decode(&rpcResp); err != nil {
		return fmt.Errorf("mcp: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(rpcResp.Result, out)
}
