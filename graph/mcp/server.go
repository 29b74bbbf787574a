package mcp

import (
	"context"
	"encoding/json"
)

// ToolExecutor is implemented by the executor dispatcher, letting Server
// actually run a tool instead of returning a stub, unlike the prototype
// this is grounded on.
type ToolExecutor interface {
	ExecuteNative(ctx context.Context, name string, arguments map[string]any) (map[string]any, error)
}

// ServerTool is the MCP-facing description of one tool the Server exposes.
type ServerTool struct {
	Name        string
	Description string
	Properties  map[string]PortProperty
}

// PortProperty describes one input port in tools/list's inputSchema.
type PortProperty struct {
	Type        string
	Description string
}

// Server answers MCP JSON-RPC requests for a fixed set of registered tools.
type Server struct {
	name     string
	version  string
	tools    map[string]ServerTool
	executor ToolExecutor
}

// NewServer returns a Server identifying itself as name/version to clients.
func NewServer(name, version string, executor ToolExecutor) *Server {
	return &Server{name: name, version: version, tools: make(map[string]ServerTool), executor: executor}
}

// RegisterTool exposes one tool under Name.
func (s *Server) RegisterTool(t ServerTool) {
	s.tools[t.Name] = t
}

// ToolCount reports how many tools are registered.
func (s *Server) ToolCount() int {
	return len(s.tools)
}

// HandleRequest dispatches one decoded Request to the matching MCP method
// and returns the Response to send back.
func (s *Server) HandleRequest(ctx context.Context, req Request) Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req.ID)
	case "tools/list":
		return s.handleToolsList(req.ID)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return errorResponse(req.ID, ErrMethodNotFound, "Method not found")
	}
}

func (s *Server) handleInitialize(id uint64) Response {
	result := InitializeResult{
		ProtocolVersion: protocolVersion,
		ServerInfo:      ClientInfo{Name: s.name, Version: s.version},
		Capabilities: map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
	}
	return successResponse(id, result)
}

func (s *Server) handleToolsList(id uint64) Response {
	descriptors := make([]ToolDescriptor, 0, len(s.tools))
	for _, t := range s.tools {
		properties := map[string]any{}
		for name, p := range t.Properties {
			properties[name] = map[string]any{"type": p.Type, "description": p.Description}
		}
		descriptors = append(descriptors, ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: map[string]any{"type": "object", "properties": properties},
		})
	}
	return successResponse(id, ToolsListResult{Tools: descriptors})
}

func (s *Server) handleToolsCall(ctx context.Context, req Request) Response {
	params, ok := req.Params.(map[string]any)
	if !ok {
		return errorResponse(req.ID, ErrInvalidParams, "tools/call requires name and arguments")
	}
	name, _ := params["name"].(string)
	arguments, _ := params["arguments"].(map[string]any)

	if _, known := s.tools[name]; !known {
		return errorResponse(req.ID, ErrMethodNotFound, "Tool not found")
	}

	output, err := s.executor.ExecuteNative(ctx, name, arguments)
	if err != nil {
		return errorResponse(req.ID, ErrInternalError, err.Error())
	}

	text, marshalErr := json.Marshal(output)
	if marshalErr != nil {
		return errorResponse(req.ID, ErrInternalError, marshalErr.Error())
	}
	textStr := string(text)
	result := ToolsCallResult{Content: []ContentBlock{{Type: "text", Text: &textStr}}}
	return successResponse(req.ID, result)
}

func successResponse(id uint64, result any) Response {
	raw, err := json.Marshal(result)
	if err != nil {
		return errorResponse(id, ErrInternalError, err.Error())
	}
	return Response{JSONRPC: "2.0", ID: id, Result: raw}
}

func errorResponse(id uint64, code int, message string) Response {
	return Response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
}
