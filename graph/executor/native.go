package executor

import (
	"context"

	"github.com/dshills/workflow-engine/graph/tool"
)

// NativeHandler is one in-process tool implementation, keyed by the final
// path segment of its tool_ref (e.g. "echo" for "core/echo@1").
type NativeHandler func(ctx context.Context, input ToolInput) (map[string]any, error)

// NativeRuntime dispatches tool_refs whose RuntimeSpec.Kind is Native. Per
// spec.md §4.5 the set of built-in native tools is small and closed; an
// unregistered name produces a stub diagnostic output rather than an error.
type NativeRuntime struct {
	handlers map[string]NativeHandler
}

// NewNativeRuntime returns a NativeRuntime with no handlers registered.
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{handlers: make(map[string]NativeHandler)}
}

// Register installs the handler for one native tool name.
func (r *NativeRuntime) Register(name string, h NativeHandler) {
	r.handlers[name] = h
}

func (r *NativeRuntime) Dispatch(ctx context.Context, iface tool.Interface, input ToolInput) (ToolOutput, error) {
	h, ok := r.handlers[iface.ID]
	if !ok {
		return ToolOutput{Outputs: map[string]any{
			"_unhandled_native_tool": iface.ID,
		}}, nil
	}
	outputs, err := h(ctx, input)
	if err != nil {
		return ToolOutput{}, &Error{Code: "NativeExecutionFailure", Message: err.Error(), Cause: err}
	}
	return ToolOutput{Outputs: outputs}, nil
}
