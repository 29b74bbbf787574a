// Package executor dispatches a ToolInput to the concrete runtime declared
// by a tool's RuntimeSpec (native, process, or MCP), per spec.md §4.5.
package executor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dshills/workflow-engine/graph"
	"github.com/dshills/workflow-engine/graph/tool"
)

// ToolInput and ToolOutput alias the wire contract declared in package graph
// so that *Dispatcher structurally satisfies graph.Dispatcher without graph
// importing this package back.
type (
	ToolInput  = graph.ToolInput
	ToolOutput = graph.ToolOutput
	ToolMeta   = graph.ToolMeta
	Error      = graph.DispatchError
)

// Runtime dispatches one ToolInput for tools bound to a particular
// RuntimeKind.
type Runtime interface {
	Dispatch(ctx context.Context, iface tool.Interface, input ToolInput) (ToolOutput, error)
}

// Dispatcher routes a dispatch to the Runtime registered for the tool's
// declared RuntimeKind. Unregistered kinds yield an *Error with Code
// "RuntimeUnavailable".
type Dispatcher struct {
	registry *tool.Registry
	runtimes map[tool.RuntimeKind]Runtime
}

// NewDispatcher returns a Dispatcher that resolves tool_refs against reg.
func NewDispatcher(reg *tool.Registry) *Dispatcher {
	return &Dispatcher{registry: reg, runtimes: make(map[tool.RuntimeKind]Runtime)}
}

// Register installs the Runtime implementation for one RuntimeKind.
func (d *Dispatcher) Register(kind tool.RuntimeKind, rt Runtime) {
	d.runtimes[kind] = rt
}

// ToolMeta resolves toolRef against the registry and reports the
// cache/retry-relevant fields off its declared ErrorModel, without
// dispatching it.
func (d *Dispatcher) ToolMeta(toolRef string) (ToolMeta, bool) {
	iface, ok := d.registry.Resolve(toolRef)
	if !ok {
		return ToolMeta{}, false
	}
	return ToolMeta{Idempotent: iface.ErrorModel.Idempotent, DefaultRetry: iface.ErrorModel.DefaultRetry}, true
}

// Dispatch resolves input.ToolRef against the registry and routes to the
// matching Runtime.
func (d *Dispatcher) Dispatch(ctx context.Context, input ToolInput) (ToolOutput, error) {
	iface, ok := d.registry.Resolve(input.ToolRef)
	if !ok {
		return ToolOutput{}, &Error{Code: "ToolNotFound", Message: "tool_ref " + input.ToolRef + " is not registered"}
	}

	rt, ok := d.runtimes[iface.Runtime.Kind]
	if !ok {
		return ToolOutput{}, &Error{Code: "RuntimeUnavailable", Message: "no handler registered for runtime " + string(iface.Runtime.Kind)}
	}

	started := time.Now()
	out, err := rt.Dispatch(ctx, iface, input)
	if err != nil {
		if de, ok := err.(*Error); ok {
			de.Retryable = iface.ErrorModel.Retryable(de.Code)
		}
		return ToolOutput{}, err
	}
	if out.DurationMS == 0 {
		out.DurationMS = time.Since(started).Milliseconds()
	}
	return out, nil
}

// marshalInput renders a ToolInput as the wire payload sent to a Process or
// MCP runtime.
func marshalInput(input ToolInput) ([]byte, error) {
	return json.Marshal(input)
}
