package executor_test

import (
	"context"
	"testing"

	"github.com/dshills/workflow-engine/graph"
	"github.com/dshills/workflow-engine/graph/executor"
	"github.com/dshills/workflow-engine/graph/tool"
	"github.com/stretchr/testify/require"
)

type stubRuntime struct {
	out ToolOutputOrErr
}

type ToolOutputOrErr struct {
	output executor.ToolOutput
	err    error
}

func (s stubRuntime) Dispatch(_ context.Context, _ tool.Interface, _ executor.ToolInput) (executor.ToolOutput, error) {
	return s.out.output, s.out.err
}

func echoInterface() tool.Interface {
	return tool.Interface{
		ID:      "echo",
		Version: "1",
		Runtime: tool.RuntimeSpec{Kind: tool.RuntimeNative},
	}
}

func TestDispatcherRoutesToRegisteredRuntime(t *testing.T) {
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register("core", echoInterface()))
	reg.Freeze()

	d := executor.NewDispatcher(reg)
	d.Register(tool.RuntimeNative, stubRuntime{out: ToolOutputOrErr{output: executor.ToolOutput{Outputs: map[string]any{"ok": true}}}})

	out, err := d.Dispatch(context.Background(), executor.ToolInput{ToolRef: "core/echo@1"})
	require.NoError(t, err)
	require.Equal(t, true, out.Outputs["ok"])
}

func TestDispatcherUnknownToolRef(t *testing.T) {
	reg := tool.NewRegistry()
	reg.Freeze()
	d := executor.NewDispatcher(reg)

	_, err := d.Dispatch(context.Background(), executor.ToolInput{ToolRef: "core/missing@1"})
	require.Error(t, err)
	var dispatchErr *executor.Error
	require.ErrorAs(t, err, &dispatchErr)
	require.Equal(t, "ToolNotFound", dispatchErr.Code)
}

func TestDispatcherUnregisteredRuntimeKind(t *testing.T) {
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register("core", echoInterface()))
	reg.Freeze()

	d := executor.NewDispatcher(reg)
	_, err := d.Dispatch(context.Background(), executor.ToolInput{ToolRef: "core/echo@1"})
	require.Error(t, err)
	var dispatchErr *executor.Error
	require.ErrorAs(t, err, &dispatchErr)
	require.Equal(t, "RuntimeUnavailable", dispatchErr.Code)
}

func TestDispatcherMarksRetryableFromErrorModel(t *testing.T) {
	iface := echoInterface()
	iface.ErrorModel = tool.ErrorModel{
		Codes: []tool.ErrorCodeSpec{{Code: "RATE_LIMITED", Retryable: true}},
	}

	reg := tool.NewRegistry()
	require.NoError(t, reg.Register("core", iface))
	reg.Freeze()

	d := executor.NewDispatcher(reg)
	d.Register(tool.RuntimeNative, stubRuntime{out: ToolOutputOrErr{err: &graph.DispatchError{Code: "RATE_LIMITED", Message: "slow down"}}})

	_, err := d.Dispatch(context.Background(), executor.ToolInput{ToolRef: "core/echo@1"})
	require.Error(t, err)
	var dispatchErr *executor.Error
	require.ErrorAs(t, err, &dispatchErr)
	require.True(t, dispatchErr.Retryable)
}

func TestRegistryResolveRangePicksHighestVersion(t *testing.T) {
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register("core", tool.Interface{ID: "echo", Version: "1.0.0", Runtime: tool.RuntimeSpec{Kind: tool.RuntimeNative}}))
	require.NoError(t, reg.Register("core", tool.Interface{ID: "echo", Version: "1.2.0", Runtime: tool.RuntimeSpec{Kind: tool.RuntimeNative}}))
	reg.Freeze()

	iface, ok := reg.ResolveRange("core", "echo", "1")
	require.True(t, ok)
	require.Equal(t, "1.2.0", iface.Version)
}
