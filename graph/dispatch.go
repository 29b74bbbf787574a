package graph

import "context"

// ToolInput is the stable contract the Runner passes to the Executor
// Dispatcher for one tool invocation (spec.md §4.5).
type ToolInput struct {
	ToolRef string         `json:"tool_ref"`
	Inputs  map[string]any `json:"inputs"`
	Config  map[string]any `json:"config"`
}

// ToolOutput is the stable contract the Executor Dispatcher returns on
// success.
type ToolOutput struct {
	Outputs    map[string]any `json:"outputs"`
	DurationMS int64          `json:"duration_ms"`
}

// ToolMeta is the subset of a tool's declared Interface the Runner must
// consult before it ever calls Dispatch: whether a result may be served
// from the Execution Cache at all, and the retry tier to fall back to
// when a node declares no RetryPolicy of its own (§4.3, §4.4). The graph
// package never imports package tool, so this is its own minimal copy of
// the fields it needs rather than the tool.Interface itself.
type ToolMeta struct {
	Idempotent   bool
	DefaultRetry *RetryPolicy
}

// DispatchError is a typed executor failure, carrying the tool-declared
// error code when known so the Retry Engine can decide retryability.
// Retryable is resolved by the executor against the tool's ErrorModel
// before the error reaches the scheduler, which never inspects tool
// metadata itself.
type DispatchError struct {
	Code      string
	Message   string
	Cause     error
	Retryable bool
}

func (e *DispatchError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

func (e *DispatchError) Unwrap() error { return e.Cause }

// Dispatcher routes a ToolInput to its concrete runtime and returns a
// ToolOutput or a *DispatchError. Implemented by graph/executor.Dispatcher;
// declared here (rather than imported) so the scheduler has no dependency
// on the executor package's own registry/runtime wiring.
type Dispatcher interface {
	Dispatch(ctx context.Context, input ToolInput) (ToolOutput, error)

	// ToolMeta resolves toolRef against the dispatcher's registry without
	// dispatching it, so the Runner can gate cache lookups and resolve the
	// tool-default retry tier before deciding whether to call Dispatch at
	// all. ok is false for an unresolved toolRef; the Runner then falls
	// back to cache-disabled, global-default-retry behavior.
	ToolMeta(toolRef string) (ToolMeta, bool)
}
