// Package host implements the Host IPC command surface described in
// spec.md §6: one exported function per logical action (start/stop/resume a
// run, query an execution or its spans, save/load a spec, register/list
// tools). Every command accepts a JSON-tagged request struct and returns a
// JSON-tagged response or a structured *Error — no specific transport is
// assumed, mirroring the Tauri command handlers (hb-tauri/src/commands,
// Handbox/src-tauri/src/commands/workflow.rs) this is grounded on: each
// Tauri #[tauri::command] is one JSON-in/JSON-out entry point called over
// an IPC bridge the core itself never sees.
package host

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/workflow-engine/graph"
	"github.com/dshills/workflow-engine/graph/cache"
	"github.com/dshills/workflow-engine/graph/store"
	"github.com/dshills/workflow-engine/graph/tool"
	"github.com/google/uuid"
)

// Error is the structured error object every host command returns in place
// of a Go error, per spec.md §6 ("errors are reported as structured error
// objects with code and message").
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error codes returned in Error.Code.
const (
	CodeValidation   = "validation_error"
	CodeNotFound     = "not_found"
	CodeStorage      = "storage_error"
	CodeAlreadyExist = "already_exists"
)

// runHandle tracks one in-flight or completed execution.
type runHandle struct {
	startedAt time.Time
	cancelled atomic.Bool
	done      atomic.Bool
	record    graph.ExecutionRecord
	err       error
}

func (h *runHandle) isCancelled() bool { return h.cancelled.Load() }

// Host is the command surface's receiver: it holds every shared dependency
// a command needs (tool registry, dispatcher, cache, trace store, metrics)
// plus the workflow-file directory and the in-memory table of runs started
// since process start. A Host is safe for concurrent command calls.
type Host struct {
	Registry   *tool.Registry
	Dispatcher graph.Dispatcher
	Cache      cache.Cache
	Trace      store.TraceStore
	Metrics    *graph.Metrics
	SpecDir    string

	mu   sync.Mutex
	runs map[uuid.UUID]*runHandle
}

// New returns a Host. specDir is created if absent; it holds one JSON file
// per saved WorkflowSpec, named "<id>.json", per spec.md §6's persisted
// state layout.
func New(registry *tool.Registry, dispatcher graph.Dispatcher, c cache.Cache, trace store.TraceStore, metrics *graph.Metrics, specDir string) (*Host, error) {
	if err := os.MkdirAll(specDir, 0o750); err != nil {
		return nil, fmt.Errorf("host: create spec dir %s: %w", specDir, err)
	}
	return &Host{
		Registry:   registry,
		Dispatcher: dispatcher,
		Cache:      c,
		Trace:      trace,
		Metrics:    metrics,
		SpecDir:    specDir,
		runs:       make(map[uuid.UUID]*runHandle),
	}, nil
}

// StartRunRequest starts a new run of Spec. FailFast overrides the
// scheduler default (true) when non-nil.
type StartRunRequest struct {
	Spec     graph.WorkflowSpec `json:"spec"`
	FailFast *bool              `json:"fail_fast,omitempty"`
}

// StartRunResponse carries the execution id the caller polls with
// GetExecution / GetSpans.
type StartRunResponse struct {
	ExecutionID uuid.UUID `json:"execution_id"`
}

// StartRun validates req.Spec, then runs it to completion on a background
// goroutine. The call returns as soon as the run is scheduled, not when it
// finishes; callers poll GetExecution for the terminal ExecutionRecord.
func (h *Host) StartRun(ctx context.Context, req StartRunRequest) (StartRunResponse, *Error) {
	spec := req.Spec
	spec.Normalize()
	if err := graph.Validate(&spec); err != nil {
		return StartRunResponse{}, errf(CodeValidation, "%s", err.Error())
	}

	execID := uuid.New()
	handle := &runHandle{startedAt: time.Now().UTC()}
	h.mu.Lock()
	h.runs[execID] = handle
	h.mu.Unlock()

	opts := []graph.RunOption{
		graph.WithCancellation(handle.isCancelled),
	}
	if req.FailFast != nil {
		opts = append(opts, graph.WithFailFast(*req.FailFast))
	}
	if h.Cache != nil {
		opts = append(opts, graph.WithCache(h.Cache))
	}
	if h.Trace != nil {
		opts = append(opts, graph.WithTraceStore(h.Trace))
	}
	if h.Metrics != nil {
		opts = append(opts, graph.WithMetrics(h.Metrics))
	}

	go func() {
		record, err := graph.Run(context.Background(), execID, &spec, h.Dispatcher, opts...)
		handle.record = record
		handle.err = err
		handle.done.Store(true)
	}()

	return StartRunResponse{ExecutionID: execID}, nil
}

// StopRunRequest identifies the run to cancel.
type StopRunRequest struct {
	ExecutionID uuid.UUID `json:"execution_id"`
}

// StopRunResponse acknowledges a cancellation request; the run's terminal
// ExecutionRecord still arrives later via GetExecution, per spec.md §4.6's
// cooperative cancellation.
type StopRunResponse struct {
	Accepted bool `json:"accepted"`
}

// StopRun raises the cooperative cancellation flag consulted before each
// scheduling level. It does not itself wait for the run to stop.
func (h *Host) StopRun(req StopRunRequest) (StopRunResponse, *Error) {
	h.mu.Lock()
	handle, ok := h.runs[req.ExecutionID]
	h.mu.Unlock()
	if !ok {
		return StopRunResponse{}, errf(CodeNotFound, "no run with execution_id %s", req.ExecutionID)
	}
	handle.cancelled.Store(true)
	return StopRunResponse{Accepted: true}, nil
}

// ResumeRunRequest re-runs Spec, with ChangedNodes naming the node ids
// whose inputs or tool bindings the caller knows have changed since the
// prior run named by PreviousExecutionID.
type ResumeRunRequest struct {
	PreviousExecutionID uuid.UUID          `json:"previous_execution_id"`
	Spec                graph.WorkflowSpec `json:"spec"`
	ChangedNodes        []string           `json:"changed_nodes"`
	FailFast            *bool              `json:"fail_fast,omitempty"`
}

// ResumeRunResponse reports the new execution id plus the computed dirty
// set (per spec.md §4.7), so a caller can explain to a user which nodes are
// expected to actually re-execute rather than serve from cache.
type ResumeRunResponse struct {
	ExecutionID uuid.UUID `json:"execution_id"`
	DirtyNodes  []string  `json:"dirty_nodes"`
}

// ResumeRun computes the dirty set from ChangedNodes and starts a fresh
// run of Spec. Nodes outside the dirty set are expected to serve from the
// content-addressed Execution Cache rather than re-dispatch, so resume
// needs no separate code path in the scheduler itself.
func (h *Host) ResumeRun(ctx context.Context, req ResumeRunRequest) (ResumeRunResponse, *Error) {
	spec := req.Spec
	spec.Normalize()

	changed := make(map[string]bool, len(req.ChangedNodes))
	for _, id := range req.ChangedNodes {
		changed[id] = true
	}
	dirty := graph.ComputeDirtySet(&spec, changed)

	started, err := h.StartRun(ctx, StartRunRequest{Spec: spec, FailFast: req.FailFast})
	if err != nil {
		return ResumeRunResponse{}, err
	}

	dirtyIDs := make([]string, 0, len(dirty))
	for id := range dirty {
		dirtyIDs = append(dirtyIDs, id)
	}
	sort.Strings(dirtyIDs)

	return ResumeRunResponse{ExecutionID: started.ExecutionID, DirtyNodes: dirtyIDs}, nil
}

// GetExecutionRequest identifies the run to report on.
type GetExecutionRequest struct {
	ExecutionID uuid.UUID `json:"execution_id"`
}

// GetExecution returns the run's ExecutionRecord. While the run is still
// in flight, Status is ExecutionRunning and the node counts are zero; the
// caller should prefer streaming status via a StatusCallback when one is
// available and only poll GetExecution for the terminal record.
func (h *Host) GetExecution(req GetExecutionRequest) (graph.ExecutionRecord, *Error) {
	h.mu.Lock()
	handle, ok := h.runs[req.ExecutionID]
	h.mu.Unlock()
	if !ok {
		return graph.ExecutionRecord{}, errf(CodeNotFound, "no run with execution_id %s", req.ExecutionID)
	}
	if !handle.done.Load() {
		return graph.ExecutionRecord{
			ExecutionID: req.ExecutionID,
			StartedAt:   handle.startedAt,
			Status:      graph.ExecutionRunning,
		}, nil
	}
	if handle.err != nil {
		return handle.record, errf(CodeValidation, "%s", handle.err.Error())
	}
	return handle.record, nil
}

// GetSpansRequest identifies the run whose spans are requested.
type GetSpansRequest struct {
	ExecutionID uuid.UUID `json:"execution_id"`
}

// GetSpansResponse carries every span recorded for the run, in start order.
type GetSpansResponse struct {
	Spans []graph.NodeSpan `json:"spans"`
}

// GetSpans returns the Trace Store's rows for one execution.
func (h *Host) GetSpans(ctx context.Context, req GetSpansRequest) (GetSpansResponse, *Error) {
	if h.Trace == nil {
		return GetSpansResponse{}, errf(CodeStorage, "no trace store configured")
	}
	spans, err := h.Trace.QuerySpansByExecution(ctx, req.ExecutionID)
	if err != nil {
		return GetSpansResponse{}, errf(CodeStorage, "%s", err.Error())
	}
	return GetSpansResponse{Spans: spans}, nil
}

// GetSpanRequest identifies a single span.
type GetSpanRequest struct {
	SpanID uuid.UUID `json:"span_id"`
}

// GetSpan returns one span by id.
func (h *Host) GetSpan(ctx context.Context, req GetSpanRequest) (graph.NodeSpan, *Error) {
	if h.Trace == nil {
		return graph.NodeSpan{}, errf(CodeStorage, "no trace store configured")
	}
	span, ok, err := h.Trace.QuerySpan(ctx, req.SpanID)
	if err != nil {
		return graph.NodeSpan{}, errf(CodeStorage, "%s", err.Error())
	}
	if !ok {
		return graph.NodeSpan{}, errf(CodeNotFound, "no span with span_id %s", req.SpanID)
	}
	return span, nil
}

// SaveSpecRequest carries the spec to persist. If Spec.ID is the zero UUID,
// SaveSpec assigns a fresh one.
type SaveSpecRequest struct {
	Spec graph.WorkflowSpec `json:"spec"`
}

// SaveSpecResponse reports where the spec landed.
type SaveSpecResponse struct {
	WorkflowID uuid.UUID `json:"workflow_id"`
	Path       string    `json:"path"`
}

// SaveSpec writes req.Spec as "<id>.json" under the Host's spec directory,
// per spec.md §6's "Workflow files: a UUID-named JSON object conforming to
// WorkflowSpec".
func (h *Host) SaveSpec(req SaveSpecRequest) (SaveSpecResponse, *Error) {
	spec := req.Spec
	if spec.ID == uuid.Nil {
		spec.ID = uuid.New()
	}
	spec.Normalize()
	if err := graph.ValidateMetadata(&spec); err != nil {
		return SaveSpecResponse{}, errf(CodeValidation, "%s", err.Error())
	}
	path := h.specPath(spec.ID)
	if err := graph.SaveSpecJSON(path, spec); err != nil {
		return SaveSpecResponse{}, errf(CodeStorage, "%s", err.Error())
	}
	return SaveSpecResponse{WorkflowID: spec.ID, Path: path}, nil
}

// LoadSpecRequest identifies the spec to load.
type LoadSpecRequest struct {
	WorkflowID uuid.UUID `json:"workflow_id"`
}

// LoadSpec reads the spec named WorkflowID from the Host's spec directory.
func (h *Host) LoadSpec(req LoadSpecRequest) (graph.WorkflowSpec, *Error) {
	path := h.specPath(req.WorkflowID)
	if _, err := os.Stat(path); err != nil {
		return graph.WorkflowSpec{}, errf(CodeNotFound, "no workflow with id %s", req.WorkflowID)
	}
	spec, err := graph.LoadSpecJSON(path)
	if err != nil {
		return graph.WorkflowSpec{}, errf(CodeStorage, "%s", err.Error())
	}
	return spec, nil
}

// ListSpecsResponse enumerates every saved workflow id.
type ListSpecsResponse struct {
	WorkflowIDs []uuid.UUID `json:"workflow_ids"`
}

// ListSpecs lists every spec saved under the Host's spec directory.
func (h *Host) ListSpecs() (ListSpecsResponse, *Error) {
	entries, err := os.ReadDir(h.SpecDir)
	if err != nil {
		return ListSpecsResponse{}, errf(CodeStorage, "%s", err.Error())
	}
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ListSpecsResponse{WorkflowIDs: ids}, nil
}

func (h *Host) specPath(id uuid.UUID) string {
	return filepath.Join(h.SpecDir, id.String()+".json")
}

// RegisterToolRequest registers one tool interface under a pack id.
type RegisterToolRequest struct {
	PackID string         `json:"pack_id"`
	Tool   tool.Interface `json:"tool"`
}

// RegisterToolResponse reports the fully-qualified tool_ref assigned.
type RegisterToolResponse struct {
	ToolRef string `json:"tool_ref"`
}

// RegisterTool adds req.Tool to the Host's registry under req.PackID.
func (h *Host) RegisterTool(req RegisterToolRequest) (RegisterToolResponse, *Error) {
	if err := h.Registry.Register(req.PackID, req.Tool); err != nil {
		return RegisterToolResponse{}, errf(CodeAlreadyExist, "%s", err.Error())
	}
	return RegisterToolResponse{ToolRef: req.Tool.FullRef(req.PackID)}, nil
}

// ListToolsResponse enumerates every registered tool_ref.
type ListToolsResponse struct {
	ToolRefs []string `json:"tool_refs"`
}

// ListTools lists every tool_ref registered with the Host's registry.
func (h *Host) ListTools() ListToolsResponse {
	return ListToolsResponse{ToolRefs: h.Registry.Refs()}
}
