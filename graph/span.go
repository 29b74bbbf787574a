package graph

import (
	"encoding/json"
	"runtime"
	"time"

	"github.com/google/uuid"
)

// NodeStatus is the lifecycle status of one node execution attempt.
type NodeStatus string

const (
	StatusPending   NodeStatus = "pending"
	StatusRunning   NodeStatus = "running"
	StatusCompleted NodeStatus = "completed"
	StatusFailed    NodeStatus = "failed"
	StatusSkipped   NodeStatus = "skipped"
	StatusCacheHit  NodeStatus = "cache_hit"
	StatusCancelled NodeStatus = "cancelled"
)

// ExecutionEnvironment records the platform a node ran under, recovered
// from the original Handbox trace schema (spec.md §3 names the field but
// does not elaborate it).
type ExecutionEnvironment struct {
	PlatformVersion string `json:"platform_version"`
	OSTag           string `json:"os_tag"`
	ToolVersion     string `json:"tool_version,omitempty"`
}

// CurrentExecutionEnvironment captures the running process's environment.
func CurrentExecutionEnvironment(toolVersion string) ExecutionEnvironment {
	return ExecutionEnvironment{
		PlatformVersion: runtime.Version(),
		OSTag:           runtime.GOOS,
		ToolVersion:     toolVersion,
	}
}

// NodeSpan is one persistent trace row for a single node execution attempt.
// Spans are created exactly once per attempt and are never mutated after
// insert.
type NodeSpan struct {
	SpanID      uuid.UUID             `json:"span_id"`
	ExecutionID uuid.UUID             `json:"execution_id"`
	NodeID      string                `json:"node_id"`
	ToolRef     string                `json:"tool_ref,omitempty"`
	Input       json.RawMessage       `json:"input,omitempty"`
	Output      json.RawMessage       `json:"output,omitempty"`
	Config      json.RawMessage       `json:"config,omitempty"`
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt time.Time             `json:"completed_at"`
	DurationMS  int64                 `json:"duration_ms"`
	Status      NodeStatus            `json:"status"`
	Error       string                `json:"error,omitempty"`
	CacheHit    bool                  `json:"cache_hit"`
	Environment ExecutionEnvironment  `json:"environment"`
}

// ExecutionStatus is the terminal status of one run.
type ExecutionStatus string

const (
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
	ExecutionCancelled ExecutionStatus = "cancelled"
)

// ExecutionRecord is a one-run summary: counts, status, and timings. It is
// always produced, even for aborted or cancelled runs.
type ExecutionRecord struct {
	ExecutionID   uuid.UUID       `json:"execution_id"`
	WorkflowID    uuid.UUID       `json:"workflow_id"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   time.Time       `json:"completed_at"`
	Status        ExecutionStatus `json:"status"`
	TotalNodes    int             `json:"total_nodes"`
	CompletedNodes int            `json:"completed_nodes"`
	FailedNodes   int             `json:"failed_nodes"`
	CacheHits     int             `json:"cache_hits"`
}

// StatusEvent is a streamed notification of one node's lifecycle
// transition, emitted to an optional callback during a run. This mirrors
// the original Handbox scheduler's NodeStatusEvent / StatusCallback
// pattern: a lightweight struct, not routed through the full Emitter bus,
// because hosts typically want raw node progress without the ambient
// logging/OTel machinery in the loop.
type StatusEvent struct {
	ExecutionID uuid.UUID  `json:"execution_id"`
	NodeID      string     `json:"node_id"`
	Status      NodeStatus `json:"status"`
	Output      any        `json:"output,omitempty"`
	Error       string     `json:"error,omitempty"`
	DurationMS  int64      `json:"duration_ms,omitempty"`
}

// StatusCallback receives StatusEvents. It must not block execution for
// long; callers that need durable delivery should buffer internally.
type StatusCallback func(StatusEvent)
