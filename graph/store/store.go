// Package store provides the Trace Store described in spec.md §4.8: a
// single relational table, keyed by span UUID and indexed by execution UUID
// and node id, with exactly-once insert semantics.
package store

import (
	"context"

	"github.com/dshills/workflow-engine/graph"
	"github.com/google/uuid"
)

// TraceStore persists NodeSpans produced during a run.
type TraceStore interface {
	// InsertSpan appends span. Calling it twice with the same SpanID leaves
	// exactly one row.
	InsertSpan(ctx context.Context, span graph.NodeSpan) error
	// QuerySpansByExecution returns every span for execID, ordered by
	// StartedAt ascending.
	QuerySpansByExecution(ctx context.Context, execID uuid.UUID) ([]graph.NodeSpan, error)
	// QuerySpan returns the span with the given id, or ok=false if absent.
	QuerySpan(ctx context.Context, spanID uuid.UUID) (graph.NodeSpan, bool, error)
	// Close releases any underlying resources.
	Close() error
}
