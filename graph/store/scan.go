package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/dshills/workflow-engine/graph"
	"github.com/google/uuid"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpan(row rowScanner) (graph.NodeSpan, error) {
	var (
		spanID, execID                      string
		nodeID                              string
		toolRef, input, output, config      sql.NullString
		startedAt                           string
		completedAt                         sql.NullString
		durationMS                          int64
		status                              string
		errStr                              sql.NullString
		cacheHit                            int
		environment                         sql.NullString
	)
	if err := row.Scan(&spanID, &execID, &nodeID, &toolRef, &input, &output, &config,
		&startedAt, &completedAt, &durationMS, &status, &errStr, &cacheHit, &environment); err != nil {
		return graph.NodeSpan{}, err
	}

	span := graph.NodeSpan{
		SpanID:     uuid.MustParse(spanID),
		NodeID:     nodeID,
		ToolRef:    toolRef.String,
		Input:      json.RawMessage(input.String),
		Output:     json.RawMessage(output.String),
		Config:     json.RawMessage(config.String),
		DurationMS: durationMS,
		Status:     graph.NodeStatus(status),
		Error:      errStr.String,
		CacheHit:   cacheHit != 0,
	}
	if parsed, err := uuid.Parse(execID); err == nil {
		span.ExecutionID = parsed
	}
	if t, err := time.Parse(timeLayout, startedAt); err == nil {
		span.StartedAt = t
	}
	if completedAt.Valid {
		if t, err := time.Parse(timeLayout, completedAt.String); err == nil {
			span.CompletedAt = t
		}
	}
	if environment.Valid {
		_ = json.Unmarshal([]byte(environment.String), &span.Environment)
	}
	return span, nil
}

func formatCompletedAt(span graph.NodeSpan) any {
	if span.CompletedAt.IsZero() {
		return nil
	}
	return span.CompletedAt.Format(timeLayout)
}

func nullableRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
