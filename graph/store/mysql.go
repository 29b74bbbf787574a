package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dshills/workflow-engine/graph"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// MySQLStore is a TraceStore backed by MySQL, for deployments that want the
// Trace Store shared across multiple scheduler processes.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens dsn and ensures the spans schema exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open mysql: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS spans (
			span_id      VARCHAR(36) PRIMARY KEY,
			execution_id VARCHAR(36) NOT NULL,
			node_id      VARCHAR(255) NOT NULL,
			tool_ref     VARCHAR(255),
			input        MEDIUMTEXT,
			output       MEDIUMTEXT,
			config       MEDIUMTEXT,
			started_at   VARCHAR(40) NOT NULL,
			completed_at VARCHAR(40),
			duration_ms  BIGINT NOT NULL DEFAULT 0,
			status       VARCHAR(32) NOT NULL,
			error        TEXT,
			cache_hit    TINYINT NOT NULL DEFAULT 0,
			environment  TEXT,
			INDEX idx_spans_execution (execution_id),
			INDEX idx_spans_node (node_id)
		)
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	return nil
}

func (s *MySQLStore) InsertSpan(ctx context.Context, span graph.NodeSpan) error {
	environment, err := json.Marshal(span.Environment)
	if err != nil {
		return fmt.Errorf("store: marshal environment: %w", err)
	}

	const stmt = `
		INSERT INTO spans (span_id, execution_id, node_id, tool_ref, input, output, config,
			started_at, completed_at, duration_ms, status, error, cache_hit, environment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE span_id = span_id
	`
	_, err = s.db.ExecContext(ctx, stmt,
		span.SpanID.String(), span.ExecutionID.String(), span.NodeID, span.ToolRef,
		nullableRaw(span.Input), nullableRaw(span.Output), nullableRaw(span.Config),
		span.StartedAt.Format(timeLayout), formatCompletedAt(span),
		span.DurationMS, string(span.Status), span.Error, boolToInt(span.CacheHit), string(environment),
	)
	if err != nil {
		return fmt.Errorf("store: insert span: %w", err)
	}
	return nil
}

func (s *MySQLStore) QuerySpansByExecution(ctx context.Context, execID uuid.UUID) ([]graph.NodeSpan, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT span_id, execution_id, node_id, tool_ref, input, output, config, started_at, completed_at, duration_ms, status, error, cache_hit, environment FROM spans WHERE execution_id = ? ORDER BY started_at ASC",
		execID.String())
	if err != nil {
		return nil, fmt.Errorf("store: query spans: %w", err)
	}
	defer rows.Close()

	var out []graph.NodeSpan
	for rows.Next() {
		span, err := scanSpan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, span)
	}
	return out, rows.Err()
}

func (s *MySQLStore) QuerySpan(ctx context.Context, spanID uuid.UUID) (graph.NodeSpan, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT span_id, execution_id, node_id, tool_ref, input, output, config, started_at, completed_at, duration_ms, status, error, cache_hit, environment FROM spans WHERE span_id = ?",
		spanID.String())
	span, err := scanSpan(row)
	if err == sql.ErrNoRows {
		return graph.NodeSpan{}, false, nil
	}
	if err != nil {
		return graph.NodeSpan{}, false, fmt.Errorf("store: query span: %w", err)
	}
	return span, true, nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
