package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dshills/workflow-engine/graph"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a TraceStore backed by one SQLite file, WAL mode, with a
// single "spans" table per spec.md §4.8. Writes are serialized through mu
// since SQLite permits only one writer; the pool is capped at one open
// connection, so reads share that connection with writes.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (creating if absent) the database at path and
// ensures the spans schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS spans (
			span_id      TEXT PRIMARY KEY,
			execution_id TEXT NOT NULL,
			node_id      TEXT NOT NULL,
			tool_ref     TEXT,
			input        TEXT,
			output       TEXT,
			config       TEXT,
			started_at   TEXT NOT NULL,
			completed_at TEXT,
			duration_ms  INTEGER NOT NULL DEFAULT 0,
			status       TEXT NOT NULL,
			error        TEXT,
			cache_hit    INTEGER NOT NULL DEFAULT 0,
			environment  TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_spans_execution ON spans(execution_id);
		CREATE INDEX IF NOT EXISTS idx_spans_node ON spans(node_id);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertSpan(ctx context.Context, span graph.NodeSpan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	environment, err := json.Marshal(span.Environment)
	if err != nil {
		return fmt.Errorf("store: marshal environment: %w", err)
	}

	const stmt = `
		INSERT INTO spans (span_id, execution_id, node_id, tool_ref, input, output, config,
			started_at, completed_at, duration_ms, status, error, cache_hit, environment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(span_id) DO NOTHING
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

func (s *SQLiteStore) QuerySpansByExecution(ctx context.Context, execID uuid.UUID) ([]graph.NodeSpan, error) {
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

func (s *SQLiteStore) QuerySpan(ctx context.Context, spanID uuid.UUID) (graph.NodeSpan, bool, error) {
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
