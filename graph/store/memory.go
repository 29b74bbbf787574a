package store

import (
	"context"
	"sort"
	"sync"

	"github.com/dshills/workflow-engine/graph"
	"github.com/google/uuid"
)

// MemoryStore is an in-process TraceStore backed by a guarded map, useful
// for tests and single-process runs that don't need durability.
type MemoryStore struct {
	mu    sync.RWMutex
	spans map[uuid.UUID]graph.NodeSpan
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{spans: make(map[uuid.UUID]graph.NodeSpan)}
}

func (s *MemoryStore) InsertSpan(_ context.Context, span graph.NodeSpan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.spans[span.SpanID]; exists {
		return nil
	}
	s.spans[span.SpanID] = span
	return nil
}

func (s *MemoryStore) QuerySpansByExecution(_ context.Context, execID uuid.UUID) ([]graph.NodeSpan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []graph.NodeSpan
	for _, span := range s.spans {
		if span.ExecutionID == execID {
			out = append(out, span)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (s *MemoryStore) QuerySpan(_ context.Context, spanID uuid.UUID) (graph.NodeSpan, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	span, ok := s.spans[spanID]
	return span, ok, nil
}

func (s *MemoryStore) Close() error { return nil }
