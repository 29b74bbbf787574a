package graph_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dshills/workflow-engine/graph"
	"github.com/dshills/workflow-engine/graph/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeDispatcher routes by ToolInput.ToolRef to a registered handler, and
// counts how many times each ref was actually dispatched (as opposed to
// served from cache).
type fakeDispatcher struct {
	mu       sync.Mutex
	handlers map[string]func(graph.ToolInput) (graph.ToolOutput, error)
	calls    map[string]int
	meta     map[string]graph.ToolMeta
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{
		handlers: make(map[string]func(graph.ToolInput) (graph.ToolOutput, error)),
		calls:    make(map[string]int),
		meta:     make(map[string]graph.ToolMeta),
	}
}

func (f *fakeDispatcher) on(ref string, h func(graph.ToolInput) (graph.ToolOutput, error)) {
	f.handlers[ref] = h
}

// setMeta declares ref's cache/retry-relevant ToolMeta, mirroring what a
// real Dispatcher resolves from the tool's registered Interface.
func (f *fakeDispatcher) setMeta(ref string, meta graph.ToolMeta) {
	f.meta[ref] = meta
}

func (f *fakeDispatcher) callCount(ref string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[ref]
}

func (f *fakeDispatcher) Dispatch(_ context.Context, input graph.ToolInput) (graph.ToolOutput, error) {
	f.mu.Lock()
	f.calls[input.ToolRef]++
	f.mu.Unlock()

	h, ok := f.handlers[input.ToolRef]
	if !ok {
		return graph.ToolOutput{}, &graph.DispatchError{Code: "UNKNOWN_TOOL", Message: "no handler for " + input.ToolRef}
	}
	return h(input)
}

// ToolMeta reports the meta registered via setMeta, or ok=false for a ref
// never declared — the same "unresolved" shape a real Dispatcher reports
// for a tool_ref missing from its registry.
func (f *fakeDispatcher) ToolMeta(ref string) (graph.ToolMeta, bool) {
	m, ok := f.meta[ref]
	return m, ok
}

func echoHandler(port string) func(graph.ToolInput) (graph.ToolOutput, error) {
	return func(input graph.ToolInput) (graph.ToolOutput, error) {
		return graph.ToolOutput{Outputs: map[string]any{port: input.Inputs[port]}}, nil
	}
}

func TestRunLinearChain(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.on("core-tools/a@1", func(graph.ToolInput) (graph.ToolOutput, error) {
		return graph.ToolOutput{Outputs: map[string]any{"out": "from-a"}}, nil
	})
	dispatcher.on("core-tools/b@1", func(input graph.ToolInput) (graph.ToolOutput, error) {
		return graph.ToolOutput{Outputs: map[string]any{"out": input.Inputs["in"].(string) + "-b"}}, nil
	})
	dispatcher.on("core-tools/c@1", func(input graph.ToolInput) (graph.ToolOutput, error) {
		return graph.ToolOutput{Outputs: map[string]any{"out": input.Inputs["in"].(string) + "-c"}}, nil
	})

	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "a", ToolRef: "core-tools/a@1"}},
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "b", ToolRef: "core-tools/b@1"}},
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "c", ToolRef: "core-tools/c@1"}},
		},
		Edges: []graph.EdgeSpec{
			dataEdge("a", "out", "b", "in"),
			dataEdge("b", "out", "c", "in"),
		},
	}

	record, err := graph.Run(context.Background(), uuid.New(), spec, dispatcher)
	require.NoError(t, err)
	require.Equal(t, graph.ExecutionCompleted, record.Status)
	require.Equal(t, 3, record.TotalNodes)
	require.Equal(t, 3, record.CompletedNodes)
	require.Equal(t, 0, record.FailedNodes)
}

func TestRunDiamond(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.on("core-tools/a@1", func(graph.ToolInput) (graph.ToolOutput, error) {
		return graph.ToolOutput{Outputs: map[string]any{"out": "seed"}}, nil
	})
	dispatcher.on("core-tools/b@1", echoHandler("in"))
	dispatcher.on("core-tools/c@1", echoHandler("in"))
	dispatcher.on("core-tools/d@1", func(input graph.ToolInput) (graph.ToolOutput, error) {
		return graph.ToolOutput{Outputs: map[string]any{"merged": []any{input.Inputs["in_b"], input.Inputs["in_c"]}}}, nil
	})

	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "a", ToolRef: "core-tools/a@1"}},
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "b", ToolRef: "core-tools/b@1"}},
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "c", ToolRef: "core-tools/c@1"}},
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "d", ToolRef: "core-tools/d@1"}},
		},
		Edges: []graph.EdgeSpec{
			dataEdge("a", "out", "b", "in"),
			dataEdge("a", "out", "c", "in"),
			dataEdge("b", "out", "d", "in_b"),
			dataEdge("c", "out", "d", "in_c"),
		},
	}

	record, err := graph.Run(context.Background(), uuid.New(), spec, dispatcher)
	require.NoError(t, err)
	require.Equal(t, graph.ExecutionCompleted, record.Status)
	require.Equal(t, 4, record.CompletedNodes)
}

func TestRunCacheHitSkipsDispatch(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.on("core-tools/echo@1", echoHandler("msg"))
	dispatcher.setMeta("core-tools/echo@1", graph.ToolMeta{Idempotent: true})

	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{
				ID: "e", ToolRef: "core-tools/echo@1",
				Cache: &graph.CachePolicy{Enabled: true},
			}},
		},
	}
	memCache := cache.NewMemoryCache()

	record, err := graph.Run(context.Background(), uuid.New(), spec, dispatcher, graph.WithCache(memCache))
	require.NoError(t, err)
	require.Equal(t, graph.ExecutionCompleted, record.Status)
	require.Equal(t, 0, record.CacheHits)
	require.Equal(t, 1, dispatcher.callCount("core-tools/echo@1"))

	record, err = graph.Run(context.Background(), uuid.New(), spec, dispatcher, graph.WithCache(memCache))
	require.NoError(t, err)
	require.Equal(t, 1, record.CacheHits)
	require.Equal(t, 1, dispatcher.callCount("core-tools/echo@1"), "second run must be served from cache, not re-dispatched")
}

func TestRunNonIdempotentToolNeverServedFromCache(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.on("core-tools/sideeffect@1", echoHandler("msg"))
	dispatcher.setMeta("core-tools/sideeffect@1", graph.ToolMeta{Idempotent: false})

	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{
				ID: "s", ToolRef: "core-tools/sideeffect@1",
				Cache: &graph.CachePolicy{Enabled: true},
			}},
		},
	}
	memCache := cache.NewMemoryCache()

	record, err := graph.Run(context.Background(), uuid.New(), spec, dispatcher, graph.WithCache(memCache))
	require.NoError(t, err)
	require.Equal(t, 0, record.CacheHits)
	require.Equal(t, 1, dispatcher.callCount("core-tools/sideeffect@1"))

	record, err = graph.Run(context.Background(), uuid.New(), spec, dispatcher, graph.WithCache(memCache))
	require.NoError(t, err)
	require.Equal(t, 0, record.CacheHits)
	require.Equal(t, 2, dispatcher.callCount("core-tools/sideeffect@1"),
		"a tool not declared idempotent must be redispatched even with node-level cache enabled")
}

func TestRunRetryUsesToolDeclaredDefaultWhenNodeHasNoOverride(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.on("core-tools/flaky-default@1", func(graph.ToolInput) (graph.ToolOutput, error) {
		return graph.ToolOutput{}, &graph.DispatchError{Code: "TRANSIENT", Message: "boom", Retryable: true}
	})
	dispatcher.setMeta("core-tools/flaky-default@1", graph.ToolMeta{
		DefaultRetry: &graph.RetryPolicy{MaxRetries: 1, BackoffMS: 1, BackoffMultiplier: 1.0, MaxBackoffMS: 5},
	})

	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "h", ToolRef: "core-tools/flaky-default@1"}},
		},
	}

	record, err := graph.Run(context.Background(), uuid.New(), spec, dispatcher)
	require.Error(t, err)
	require.Equal(t, graph.ExecutionFailed, record.Status)
	require.Equal(t, 2, dispatcher.callCount("core-tools/flaky-default@1"),
		"one initial attempt plus the tool's declared single retry, not the global default of 3")
}

func TestRunRetryExhaustion(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.on("core-tools/flaky@1", func(graph.ToolInput) (graph.ToolOutput, error) {
		return graph.ToolOutput{}, &graph.DispatchError{Code: "TRANSIENT", Message: "boom", Retryable: true}
	})

	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{
				ID: "f", ToolRef: "core-tools/flaky@1",
				Retry: &graph.RetryPolicy{MaxRetries: 2, BackoffMS: 1, BackoffMultiplier: 1.0, MaxBackoffMS: 5},
			}},
		},
	}

	record, err := graph.Run(context.Background(), uuid.New(), spec, dispatcher)
	require.Error(t, err)
	require.Equal(t, graph.ExecutionFailed, record.Status)
	require.Equal(t, 1, record.FailedNodes)
	require.Equal(t, 3, dispatcher.callCount("core-tools/flaky@1"), "one initial attempt plus two retries")
}

func TestRunRetryNonRetryableFailsFast(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.on("core-tools/broken@1", func(graph.ToolInput) (graph.ToolOutput, error) {
		return graph.ToolOutput{}, &graph.DispatchError{Code: "FATAL", Message: "nope", Retryable: false}
	})

	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{
				ID: "g", ToolRef: "core-tools/broken@1",
				Retry: &graph.RetryPolicy{MaxRetries: 5, BackoffMS: 1, BackoffMultiplier: 1.0},
			}},
		},
	}

	_, err := graph.Run(context.Background(), uuid.New(), spec, dispatcher)
	require.Error(t, err)
	require.Equal(t, 1, dispatcher.callCount("core-tools/broken@1"))
}

func TestRunConditionalBranchSelection(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.on("core-tools/slow-path@1", func(graph.ToolInput) (graph.ToolOutput, error) {
		return graph.ToolOutput{Outputs: map[string]any{"taken": "slow"}}, nil
	})
	dispatcher.on("core-tools/fast-path@1", func(graph.ToolInput) (graph.ToolOutput, error) {
		return graph.ToolOutput{Outputs: map[string]any{"taken": "fast"}}, nil
	})

	dispatcher.on("core-tools/status@1", func(graph.ToolInput) (graph.ToolOutput, error) {
		return graph.ToolOutput{Outputs: map[string]any{"status": "slow"}}, nil
	})

	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "status_src", ToolRef: "core-tools/status@1"}},
			{
				Kind: graph.NodeConditional,
				Conditional: &graph.ConditionalNode{
					ID:        "branch",
					Kind:      graph.CondIf,
					Condition: "$.status",
					Branches: []graph.Branch{
						{Label: "slow", Value: []byte(`"slow"`), Body: graph.SubgraphSpec{
							Nodes: []graph.NodeEntry{{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "slow_node", ToolRef: "core-tools/slow-path@1"}}},
						}},
						{Label: "fast", Value: []byte(`"fast"`), Body: graph.SubgraphSpec{
							Nodes: []graph.NodeEntry{{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "fast_node", ToolRef: "core-tools/fast-path@1"}}},
						}},
					},
				},
			},
		},
		Edges: []graph.EdgeSpec{
			dataEdge("status_src", "status", "branch", "status"),
		},
	}

	var branchOutput map[string]any
	record, err := graph.Run(context.Background(), uuid.New(), spec, dispatcher, graph.WithStatusCallback(func(evt graph.StatusEvent) {
		if evt.NodeID == "branch" && evt.Status == graph.StatusCompleted {
			branchOutput, _ = evt.Output.(map[string]any)
		}
	}))
	require.NoError(t, err)
	require.Equal(t, graph.ExecutionCompleted, record.Status)
	require.Equal(t, 0, dispatcher.callCount("core-tools/fast-path@1"))
	require.Equal(t, "slow", branchOutput["taken"])
}

func TestRunForEachLoop(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.on("core-tools/items@1", func(graph.ToolInput) (graph.ToolOutput, error) {
		return graph.ToolOutput{Outputs: map[string]any{"items": []any{float64(1), float64(2), float64(3)}}}, nil
	})
	dispatcher.on("core-tools/double@1", func(input graph.ToolInput) (graph.ToolOutput, error) {
		n, _ := input.Inputs["item"].(float64)
		return graph.ToolOutput{Outputs: map[string]any{"doubled": n * 2}}, nil
	})

	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "items_src", ToolRef: "core-tools/items@1"}},
			{
				Kind: graph.NodeLoop,
				Loop: &graph.LoopNode{
					ID:            "double_each",
					Kind:          graph.LoopForEach,
					Items:         "$.items",
					MaxIterations: 10,
					Body: graph.SubgraphSpec{
						Nodes: []graph.NodeEntry{{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "d", ToolRef: "core-tools/double@1"}}},
					},
				},
			},
		},
		Edges: []graph.EdgeSpec{
			dataEdge("items_src", "items", "double_each", "items"),
		},
	}

	var finalOutput map[string]any
	record, err := graph.Run(context.Background(), uuid.New(), spec, dispatcher, graph.WithStatusCallback(func(evt graph.StatusEvent) {
		if evt.NodeID == "double_each" && evt.Status == graph.StatusCompleted {
			finalOutput, _ = evt.Output.(map[string]any)
		}
	}))
	require.NoError(t, err)
	require.Equal(t, graph.ExecutionCompleted, record.Status)
	require.Equal(t, 3, dispatcher.callCount("core-tools/double@1"))
	require.Equal(t, 3, finalOutput["iterations"])
}

func TestRunCancellation(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.on("core-tools/a@1", func(graph.ToolInput) (graph.ToolOutput, error) {
		return graph.ToolOutput{Outputs: map[string]any{"out": "x"}}, nil
	})

	spec := &graph.WorkflowSpec{
		Nodes: []graph.NodeEntry{
			{Kind: graph.NodePrimitive, Primitive: &graph.PrimitiveNode{ID: "a", ToolRef: "core-tools/a@1"}},
		},
	}

	record, err := graph.Run(context.Background(), uuid.New(), spec, dispatcher, graph.WithCancellation(func() bool { return true }))
	require.ErrorIs(t, err, graph.ErrCancelled)
	require.Equal(t, graph.ExecutionCancelled, record.Status)
}
