package graph

import (
	"time"

	"github.com/dshills/workflow-engine/graph/cache"
	"github.com/dshills/workflow-engine/graph/emit"
	"github.com/dshills/workflow-engine/graph/store"
)

// RunOption configures one call to Run. This is the "ExecutionContext
// builder pattern" named in the original scheduler: rather than a struct of
// optional fields, each concern is an independently composable functional
// option, in the style of the teacher's engine Option.
type RunOption func(*runConfig) error

// runConfig collects every RunOption before Run begins scheduling.
type runConfig struct {
	failFast     bool
	statusFn     StatusCallback
	cache        cache.Cache
	traceStore   store.TraceStore
	cancelled    func() bool
	mcpTimeout   time.Duration
	metrics      *Metrics
}

func defaultRunConfig() runConfig {
	return runConfig{
		failFast:   true,
		mcpTimeout: 30 * time.Second,
		cancelled:  func() bool { return false },
	}
}

// WithFailFast overrides the default fail_fast=true behavior described in
// spec.md §4.6.
func WithFailFast(failFast bool) RunOption {
	return func(c *runConfig) error {
		c.failFast = failFast
		return nil
	}
}

// WithStatusCallback installs a StatusCallback invoked for every node
// lifecycle transition.
func WithStatusCallback(fn StatusCallback) RunOption {
	return func(c *runConfig) error {
		c.statusFn = fn
		return nil
	}
}

// WithCache installs the Execution Cache backend. Primitive nodes with
// caching enabled consult it before dispatch.
func WithCache(c cache.Cache) RunOption {
	return func(cfg *runConfig) error {
		cfg.cache = c
		return nil
	}
}

// WithTraceStore installs the Trace Store every span is persisted to.
func WithTraceStore(s store.TraceStore) RunOption {
	return func(cfg *runConfig) error {
		cfg.traceStore = s
		return nil
	}
}

// WithCancellation installs the cooperative cancellation flag checked
// before each scheduling level, per spec.md §4.6.
func WithCancellation(cancelled func() bool) RunOption {
	return func(c *runConfig) error {
		if cancelled != nil {
			c.cancelled = cancelled
		}
		return nil
	}
}

// WithMcpDialTimeout bounds how long each dispatch attempt of a Primitive
// node may take, whatever the tool's runtime. An attempt that runs past it
// fails with code Timeout and is retried under the node's retry policy.
func WithMcpDialTimeout(d time.Duration) RunOption {
	return func(c *runConfig) error {
		if d > 0 {
			c.mcpTimeout = d
		}
		return nil
	}
}

// WithMetrics attaches a Prometheus Metrics collector to the run.
func WithMetrics(m *Metrics) RunOption {
	return func(c *runConfig) error {
		c.metrics = m
		return nil
	}
}

// statusEventToEmitEvent lets the run optionally mirror status events onto an
// emit.Emitter (log/otel/buffered) for ambient observability, distinct from
// the lightweight StatusCallback the scheduler always has.
func statusEventToEmitEvent(evt StatusEvent) emit.Event {
	meta := map[string]interface{}{"status": string(evt.Status)}
	if evt.DurationMS > 0 {
		meta["duration_ms"] = evt.DurationMS
	}
	if evt.Error != "" {
		meta["error"] = evt.Error
	}
	return emit.Event{
		ExecutionID: evt.ExecutionID.String(),
		NodeID:      evt.NodeID,
		Msg:         "node_" + string(evt.Status),
		Meta:        meta,
	}
}

// WithEmitter bridges an emit.Emitter into the run's StatusCallback chain,
// composing with any StatusCallback already installed.
func WithEmitter(emitter emit.Emitter) RunOption {
	return func(c *runConfig) error {
		prev := c.statusFn
		c.statusFn = func(evt StatusEvent) {
			if prev != nil {
				prev(evt)
			}
			emitter.Emit(statusEventToEmitEvent(evt))
		}
		return nil
	}
}
