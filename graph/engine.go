package graph

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dshills/workflow-engine/graph/cache"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Run executes spec from start to terminal ExecutionRecord, per spec.md
// §4.6. spec is validated and normalized before scheduling; Run never
// mutates the caller's copy. dispatcher routes every Primitive node's
// tool_ref to its concrete runtime; the scheduler itself never imports the
// executor or tool packages, so it is wired against the Dispatcher
// interface declared in dispatch.go rather than a concrete type.
func Run(ctx context.Context, executionID uuid.UUID, spec *WorkflowSpec, dispatcher Dispatcher, opts ...RunOption) (ExecutionRecord, error) {
	cfg := defaultRunConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return ExecutionRecord{}, err
		}
	}

	specCopy := *spec
	specCopy.Normalize()
	if err := Validate(&specCopy); err != nil {
		return ExecutionRecord{}, err
	}

	rs := &runState{cfg: cfg, dispatcher: dispatcher, execID: executionID}

	startedAt := time.Now()
	_, runErr := rs.executeLevels(ctx, specCopy.Nodes, specCopy.Edges, nil)
	completedAt := time.Now()

	rs.mu.Lock()
	record := ExecutionRecord{
		ExecutionID:    executionID,
		WorkflowID:     specCopy.ID,
		StartedAt:      startedAt,
		CompletedAt:    completedAt,
		TotalNodes:     rs.totalNodes,
		CompletedNodes: rs.completedNodes,
		FailedNodes:    rs.failedNodes,
		CacheHits:      rs.cacheHits,
	}
	rs.mu.Unlock()

	switch {
	case errors.Is(runErr, ErrCancelled):
		record.Status = ExecutionCancelled
	case runErr != nil || record.FailedNodes > 0:
		record.Status = ExecutionFailed
	default:
		record.Status = ExecutionCompleted
	}

	return record, runErr
}

// runState is the mutable bookkeeping shared across one Run call: the
// resolved config, the node output store, and span/record counters. A
// fresh runState backs every top-level Run; recursion into Composite,
// Conditional, and Loop bodies reuses it via executeLevels.
type runState struct {
	cfg        runConfig
	dispatcher Dispatcher
	execID     uuid.UUID

	mu             sync.Mutex
	totalNodes     int
	completedNodes int
	failedNodes    int
	cacheHits      int
}

// executeLevels levelizes nodes/edges and runs each level to completion
// before starting the next, fanning out within a level with one goroutine
// per node. virtual supplies synthetic incoming-edge values for nodes that
// have none in this scope (Composite InMap targets, or the root nodes of a
// Conditional/Loop body), keyed by node id then port name.
func (rs *runState) executeLevels(ctx context.Context, nodes []NodeEntry, edges []EdgeSpec, virtual map[string]map[string]any) (map[string]map[string]any, error) {
	levels, err := levelize(nodes, edges)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]NodeEntry, len(nodes))
	for _, n := range nodes {
		byID[n.ID()] = n
	}

	outputs := make(map[string]map[string]any, len(nodes))
	var outputsMu sync.Mutex

	for _, level := range levels {
		if rs.cfg.cancelled() {
			return outputs, ErrCancelled
		}
		if rs.cfg.metrics != nil {
			rs.cfg.metrics.UpdateQueueDepth(len(level))
		}

		g := new(errgroup.Group)
		for _, id := range level {
			id := id
			n := byID[id]
			g.Go(func() error {
				outputsMu.Lock()
				in := gatherInputs(id, edges, outputs, virtual)
				outputsMu.Unlock()

				if rs.cfg.statusFn != nil {
					rs.cfg.statusFn(StatusEvent{ExecutionID: rs.execID, NodeID: id, Status: StatusRunning})
				}

				spanID := uuid.New()
				startedAt := time.Now()
				out, status, errMsg, durationMS, cacheHit := rs.executeNode(ctx, n, in)
				completedAt := time.Now()

				outputsMu.Lock()
				outputs[id] = out
				outputsMu.Unlock()

				if rs.cfg.statusFn != nil {
					rs.cfg.statusFn(StatusEvent{ExecutionID: rs.execID, NodeID: id, Status: status, Output: out, Error: errMsg, DurationMS: durationMS})
				}
				if rs.cfg.metrics != nil {
					rs.cfg.metrics.RecordStepLatency(id, time.Duration(durationMS)*time.Millisecond, string(status))
				}
				rs.recordSpan(ctx, spanID, id, n, in, out, startedAt, completedAt, durationMS, status, errMsg, cacheHit)

				if status == StatusFailed && rs.cfg.failFast {
					if rs.cfg.metrics != nil {
						rs.cfg.metrics.IncrementBackpressure("fail_fast")
					}
					return &RunnerError{Code: CodeExecutionFailure, NodeID: id, Msg: errMsg}
				}
				return nil
			})
		}

		// Every goroutine in the level runs to completion regardless of a
		// sibling's failure: fail_fast aborts scheduling of the *next*
		// level, not nodes already dispatched in this one.
		if gerr := g.Wait(); gerr != nil && rs.cfg.failFast {
			return outputs, gerr
		}
	}
	return outputs, nil
}

// gatherInputs assembles one node's input port map from virtual
// assignments and incoming data edges, applying each edge's Transform.
// Per spec.md §4.6, a source port missing from the producer's output falls
// back to the whole output object, and a source that has not yet completed
// contributes no value rather than failing the gather.
func gatherInputs(nodeID string, edges []EdgeSpec, outputs map[string]map[string]any, virtual map[string]map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range virtual[nodeID] {
		result[k] = v
	}
	for _, e := range edges {
		if e.Kind != "" && e.Kind != EdgeData {
			continue
		}
		if e.TargetNode != nodeID {
			continue
		}
		var val any
		if srcOut, ok := outputs[e.SourceNode]; ok {
			if pv, has := srcOut[e.SourcePort]; has {
				val = pv
			} else {
				val = srcOut
			}
		}
		if e.Transform != "" {
			if transformed, err := ApplyTransform(val, e.Transform); err == nil {
				val = transformed
			}
		}
		result[e.TargetPort] = val
	}
	return result
}

// executeNode dispatches on NodeEntry.Kind, the single switch point the
// tagged union is meant to be read through.
func (rs *runState) executeNode(ctx context.Context, n NodeEntry, input map[string]any) (map[string]any, NodeStatus, string, int64, bool) {
	switch n.Kind {
	case NodePrimitive:
		return rs.executePrimitive(ctx, n.Primitive, input)
	case NodeComposite:
		return rs.executeComposite(ctx, n.Composite, input)
	case NodeConditional:
		return rs.executeConditional(ctx, n.Conditional, input)
	case NodeLoop:
		return rs.executeLoop(ctx, n.Loop, input)
	default:
		return nil, StatusFailed, "unknown node kind " + string(n.Kind), 0, false
	}
}

// executePrimitive consults the cache, then dispatches with exponential
// backoff retry per §4.4/§8, then writes the cache entry on success.
func (rs *runState) executePrimitive(ctx context.Context, p *PrimitiveNode, input map[string]any) (map[string]any, NodeStatus, string, int64, bool) {
	if p.Disabled {
		return map[string]any{}, StatusSkipped, "", 0, false
	}

	toolVersion := toolVersionFromRef(p.ToolRef)
	meta, _ := rs.dispatcher.ToolMeta(p.ToolRef)

	cacheable := p.Cache != nil && p.Cache.Enabled && rs.cfg.cache != nil && meta.Idempotent
	if cacheable {
		if key, err := cache.Key(p.ToolRef, input, p.Config, toolVersion); err == nil {
			if entry, ok, _ := rs.cfg.cache.Get(ctx, key); ok {
				out, _ := RawToAny(entry.Output)
				outMap, _ := out.(map[string]any)
				if rs.cfg.metrics != nil {
					rs.cfg.metrics.IncrementCacheHits(p.ID)
				}
				return outMap, StatusCacheHit, "", 0, true
			}
		}
	}

	policy := EffectivePolicy(p.Retry, meta.DefaultRetry)
	var lastErr error
	for attempt := 0; ; attempt++ {
		dctx := ctx
		var cancel context.CancelFunc
		if rs.cfg.mcpTimeout > 0 {
			dctx, cancel = context.WithTimeout(ctx, rs.cfg.mcpTimeout)
		}
		out, err := rs.dispatcher.Dispatch(dctx, ToolInput{ToolRef: p.ToolRef, Inputs: input, Config: p.Config})
		timedOut := err != nil && ctx.Err() == nil && errors.Is(dctx.Err(), context.DeadlineExceeded)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			rs.maybeCache(ctx, p, input, toolVersion, out.Outputs, meta.Idempotent)
			return out.Outputs, StatusCompleted, "", out.DurationMS, false
		}

		lastErr = err
		code := ""
		retryable := false
		if de, ok := err.(*DispatchError); ok {
			code = de.Code
			retryable = de.Retryable
		}
		if timedOut {
			code, retryable = string(CodeTimeout), true
		}
		if !retryable || attempt >= policy.MaxRetries {
			return nil, StatusFailed, lastErr.Error(), 0, false
		}
		if rs.cfg.metrics != nil {
			rs.cfg.metrics.IncrementRetries(p.ID, code)
		}

		timer := time.NewTimer(ComputeBackoff(policy, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, StatusFailed, ctx.Err().Error(), 0, false
		case <-timer.C:
		}
	}
}

func (rs *runState) maybeCache(ctx context.Context, p *PrimitiveNode, input map[string]any, toolVersion string, outputs map[string]any, idempotent bool) {
	if p.Cache == nil || !p.Cache.Enabled || rs.cfg.cache == nil || !idempotent {
		return
	}
	key, err := cache.Key(p.ToolRef, input, p.Config, toolVersion)
	if err != nil {
		return
	}
	raw, err := json.Marshal(outputs)
	if err != nil {
		return
	}
	entry := cache.Entry{Output: raw, CachedAt: time.Now()}
	if p.Cache.TTLSecs > 0 {
		entry.ExpiresAt = entry.CachedAt.Add(time.Duration(p.Cache.TTLSecs) * time.Second)
	}
	_ = rs.cfg.cache.Put(ctx, key, entry)
}

// toolVersionFromRef extracts the version suffix of a "pack/tool@version"
// tool_ref, per the shape Validate already enforces.
func toolVersionFromRef(ref string) string {
	if idx := strings.LastIndex(ref, "@"); idx >= 0 {
		return ref[idx+1:]
	}
	return ""
}

// executeComposite runs the node's SubgraphSpec, translating InMap/OutMap
// port bindings across the boundary. Unlike Conditional/Loop, a Composite's
// own input is never injected directly at root nodes: every crossing is an
// explicit mapping, which is what makes a Composite reusable as a named
// unit independent of its internal wiring.
func (rs *runState) executeComposite(ctx context.Context, c *CompositeNode, input map[string]any) (map[string]any, NodeStatus, string, int64, bool) {
	started := time.Now()

	virtual := make(map[string]map[string]any)
	for _, m := range c.InMap {
		v, ok := input[m.ExternalPort]
		if !ok {
			continue
		}
		if virtual[m.InternalNode] == nil {
			virtual[m.InternalNode] = make(map[string]any)
		}
		virtual[m.InternalNode][m.InternalPort] = v
	}

	outputs, err := rs.executeLevels(ctx, c.Body.Nodes, c.Body.Edges, virtual)
	duration := time.Since(started).Milliseconds()
	if err != nil {
		return nil, StatusFailed, err.Error(), duration, false
	}

	external := make(map[string]any, len(c.OutMap))
	for _, m := range c.OutMap {
		if nodeOut, ok := outputs[m.InternalNode]; ok {
			external[m.ExternalPort] = nodeOut[m.InternalPort]
		}
	}
	return external, StatusCompleted, "", duration, false
}

// executeConditional selects the branch whose literal Value equals the
// evaluated condition (falling back to Default, or skipping entirely), then
// runs that branch's subgraph with the conditional's own input injected at
// every root node.
func (rs *runState) executeConditional(ctx context.Context, c *ConditionalNode, input map[string]any) (map[string]any, NodeStatus, string, int64, bool) {
	started := time.Now()

	value, _ := EvalCondition(input, c.Condition)

	var selected *SubgraphSpec
	for i := range c.Branches {
		branchValue, _ := RawToAny(c.Branches[i].Value)
		if JSONEqual(value, branchValue) {
			selected = &c.Branches[i].Body
			break
		}
	}
	if selected == nil && c.Default != nil {
		selected = c.Default
	}
	if selected == nil {
		return map[string]any{}, StatusSkipped, "", time.Since(started).Milliseconds(), false
	}

	virtual := injectAtRoots(*selected, input)
	outputs, err := rs.executeLevels(ctx, selected.Nodes, selected.Edges, virtual)
	duration := time.Since(started).Milliseconds()
	if err != nil {
		return nil, StatusFailed, err.Error(), duration, false
	}
	return mergeSinkOutputs(*selected, outputs), StatusCompleted, "", duration, false
}

// executeLoop runs Body repeatedly per Kind, always bounded by
// MaxIterations, and aggregates each iteration's sink outputs into
// {results, iterations}.
func (rs *runState) executeLoop(ctx context.Context, l *LoopNode, input map[string]any) (map[string]any, NodeStatus, string, int64, bool) {
	started := time.Now()
	var results []any

	fail := func(err error) (map[string]any, NodeStatus, string, int64, bool) {
		return map[string]any{"results": results, "iterations": len(results)}, StatusFailed, err.Error(), time.Since(started).Milliseconds(), false
	}

	switch l.Kind {
	case LoopForEach:
		itemsVal, _ := EvalPath(input, l.Items)
		items, _ := itemsVal.([]any)
		n := len(items)
		if n > l.MaxIterations {
			n = l.MaxIterations
		}
		for i := 0; i < n; i++ {
			res, err := rs.runLoopIteration(ctx, l.Body, map[string]any{"item": items[i], "index": i})
			if err != nil {
				return fail(err)
			}
			results = append(results, res)
		}

	case LoopWhile:
		for i := 0; i < l.MaxIterations; i++ {
			cond, _ := EvalCondition(input, l.Condition)
			if !truthy(cond) {
				break
			}
			res, err := rs.runLoopIteration(ctx, l.Body, input)
			if err != nil {
				return fail(err)
			}
			results = append(results, res)
		}

	case LoopRepeat:
		for i := 0; i < l.MaxIterations; i++ {
			res, err := rs.runLoopIteration(ctx, l.Body, map[string]any{"index": i})
			if err != nil {
				return fail(err)
			}
			results = append(results, res)
		}
	}

	return map[string]any{"results": results, "iterations": len(results)}, StatusCompleted, "", time.Since(started).Milliseconds(), false
}

func (rs *runState) runLoopIteration(ctx context.Context, body SubgraphSpec, iterInput map[string]any) (any, error) {
	virtual := injectAtRoots(body, iterInput)
	outputs, err := rs.executeLevels(ctx, body.Nodes, body.Edges, virtual)
	if err != nil {
		return nil, err
	}
	return mergeSinkOutputs(body, outputs), nil
}

// injectAtRoots hands injected to every node with no incoming data edge
// within sub, the convention Conditional branches and Loop bodies use to
// receive their enclosing node's input (they declare no PortMapping, unlike
// Composite).
func injectAtRoots(sub SubgraphSpec, injected map[string]any) map[string]map[string]any {
	hasIncoming := make(map[string]bool)
	for _, e := range sub.Edges {
		if e.Kind == "" || e.Kind == EdgeData {
			hasIncoming[e.TargetNode] = true
		}
	}
	virtual := make(map[string]map[string]any)
	for _, n := range sub.Nodes {
		id := n.ID()
		if !hasIncoming[id] {
			virtual[id] = injected
		}
	}
	return virtual
}

// mergeSinkOutputs flattens the outputs of every node with no outgoing data
// edge within sub into one map, the value a Conditional or Loop iteration
// reports to its caller.
func mergeSinkOutputs(sub SubgraphSpec, outputs map[string]map[string]any) map[string]any {
	hasOutgoing := make(map[string]bool)
	for _, e := range sub.Edges {
		if e.Kind == "" || e.Kind == EdgeData {
			hasOutgoing[e.SourceNode] = true
		}
	}
	merged := make(map[string]any)
	for _, n := range sub.Nodes {
		id := n.ID()
		if hasOutgoing[id] {
			continue
		}
		for k, v := range outputs[id] {
			merged[k] = v
		}
	}
	return merged
}

// truthy applies JSON-value truthiness for LoopWhile's condition: nil,
// false, zero, empty string, and empty arrays/objects are falsy.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// recordSpan updates the run's terminal counters and, if a Trace Store is
// configured, persists one NodeSpan. Every node kind is spanned, not just
// Primitive dispatches, so Composite/Conditional/Loop wrapper timing is
// traceable too; ToolRef is only populated for Primitive nodes.
func (rs *runState) recordSpan(ctx context.Context, spanID uuid.UUID, nodeID string, n NodeEntry, input, output map[string]any, startedAt, completedAt time.Time, durationMS int64, status NodeStatus, errMsg string, cacheHit bool) {
	rs.mu.Lock()
	rs.totalNodes++
	switch status {
	case StatusCompleted, StatusCacheHit, StatusSkipped:
		rs.completedNodes++
	case StatusFailed:
		rs.failedNodes++
	}
	if cacheHit {
		rs.cacheHits++
	}
	rs.mu.Unlock()

	if rs.cfg.traceStore == nil {
		return
	}

	var toolRef string
	var nodeConfig map[string]any
	if n.Kind == NodePrimitive && n.Primitive != nil {
		toolRef = n.Primitive.ToolRef
		nodeConfig = n.Primitive.Config
	}

	inputRaw, _ := json.Marshal(input)
	outputRaw, _ := json.Marshal(output)
	configRaw, _ := json.Marshal(nodeConfig)

	span := NodeSpan{
		SpanID:      spanID,
		ExecutionID: rs.execID,
		NodeID:      nodeID,
		ToolRef:     toolRef,
		Input:       inputRaw,
		Output:      outputRaw,
		Config:      configRaw,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		DurationMS:  durationMS,
		Status:      status,
		Error:       errMsg,
		CacheHit:    cacheHit,
		Environment: CurrentExecutionEnvironment(""),
	}
	_ = rs.cfg.traceStore.InsertSpan(ctx, span)
}
