package emit

// Event is an observability event describing one node lifecycle transition
// during a run, mirroring graph.StatusEvent but carrying the additional
// free-form Meta fields an Emitter backend may want (duration, cache hit,
// error detail) without coupling the core scheduler to this package's
// wire shape.
type Event struct {
	// ExecutionID identifies the run that emitted this event.
	ExecutionID string

	// NodeID identifies which node emitted this event. Empty for run-level
	// events (started, completed, cancelled).
	NodeID string

	// Msg is a short machine-stable event name (e.g. "node_completed").
	Msg string

	// Meta carries structured detail: status, plus duration_ms and error when
	// set. A cache hit shows as status "cache_hit"; there is no separate key.
	Meta map[string]interface{}
}
