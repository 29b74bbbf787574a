package graph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus-compatible scheduler metrics, adapted from
// the teacher's PrometheusMetrics to the concepts this scheduler actually
// tracks: levelized queue depth, per-node step latency, cache hits, retry
// attempts, and backpressure from a saturated level.
type Metrics struct {
	queueDepth  prometheus.Gauge
	stepLatency *prometheus.HistogramVec
	cacheHits   *prometheus.CounterVec
	retries     *prometheus.CounterVec
	backpressure *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewMetrics registers every metric with registry (use
// prometheus.DefaultRegisterer for the global registry).
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	m := &Metrics{enabled: true}

	m.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "workflow_engine",
		Name:      "queue_depth",
		Help:      "Number of nodes awaiting dispatch in the current level.",
	})
	m.stepLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "workflow_engine",
		Name:      "step_latency_ms",
		Help:      "Node dispatch duration in milliseconds.",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000},
	}, []string{"node_id", "status"})
	m.cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workflow_engine",
		Name:      "cache_hits_total",
		Help:      "Execution cache hits by node id.",
	}, []string{"node_id"})
	m.retries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workflow_engine",
		Name:      "retries_total",
		Help:      "Retry attempts by node id and error code.",
	}, []string{"node_id", "code"})
	m.backpressure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workflow_engine",
		Name:      "backpressure_events_total",
		Help:      "Level-boundary aborts triggered by fail_fast.",
	}, []string{"reason"})

	registry.MustRegister(m.queueDepth, m.stepLatency, m.cacheHits, m.retries, m.backpressure)
	return m
}

func (m *Metrics) isEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Disable stops recording without unregistering collectors.
func (m *Metrics) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// Enable resumes recording.
func (m *Metrics) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}

// RecordStepLatency records one node dispatch's duration and terminal
// status.
func (m *Metrics) RecordStepLatency(nodeID string, latency time.Duration, status string) {
	if !m.isEnabled() {
		return
	}
	m.stepLatency.WithLabelValues(nodeID, status).Observe(float64(latency.Milliseconds()))
}

// IncrementRetries records one retry attempt for nodeID with the error code
// that triggered it.
func (m *Metrics) IncrementRetries(nodeID, code string) {
	if !m.isEnabled() {
		return
	}
	m.retries.WithLabelValues(nodeID, code).Inc()
}

// IncrementCacheHits records one execution-cache hit for nodeID.
func (m *Metrics) IncrementCacheHits(nodeID string) {
	if !m.isEnabled() {
		return
	}
	m.cacheHits.WithLabelValues(nodeID).Inc()
}

// UpdateQueueDepth sets the current level's pending-node count.
func (m *Metrics) UpdateQueueDepth(depth int) {
	if !m.isEnabled() {
		return
	}
	m.queueDepth.Set(float64(depth))
}

// IncrementBackpressure records one fail_fast abort.
func (m *Metrics) IncrementBackpressure(reason string) {
	if !m.isEnabled() {
		return
	}
	m.backpressure.WithLabelValues(reason).Inc()
}
