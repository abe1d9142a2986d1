// Package metrics wraps the optional Prometheus instrumentation for the
// Scheduler and Store (A6), in the shape of the teacher corpus's
// promauto-based metrics structs (e.g. tracing.Metrics), scaled down to the
// handful of counters/gauges spec.md's scheduler and store actually need.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter/gauge the engine records. A nil *Metrics is
// valid everywhere it's accepted: every method is a no-op on a nil receiver,
// so instrumentation can be threaded through unconditionally and only
// incurs cost when a caller opts in via New.
type Metrics struct {
	NodesDispatched    prometheus.Counter
	StoreHits          prometheus.Counter
	StoreMisses        prometheus.Counter
	PrimitiveInvokes   *prometheus.CounterVec
	PrimitiveFailures  *prometheus.CounterVec
	WorkersActive      prometheus.Gauge
	SingleFlightWaited prometheus.Counter
}

// New registers and returns a Metrics under namespace. Pass "" to use the
// default namespace "voxlogica".
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "voxlogica"
	}
	return &Metrics{
		NodesDispatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_dispatched_total",
			Help:      "Total number of WorkPlan nodes dispatched for execution.",
		}),
		StoreHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_hits_total",
			Help:      "Total number of node lookups served from the store without recomputation.",
		}),
		StoreMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_misses_total",
			Help:      "Total number of node lookups that required recomputation.",
		}),
		PrimitiveInvokes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "primitive_invocations_total",
			Help:      "Total number of primitive invocations, by operator.",
		}, []string{"operator"}),
		PrimitiveFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "primitive_failures_total",
			Help:      "Total number of failed primitive invocations, by operator.",
		}, []string{"operator"}),
		WorkersActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_active",
			Help:      "Number of scheduler worker goroutines currently executing a node.",
		}),
		SingleFlightWaited: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "single_flight_waits_total",
			Help:      "Total number of times a worker waited on an in-flight computation for the same node id.",
		}),
	}
}

// Dispatched records a node having been handed to a worker.
func (m *Metrics) Dispatched() {
	if m != nil {
		m.NodesDispatched.Inc()
	}
}

// StoreHit records a value served without recomputation.
func (m *Metrics) StoreHit() {
	if m != nil {
		m.StoreHits.Inc()
	}
}

// StoreMiss records a value that required recomputation.
func (m *Metrics) StoreMiss() {
	if m != nil {
		m.StoreMisses.Inc()
	}
}

// PrimitiveInvoked records a primitive call for operator.
func (m *Metrics) PrimitiveInvoked(operator string) {
	if m != nil {
		m.PrimitiveInvokes.WithLabelValues(operator).Inc()
	}
}

// PrimitiveFailed records a failed primitive call for operator.
func (m *Metrics) PrimitiveFailed(operator string) {
	if m != nil {
		m.PrimitiveFailures.WithLabelValues(operator).Inc()
	}
}

// WorkerStarted/WorkerFinished track the in-flight worker gauge.
func (m *Metrics) WorkerStarted() {
	if m != nil {
		m.WorkersActive.Inc()
	}
}

func (m *Metrics) WorkerFinished() {
	if m != nil {
		m.WorkersActive.Dec()
	}
}

// SingleFlightWait records a worker having waited on another worker's
// in-flight computation of the same node id.
func (m *Metrics) SingleFlightWait() {
	if m != nil {
		m.SingleFlightWaited.Inc()
	}
}
