package interpreter

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus instrumentation named in SPEC_FULL.md §11: a
// global read counter per relation and a per-iteration counter for the
// seminaive fixpoint loop (spec.md §4.6 "maintains a global read counter per
// relation" / "a per-iteration counter").
type Metrics struct {
	reads      *prometheus.CounterVec
	iterations prometheus.Counter
	registry   *prometheus.Registry
}

// NewMetrics returns a Metrics bound to a fresh, private registry so
// multiple Interpreters in the same process (e.g. in tests) don't collide
// on global metric registration.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ramlog_relation_reads_total",
			Help: "Number of tuple reads per relation.",
		}, []string{"relation"}),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ramlog_fixpoint_iterations_total",
			Help: "Number of seminaive fixpoint loop iterations executed.",
		}),
		registry: reg,
	}
	reg.MustRegister(m.reads, m.iterations)
	return m
}

func (m *Metrics) recordRead(relation string) {
	if m == nil {
		return
	}
	m.reads.WithLabelValues(relation).Inc()
}

func (m *Metrics) recordIteration() {
	if m == nil {
		return
	}
	m.iterations.Inc()
}

// Registry exposes the underlying Prometheus registry for an optional
// metrics HTTP handler (spec.md §4.6 "`interpreter.MetricsRegistry()`").
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
