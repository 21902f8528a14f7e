// Package metrics exposes prometheus counters for the evaluation engine.
//
// A nil *Engine is valid and records nothing, so the core can be used without
// a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Engine holds the evaluation engine's collectors.
type Engine struct {
	cacheLookups    *prometheus.CounterVec
	namespaceBuilds prometheus.Counter
	namespaceSize   prometheus.Histogram
	evalErrors      *prometheus.CounterVec
}

// NewEngine creates the collectors and registers them with reg.
func NewEngine(reg prometheus.Registerer) *Engine {
	m := &Engine{
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowgraph_eval_cache_lookups_total",
				Help: "Expression cache lookups by result.",
			},
			[]string{"result"},
		),
		namespaceBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowgraph_namespace_builds_total",
			Help: "Number of evaluation namespaces built.",
		}),
		namespaceSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowgraph_namespace_size",
			Help:    "Number of names bound in each built namespace.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		evalErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowgraph_eval_errors_total",
				Help: "Expression evaluation failures by data type.",
			},
			[]string{"dtype"},
		),
	}
	reg.MustRegister(m.cacheLookups, m.namespaceBuilds, m.namespaceSize, m.evalErrors)
	return m
}

// CacheHit records an expression served from the cache.
func (m *Engine) CacheHit() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss records an expression that had to be evaluated.
func (m *Engine) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// NamespaceBuilt records one namespace build with size bound names.
func (m *Engine) NamespaceBuilt(size int) {
	if m == nil {
		return
	}
	m.namespaceBuilds.Inc()
	m.namespaceSize.Observe(float64(size))
}

// EvalError records a failed evaluation.
func (m *Engine) EvalError(dtype string) {
	if m == nil {
		return
	}
	m.evalErrors.WithLabelValues(dtype).Inc()
}
