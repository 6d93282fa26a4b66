package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the rewriting engine
type Registry struct {
	registry *prometheus.Registry

	// Rewriting operation metrics
	RewritesTotal    *prometheus.CounterVec
	RewriteDuration  *prometheus.HistogramVec
	NodesClonedTotal prometheus.Counter
	NodesMergedTotal prometheus.Counter

	// Matcher metrics
	MatchesTotal         prometheus.Counter
	MatchInstancesTotal  prometheus.Counter
	MatchDurationSeconds prometheus.Histogram
}

// NewRegistry creates a registry with all engine metrics registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.RewritesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewrite_operations_total",
			Help: "Total number of rewriting operations",
		},
		[]string{"operation", "status"},
	)

	r.RewriteDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rewrite_operation_duration_seconds",
			Help:    "Rewriting operation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	r.NodesClonedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "rewrite_nodes_cloned_total",
			Help: "Total number of clone nodes produced",
		},
	)

	r.NodesMergedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "rewrite_nodes_merged_total",
			Help: "Total number of source nodes consumed by merges",
		},
	)

	r.MatchesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "rewrite_matches_total",
			Help: "Total number of pattern match searches",
		},
	)

	r.MatchInstancesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "rewrite_match_instances_total",
			Help: "Total number of pattern instances produced",
		},
	)

	r.MatchDurationSeconds = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rewrite_match_duration_seconds",
			Help:    "Pattern match search duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0, 10.0},
		},
	)

	return r
}

// RecordRewrite records a rewriting operation with its duration
func (r *Registry) RecordRewrite(operation, status string, duration time.Duration) {
	r.RewritesTotal.WithLabelValues(operation, status).Inc()
	r.RewriteDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Handler returns an HTTP handler exposing the metrics
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gather exposes the underlying registry for tests
func (r *Registry) Gather() prometheus.Gatherer {
	return r.registry
}
