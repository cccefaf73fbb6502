// Package metrics exposes Prometheus instrumentation for the triage engine
// and its HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_classifications_total",
			Help: "Total number of classify-and-route calls",
		},
		[]string{"category", "department"},
	)

	ClassificationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "triage_classification_latency_seconds",
			Help: "End-to-end classify-and-route latency in seconds",
		},
	)

	SearchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "triage_search_failures_total",
			Help: "Total number of vector search calls recovered as Unknown",
		},
	)

	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
)

// RecordClassification records one completed classify-and-route call.
func RecordClassification(category, department string, latencySeconds float64) {
	ClassificationsTotal.WithLabelValues(category, department).Inc()
	ClassificationLatency.Observe(latencySeconds)
}

// RecordSearchFailure records a vector search failure recovered by the engine.
func RecordSearchFailure() {
	SearchFailures.Inc()
}
