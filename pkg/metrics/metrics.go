// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuthAttemptsTotal tracks signup/login attempts by outcome.
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total authentication attempts",
		},
		[]string{"operation", "outcome"},
	)

	// LeaseSavesTotal tracks lease upserts.
	LeaseSavesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lease_saves_total",
			Help: "Total lease save (upsert) operations",
		},
	)

	// LeaseDeletesTotal tracks lease deletions.
	LeaseDeletesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lease_deletes_total",
			Help: "Total lease delete operations",
		},
	)

	// SimulatorRepliesTotal tracks dealer simulator replies by thread and branch.
	SimulatorRepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulator_replies_total",
			Help: "Total dealer simulator replies",
		},
		[]string{"thread", "branch"},
	)

	// LLMFallbackDuration tracks simulator LLM fallback latency.
	LLMFallbackDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_fallback_duration_seconds",
			Help:    "Simulator LLM fallback completion duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider", "status"},
	)

	// AuditPublishesTotal tracks JetStream audit event publishes.
	AuditPublishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_publishes_total",
			Help: "Total audit event publishes",
		},
		[]string{"subject", "outcome"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordAuthAttempt records a signup or login attempt.
func RecordAuthAttempt(operation, outcome string) {
	AuthAttemptsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordSimulatorReply records a dealer simulator reply.
func RecordSimulatorReply(thread, branch string) {
	SimulatorRepliesTotal.WithLabelValues(thread, branch).Inc()
}

// RecordLLMFallback records latency of a simulator LLM fallback call.
func RecordLLMFallback(provider, status string, seconds float64) {
	LLMFallbackDuration.WithLabelValues(provider, status).Observe(seconds)
}
