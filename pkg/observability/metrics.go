// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the askframe analysis service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// PipelineBuckets defines histogram buckets for pipeline stage latencies,
// ranging from 10ms to 120s: sandbox executions sit at the low end, LLM
// round trips at the high end.
var PipelineBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askframe_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askframe_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: PipelineBuckets,
		},
		[]string{"method"},
	)

	// AnalysesTotal counts pipeline runs by terminal status
	// (success, validation_failed, execution_failed, timeout).
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askframe_analyses_total",
			Help: "Analysis pipeline runs",
		},
		[]string{"status"},
	)

	// ValidationRejectionsTotal counts validator rejections by category.
	ValidationRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askframe_validation_rejections_total",
			Help: "Script validation rejections",
		},
		[]string{"category"},
	)

	// ExecutionsTotal counts sandbox executions by outcome.
	ExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askframe_executions_total",
			Help: "Sandbox executions",
		},
		[]string{"status"},
	)

	// ExecutionDuration records sandbox execution duration in seconds.
	ExecutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askframe_execution_duration_seconds",
			Help:    "Sandbox execution duration",
			Buckets: PipelineBuckets,
		},
	)

	// ProviderRequestsTotal counts calls to the generation backend by
	// operation (generate, interpret) and status.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askframe_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"operation", "status"},
	)

	// ProviderLatency records generation backend latency in seconds.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askframe_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: PipelineBuckets,
		},
		[]string{"operation"},
	)

	// ActiveSessions tracks the number of live sessions.
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "askframe_sessions_active",
			Help: "Active sessions",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AnalysesTotal,
		ValidationRejectionsTotal,
		ExecutionsTotal,
		ExecutionDuration,
		ProviderRequestsTotal,
		ProviderLatency,
		ActiveSessions,
	)
}
