package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfinding_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "wayfinding_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	// Turns counts assistant turns by outcome (routed, no_destination, unresolved, cancelled, failed).
	Turns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfinding_assistant_turns_total",
			Help: "Total number of assistant turns by outcome",
		},
		[]string{"outcome"},
	)

	// UpstreamLatency tracks calls to external collaborators.
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "wayfinding_upstream_latency_seconds",
			Help: "Latency of external collaborator calls in seconds",
		},
		[]string{"collaborator", "operation"},
	)

	RouteSteps = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wayfinding_route_steps",
			Help:    "Number of normalized steps per computed route",
			Buckets: prometheus.LinearBuckets(2, 4, 10),
		},
	)

	ActiveVoiceSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfinding_active_voice_sessions",
			Help: "Number of open voice capture sessions",
		},
	)
)
