// Package metrics provides Prometheus metrics for relay observability.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// MetricPrefix prefix for all relay metrics
	MetricPrefix = "relay_"

	// --- Label names used across metrics

	LabelMethod       = "method"
	LabelOutcome      = "outcome"
	LabelStatusClass  = "status_class"
	LabelEndpointHost = "endpoint_host"
	LabelFallbackKind = "fallback_kind"

	// --- Parse fallback kinds

	FallbackKindEmpty   = "empty"
	FallbackKindNonJSON = "non_json"
)

// =============================================================================
// Relay Requests (Counter)
// Labels: method, outcome, status_class
// Purpose: Track relay traffic and how each request terminated
// =============================================================================

var RelayRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: MetricPrefix + "requests_total",
		Help: "Relay requests by method, outcome (success/upstream_error/transport_error/rejected/unauthorized), and outbound status class.",
	},
	[]string{LabelMethod, LabelOutcome, LabelStatusClass},
)

// =============================================================================
// Outbound Duration (Histogram)
// Labels: method
// Purpose: Latency of the full relay round trip per HTTP method
// =============================================================================

var OutboundDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    MetricPrefix + "outbound_duration_seconds",
		Help:    "Duration of relay round trips by method.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{LabelMethod},
)

// =============================================================================
// Parse Fallbacks (Counter)
// Labels: fallback_kind
// Purpose: Count outbound bodies that needed the empty/non-JSON fallback
// =============================================================================

var ParseFallbacks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: MetricPrefix + "parse_fallback_total",
		Help: "Outbound responses that did not parse as JSON, by fallback kind (empty/non_json).",
	},
	[]string{LabelFallbackKind},
)

// =============================================================================
// Observation Queue Drops (Counter)
// Purpose: Observations dropped because the queue was full or disabled
// =============================================================================

var ObservationQueueDropped = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: MetricPrefix + "observation_queue_dropped_total",
		Help: "Relay observations dropped because the observation queue was full.",
	},
)

// StatusClass renders an HTTP status as its class label ("2xx", "4xx", ...).
// Status zero (no outbound response) is reported as "none".
func StatusClass(status int) string {
	if status == 0 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}

// RecordParseFallback increments the fallback counter for the given kind.
func RecordParseFallback(kind string) {
	ParseFallbacks.WithLabelValues(kind).Inc()
}
