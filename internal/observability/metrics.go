package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "carpool"

var (
	RequestsSubmitted = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "ride_requests_submitted_total", Help: "Ride requests submitted by riders"})
	GroupsBuilt       = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "route_groups_per_load", Help: "Route groups produced per grouping load", Buckets: prometheus.ExponentialBuckets(1, 2, 8)})

	Acceptances = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "acceptances_total", Help: "Driver acceptance attempts by outcome"},
		[]string{"outcome"},
	)
	AcceptLatency = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "accept_latency_seconds", Help: "Acceptance transaction latency"})

	RidesCompleted = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "rides_completed_total", Help: "Rides marked completed"})
	PaymentsTotal  = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "payments_total", Help: "Payments recorded"})

	// GeoFallbacks counts adapter failures recovered by a local fallback.
	GeoFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "geo_fallbacks_total", Help: "Geocoding or routing calls answered by a fallback"},
		[]string{"adapter"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Acceptance outcomes.
const (
	OutcomeAccepted         = "accepted"
	OutcomeCapacityExceeded = "capacity_exceeded"
	OutcomeConflict         = "conflict"
	OutcomeError            = "error"
)
