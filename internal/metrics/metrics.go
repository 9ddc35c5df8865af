// Package metrics holds the Prometheus collectors of the social graph server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Toggle engine
	TogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_toggles_total",
			Help: "Total number of toggle operations by relation kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: created, removed, error
	)

	ToggleRacesAbsorbed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toggle_races_absorbed_total",
			Help: "Inserts that found the edge already created by a concurrent toggle",
		},
		[]string{"kind"},
	)

	// Read paths
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_operation_duration_seconds",
			Help:    "Duration of feed, recommendation and search operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// View cache
	ViewCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "view_cache_hits_total",
		Help: "Total number of view cache hits",
	})
	ViewCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "view_cache_misses_total",
		Help: "Total number of view cache misses",
	})
	ViewCacheRevalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "view_cache_revalidations_total",
		Help: "Total number of view paths invalidated after mutations",
	})

	// Activity recorder breaker, 0=closed 1=half-open 2=open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	ActivityDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activity_records_dropped_total",
		Help: "Activity records dropped because the store was unavailable",
	})

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordToggle counts a finished toggle.
func RecordToggle(kind string, state bool, err error) {
	outcome := "removed"
	switch {
	case err != nil:
		outcome = "error"
	case state:
		outcome = "created"
	}
	TogglesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordOperation observes the duration of a read operation.
func RecordOperation(operation string, start time.Time) {
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordAPIRequest records an HTTP request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
