package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backend API call latency (seconds)
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "abricot_api_request_duration_seconds",
			Help:    "Abricot backend API call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"endpoint", "status"},
	)

	// Query cache lookups
	QueryCacheCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abricot_query_cache_total",
			Help: "Query cache lookups by result",
		},
		[]string{"result"}, // result: hit, miss, shared
	)

	// Cache invalidations triggered by mutations
	QueryInvalidationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abricot_query_invalidations_total",
			Help: "Query keys invalidated after successful mutations",
		},
		[]string{"mutation"},
	)

	// Gateway HTTP latency (seconds)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// AI generated tasks
	GeneratedTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abricot_generated_tasks_total",
			Help: "AI generated task candidates by outcome",
		},
		[]string{"outcome"}, // outcome: accepted, rejected, created
	)
)

// RecordAPIRequestDuration records one backend call.
func RecordAPIRequestDuration(endpoint, status string, duration time.Duration) {
	APIRequestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())
}

// IncrementQueryCache counts a cache lookup.
func IncrementQueryCache(result string) {
	QueryCacheCount.WithLabelValues(result).Inc()
}

// AddQueryInvalidations counts keys invalidated by a mutation.
func AddQueryInvalidations(mutation string, n int) {
	QueryInvalidationCount.WithLabelValues(mutation).Add(float64(n))
}

// RecordHTTPRequestDuration records one gateway request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// AddGeneratedTasks counts AI candidates by outcome.
func AddGeneratedTasks(outcome string, n int) {
	if n <= 0 {
		return
	}
	GeneratedTaskCount.WithLabelValues(outcome).Add(float64(n))
}
