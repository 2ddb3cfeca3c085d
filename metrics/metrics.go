// Package metrics provides Prometheus metrics collection for the rxprice API.
// It tracks HTTP request performance, document store round-trips, and the
// viewer's cursor cache effectiveness:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - store_request_total / store_request_duration_seconds: per-operation
//     store round-trips (count, fetch_page, get_by_rxcui)
//   - cursor_cache_hits_total / cursor_cache_misses_total: page-jump
//     reconstruction cache behavior
//
// All metrics are automatically registered with the Prometheus default
// registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	StoreRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_request_total",
			Help: "Total document store round-trips",
		},
		[]string{"operation", "status"},
	)

	StoreRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_request_duration_seconds",
			Help:    "Document store round-trip latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	CursorCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cursor_cache_hits_total",
			Help: "Page loads served from a cached cursor",
		},
	)

	CursorCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cursor_cache_misses_total",
			Help: "Page loads that had to walk forward to rebuild cursors",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(StoreRequestTotals)
	prometheus.MustRegister(StoreRequestDuration)
	prometheus.MustRegister(CursorCacheHits)
	prometheus.MustRegister(CursorCacheMisses)
}
