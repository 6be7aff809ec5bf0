// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

// Package metrics holds the Prometheus instrumentation shared by the server
// and the terminal client.
//
// Coverage:
//   - Origin reads through DuckDB
//   - Read endpoint latency and throughput
//   - Cache efficiency for both tiers (cache_type label)
//   - Cache warmer runs
//   - Circuit breaker state
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Origin Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB origin queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB origin query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	OriginRowsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "origin_rows_read_total",
			Help: "Total number of rows read from the origin",
		},
		[]string{"table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// APIErrorEnvelopes counts requests answered with the error envelope.
	// These still return HTTP 200 so they are invisible in status_code.
	APIErrorEnvelopes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_error_envelopes_total",
			Help: "Total number of requests answered with an error envelope",
		},
		[]string{"action"},
	)

	// Cache Metrics (General)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "server", "client"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
	)

	CacheRejectedWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_rejected_writes_total",
			Help: "Total number of writes skipped because the payload was too large",
		},
		[]string{"cache_type"},
	)

	// Warmer Metrics
	WarmRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warmer_run_duration_seconds",
			Help:    "Duration of cache warm runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 180, 240, 300},
		},
		[]string{"job"},
	)

	WarmItemsCached = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warmer_items_cached_total",
			Help: "Total number of cache entries written by the warmer",
		},
		[]string{"job"},
	)

	WarmRecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warmer_records_processed_total",
			Help: "Total number of origin records processed by the warmer",
		},
		[]string{"job"},
	)

	WarmRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warmer_runs_total",
			Help: "Total number of warm runs by outcome",
		},
		[]string{"job", "result"}, // result: "success", "truncated", "failure"
	)

	WarmLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warmer_last_success_timestamp",
			Help: "Unix timestamp of the last successful warm run",
		},
		[]string{"job"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records an origin query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheLookup records a hit or a miss for cacheType.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// RecordWarmRun records the outcome of one warm invocation
func RecordWarmRun(job string, duration time.Duration, itemsCached, recordsProcessed int, truncated bool, err error) {
	WarmRunDuration.WithLabelValues(job).Observe(duration.Seconds())
	WarmItemsCached.WithLabelValues(job).Add(float64(itemsCached))
	WarmRecordsProcessed.WithLabelValues(job).Add(float64(recordsProcessed))

	switch {
	case err != nil:
		WarmRuns.WithLabelValues(job, "failure").Inc()
	case truncated:
		WarmRuns.WithLabelValues(job, "truncated").Inc()
	default:
		WarmRuns.WithLabelValues(job, "success").Inc()
		WarmLastSuccess.WithLabelValues(job).Set(float64(time.Now().Unix()))
	}
}
