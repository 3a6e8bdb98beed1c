// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueueLength is the number of queries waiting for the engine.
	QueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ccstats_query_queue_length",
			Help: "Number of queries waiting in the coordinator queue",
		},
	)
	// QueriesTotal counts finished queries by outcome (ok, query_failed, cancelled, ...).
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ccstats_queries_total",
			Help: "Total number of queries settled by the coordinator",
		},
		[]string{"outcome"},
	)
	// QueryDuration is the time a query spent executing on the engine.
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ccstats_query_duration_seconds",
			Help:    "Engine execution time of a query in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	// QueueWait is the time between submission and execution start.
	QueueWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ccstats_query_queue_wait_seconds",
			Help:    "Time a query waited in the queue in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	// EngineInitializations counts engine connection attempts by status.
	EngineInitializations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ccstats_engine_initializations_total",
			Help: "Total number of embedded engine initialization attempts",
		},
		[]string{"status"},
	)
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ccstats_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ccstats_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
