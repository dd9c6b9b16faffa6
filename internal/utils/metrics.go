package utils

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "konnectia"

// HTTP metrics, labelled by method, mux route template and status.
var (
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served.",
	}, []string{"method", "path", "status"})

	HTTPResponseSizeBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "Size of HTTP response bodies.",
		Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
	}, []string{"method", "path", "status"})

	InFlightRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "in_flight_requests",
		Help:      "Requests currently being served.",
	})
)

// Store metrics. "store" is postgres, mongo or redis.
var (
	DBPoolConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "db",
		Name:      "pool_connections",
		Help:      "Pooled connections by state.",
	}, []string{"store", "state"})

	DBPoolWaitTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "db",
		Name:      "pool_wait_count",
		Help:      "Pool waits (postgres) or pool timeouts (redis) since startup.",
	}, []string{"store"})

	DBQueryDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Duration of repository queries in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"query_type", "repository", "status"})

	DBQueryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "db",
		Name:      "query_errors_total",
		Help:      "Repository queries that failed.",
	}, []string{"query_type", "repository"})
)

func RecordSQLPoolStats(store string, st sql.DBStats) {
	DBPoolConnections.WithLabelValues(store, "open").Set(float64(st.OpenConnections))
	DBPoolConnections.WithLabelValues(store, "in_use").Set(float64(st.InUse))
	DBPoolConnections.WithLabelValues(store, "idle").Set(float64(st.Idle))
	DBPoolWaitTotal.WithLabelValues(store).Set(float64(st.WaitCount))
}

func RecordRedisPoolStats(total, idle, timeouts uint32) {
	DBPoolConnections.WithLabelValues("redis", "open").Set(float64(total))
	DBPoolConnections.WithLabelValues("redis", "idle").Set(float64(idle))
	DBPoolConnections.WithLabelValues("redis", "in_use").Set(float64(total - idle))
	DBPoolWaitTotal.WithLabelValues("redis").Set(float64(timeouts))
}
