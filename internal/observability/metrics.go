// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	IngestionRunsTotal    *prometheus.CounterVec
	IngestionDuration     prometheus.Histogram
	TokensProcessed       prometheus.Counter
	SnapshotsCreated      prometheus.Counter
	SnapshotsSkipped      prometheus.Counter
	TokenProcessingErrors prometheus.Counter

	// Provider metrics
	ProviderRequestsTotal *prometheus.CounterVec
	ProviderLatency       prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
	UptimeSeconds     prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tokenpulse"
	}

	return &Metrics{
		// Ingestion metrics
		IngestionRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "runs_total",
			Help:      "Total number of ingestion runs by status",
		}, []string{"status"}),
		IngestionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "run_duration_seconds",
			Help:      "Ingestion run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		TokensProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "tokens_processed_total",
			Help:      "Total number of tokens processed across all runs",
		}),
		SnapshotsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "snapshots_created_total",
			Help:      "Total number of daily snapshots created",
		}),
		SnapshotsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "snapshots_skipped_total",
			Help:      "Total number of snapshots skipped because one already existed",
		}),
		TokenProcessingErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "token_errors_total",
			Help:      "Total number of per-token processing errors",
		}),

		// Provider metrics
		ProviderRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total number of provider API requests by status",
		}, []string{"status"}),
		ProviderLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "request_latency_seconds",
			Help:      "Provider API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful ingestion run",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordIngestionRun records one completed ingestion run.
func RecordIngestionRun(status string, durationSeconds float64) {
	DefaultMetrics.IngestionRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.IngestionDuration.Observe(durationSeconds)
	if status == "success" {
		DefaultMetrics.LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordRunCounts adds one run's per-token tallies to the cumulative counters.
func RecordRunCounts(processed, created, skipped, errors int) {
	DefaultMetrics.TokensProcessed.Add(float64(processed))
	DefaultMetrics.SnapshotsCreated.Add(float64(created))
	DefaultMetrics.SnapshotsSkipped.Add(float64(skipped))
	DefaultMetrics.TokenProcessingErrors.Add(float64(errors))
}

// RecordProviderRequest records one provider API call.
func RecordProviderRequest(status string, latencySeconds float64) {
	DefaultMetrics.ProviderRequestsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ProviderLatency.Observe(latencySeconds)
}

// RecordDBQuery records a database query's duration and outcome.
func RecordDBQuery(database, operation string, durationSeconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(durationSeconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
