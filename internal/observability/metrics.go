package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the query routing pipeline.
type Metrics struct {
	QueriesTotal        *prometheus.CounterVec // labels: source={live_api,local_database}
	ExternalFallbacks   prometheus.Counter
	ExternalTimeouts    prometheus.Counter
	TotalFailures       prometheus.Counter
	CacheLookups        *prometheus.CounterVec // labels: result={hit,miss}
	RateLimitRejections prometheus.Counter
	RouteDuration       prometheus.Histogram
	IngestFilesTotal    *prometheus.CounterVec // labels: outcome={completed,failed}
	IngestRowsInserted  prometheus.Counter
}

// NewMetrics creates and registers all routing metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.QueriesTotal,
		m.ExternalFallbacks,
		m.ExternalTimeouts,
		m.TotalFailures,
		m.CacheLookups,
		m.RateLimitRejections,
		m.RouteDuration,
		m.IngestFilesTotal,
		m.IngestRowsInserted,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default registry,
// so parallel tests cannot trip "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oceanchat",
			Name:      "queries_total",
			Help:      "Queries answered, by serving data source.",
		}, []string{"source"}),
		ExternalFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oceanchat",
			Name:      "external_fallbacks_total",
			Help:      "Queries that fell back to the local store.",
		}),
		ExternalTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oceanchat",
			Name:      "external_timeouts_total",
			Help:      "External fetches abandoned at the router timeout budget.",
		}),
		TotalFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oceanchat",
			Name:      "total_failures_total",
			Help:      "Queries that produced an error envelope.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oceanchat",
			Name:      "cache_lookups_total",
			Help:      "Envelope cache lookups by result.",
		}, []string{"result"}),
		RateLimitRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oceanchat",
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by the per-IP rate limiter.",
		}),
		RouteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "oceanchat",
			Name:      "route_duration_seconds",
			Help:      "End-to-end duration of the routing pipeline.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		IngestFilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oceanchat",
			Name:      "ingest_files_total",
			Help:      "Provider files processed by the ingestion job.",
		}, []string{"outcome"}),
		IngestRowsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oceanchat",
			Name:      "ingest_rows_inserted_total",
			Help:      "Measurement rows written by the ingestion job.",
		}),
	}
}
