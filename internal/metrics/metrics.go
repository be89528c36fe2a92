package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversion metrics
var (
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_converter_conversions_total",
			Help: "Total number of conversion batches by unit, branch and outcome",
		},
		[]string{"unit", "branch", "status"},
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_converter_conversion_duration_seconds",
			Help:    "Conversion batch duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"unit", "branch"},
	)

	ConversionOutputFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_converter_conversion_output_files_total",
			Help: "Total number of output files produced, by unit",
		},
		[]string{"unit"},
	)

	ConversionInputBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_converter_conversion_input_bytes_total",
			Help: "Total input bytes consumed, by unit",
		},
		[]string{"unit"},
	)

	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_converter_probes_total",
			Help: "Total number of unit probes by outcome",
		},
		[]string{"unit", "status"},
	)

	UnitsReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_converter_units_ready",
			Help: "Number of conversion units that completed probing",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_converter_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_converter_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_converter_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Watcher metrics
var (
	WatcherFilesSeen = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_converter_watcher_files_seen_total",
			Help: "Total number of files observed by the directory watcher",
		},
	)

	WatcherConversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_converter_watcher_conversions_total",
			Help: "Total number of watcher-triggered conversions by outcome",
		},
		[]string{"status"},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_converter_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_converter_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)
