// Package metrics provides Prometheus metrics for the activity score engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Event pipeline metrics
	eventsScanned prometheus.Counter
	eventsParsed  prometheus.Counter
	eventsSkipped *prometheus.CounterVec

	// Aggregation metrics
	studentsRecomputed prometheus.Counter
	recomputeLatency   prometheus.Histogram
	aggregationErrors  prometheus.Counter

	// Cache metrics
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	cacheEntries prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "activityscores",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.eventsScanned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_scanned_total",
		Help:      "Total number of attempt events read from the event source",
	})

	m.eventsParsed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_parsed_total",
		Help:      "Total number of attempt events successfully parsed",
	})

	m.eventsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_skipped_total",
		Help:      "Total number of attempt events skipped, by classification",
	}, []string{"reason"})

	m.studentsRecomputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "students_recomputed_total",
		Help:      "Total number of per-student score recomputations",
	})

	m.recomputeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_latency_milliseconds",
		Help:      "Histogram of per-student recompute latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.aggregationErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregation_errors_total",
		Help:      "Total number of failed per-student recomputations",
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Total number of score cache hits",
	})

	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Total number of score cache misses",
	})

	m.cacheEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_entries",
		Help:      "Current number of cached per-student score trees",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint"})
}

// Registry returns the registry the global manager records into. Handlers
// expose it via promhttp.
func Registry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers recording into the global manager.

// RecordEventScanned increments the scanned-events counter by n.
func RecordEventsScanned(n int) {
	if globalManager.enabled {
		globalManager.eventsScanned.Add(float64(n))
	}
}

// RecordEventParsed increments the parsed-events counter.
func RecordEventParsed() {
	if globalManager.enabled {
		globalManager.eventsParsed.Inc()
	}
}

// RecordEventSkipped increments the skipped-events counter for a reason.
func RecordEventSkipped(reason string) {
	if globalManager.enabled {
		globalManager.eventsSkipped.WithLabelValues(reason).Inc()
	}
}

// RecordStudentRecomputed increments the recompute counter.
func RecordStudentRecomputed() {
	if globalManager.enabled {
		globalManager.studentsRecomputed.Inc()
	}
}

// RecordRecomputeLatency observes a per-student recompute latency in ms.
func RecordRecomputeLatency(ms float64) {
	if globalManager.enabled {
		globalManager.recomputeLatency.Observe(ms)
	}
}

// RecordAggregationError increments the failed-recompute counter.
func RecordAggregationError() {
	if globalManager.enabled {
		globalManager.aggregationErrors.Inc()
	}
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	if globalManager.enabled {
		globalManager.cacheHits.Inc()
	}
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	if globalManager.enabled {
		globalManager.cacheMisses.Inc()
	}
}

// UpdateCacheEntries sets the cached-entry gauge.
func UpdateCacheEntries(n int) {
	if globalManager.enabled {
		globalManager.cacheEntries.Set(float64(n))
	}
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, status string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	}
}

// RecordHTTPRequestDuration observes an HTTP request duration in ms.
func RecordHTTPRequestDuration(endpoint string, ms float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint).Observe(ms)
	}
}
