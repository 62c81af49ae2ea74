// Package metrics provides Prometheus metrics for the meerkat league service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the league service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// League Metrics
	competitionsCreated prometheus.Counter
	competitionsTotal   prometheus.Gauge
	gamesAdded          prometheus.Counter
	gamesUpdated        prometheus.Counter
	gamesFinalized      prometheus.Counter
	gamesDeleted        prometheus.Counter
	predictionsSaved    prometheus.Counter
	operationErrors     *prometheus.CounterVec

	// Standings Metrics
	pointsComputations prometheus.Counter
	pointsLatency      prometheus.Histogram
	standingsCacheHits prometheus.Counter
	standingsCacheMiss prometheus.Counter
	idempotentReplays  prometheus.Counter

	// Change Feed Metrics
	feedQueueSize      prometheus.Gauge
	feedQueueCapacity  prometheus.Gauge
	feedEnqueued       prometheus.Counter
	feedDropped        *prometheus.CounterVec
	feedPublished      prometheus.Counter
	feedPublishErrors  prometheus.Counter
	feedPublishLatency prometheus.Histogram
	feedWorkers        prometheus.Gauge

	// HTTP Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "meerkat",
		subsystem:        "league",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	msBuckets := []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}

	m.competitionsCreated = m.counter("competitions_created_total", "Total number of competitions created")
	m.competitionsTotal = m.gauge("competitions", "Number of competitions in the directory")
	m.gamesAdded = m.counter("games_added_total", "Total number of games added")
	m.gamesUpdated = m.counter("games_updated_total", "Total number of game updates")
	m.gamesFinalized = m.counter("games_finalized_total", "Total number of updates that left a game finalized")
	m.gamesDeleted = m.counter("games_deleted_total", "Total number of games deleted")
	m.predictionsSaved = m.counter("predictions_saved_total", "Total number of predictions created or overwritten")
	m.operationErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "operation_errors_total",
		Help:        "Rejected league operations by operation and error kind",
		ConstLabels: m.constLabels,
	}, []string{"operation", "kind"})

	m.pointsComputations = m.counter("points_computations_total", "Total number of standings recomputations")
	m.pointsLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "points_latency_milliseconds",
		Help:        "Time spent recomputing standings in milliseconds",
		Buckets:     msBuckets,
		ConstLabels: m.constLabels,
	})
	m.standingsCacheHits = m.counter("standings_cache_hits_total", "Standings served from cache")
	m.standingsCacheMiss = m.counter("standings_cache_misses_total", "Standings requests that required a recomputation")
	m.idempotentReplays = m.counter("idempotent_replays_total", "Creation requests answered from a remembered idempotency key")

	m.feedQueueSize = m.gauge("feed_queue_size", "Current number of changes waiting to be published")
	m.feedQueueCapacity = m.gauge("feed_queue_capacity", "Maximum number of changes the feed queue holds")
	m.feedEnqueued = m.counter("feed_enqueued_total", "Total number of changes accepted by the feed queue")
	m.feedDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "feed_dropped_total",
		Help:        "Changes dropped before publishing, by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})
	m.feedPublished = m.counter("feed_published_total", "Total number of changes published")
	m.feedPublishErrors = m.counter("feed_publish_errors_total", "Total number of failed publish attempts")
	m.feedPublishLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "feed_publish_latency_milliseconds",
		Help:        "Time spent publishing one change in milliseconds",
		Buckets:     msBuckets,
		ConstLabels: m.constLabels,
	})
	m.feedWorkers = m.gauge("feed_workers", "Number of feed publishing workers")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_seconds",
		Help:        "HTTP request duration in seconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "HTTP errors by endpoint, method and error type",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     msBuckets,
		ConstLabels: m.constLabels,
	})
}

// League Metrics Functions.

// RecordCompetitionCreated increments the competitions created counter.
func RecordCompetitionCreated() {
	globalManager.competitionsCreated.Inc()
}

// UpdateCompetitionsTotal sets the number of competitions.
func UpdateCompetitionsTotal(count int) {
	globalManager.competitionsTotal.Set(float64(count))
}

// RecordGameAdded increments the games added counter.
func RecordGameAdded() {
	globalManager.gamesAdded.Inc()
}

// RecordGameUpdated increments the game updates counter, and the finalized
// counter when the update left the game finalized.
func RecordGameUpdated(finalized bool) {
	globalManager.gamesUpdated.Inc()
	if finalized {
		globalManager.gamesFinalized.Inc()
	}
}

// RecordGameDeleted increments the games deleted counter.
func RecordGameDeleted() {
	globalManager.gamesDeleted.Inc()
}

// RecordPredictionSaved increments the predictions saved counter.
func RecordPredictionSaved() {
	globalManager.predictionsSaved.Inc()
}

// RecordOperationError records a rejected operation.
func RecordOperationError(operation, kind string) {
	globalManager.operationErrors.WithLabelValues(operation, kind).Inc()
}

// Standings Metrics Functions.

// RecordPointsComputation records one standings recomputation and its latency.
func RecordPointsComputation(latencyMs float64) {
	globalManager.pointsComputations.Inc()
	globalManager.pointsLatency.Observe(latencyMs)
}

// RecordStandingsCacheHit increments the standings cache hit counter.
func RecordStandingsCacheHit() {
	globalManager.standingsCacheHits.Inc()
}

// RecordStandingsCacheMiss increments the standings cache miss counter.
func RecordStandingsCacheMiss() {
	globalManager.standingsCacheMiss.Inc()
}

// RecordIdempotentReplay increments the idempotent replay counter.
func RecordIdempotentReplay() {
	globalManager.idempotentReplays.Inc()
}

// Change Feed Metrics Functions.

// UpdateFeedQueueSize sets the current feed queue size.
func UpdateFeedQueueSize(size int) {
	globalManager.feedQueueSize.Set(float64(size))
}

// UpdateFeedQueueCapacity sets the feed queue capacity.
func UpdateFeedQueueCapacity(capacity int) {
	globalManager.feedQueueCapacity.Set(float64(capacity))
}

// RecordFeedEnqueued increments the feed enqueue counter.
func RecordFeedEnqueued() {
	globalManager.feedEnqueued.Inc()
}

// RecordFeedDropped records a change that never reached the publisher.
func RecordFeedDropped(reason string) {
	globalManager.feedDropped.WithLabelValues(reason).Inc()
}

// RecordFeedPublished records a successful publish and its latency.
func RecordFeedPublished(latencyMs float64) {
	globalManager.feedPublished.Inc()
	globalManager.feedPublishLatency.Observe(latencyMs)
}

// RecordFeedPublishError increments the publish error counter.
func RecordFeedPublishError() {
	globalManager.feedPublishErrors.Inc()
}

// UpdateFeedWorkers sets the number of feed workers.
func UpdateFeedWorkers(count int) {
	globalManager.feedWorkers.Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
