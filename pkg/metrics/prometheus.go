// Package metrics provides Prometheus metrics for the talent match service.
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

// matchRateBuckets covers the default 0-100 output scale.
var matchRateBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100} //nolint:gochecknoglobals // constant bucket layout

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Scoring
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	employeesScored  prometheus.Counter
	scoringFailures  *prometheus.CounterVec
	finalMatchRate   prometheus.Histogram
	recordsIngested  prometheus.Counter
	recordsRejected  prometheus.Counter
	rolesRegistered  prometheus.Gauge
	rankedEmployees  *prometheus.GaugeVec
	patternRequests  *prometheus.CounterVec
	narrativeCalls   *prometheus.CounterVec
	narrativeLatency prometheus.Histogram
	cacheRequests    *prometheus.CounterVec

	// Store
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram

	// Queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec
	workerCount        prometheus.Gauge
	workersBusy        prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "talentmatch",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.customLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounterVec(m.counterOpts("runs_total", "Scoring runs by outcome"), []string{"outcome"})
	m.runDuration = auto.NewHistogram(m.histogramOpts("run_duration_milliseconds", "Scoring run duration in milliseconds", m.histogramBuckets))
	m.employeesScored = auto.NewCounter(m.counterOpts("employees_scored_total", "Employees with a published match result"))
	m.scoringFailures = auto.NewCounterVec(m.counterOpts("scoring_failures_total", "Per-employee scoring failures by kind"), []string{"kind"})
	m.finalMatchRate = auto.NewHistogram(m.histogramOpts("final_match_rate", "Distribution of final match rates", matchRateBuckets))
	m.recordsIngested = auto.NewCounter(m.counterOpts("records_ingested_total", "Employee records accepted by the loader"))
	m.recordsRejected = auto.NewCounter(m.counterOpts("records_rejected_total", "Employee records rejected by the loader"))
	m.rolesRegistered = auto.NewGauge(m.gaugeOpts("roles_registered", "Roles currently held by the registry"))
	m.rankedEmployees = auto.NewGaugeVec(m.gaugeOpts("ranked_employees", "Employees in the published ranking per role"), []string{"role"})
	m.patternRequests = auto.NewCounterVec(m.counterOpts("pattern_extractions_total", "Success pattern extractions by outcome"), []string{"outcome"})
	m.narrativeCalls = auto.NewCounterVec(m.counterOpts("narrative_requests_total", "Narrative generation calls by provider and outcome"), []string{"provider", "outcome"})
	m.narrativeLatency = auto.NewHistogram(m.histogramOpts("narrative_latency_milliseconds", "Narrative generation latency in milliseconds", m.histogramBuckets))
	m.cacheRequests = auto.NewCounterVec(m.counterOpts("cache_requests_total", "Ranking cache lookups by result"), []string{"result"})

	m.storeUpdateLatency = auto.NewHistogram(m.histogramOpts("store_update_latency_milliseconds", "Ranked store publish latency in milliseconds", m.histogramBuckets))
	m.storeQueryLatency = auto.NewHistogram(m.histogramOpts("store_query_latency_milliseconds", "Ranked store query latency in milliseconds", m.histogramBuckets))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Pending scoring runs"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Capacity of the run queue"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Runs accepted by the queue"))
	m.queueEnqueueErrors = auto.NewCounterVec(m.counterOpts("queue_enqueue_errors_total", "Runs refused by the queue"), []string{"reason"})
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured run workers"))
	m.workersBusy = auto.NewGauge(m.gaugeOpts("workers_busy", "Workers currently executing a run"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component and type"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordRun counts a finished run and observes its duration.
func (m *Manager) RecordRun(outcome string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(durationMs)
}

// RecordMatchResult counts a scored employee and observes its rate.
func (m *Manager) RecordMatchResult(rate float64) {
	if !m.enabled {
		return
	}
	m.employeesScored.Inc()
	m.finalMatchRate.Observe(rate)
}

// RecordScoringFailure counts a per-employee failure.
func (m *Manager) RecordScoringFailure(kind string) {
	if m.enabled {
		m.scoringFailures.WithLabelValues(kind).Inc()
	}
}

// RecordIngest counts accepted and rejected loader records.
func (m *Manager) RecordIngest(accepted, rejected int) {
	if !m.enabled {
		return
	}
	m.recordsIngested.Add(float64(accepted))
	m.recordsRejected.Add(float64(rejected))
}

// UpdateRolesRegistered sets the registry size.
func (m *Manager) UpdateRolesRegistered(n int) {
	if m.enabled {
		m.rolesRegistered.Set(float64(n))
	}
}

// UpdateRankedEmployees sets the published ranking size of a role.
func (m *Manager) UpdateRankedEmployees(role string, n int) {
	if m.enabled {
		m.rankedEmployees.WithLabelValues(role).Set(float64(n))
	}
}

// RecordPatternExtraction counts a pattern extraction.
func (m *Manager) RecordPatternExtraction(outcome string) {
	if m.enabled {
		m.patternRequests.WithLabelValues(outcome).Inc()
	}
}

// RecordNarrative counts a narrative call and observes its latency.
func (m *Manager) RecordNarrative(provider, outcome string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.narrativeCalls.WithLabelValues(provider, outcome).Inc()
	m.narrativeLatency.Observe(latencyMs)
}

// RecordCache counts a cache lookup result ("hit", "miss", "error").
func (m *Manager) RecordCache(result string) {
	if m.enabled {
		m.cacheRequests.WithLabelValues(result).Inc()
	}
}

// Package-level helpers delegate to the global manager.

// RecordRun counts a finished run and observes its duration.
func RecordRun(outcome string, durationMs float64) { globalManager.RecordRun(outcome, durationMs) }

// RecordMatchResult counts a scored employee and observes its rate.
func RecordMatchResult(rate float64) { globalManager.RecordMatchResult(rate) }

// RecordScoringFailure counts a per-employee failure.
func RecordScoringFailure(kind string) { globalManager.RecordScoringFailure(kind) }

// RecordIngest counts accepted and rejected loader records.
func RecordIngest(accepted, rejected int) { globalManager.RecordIngest(accepted, rejected) }

// UpdateRolesRegistered sets the registry size.
func UpdateRolesRegistered(n int) { globalManager.UpdateRolesRegistered(n) }

// UpdateRankedEmployees sets the published ranking size of a role.
func UpdateRankedEmployees(role string, n int) { globalManager.UpdateRankedEmployees(role, n) }

// RecordPatternExtraction counts a pattern extraction.
func RecordPatternExtraction(outcome string) { globalManager.RecordPatternExtraction(outcome) }

// RecordNarrative counts a narrative call.
func RecordNarrative(provider, outcome string, latencyMs float64) {
	globalManager.RecordNarrative(provider, outcome, latencyMs)
}

// RecordCacheHit counts a ranking cache hit.
func RecordCacheHit() { globalManager.RecordCache("hit") }

// RecordCacheMiss counts a ranking cache miss.
func RecordCacheMiss() { globalManager.RecordCache("miss") }

// RecordCacheError counts a failed cache round trip.
func RecordCacheError() { globalManager.RecordCache("error") }

// RecordStoreUpdateLatency observes ranked store publish latency.
func RecordStoreUpdateLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeUpdateLatency.Observe(latencyMs)
	}
}

// RecordStoreQueryLatency observes ranked store query latency.
func RecordStoreQueryLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeQueryLatency.Observe(latencyMs)
	}
}

// UpdateQueueSize sets the pending run count.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue counts an accepted run.
func RecordQueueEnqueue() {
	if globalManager.enabled {
		globalManager.queueEnqueued.Inc()
	}
}

// RecordQueueEnqueueError counts a refused run.
func RecordQueueEnqueueError(reason string) {
	if globalManager.enabled {
		globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
	}
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// AddWorkersBusy moves the busy worker gauge by delta.
func AddWorkersBusy(delta int) {
	if globalManager.enabled {
		globalManager.workersBusy.Add(float64(delta))
	}
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent counts an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
