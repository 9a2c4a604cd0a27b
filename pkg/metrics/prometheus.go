// Package metrics provides Prometheus metrics for the ledger sync service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Pass metrics
	passes       *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	sourceRows   *prometheus.GaugeVec
	ledgerRows   *prometheus.GaugeVec
	loadFailures *prometheus.CounterVec

	// Matching and planning
	matches            *prometheus.CounterVec
	ambiguousMatches   *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	plansGenerated     *prometheus.CounterVec
	duplicatesFlagged  *prometheus.CounterVec

	// Writes
	writes       *prometheus.CounterVec
	writeLatency *prometheus.HistogramVec

	// Ledger client
	ledgerRequests *prometheus.CounterVec
	ledgerRetries  prometheus.Counter
	breakerState   prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ledgersync",
		subsystem:        "reconcile",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.passes = m.counterVec("passes_total", "Reconciliation passes by job and outcome", "job", "outcome")
	m.passDuration = m.histogramVec("pass_duration_seconds", "Wall time of one reconciliation pass",
		prometheus.ExponentialBuckets(0.5, 2, 12), "job")
	m.sourceRows = m.gaugeVec("source_rows", "Source rows read by the last pass", "job")
	m.ledgerRows = m.gaugeVec("ledger_rows", "Ledger rows read by the last pass", "job")
	m.loadFailures = m.counterVec("load_failures_total", "Passes aborted because a store could not be read", "job", "store")

	m.matches = m.counterVec("matches_total", "Source entities matched, by winning key kind", "job", "kind")
	m.ambiguousMatches = m.counterVec("ambiguous_matches_total", "Matches where the winning key had several candidates", "job")
	m.validationFailures = m.counterVec("validation_failures_total", "Source rows skipped by validation", "job", "field")
	m.plansGenerated = m.counterVec("plans_generated_total", "Non-empty update plans produced", "job")
	m.duplicatesFlagged = m.counterVec("duplicates_flagged_total", "Ledger records planned for the duplicate flag", "job")

	m.writes = m.counterVec("writes_total", "Ledger writes by operation and outcome", "job", "op", "outcome")
	m.writeLatency = m.histogramVec("write_latency_milliseconds", "Ledger write latency in milliseconds",
		m.histogramBuckets, "op")

	m.ledgerRequests = m.counterVec("ledger_requests_total", "HTTP requests sent to the ledger API", "method", "status_code")
	m.ledgerRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ledger_read_retries_total",
		Help:        "Ledger read attempts that were retried",
		ConstLabels: m.customLabels,
	})
	m.breakerState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ledger_breaker_state",
		Help:        "Ledger circuit breaker state (0 closed, 1 half-open, 2 open)",
		ConstLabels: m.customLabels,
	})

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		m.histogramBuckets, "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total", "HTTP error responses by endpoint and error type",
		"endpoint", "method", "error_type")
}

// RecordPass counts a finished pass and observes its duration.
func (m *Manager) RecordPass(job, outcome string, seconds float64) {
	m.passes.WithLabelValues(job, outcome).Inc()
	m.passDuration.WithLabelValues(job).Observe(seconds)
}

// UpdateRowCounts sets the row gauges for job.
func (m *Manager) UpdateRowCounts(job string, source, ledger int) {
	m.sourceRows.WithLabelValues(job).Set(float64(source))
	m.ledgerRows.WithLabelValues(job).Set(float64(ledger))
}

// RecordLoadFailure counts a failed read of store ("source" or "ledger").
func (m *Manager) RecordLoadFailure(job, store string) {
	m.loadFailures.WithLabelValues(job, store).Inc()
}

// RecordMatch counts a match by key kind.
func (m *Manager) RecordMatch(job, kind string, ambiguous bool) {
	m.matches.WithLabelValues(job, kind).Inc()
	if ambiguous {
		m.ambiguousMatches.WithLabelValues(job).Inc()
	}
}

// RecordValidationFailure counts a skipped source row.
func (m *Manager) RecordValidationFailure(job, field string) {
	m.validationFailures.WithLabelValues(job, field).Inc()
}

// RecordPlans adds n generated plans.
func (m *Manager) RecordPlans(job string, n int) {
	m.plansGenerated.WithLabelValues(job).Add(float64(n))
}

// RecordDuplicatesFlagged adds n duplicate flag plans.
func (m *Manager) RecordDuplicatesFlagged(job string, n int) {
	m.duplicatesFlagged.WithLabelValues(job).Add(float64(n))
}

// RecordWrite counts one ledger write and its latency.
func (m *Manager) RecordWrite(job, op, outcome string, latencyMs float64) {
	m.writes.WithLabelValues(job, op, outcome).Inc()
	m.writeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordLedgerRequest counts one HTTP call to the ledger API.
func (m *Manager) RecordLedgerRequest(method, statusCode string) {
	m.ledgerRequests.WithLabelValues(method, statusCode).Inc()
}

// RecordLedgerRetry counts one retried ledger read.
func (m *Manager) RecordLedgerRetry() { m.ledgerRetries.Inc() }

// UpdateBreakerState sets the breaker gauge.
func (m *Manager) UpdateBreakerState(state int) { m.breakerState.Set(float64(state)) }

// RecordHTTPRequest increments the HTTP request counter with labels.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration with labels.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError counts an error response.
func (m *Manager) RecordHTTPError(endpoint, method, errorType string) {
	m.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// Package-level helpers write to the global manager.

// RecordPass counts a finished pass on the global manager.
func RecordPass(job, outcome string, seconds float64) {
	globalManager.RecordPass(job, outcome, seconds)
}

// UpdateRowCounts sets the rows loaded by the last pass of job.
func UpdateRowCounts(job string, source, ledger int) {
	globalManager.UpdateRowCounts(job, source, ledger)
}

// RecordLoadFailure counts a pass aborted by an unreadable store.
func RecordLoadFailure(job, store string) {
	globalManager.RecordLoadFailure(job, store)
}

// RecordMatch counts one resolved source by key kind.
func RecordMatch(job, kind string, ambiguous bool) {
	globalManager.RecordMatch(job, kind, ambiguous)
}

// RecordValidationFailure counts one rejected source field.
func RecordValidationFailure(job, field string) {
	globalManager.RecordValidationFailure(job, field)
}

// RecordPlans adds the plans generated by a pass.
func RecordPlans(job string, n int) {
	globalManager.RecordPlans(job, n)
}

// RecordDuplicatesFlagged adds the records flagged by a pass.
func RecordDuplicatesFlagged(job string, n int) {
	globalManager.RecordDuplicatesFlagged(job, n)
}

// RecordLedgerRequest counts one ledger API call.
func RecordLedgerRequest(method, statusCode string) {
	globalManager.RecordLedgerRequest(method, statusCode)
}

// RecordLedgerRetry counts one retried ledger read.
func RecordLedgerRetry() {
	globalManager.RecordLedgerRetry()
}

// UpdateBreakerState sets the ledger breaker gauge.
func UpdateBreakerState(state int) {
	globalManager.UpdateBreakerState(state)
}

// RecordWrite counts one ledger write and observes its latency.
func RecordWrite(job, op, outcome string, latencyMs float64) {
	globalManager.RecordWrite(job, op, outcome, latencyMs)
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode)
}

// RecordHTTPRequestDuration observes one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.RecordHTTPRequestDuration(endpoint, method, statusCode, duration)
}

// RecordHTTPError counts one HTTP error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.RecordHTTPError(endpoint, method, errorType)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
