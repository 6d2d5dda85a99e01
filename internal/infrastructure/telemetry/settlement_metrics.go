package telemetry

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metric names.
const (
	MetricSettlementsTotal          = "settlement_outcomes_total"
	MetricSettlementDurationSeconds = "settlement_duration_seconds"
	MetricRemediationsTotal         = "settlement_remediation_required_total"
	MetricMirrorBreakerState        = "settlement_mirror_breaker_state"

	MetricHTTPRequestsTotal          = "http_server_request_total"
	MetricHTTPRequestDurationSeconds = "http_server_request_duration_seconds"
	MetricHTTPActiveRequests         = "http_server_active_requests"
)

// OutcomeCommitted is the reason label used for committed settlements.
const OutcomeCommitted = "committed"

// SettlementMetrics records settlement outcomes on a private Prometheus registry.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type SettlementMetrics struct {
	registry     *prometheus.Registry
	outcomes     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	remediations *prometheus.CounterVec
	breakerState *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpActive   prometheus.Gauge
}

// NewSettlementMetrics creates and registers the settlement collectors.
// Process and Go runtime collectors are registered as well.
func NewSettlementMetrics() *SettlementMetrics {
	m := &SettlementMetrics{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSettlementsTotal,
			Help: "Settlement runs by workflow and outcome reason",
		}, []string{"workflow", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricSettlementDurationSeconds,
			Help:    "Settlement run latency including ledger round trips",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"workflow", "committed"}),
		remediations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRemediationsTotal,
			Help: "Failed settlements whose payment was consumed and needs operator follow-up",
		}, []string{"workflow", "reason"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricMirrorBreakerState,
			Help: "Mirror node circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"breaker"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDurationSeconds,
			Help:    "HTTP request latency distribution in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricHTTPActiveRequests,
			Help: "Number of currently active HTTP requests",
		}),
	}

	m.registry.MustRegister(
		m.outcomes,
		m.duration,
		m.remediations,
		m.breakerState,
		m.httpRequests,
		m.httpDuration,
		m.httpActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSettlement records one finished settlement. reason is the failure
// kind, or OutcomeCommitted.
func (m *SettlementMetrics) ObserveSettlement(workflow, reason string, needsRemediation bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	committed := "false"
	if reason == OutcomeCommitted {
		committed = "true"
	}
	m.outcomes.WithLabelValues(workflow, reason).Inc()
	m.duration.WithLabelValues(workflow, committed).Observe(elapsed.Seconds())
	if needsRemediation {
		m.remediations.WithLabelValues(workflow, reason).Inc()
	}
}

// SetBreakerState records a circuit breaker state as its numeric value.
func (m *SettlementMetrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

// AddActiveRequests moves the in-flight HTTP request gauge by delta.
func (m *SettlementMetrics) AddActiveRequests(delta float64) {
	if m == nil {
		return
	}
	m.httpActive.Add(delta)
}

// ObserveHTTPRequest records one served HTTP request. route is the matched
// route pattern, not the raw path, to keep label cardinality bounded.
func (m *SettlementMetrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RegisterDBStats exports the connection pool statistics of db under dbName.
func (m *SettlementMetrics) RegisterDBStats(db *sql.DB, dbName string) error {
	if m == nil {
		return nil
	}
	return m.registry.Register(collectors.NewDBStatsCollector(db, dbName))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *SettlementMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
