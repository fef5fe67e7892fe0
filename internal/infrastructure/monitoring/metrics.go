package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus collectors for the guard service.
type Metrics struct {
	AnalysisRequests *prometheus.CounterVec
	AnalysisLatency  *prometheus.HistogramVec
	DetectorRuns     *prometheus.CounterVec
	DetectorLatency  *prometheus.HistogramVec
	QuotaDecisions   *prometheus.CounterVec
	SessionEvents    *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
	AuditWrites      *prometheus.CounterVec
	CacheAccess      *prometheus.CounterVec
	DBQueryLatency   *prometheus.HistogramVec
	DBConnections    *prometheus.GaugeVec
	VaultAPICalls    *prometheus.CounterVec
	VaultAPILatency  *prometheus.HistogramVec

	HTTPActiveRequests  *prometheus.GaugeVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestErrors   *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the collectors on reg. Tests pass a private
// registry so repeated registration does not collide.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AnalysisRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rampart_analysis_requests_total",
				Help: "Total number of analyze requests by outcome.",
			},
			[]string{"tenant_id", "level", "disposition", "error_code"},
		),
		AnalysisLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rampart_analysis_latency_seconds",
				Help:    "End-to-end latency of analyze requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tenant_id"},
		),
		DetectorRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rampart_detector_runs_total",
				Help: "Total number of detector passes by category.",
			},
			[]string{"category", "result"},
		),
		DetectorLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rampart_detector_latency_seconds",
				Help:    "Latency of individual detector passes.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"category"},
		),
		QuotaDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rampart_quota_decisions_total",
				Help: "Total number of quota admission decisions per window.",
			},
			[]string{"tenant_id", "window", "decision"},
		),
		SessionEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rampart_session_events_total",
				Help: "Total number of secure session lifecycle events.",
			},
			[]string{"event"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rampart_active_sessions",
				Help: "Number of live secure sessions.",
			},
		),
		AuditWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rampart_audit_writes_total",
				Help: "Total number of audit sink write attempts.",
			},
			[]string{"sink", "result"},
		),
		CacheAccess: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rampart_cache_access_total",
				Help: "Total number of cache lookups by outcome.",
			},
			[]string{"cache", "result"},
		),
		DBQueryLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rampart_db_query_duration_seconds",
				Help:    "Latency of database queries.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		DBConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rampart_db_connections",
				Help: "Current number of database connections by state.",
			},
			[]string{"state"},
		),
		VaultAPICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rampart_vault_api_calls_total",
				Help: "Total number of Vault API calls by outcome.",
			},
			[]string{"operation", "result"},
		),
		VaultAPILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rampart_vault_api_latency_seconds",
				Help:    "Latency of Vault API calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		HTTPActiveRequests: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rampart_http_active_requests",
				Help: "Number of HTTP requests currently in flight.",
			},
			[]string{"path", "method"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rampart_http_request_duration_seconds",
				Help:    "Latency of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method", "status"},
		),
		HTTPRequestErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rampart_http_request_errors_total",
				Help: "Total number of HTTP requests answered with an error status.",
			},
			[]string{"path", "method", "status"},
		),
	}
}

// RecordAnalysis records one completed analyze request with its outcome.
func (m *Metrics) RecordAnalysis(tenantID, level, disposition string, duration time.Duration, errorCode string) {
	if errorCode == "" {
		errorCode = "none"
	}
	m.AnalysisRequests.WithLabelValues(tenantID, level, disposition, errorCode).Inc()
	m.AnalysisLatency.WithLabelValues(tenantID).Observe(duration.Seconds())
}

// RecordDetector records a single detector pass.
func (m *Metrics) RecordDetector(category string, duration time.Duration, failed bool) {
	m.DetectorRuns.WithLabelValues(category, outcome(!failed)).Inc()
	m.DetectorLatency.WithLabelValues(category).Observe(duration.Seconds())
}

// RecordQuotaDecision records a quota admission check per window.
func (m *Metrics) RecordQuotaDecision(tenantID, window string, allowed bool) {
	decision := "allowed"
	if !allowed {
		decision = "denied"
	}
	m.QuotaDecisions.WithLabelValues(tenantID, window, decision).Inc()
}

// RecordSessionEvent records a session lifecycle event.
func (m *Metrics) RecordSessionEvent(event string) {
	m.SessionEvents.WithLabelValues(event).Inc()
}

// UpdateActiveSessions updates the gauge of live secure sessions.
func (m *Metrics) UpdateActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// RecordAuditWrite records an audit sink write attempt.
func (m *Metrics) RecordAuditWrite(sink string, success bool) {
	m.AuditWrites.WithLabelValues(sink, outcome(success)).Inc()
}

// RecordCacheAccess records a cache hit or miss.
func (m *Metrics) RecordCacheAccess(cacheType string, hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	m.CacheAccess.WithLabelValues(cacheType, result).Inc()
}

// RecordDBQuery records the duration of a database query.
func (m *Metrics) RecordDBQuery(operation string, duration time.Duration) {
	m.DBQueryLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnections updates the connection gauges.
func (m *Metrics) UpdateDBConnections(active, idle int) {
	m.DBConnections.WithLabelValues("active").Set(float64(active))
	m.DBConnections.WithLabelValues("idle").Set(float64(idle))
}

// RecordVaultAPI records the latency and error status of a Vault API call.
func (m *Metrics) RecordVaultAPI(operation string, duration time.Duration, err error) {
	m.VaultAPICalls.WithLabelValues(operation, outcome(err == nil)).Inc()
	m.VaultAPILatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// ActiveRequestsInc marks one more HTTP request in flight.
func (m *Metrics) ActiveRequestsInc(path, method string) {
	m.HTTPActiveRequests.WithLabelValues(path, method).Inc()
}

// ActiveRequestsDec marks one HTTP request as finished.
func (m *Metrics) ActiveRequestsDec(path, method string) {
	m.HTTPActiveRequests.WithLabelValues(path, method).Dec()
}

// ObserveRequestDuration records the duration of a finished HTTP request.
func (m *Metrics) ObserveRequestDuration(path, method string, status int, seconds float64) {
	m.HTTPRequestDuration.WithLabelValues(path, method, statusLabel(status)).Observe(seconds)
}

// IncRequestErrors counts an HTTP request answered with an error status.
func (m *Metrics) IncRequestErrors(path, method string, status int) {
	m.HTTPRequestErrors.WithLabelValues(path, method, statusLabel(status)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
