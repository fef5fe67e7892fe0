package monitoring_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/rampartlabs/rampart/internal/infrastructure/monitoring"
)

func newMetrics() *monitoring.Metrics {
	return monitoring.NewMetricsWith(prometheus.NewRegistry())
}

func TestMetrics_RecordAnalysis(t *testing.T) {
	m := newMetrics()

	m.RecordAnalysis("tenant-1", "low", "allow", 12*time.Millisecond, "")
	m.RecordAnalysis("tenant-1", "critical", "block", 30*time.Millisecond, "")
	m.RecordAnalysis("tenant-1", "none", "block", 2*time.Millisecond, "quota_exceeded")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.AnalysisRequests.WithLabelValues("tenant-1", "low", "allow", "none")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AnalysisRequests.WithLabelValues("tenant-1", "critical", "block", "none")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AnalysisRequests.WithLabelValues("tenant-1", "none", "block", "quota_exceeded")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AnalysisLatency))
}

func TestMetrics_RecordDetector(t *testing.T) {
	m := newMetrics()

	m.RecordDetector("pii", 3*time.Millisecond, false)
	m.RecordDetector("pii", 4*time.Millisecond, false)
	m.RecordDetector("hallucination", 8*time.Millisecond, true)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.DetectorRuns.WithLabelValues("pii", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DetectorRuns.WithLabelValues("hallucination", "error")))
}

func TestMetrics_RecordQuotaDecision(t *testing.T) {
	m := newMetrics()

	m.RecordQuotaDecision("tenant-1", "daily", true)
	m.RecordQuotaDecision("tenant-1", "daily", true)
	m.RecordQuotaDecision("tenant-1", "monthly", false)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.QuotaDecisions.WithLabelValues("tenant-1", "daily", "allowed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.QuotaDecisions.WithLabelValues("tenant-1", "monthly", "denied")))
}

func TestMetrics_Sessions(t *testing.T) {
	m := newMetrics()

	m.RecordSessionEvent("established")
	m.RecordSessionEvent("purged")
	m.RecordSessionEvent("purged")
	m.UpdateActiveSessions(7)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionEvents.WithLabelValues("established")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SessionEvents.WithLabelValues("purged")))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.ActiveSessions))
}

func TestMetrics_RecordAuditWrite(t *testing.T) {
	m := newMetrics()

	m.RecordAuditWrite("postgres", true)
	m.RecordAuditWrite("kafka", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuditWrites.WithLabelValues("postgres", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuditWrites.WithLabelValues("kafka", "error")))
}

func TestMetrics_RecordCacheAccess(t *testing.T) {
	m := newMetrics()

	m.RecordCacheAccess("tenant_config", true)
	m.RecordCacheAccess("tenant_config", false)
	m.RecordCacheAccess("tenant_config", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheAccess.WithLabelValues("tenant_config", "hit")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheAccess.WithLabelValues("tenant_config", "miss")))
}

func TestMetrics_Database(t *testing.T) {
	m := newMetrics()

	m.RecordDBQuery("tenant_save", 5*time.Millisecond)
	m.UpdateDBConnections(12, 3)

	assert.Equal(t, 1, testutil.CollectAndCount(m.DBQueryLatency))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.DBConnections.WithLabelValues("active")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.DBConnections.WithLabelValues("idle")))
}

func TestMetrics_RecordVaultAPI(t *testing.T) {
	m := newMetrics()

	m.RecordVaultAPI("read", 20*time.Millisecond, nil)
	m.RecordVaultAPI("read", 5*time.Millisecond, errors.New("sealed"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.VaultAPICalls.WithLabelValues("read", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.VaultAPICalls.WithLabelValues("read", "error")))
}

func TestMetrics_HTTPHelpers(t *testing.T) {
	m := newMetrics()

	m.ActiveRequestsInc("/v1/analyze", "POST")
	m.ObserveRequestDuration("/v1/analyze", "POST", 200, 0.012)
	m.ObserveRequestDuration("/v1/analyze", "POST", 503, 0.002)
	m.IncRequestErrors("/v1/analyze", "POST", 503)
	m.ActiveRequestsDec("/v1/analyze", "POST")

	assert.Equal(t, float64(0), testutil.ToFloat64(m.HTTPActiveRequests.WithLabelValues("/v1/analyze", "POST")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.HTTPRequestDuration))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestErrors.WithLabelValues("/v1/analyze", "POST", "5xx")))
}

func TestMetricsAdapter_ImplementsDomainInterface(t *testing.T) {
	m := newMetrics()
	adapter := monitoring.NewMetricsAdapter(m)

	adapter.RecordAnalysis("tenant-1", "medium", "redact", 9*time.Millisecond, "")
	adapter.RecordQuotaDecision("tenant-1", "daily", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.AnalysisRequests.WithLabelValues("tenant-1", "medium", "redact", "none")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.QuotaDecisions.WithLabelValues("tenant-1", "daily", "denied")))
}
