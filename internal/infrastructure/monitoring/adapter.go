// Package monitoring provides adapters to connect the domain's metrics interface with a concrete implementation like Prometheus.
package monitoring

import (
	"time"

	"github.com/rampartlabs/rampart/internal/domain/service"
)

// MetricsAdapter implements the domain's service.Metrics interface, sending metrics to a Prometheus backend.
// This adapter translates the domain-specific metric calls into the appropriate Prometheus client calls.
// MetricsAdapter 实现了域的 service.Metrics 接口，将指标发送到 Prometheus 后端。
// 此适配器将特定于域的指标调用转换为适当的 Prometheus 客户端调用。
type MetricsAdapter struct {
	metrics *Metrics
}

// NewMetricsAdapter creates a new adapter that wraps a concrete Prometheus Metrics object,
// satisfying the domain's Metrics interface.
// NewMetricsAdapter 创建一个包装具体 Prometheus Metrics 对象的新适配器，
// 满足域的 Metrics 接口。
func NewMetricsAdapter(metrics *Metrics) service.Metrics {
	return &MetricsAdapter{metrics: metrics}
}

// RecordAnalysis delegates the call to the underlying Prometheus Metrics object.
// RecordAnalysis 将调用委托给底层的 Prometheus Metrics 对象。
func (a *MetricsAdapter) RecordAnalysis(tenantID, level, disposition string, duration time.Duration, errorCode string) {
	a.metrics.RecordAnalysis(tenantID, level, disposition, duration, errorCode)
}

// RecordDetector delegates the call to the underlying Prometheus Metrics object.
// RecordDetector 将调用委托给底层的 Prometheus Metrics 对象。
func (a *MetricsAdapter) RecordDetector(category string, duration time.Duration, failed bool) {
	a.metrics.RecordDetector(category, duration, failed)
}

// RecordQuotaDecision delegates the call to the underlying Prometheus Metrics object.
// RecordQuotaDecision 将调用委托给底层的 Prometheus Metrics 对象。
func (a *MetricsAdapter) RecordQuotaDecision(tenantID, window string, allowed bool) {
	a.metrics.RecordQuotaDecision(tenantID, window, allowed)
}

// RecordSessionEvent delegates the call to the underlying Prometheus Metrics object.
// RecordSessionEvent 将调用委托给底层的 Prometheus Metrics 对象。
func (a *MetricsAdapter) RecordSessionEvent(event string) {
	a.metrics.RecordSessionEvent(event)
}

// UpdateActiveSessions delegates the call to the underlying Prometheus Metrics object.
// UpdateActiveSessions 将调用委托给底层的 Prometheus Metrics 对象。
func (a *MetricsAdapter) UpdateActiveSessions(count int) {
	a.metrics.UpdateActiveSessions(count)
}

// RecordAuditWrite delegates the call to the underlying Prometheus Metrics object.
// RecordAuditWrite 将调用委托给底层的 Prometheus Metrics 对象。
func (a *MetricsAdapter) RecordAuditWrite(sink string, success bool) {
	a.metrics.RecordAuditWrite(sink, success)
}

// RecordCacheAccess delegates the call to the underlying Prometheus Metrics object.
// RecordCacheAccess 将调用委托给底层的 Prometheus Metrics 对象。
func (a *MetricsAdapter) RecordCacheAccess(cacheType string, hit bool) {
	a.metrics.RecordCacheAccess(cacheType, hit)
}

// RecordDBQuery delegates the call to the underlying Prometheus Metrics object.
// RecordDBQuery 将调用委托给底层的 Prometheus Metrics 对象。
func (a *MetricsAdapter) RecordDBQuery(operation string, duration time.Duration) {
	a.metrics.RecordDBQuery(operation, duration)
}

// UpdateDBConnections delegates the call to the underlying Prometheus Metrics object.
// UpdateDBConnections 将调用委托给底层的 Prometheus Metrics 对象。
func (a *MetricsAdapter) UpdateDBConnections(active, idle int) {
	a.metrics.UpdateDBConnections(active, idle)
}

// RecordVaultAPI delegates the call to the underlying Prometheus Metrics object.
// RecordVaultAPI 将调用委托给底层的 Prometheus Metrics 对象。
func (a *MetricsAdapter) RecordVaultAPI(operation string, duration time.Duration, err error) {
	a.metrics.RecordVaultAPI(operation, duration, err)
}
