// Package service defines the interfaces for domain services.
package service

import (
	"time"
)

// Metrics defines the interface for collecting business metrics.
// This abstraction allows the application layer to remain independent of the specific monitoring implementation (e.g., Prometheus).
// Metrics 定义了收集业务指标的接口。
// 这种抽象使应用层能够独立于具体的监控实现（例如 Prometheus）。
type Metrics interface {
	// RecordAnalysis records one completed analyze request with its outcome.
	// RecordAnalysis 记录一次完成的分析请求及其结果。
	RecordAnalysis(tenantID, level, disposition string, duration time.Duration, errorCode string)

	// RecordDetector records a single detector pass.
	// RecordDetector 记录单个检测器的一次执行。
	RecordDetector(category string, duration time.Duration, failed bool)

	// RecordQuotaDecision records a quota admission check per window.
	// RecordQuotaDecision 记录每个窗口的配额准入检查。
	RecordQuotaDecision(tenantID, window string, allowed bool)

	// RecordSessionEvent records session lifecycle events (established, closed, expired, purged).
	// RecordSessionEvent 记录会话生命周期事件（建立、关闭、过期、清除）。
	RecordSessionEvent(event string)

	// UpdateActiveSessions updates the gauge of live secure sessions.
	// UpdateActiveSessions 更新活跃安全会话的仪表盘。
	UpdateActiveSessions(count int)

	// RecordAuditWrite records an audit sink write attempt.
	// RecordAuditWrite 记录一次审计落盘尝试。
	RecordAuditWrite(sink string, success bool)

	// RecordCacheAccess records a cache hit or miss.
	// RecordCacheAccess 记录缓存命中或未命中。
	RecordCacheAccess(cacheType string, hit bool)

	// RecordDBQuery records the duration of a database query.
	// RecordDBQuery 记录数据库查询的持续时间。
	RecordDBQuery(operation string, duration time.Duration)

	// UpdateDBConnections updates the gauge for the current number of database connections.
	// UpdateDBConnections 更新当前数据库连接数的仪表盘。
	UpdateDBConnections(active, idle int)

	// RecordVaultAPI records the latency and error status of a Vault API call.
	// RecordVaultAPI 记录 Vault API 调用的延迟和错误状态。
	RecordVaultAPI(operation string, duration time.Duration, err error)
}
