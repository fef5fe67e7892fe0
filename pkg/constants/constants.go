// Package constants defines system-wide constants for the Rampart risk
// mitigation service. This package provides type-safe constant definitions
// used across all modules.
package constants

import "time"

// ================================================================================
// Service Identity Constants
// ================================================================================

const (
	// ServiceName is the canonical service identifier used in logs, traces and metrics
	ServiceName = "rampart-guard"

	// MetricsNamespace is the prefix for all Prometheus metric names
	MetricsNamespace = "rampart"

	// APIVersionPrefix is the base path for the versioned HTTP API
	APIVersionPrefix = "/api/v1"
)

// ================================================================================
// HTTP Header Constants
// ================================================================================

const (
	// HeaderAPIKey carries the tenant API key on data-plane requests
	HeaderAPIKey = "X-API-Key"

	// HeaderAPISecret carries the tenant API secret on data-plane requests
	HeaderAPISecret = "X-API-Secret"

	// HeaderRequestID carries the request correlation identifier
	HeaderRequestID = "X-Request-ID"

	// HeaderAuthorization is the standard bearer header used by the admin plane
	HeaderAuthorization = "Authorization"
)

// ================================================================================
// Session Constants
// ================================================================================

const (
	// SessionKeySize is the symmetric key length in bytes (AES-256)
	SessionKeySize = 32

	// SessionNonceSize is the AEAD nonce length in bytes (GCM standard)
	SessionNonceSize = 12

	// SessionDefaultTTL is the default session lifetime
	SessionDefaultTTL = 30 * time.Minute

	// SessionMinTTL is the minimum allowed session lifetime
	SessionMinTTL = 1 * time.Minute

	// SessionMaxTTL is the maximum allowed session lifetime
	SessionMaxTTL = 24 * time.Hour

	// SessionSweepInterval is the default interval for the expired-session sweeper
	SessionSweepInterval = 5 * time.Minute

	// SessionStoreShards is the number of lock shards in the in-memory session table
	SessionStoreShards = 32
)

// ================================================================================
// Quota Window Constants
// ================================================================================

const (
	// QuotaDailyKeyTTL is how long a daily usage counter outlives its window.
	// The extra day keeps the previous window readable for usage reports.
	QuotaDailyKeyTTL = 48 * time.Hour

	// QuotaMonthlyKeyTTL is how long a monthly usage counter outlives its window
	QuotaMonthlyKeyTTL = 62 * 24 * time.Hour

	// DefaultDailyLimit is the per-tenant daily request limit applied at registration
	DefaultDailyLimit = 1_000

	// DefaultMonthlyLimit is the per-tenant monthly request limit applied at registration
	DefaultMonthlyLimit = 10_000
)

// ================================================================================
// Cache TTL Constants
// ================================================================================

const (
	// TenantConfigCacheTTL is the local cache lifetime for tenant configurations
	TenantConfigCacheTTL = 5 * time.Minute

	// TenantConfigRedisTTL is the shared (L2) cache lifetime for tenant configurations
	TenantConfigRedisTTL = 30 * time.Minute

	// SigningKeyCacheTTL is the cache lifetime for the audit signing key
	SigningKeyCacheTTL = 1 * time.Hour
)

// ================================================================================
// Cache Key Prefix Constants
// ================================================================================

const (
	// CacheKeyPrefixQuota is the prefix for usage counter entries
	CacheKeyPrefixQuota = "quota:"

	// CacheKeyPrefixTenantConfig is the prefix for tenant configuration cache entries
	CacheKeyPrefixTenantConfig = "tenant:config:"

	// CacheKeyPrefixAPIKey is the prefix for api-key to tenant-id lookups
	CacheKeyPrefixAPIKey = "tenant:apikey:"
)

// ================================================================================
// Audit Event Constants
// ================================================================================

// AuditEventType represents different types of auditable events
type AuditEventType string

const (
	// EventTypeAnalysis represents a completed analysis request
	EventTypeAnalysis AuditEventType = "analysis"

	// EventTypeQuotaRejection represents an admission denied by the quota tracker
	EventTypeQuotaRejection AuditEventType = "quota_rejection"

	// EventTypeAuthFailure represents a failed authentication attempt
	EventTypeAuthFailure AuditEventType = "auth_failure"
)

// ================================================================================
// Tenant Status Constants
// ================================================================================

// TenantStatus represents the operational status of a tenant
type TenantStatus string

const (
	// TenantStatusActive indicates the tenant is active and operational
	TenantStatusActive TenantStatus = "active"

	// TenantStatusSuspended indicates the tenant is temporarily suspended
	TenantStatusSuspended TenantStatus = "suspended"

	// TenantStatusDeleted indicates the tenant has been marked for deletion
	TenantStatusDeleted TenantStatus = "deleted"
)

// ================================================================================
// Service Configuration Constants
// ================================================================================

const (
	// DefaultServicePort is the default HTTP service port
	DefaultServicePort = 8080

	// DefaultLivenessCheckPath is the liveness check endpoint path
	DefaultLivenessCheckPath = "/health/live"

	// DefaultReadinessCheckPath is the readiness check endpoint path
	DefaultReadinessCheckPath = "/health/ready"

	// DefaultRequestTimeout is the default request timeout
	DefaultRequestTimeout = 10 * time.Second

	// DefaultShutdownTimeout is the graceful shutdown timeout
	DefaultShutdownTimeout = 30 * time.Second

	// MaxAnalyzeTextBytes is the largest accepted analysis payload
	MaxAnalyzeTextBytes = 64 * 1024
)

// ================================================================================
// Logging Constants
// ================================================================================

// LogLevel represents the severity level of log messages
type LogLevel string

const (
	// LogLevelDebug is the most verbose logging level
	LogLevelDebug LogLevel = "debug"

	// LogLevelInfo is the standard informational logging level
	LogLevelInfo LogLevel = "info"

	// LogLevelWarn indicates potential issues
	LogLevelWarn LogLevel = "warn"

	// LogLevelError indicates errors that need attention
	LogLevelError LogLevel = "error"
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey represents keys used in context.Context
type ContextKey string

const (
	// ContextKeyRequestID is the key for request ID in context
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyTraceID is the key for distributed trace ID in context
	ContextKeyTraceID ContextKey = "trace_id"

	// ContextKeyTenantID is the key for tenant ID in context
	ContextKeyTenantID ContextKey = "tenant_id"

	// ContextKeySessionID is the key for session ID in context
	ContextKeySessionID ContextKey = "session_id"

	// ContextKeyClientIP is the key for client IP address in context
	ContextKeyClientIP ContextKey = "client_ip"
)
