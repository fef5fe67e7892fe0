// Package models defines the domain models for the rampart risk-mitigation service.
// This file contains the Tenant domain model with business logic.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rampartlabs/rampart/pkg/constants"
)

// Tenant represents an organization onboarded onto the risk-mitigation middleware.
// Each tenant has its own API credentials, quota limits, and scoring policy.
// Tenant 代表接入风险缓解中间件的一个组织。
// 每个租户都有自己的 API 凭证、配额限制和评分策略。
type Tenant struct {
	// TenantID is the unique identifier for the tenant.
	// TenantID 是租户的唯一标识符。
	TenantID string `gorm:"column:tenant_id;primaryKey" json:"tenant_id"`

	// TenantName is the display name of the tenant organization.
	// TenantName 是租户组织的显示名称。
	TenantName string `gorm:"column:tenant_name;uniqueIndex" json:"tenant_name"`

	// APIKey is the public identifier presented on every request ("rk_" prefix).
	// APIKey 是每个请求中携带的公开标识符（"rk_" 前缀）。
	APIKey string `gorm:"column:api_key;uniqueIndex" json:"api_key"`

	// APISecretHash is the SHA-256 hex digest of the tenant's API secret.
	// The clear secret is shown once at provisioning time and never stored.
	// APISecretHash 是租户 API 密钥的 SHA-256 十六进制摘要。
	// 明文密钥仅在开通时展示一次，绝不落盘。
	APISecretHash string `gorm:"column:api_secret_hash" json:"-"`

	// Status indicates the current status of the tenant (e.g., active, suspended, deleted).
	// Status 指示租户的当前状态（例如，活动、暂停、已删除）。
	Status constants.TenantStatus `gorm:"column:status;index" json:"status"`

	// QuotaLimits defines the request quota windows enforced for the tenant.
	// QuotaLimits 定义对租户强制执行的请求配额窗口。
	QuotaLimits QuotaLimits `gorm:"column:quota_limits;type:jsonb" json:"quota_limits"`

	// RiskPolicy defines how verdicts translate into dispositions for the tenant.
	// RiskPolicy 定义该租户的评估结论如何转化为处置决定。
	RiskPolicy RiskPolicy `gorm:"column:risk_policy;type:jsonb" json:"risk_policy"`

	// ScoringOverrides carries per-tenant adjustments to the default scoring
	// weights and level thresholds. Zero values fall back to service defaults.
	// ScoringOverrides 携带租户级别的评分权重和阈值调整。
	// 零值回退到服务默认值。
	ScoringOverrides ScoringOverrides `gorm:"column:scoring_overrides;type:jsonb" json:"scoring_overrides"`

	// CreatedAt is the timestamp when the tenant was created.
	// CreatedAt 是创建租户时的时间戳。
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`

	// UpdatedAt is the timestamp of the last update to the tenant's configuration.
	// UpdatedAt 是租户配置最后更新的时间戳。
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	// DeletedAt is the timestamp when the tenant was soft-deleted. A non-nil value indicates the tenant is deleted.
	// DeletedAt 是租户被软删除时的时间戳。非 nil 值表示租户已被删除。
	DeletedAt *time.Time `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

// TableName overrides the GORM table name.
func (Tenant) TableName() string {
	return "tenants"
}

// QuotaLimits defines the per-window request allowances for a tenant.
// QuotaLimits 定义租户每个窗口的请求额度。
type QuotaLimits struct {
	// DailyLimit is the maximum number of analyze requests per UTC day.
	// DailyLimit 是每个 UTC 日允许的最大分析请求数。
	DailyLimit int64 `json:"daily_limit"`

	// MonthlyLimit is the maximum number of analyze requests per UTC calendar month.
	// MonthlyLimit 是每个 UTC 日历月允许的最大分析请求数。
	MonthlyLimit int64 `json:"monthly_limit"`

	// Enforced indicates whether quota checks reject requests over the limit.
	// Enforced 指示配额检查是否拒绝超限请求。
	Enforced bool `json:"enforced"`
}

// Value implements driver.Valuer so the limits persist as a JSON column.
func (q QuotaLimits) Value() (driver.Value, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for reading the JSON column back.
func (q *QuotaLimits) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*q = QuotaLimits{}
		return nil
	case []byte:
		return json.Unmarshal(v, q)
	case string:
		return json.Unmarshal([]byte(v), q)
	default:
		return fmt.Errorf("quota limits: unsupported scan type %T", src)
	}
}

// RiskPolicy defines how risk verdicts map to request dispositions for a tenant.
// RiskPolicy 定义风险评估结论如何映射为租户请求的处置方式。
type RiskPolicy struct {
	// BlockHighRisk causes high and critical verdicts to be blocked outright.
	// BlockHighRisk 使高风险和严重风险的结论被直接拦截。
	BlockHighRisk bool `json:"block_high_risk"`

	// AutoRedact enables span redaction of detected sensitive content on
	// medium verdicts (and on high verdicts when blocking is disabled).
	// AutoRedact 在中风险结论（以及禁用拦截时的高风险结论）下启用敏感内容遮蔽。
	AutoRedact bool `json:"auto_redact"`
}

// Value implements driver.Valuer so the policy persists as a JSON column.
func (p RiskPolicy) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for reading the JSON column back.
func (p *RiskPolicy) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = RiskPolicy{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("risk policy: unsupported scan type %T", src)
	}
}

// LevelThresholds are the inclusive score cut points at which a category
// enters each risk level. Zero fields keep the service default; Low is the
// floor of the bottom bucket and may stay zero.
// LevelThresholds 是类别进入各风险等级的分数切点（含）。零值字段保持服务默认值。
type LevelThresholds struct {
	Low    float64 `json:"low,omitempty"`
	Medium float64 `json:"medium,omitempty"`
	High   float64 `json:"high,omitempty"`
}

// ScoringOverrides carries tenant-level adjustments to scoring defaults.
// A zero value means the service default applies.
// ScoringOverrides 携带租户级别的评分默认值调整。零值表示使用服务默认值。
type ScoringOverrides struct {
	// Weights overrides the aggregation weight per category.
	// Weights 覆盖每个类别的聚合权重。
	Weights map[Category]float64 `json:"weights,omitempty"`

	// ThresholdOverrides overrides the level cut points for single
	// categories. Categories absent from the map keep the tenant-wide or
	// service thresholds.
	// ThresholdOverrides 覆盖单个类别的等级切点。未出现的类别沿用租户级
	// 或服务级阈值。
	ThresholdOverrides map[Category]LevelThresholds `json:"threshold_overrides,omitempty"`

	// MediumThreshold overrides the score at which a category or verdict
	// becomes medium. Must stay below HighThreshold when both are set.
	// MediumThreshold 覆盖类别或结论升为中风险的分数。两者同时设置时必须低于 HighThreshold。
	MediumThreshold float64 `json:"medium_threshold,omitempty"`

	// HighThreshold overrides the score at which a category or verdict becomes high.
	// HighThreshold 覆盖类别或结论升为高风险的分数。
	HighThreshold float64 `json:"high_threshold,omitempty"`
}

// Value implements driver.Valuer so the overrides persist as a JSON column.
func (o ScoringOverrides) Value() (driver.Value, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for reading the JSON column back.
func (o *ScoringOverrides) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*o = ScoringOverrides{}
		return nil
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	default:
		return fmt.Errorf("scoring overrides: unsupported scan type %T", src)
	}
}

// NewTenant creates a new Tenant instance with a set of sensible default policies.
// This function should be used to initialize a new tenant before saving it.
// NewTenant 使用一组合理的默认策略创建一个新的 Tenant 实例。
// 此函数应用于在保存新租户之前对其进行初始化。
//
// Parameters:
//   - tenantID: The unique identifier for the new tenant.
//   - tenantName: The display name for the new tenant.
//
// Returns:
//   - *Tenant: A pointer to the newly created Tenant instance with default settings.
func NewTenant(tenantID, tenantName string) *Tenant {
	now := time.Now().UTC()
	return &Tenant{
		TenantID:   tenantID,
		TenantName: tenantName,
		Status:     constants.TenantStatusActive,
		QuotaLimits: QuotaLimits{
			DailyLimit:   constants.DefaultDailyLimit,
			MonthlyLimit: constants.DefaultMonthlyLimit,
			Enforced:     true,
		},
		RiskPolicy: RiskPolicy{
			BlockHighRisk: true,
			AutoRedact:    true,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive checks if the tenant's status is 'active' and it has not been soft-deleted.
// IsActive 检查租户的状态是否为“活动”且尚未被软删除。
func (t *Tenant) IsActive() bool {
	return t.Status == constants.TenantStatusActive && t.DeletedAt == nil
}

// IsSuspended checks if the tenant's status is 'suspended'.
// IsSuspended 检查租户的状态是否为“暂停”。
func (t *Tenant) IsSuspended() bool {
	return t.Status == constants.TenantStatusSuspended
}

// IsDeleted checks if the tenant has been soft-deleted.
// IsDeleted 检查租户是否已被软删除。
func (t *Tenant) IsDeleted() bool {
	return t.DeletedAt != nil
}

// LimitFor returns the configured allowance for the given quota window.
// LimitFor 返回给定配额窗口的配置额度。
func (t *Tenant) LimitFor(kind WindowKind) int64 {
	switch kind {
	case WindowMonthly:
		return t.QuotaLimits.MonthlyLimit
	default:
		return t.QuotaLimits.DailyLimit
	}
}

// Clone returns a deep copy of the tenant. Callers mutating configuration
// must clone first so cached instances stay immutable.
// Clone 返回租户的深拷贝。修改配置的调用方必须先克隆，使缓存实例保持不可变。
//
// Returns:
//   - *Tenant: An independent copy sharing no mutable state with the receiver.
func (t *Tenant) Clone() *Tenant {
	cp := *t
	if t.DeletedAt != nil {
		deleted := *t.DeletedAt
		cp.DeletedAt = &deleted
	}
	if t.ScoringOverrides.Weights != nil {
		cp.ScoringOverrides.Weights = make(map[Category]float64, len(t.ScoringOverrides.Weights))
		for k, v := range t.ScoringOverrides.Weights {
			cp.ScoringOverrides.Weights[k] = v
		}
	}
	if t.ScoringOverrides.ThresholdOverrides != nil {
		cp.ScoringOverrides.ThresholdOverrides = make(map[Category]LevelThresholds, len(t.ScoringOverrides.ThresholdOverrides))
		for k, v := range t.ScoringOverrides.ThresholdOverrides {
			cp.ScoringOverrides.ThresholdOverrides[k] = v
		}
	}
	return &cp
}
