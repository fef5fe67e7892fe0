// Package dto provides data transfer objects for the application layer.
package dto

import (
	"time"

	"github.com/rampartlabs/rampart/internal/domain/models"
)

// CreateTenantRequest provisions a new tenant.
type CreateTenantRequest struct {
	// Name is the display name of the tenant organization.
	Name string `json:"name" binding:"required" validate:"required"`

	// QuotaLimits optionally overrides the default request allowances.
	QuotaLimits *models.QuotaLimits `json:"quota_limits,omitempty"`

	// RiskPolicy optionally overrides the default disposition policy.
	RiskPolicy *models.RiskPolicy `json:"risk_policy,omitempty"`
}

// ProvisionTenantResponse is returned exactly once at provisioning time.
// APISecret is the only place the clear secret ever appears; the server
// stores its hash and cannot reproduce it.
type ProvisionTenantResponse struct {
	TenantID    string             `json:"tenant_id"`
	Name        string             `json:"name"`
	APIKey      string             `json:"api_key"`
	APISecret   string             `json:"api_secret"`
	Status      string             `json:"status"`
	QuotaLimits models.QuotaLimits `json:"quota_limits"`
	CreatedAt   time.Time          `json:"created_at"`
}

// TenantResponse is the admin view of a tenant. It never carries the
// secret or its hash.
type TenantResponse struct {
	TenantID         string                  `json:"tenant_id"`
	Name             string                  `json:"name"`
	APIKey           string                  `json:"api_key"`
	Status           string                  `json:"status"`
	QuotaLimits      models.QuotaLimits      `json:"quota_limits"`
	RiskPolicy       models.RiskPolicy       `json:"risk_policy"`
	ScoringOverrides models.ScoringOverrides `json:"scoring_overrides"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	DeletedAt        *time.Time              `json:"deleted_at,omitempty"`
}

// UpdateTenantRequest carries a partial configuration update. Nil fields
// keep their current value; identity fields cannot be changed.
type UpdateTenantRequest struct {
	Status           *string                  `json:"status,omitempty"`
	QuotaLimits      *models.QuotaLimits      `json:"quota_limits,omitempty"`
	RiskPolicy       *models.RiskPolicy       `json:"risk_policy,omitempty"`
	ScoringOverrides *models.ScoringOverrides `json:"scoring_overrides,omitempty"`
}

// ListTenantsRequest pages through tenants in creation order.
type ListTenantsRequest struct {
	Limit  int `json:"limit" form:"limit"`
	Offset int `json:"offset" form:"offset"`
}

// ListTenantsResponse is one page of tenants.
type ListTenantsResponse struct {
	Tenants []TenantSummary `json:"tenants"`
	Count   int             `json:"count"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// TenantSummary is the list-view projection of a tenant.
type TenantSummary struct {
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
