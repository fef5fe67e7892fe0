package dto

import "time"

// WindowUsageDTO reports consumption of one quota window.
type WindowUsageDTO struct {
	Window    string    `json:"window"`
	Used      int64     `json:"used"`
	Limit     int64     `json:"limit"`
	Remaining int64     `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}

// UsageResponse is the tenant's current quota consumption across all
// windows. Enforced mirrors the tenant configuration: counters are kept
// either way, rejection only happens when enforcement is on.
type UsageResponse struct {
	TenantID string           `json:"tenant_id"`
	Enforced bool             `json:"enforced"`
	Windows  []WindowUsageDTO `json:"windows"`
}
