package service

import (
	"context"
	"time"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/errors"
)

// WindowUsage reports consumption of one quota window.
type WindowUsage struct {
	Kind        models.WindowKind `json:"window"`
	WindowStart time.Time         `json:"window_start"`
	Used        int64             `json:"used"`
	Limit       int64             `json:"limit"`
	Remaining   int64             `json:"remaining"`
	ResetsAt    time.Time         `json:"resets_at"`
}

// QuotaService defines the interface for checking and recording per-tenant
// request quotas. Checks are fail-closed: when the backing store cannot
// answer, the request is rejected rather than admitted unmetered.
type QuotaService interface {
	// Admit atomically checks every window and counts the request against
	// them. It returns ErrQuotaExceeded when any window is exhausted; a
	// rejected request consumes nothing.
	Admit(ctx context.Context, tenant *models.Tenant) *errors.AppError

	// Usage reports current consumption for all windows without counting.
	Usage(ctx context.Context, tenant *models.Tenant) ([]WindowUsage, *errors.AppError)
}

// WindowDemand names one window a request must fit in. A Limit of zero or
// below means the window counts usage but never rejects.
type WindowDemand struct {
	Kind        models.WindowKind
	WindowStart time.Time
	Limit       int64
}

// QuotaStore is the storage backend for quota counters. Implementations must
// make TakeAll atomic with respect to concurrent callers of the same tenant.
type QuotaStore interface {
	// TakeAll admits the request against every demanded window at once:
	// either all counters increment together or none do. A counter whose
	// stored window start differs from the demanded one rolls over to zero
	// before the check. Returns post-operation counts aligned with demands
	// and whether the request was admitted.
	TakeAll(ctx context.Context, tenantID string, demands []WindowDemand) ([]int64, bool, error)

	// Peek returns the current count for the window without incrementing.
	// A stale counter reads as zero.
	Peek(ctx context.Context, tenantID string, kind models.WindowKind, windowStart time.Time) (int64, error)
}
