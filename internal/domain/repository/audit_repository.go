package repository

import (
	"context"
	"time"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/errors"
)

// AuditQuery narrows audit trail listings. Zero fields are ignored.
type AuditQuery struct {
	TenantID string
	Since    time.Time
	Until    time.Time
	Limit    int
	Offset   int
}

// AuditRepository defines the append-only interface for the audit trail.
// There is deliberately no update or delete: records are immutable once
// written and tampering is detected through their signatures.
type AuditRepository interface {
	// Append persists a new audit record.
	Append(ctx context.Context, record *models.AuditRecord) *errors.AppError

	// FindByID retrieves a single record.
	FindByID(ctx context.Context, id string) (*models.AuditRecord, *errors.AppError)

	// List retrieves records matching the query, newest first.
	List(ctx context.Context, query AuditQuery) ([]*models.AuditRecord, *errors.AppError)

	// CountByTenant returns the number of records for a tenant since the
	// given instant. Used by the verification CLI to bound scans.
	CountByTenant(ctx context.Context, tenantID string, since time.Time) (int64, *errors.AppError)
}
