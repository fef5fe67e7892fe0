package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/repository"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// TenantRepoImpl implements repository.TenantRepository on PostgreSQL.
type TenantRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

var _ repository.TenantRepository = (*TenantRepoImpl)(nil)

// NewTenantRepository creates a PostgreSQL-backed tenant repository.
func NewTenantRepository(db *gorm.DB, log logger.Logger) repository.TenantRepository {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &TenantRepoImpl{
		db:     db,
		logger: log.WithComponent("tenant_repository"),
	}
}

// Save persists a new tenant.
func (r *TenantRepoImpl) Save(ctx context.Context, tenant *models.Tenant) *errors.AppError {
	startTime := time.Now()

	now := time.Now().UTC()
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = now
	}
	tenant.UpdatedAt = now
	if tenant.Status == "" {
		tenant.Status = constants.TenantStatusActive
	}

	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			r.logger.Warn(ctx, "tenant already exists",
				logger.String("tenant_id", tenant.TenantID),
				logger.String("tenant_name", tenant.TenantName),
			)
			return errors.ErrConflict.WithDetail("tenant_id", tenant.TenantID).
				WithDescription("tenant id, name or api key already in use")
		}
		r.logger.Error(ctx, "failed to create tenant", err,
			logger.String("tenant_name", tenant.TenantName),
		)
		return errors.ErrUnavailable.WithError(err).WithDescription("cannot persist tenant")
	}

	r.logger.Info(ctx, "tenant created",
		logger.String("tenant_id", tenant.TenantID),
		logger.String("tenant_name", tenant.TenantName),
		logger.String("status", string(tenant.Status)),
		logger.Int64("latency_ms", time.Since(startTime).Milliseconds()),
	)

	return nil
}

// FindByID retrieves a tenant by its identifier. Soft-deleted tenants are
// returned with DeletedAt set so admin tooling can inspect them.
func (r *TenantRepoImpl) FindByID(ctx context.Context, tenantID string) (*models.Tenant, *errors.AppError) {
	var tenant models.Tenant

	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&tenant).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Debug(ctx, "tenant not found", logger.String("tenant_id", tenantID))
			return nil, errors.ErrNotFound.WithDetail("tenant_id", tenantID)
		}
		r.logger.Error(ctx, "failed to retrieve tenant", err,
			logger.String("tenant_id", tenantID),
		)
		return nil, errors.ErrUnavailable.WithError(err).WithDescription("cannot read tenant")
	}

	return &tenant, nil
}

// FindByAPIKey retrieves a tenant by its public API key. Soft-deleted
// tenants are invisible here: a deleted tenant's key must not authenticate.
func (r *TenantRepoImpl) FindByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, *errors.AppError) {
	var tenant models.Tenant

	err := r.db.WithContext(ctx).
		Where("api_key = ? AND deleted_at IS NULL", apiKey).
		First(&tenant).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound.WithDescription("no tenant for api key")
		}
		r.logger.Error(ctx, "failed to retrieve tenant by api key", err)
		return nil, errors.ErrUnavailable.WithError(err).WithDescription("cannot read tenant")
	}

	return &tenant, nil
}

// FindAll lists tenants ordered by creation time, including soft-deleted ones.
func (r *TenantRepoImpl) FindAll(ctx context.Context, limit, offset int) ([]*models.Tenant, *errors.AppError) {
	if limit <= 0 {
		limit = 50
	}

	var tenants []*models.Tenant
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&tenants).Error
	if err != nil {
		r.logger.Error(ctx, "failed to list tenants", err)
		return nil, errors.ErrUnavailable.WithError(err).WithDescription("cannot list tenants")
	}

	return tenants, nil
}

// UpdateConfig persists the mutable configuration of an existing tenant.
// Identity fields (id, name, api key, secret hash) are not touched.
func (r *TenantRepoImpl) UpdateConfig(ctx context.Context, tenant *models.Tenant) *errors.AppError {
	now := time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("tenant_id = ? AND deleted_at IS NULL", tenant.TenantID).
		Updates(map[string]interface{}{
			"status":            tenant.Status,
			"quota_limits":      tenant.QuotaLimits,
			"risk_policy":       tenant.RiskPolicy,
			"scoring_overrides": tenant.ScoringOverrides,
			"updated_at":        now,
		})
	if result.Error != nil {
		r.logger.Error(ctx, "failed to update tenant config", result.Error,
			logger.String("tenant_id", tenant.TenantID),
		)
		return errors.ErrUnavailable.WithError(result.Error).WithDescription("cannot update tenant")
	}
	if result.RowsAffected == 0 {
		r.logger.Warn(ctx, "tenant not found for update", logger.String("tenant_id", tenant.TenantID))
		return errors.ErrNotFound.WithDetail("tenant_id", tenant.TenantID)
	}

	tenant.UpdatedAt = now
	r.logger.Info(ctx, "tenant config updated",
		logger.String("tenant_id", tenant.TenantID),
		logger.String("status", string(tenant.Status)),
	)

	return nil
}

// SoftDelete marks a tenant deleted without removing the row, so audit
// records keep a resolvable tenant reference.
func (r *TenantRepoImpl) SoftDelete(ctx context.Context, tenantID string) *errors.AppError {
	now := time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("tenant_id = ? AND deleted_at IS NULL", tenantID).
		Updates(map[string]interface{}{
			"status":     constants.TenantStatusDeleted,
			"deleted_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		r.logger.Error(ctx, "failed to soft-delete tenant", result.Error,
			logger.String("tenant_id", tenantID),
		)
		return errors.ErrUnavailable.WithError(result.Error).WithDescription("cannot delete tenant")
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound.WithDetail("tenant_id", tenantID)
	}

	r.logger.Info(ctx, "tenant soft-deleted", logger.String("tenant_id", tenantID))
	return nil
}
