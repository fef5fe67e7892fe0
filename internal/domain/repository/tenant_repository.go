// Package repository 定义领域仓储接口
// 仓储接口遵循 DDD 原则，定义领域对象的持久化契约
package repository

import (
	"context"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/errors"
)

// TenantRepository defines the interface for interacting with tenant storage.
type TenantRepository interface {
	// FindByID retrieves a tenant by its identifier, including its configuration.
	FindByID(ctx context.Context, tenantID string) (*models.Tenant, *errors.AppError)

	// FindByAPIKey retrieves a tenant by its public API key. Used on the
	// authentication path, so implementations should be cache-friendly.
	FindByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, *errors.AppError)

	// FindAll retrieves a list of all tenants, with pagination.
	FindAll(ctx context.Context, limit, offset int) ([]*models.Tenant, *errors.AppError)

	// Save persists a new tenant.
	Save(ctx context.Context, tenant *models.Tenant) *errors.AppError

	// UpdateConfig updates a tenant's configuration.
	UpdateConfig(ctx context.Context, tenant *models.Tenant) *errors.AppError

	// SoftDelete marks a tenant deleted without removing the row, so audit
	// records keep a resolvable tenant reference.
	SoftDelete(ctx context.Context, tenantID string) *errors.AppError
}
