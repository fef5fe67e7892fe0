package redis

import (
	"context"
	"time"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/repository"
	"github.com/rampartlabs/rampart/internal/domain/service"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// CachedTenantRepository decorates a TenantRepository with the Redis tenant
// cache. Reads on the authentication path hit Redis first; writes go
// through to the inner repository and invalidate the affected entries.
// Cache failures never fail a request, the inner repository is consulted
// instead.
type CachedTenantRepository struct {
	inner   repository.TenantRepository
	cache   CacheManager
	ttl     time.Duration
	metrics service.Metrics
	logger  logger.Logger
}

var _ repository.TenantRepository = (*CachedTenantRepository)(nil)

// NewCachedTenantRepository wraps inner with the tenant cache. A
// non-positive ttl falls back to five minutes.
func NewCachedTenantRepository(inner repository.TenantRepository, cache CacheManager, ttl time.Duration, metrics service.Metrics, log logger.Logger) *CachedTenantRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &CachedTenantRepository{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  log.WithComponent("cached_tenant_repository"),
	}
}

// FindByID serves from the cache when possible and fills it on a miss.
func (r *CachedTenantRepository) FindByID(ctx context.Context, tenantID string) (*models.Tenant, *errors.AppError) {
	if tenant, appErr := r.cache.GetTenantConfig(ctx, tenantID); appErr == nil {
		r.recordAccess("tenant_config", true)
		return tenant, nil
	}
	r.recordAccess("tenant_config", false)

	tenant, appErr := r.inner.FindByID(ctx, tenantID)
	if appErr != nil {
		return nil, appErr
	}
	r.fill(ctx, tenant)
	return tenant, nil
}

// FindByAPIKey resolves the api-key index, then the config cache. Both are
// filled from the inner repository on a miss.
func (r *CachedTenantRepository) FindByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, *errors.AppError) {
	if tenantID, appErr := r.cache.LookupAPIKey(ctx, apiKey); appErr == nil {
		if tenant, appErr := r.cache.GetTenantConfig(ctx, tenantID); appErr == nil {
			r.recordAccess("api_key", true)
			return tenant, nil
		}
	}
	r.recordAccess("api_key", false)

	tenant, appErr := r.inner.FindByAPIKey(ctx, apiKey)
	if appErr != nil {
		return nil, appErr
	}
	r.fill(ctx, tenant)
	return tenant, nil
}

// FindAll always reads through: listings are an admin operation and must
// not serve stale pages.
func (r *CachedTenantRepository) FindAll(ctx context.Context, limit, offset int) ([]*models.Tenant, *errors.AppError) {
	return r.inner.FindAll(ctx, limit, offset)
}

// Save writes through. The cache fills on the next read.
func (r *CachedTenantRepository) Save(ctx context.Context, tenant *models.Tenant) *errors.AppError {
	return r.inner.Save(ctx, tenant)
}

// UpdateConfig writes through and invalidates the cached config so the new
// policy takes effect on the next request.
func (r *CachedTenantRepository) UpdateConfig(ctx context.Context, tenant *models.Tenant) *errors.AppError {
	if appErr := r.inner.UpdateConfig(ctx, tenant); appErr != nil {
		return appErr
	}
	if appErr := r.cache.InvalidateTenantConfig(ctx, tenant.TenantID); appErr != nil {
		r.logger.Warn(ctx, "failed to invalidate tenant cache",
			logger.String("tenant_id", tenant.TenantID),
			logger.Error(appErr),
		)
	}
	return nil
}

// SoftDelete writes through and drops both cache entries so the deleted
// tenant's key stops authenticating immediately.
func (r *CachedTenantRepository) SoftDelete(ctx context.Context, tenantID string) *errors.AppError {
	tenant, findErr := r.inner.FindByID(ctx, tenantID)

	if appErr := r.inner.SoftDelete(ctx, tenantID); appErr != nil {
		return appErr
	}

	if appErr := r.cache.InvalidateTenantConfig(ctx, tenantID); appErr != nil {
		r.logger.Warn(ctx, "failed to invalidate tenant cache",
			logger.String("tenant_id", tenantID),
			logger.Error(appErr),
		)
	}
	if findErr == nil && tenant.APIKey != "" {
		if appErr := r.cache.DropAPIKey(ctx, tenant.APIKey); appErr != nil {
			r.logger.Warn(ctx, "failed to drop api key index",
				logger.String("tenant_id", tenantID),
				logger.Error(appErr),
			)
		}
	}
	return nil
}

func (r *CachedTenantRepository) fill(ctx context.Context, tenant *models.Tenant) {
	if appErr := r.cache.SetTenantConfig(ctx, tenant, r.ttl); appErr != nil {
		r.logger.Warn(ctx, "failed to fill tenant cache",
			logger.String("tenant_id", tenant.TenantID),
			logger.Error(appErr),
		)
		return
	}
	if tenant.APIKey != "" {
		if appErr := r.cache.IndexAPIKey(ctx, tenant.APIKey, tenant.TenantID, r.ttl); appErr != nil {
			r.logger.Warn(ctx, "failed to fill api key index",
				logger.String("tenant_id", tenant.TenantID),
				logger.Error(appErr),
			)
		}
	}
}

func (r *CachedTenantRepository) recordAccess(cacheType string, hit bool) {
	if r.metrics != nil {
		r.metrics.RecordCacheAccess(cacheType, hit)
	}
}
