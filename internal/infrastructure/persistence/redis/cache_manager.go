package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// CacheManager provides the Redis cache operations the service relies on:
// generic key access plus the tenant configuration cache and the
// api-key-to-tenant index used on the authentication path.
type CacheManager interface {
	Get(ctx context.Context, key string) (string, *errors.AppError)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *errors.AppError
	Delete(ctx context.Context, key string) *errors.AppError
	Exists(ctx context.Context, key string) (bool, *errors.AppError)

	GetTenantConfig(ctx context.Context, tenantID string) (*models.Tenant, *errors.AppError)
	SetTenantConfig(ctx context.Context, tenant *models.Tenant, ttl time.Duration) *errors.AppError
	InvalidateTenantConfig(ctx context.Context, tenantID string) *errors.AppError

	LookupAPIKey(ctx context.Context, apiKey string) (string, *errors.AppError)
	IndexAPIKey(ctx context.Context, apiKey, tenantID string, ttl time.Duration) *errors.AppError
	DropAPIKey(ctx context.Context, apiKey string) *errors.AppError
}

// cachedTenant is the cache wire form. It exists because the domain model
// deliberately keeps the secret hash out of its JSON; the cache is the one
// place the hash must survive serialization for constant-time auth checks.
type cachedTenant struct {
	Tenant        *models.Tenant `json:"tenant"`
	APISecretHash string         `json:"api_secret_hash"`
}

type cacheManagerImpl struct {
	client redis.UniversalClient
	log    logger.Logger
}

// NewCacheManager creates a CacheManager over the given client.
func NewCacheManager(client redis.UniversalClient, log logger.Logger) CacheManager {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &cacheManagerImpl{client: client, log: log.WithComponent("cache_manager")}
}

func (c *cacheManagerImpl) Get(ctx context.Context, key string) (string, *errors.AppError) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", errors.ErrNotFound
		}
		return "", errors.ErrCache.WithError(err)
	}
	return val, nil
}

func (c *cacheManagerImpl) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *errors.AppError {
	var dataToStore interface{}
	switch v := value.(type) {
	case string, []byte, int, int32, int64, float32, float64, bool:
		dataToStore = v
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return errors.ErrCache.WithError(err)
		}
		dataToStore = b
	}

	if err := c.client.Set(ctx, key, dataToStore, ttl).Err(); err != nil {
		return errors.ErrCache.WithError(err)
	}
	return nil
}

func (c *cacheManagerImpl) Delete(ctx context.Context, key string) *errors.AppError {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return errors.ErrCache.WithError(err)
	}
	return nil
}

func (c *cacheManagerImpl) Exists(ctx context.Context, key string) (bool, *errors.AppError) {
	val, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, errors.ErrCache.WithError(err)
	}
	return val > 0, nil
}

func (c *cacheManagerImpl) GetTenantConfig(ctx context.Context, tenantID string) (*models.Tenant, *errors.AppError) {
	val, appErr := c.Get(ctx, tenantConfigKey(tenantID))
	if appErr != nil {
		return nil, appErr
	}

	var cached cachedTenant
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil, errors.ErrCache.WithError(err)
	}
	if cached.Tenant == nil {
		return nil, errors.ErrCache.WithDescription("cached tenant entry is empty")
	}
	cached.Tenant.APISecretHash = cached.APISecretHash
	return cached.Tenant, nil
}

func (c *cacheManagerImpl) SetTenantConfig(ctx context.Context, tenant *models.Tenant, ttl time.Duration) *errors.AppError {
	return c.Set(ctx, tenantConfigKey(tenant.TenantID), cachedTenant{
		Tenant:        tenant,
		APISecretHash: tenant.APISecretHash,
	}, ttl)
}

func (c *cacheManagerImpl) InvalidateTenantConfig(ctx context.Context, tenantID string) *errors.AppError {
	return c.Delete(ctx, tenantConfigKey(tenantID))
}

func (c *cacheManagerImpl) LookupAPIKey(ctx context.Context, apiKey string) (string, *errors.AppError) {
	return c.Get(ctx, apiKeyIndexKey(apiKey))
}

func (c *cacheManagerImpl) IndexAPIKey(ctx context.Context, apiKey, tenantID string, ttl time.Duration) *errors.AppError {
	return c.Set(ctx, apiKeyIndexKey(apiKey), tenantID, ttl)
}

func (c *cacheManagerImpl) DropAPIKey(ctx context.Context, apiKey string) *errors.AppError {
	return c.Delete(ctx, apiKeyIndexKey(apiKey))
}

func tenantConfigKey(tenantID string) string {
	return fmt.Sprintf("rampart:tenant:config:%s", tenantID)
}

func apiKeyIndexKey(apiKey string) string {
	return fmt.Sprintf("rampart:tenant:apikey:%s", apiKey)
}
