package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampartlabs/rampart/internal/domain/models"
	redisinfra "github.com/rampartlabs/rampart/internal/infrastructure/persistence/redis"
	"github.com/rampartlabs/rampart/pkg/errors"
)

func newCacheManager(t *testing.T) (redisinfra.CacheManager, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redisinfra.NewCacheManager(client, nil), s
}

func TestCacheManager_SetGetDelete(t *testing.T) {
	cache, _ := newCacheManager(t)
	ctx := context.Background()

	require.Nil(t, cache.Set(ctx, "k1", "v1", time.Minute))

	val, appErr := cache.Get(ctx, "k1")
	require.Nil(t, appErr)
	assert.Equal(t, "v1", val)

	exists, appErr := cache.Exists(ctx, "k1")
	require.Nil(t, appErr)
	assert.True(t, exists)

	require.Nil(t, cache.Delete(ctx, "k1"))
	_, appErr = cache.Get(ctx, "k1")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
}

func TestCacheManager_TenantConfigKeepsSecretHash(t *testing.T) {
	cache, mr := newCacheManager(t)
	ctx := context.Background()

	tenant := models.NewTenant("t-1", "acme")
	tenant.APIKey = "rk_live_1"
	tenant.APISecretHash = "d0e1f2"
	tenant.QuotaLimits.DailyLimit = 42

	require.Nil(t, cache.SetTenantConfig(ctx, tenant, time.Minute))

	got, appErr := cache.GetTenantConfig(ctx, "t-1")
	require.Nil(t, appErr)
	assert.Equal(t, "acme", got.TenantName)
	assert.Equal(t, int64(42), got.QuotaLimits.DailyLimit)
	// The domain model hides the hash from JSON; the cache must not lose it.
	assert.Equal(t, "d0e1f2", got.APISecretHash)

	assert.Greater(t, mr.TTL("rampart:tenant:config:t-1"), time.Duration(0))
}

func TestCacheManager_TenantConfigMiss(t *testing.T) {
	cache, _ := newCacheManager(t)

	_, appErr := cache.GetTenantConfig(context.Background(), "t-none")

	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
}

func TestCacheManager_InvalidateTenantConfig(t *testing.T) {
	cache, _ := newCacheManager(t)
	ctx := context.Background()

	tenant := models.NewTenant("t-2", "globex")
	require.Nil(t, cache.SetTenantConfig(ctx, tenant, time.Minute))
	require.Nil(t, cache.InvalidateTenantConfig(ctx, "t-2"))

	_, appErr := cache.GetTenantConfig(ctx, "t-2")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
}

func TestCacheManager_APIKeyIndex(t *testing.T) {
	cache, _ := newCacheManager(t)
	ctx := context.Background()

	require.Nil(t, cache.IndexAPIKey(ctx, "rk_live_9", "t-9", time.Minute))

	tenantID, appErr := cache.LookupAPIKey(ctx, "rk_live_9")
	require.Nil(t, appErr)
	assert.Equal(t, "t-9", tenantID)

	require.Nil(t, cache.DropAPIKey(ctx, "rk_live_9"))
	_, appErr = cache.LookupAPIKey(ctx, "rk_live_9")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
}

func TestCacheManager_UnreachableRedis(t *testing.T) {
	cache, mr := newCacheManager(t)
	mr.Close()

	_, appErr := cache.Get(context.Background(), "k")

	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeUnavailable, appErr.Code)
}
