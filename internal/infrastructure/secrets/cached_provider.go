package secrets

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/rampartlabs/rampart/internal/domain/service"
)

// CachedProvider memoizes secret reads for a TTL so hot paths (audit record
// signing) do not hit the backend per request. Errors are never cached.
type CachedProvider struct {
	inner service.SecretsProvider
	cache *gocache.Cache
}

var _ service.SecretsProvider = (*CachedProvider)(nil)

// NewCachedProvider wraps inner with a TTL cache. A non-positive ttl falls
// back to five minutes.
func NewCachedProvider(inner service.SecretsProvider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProvider{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// GetSecret implements service.SecretsProvider.
func (p *CachedProvider) GetSecret(ctx context.Context, path, field string) (string, error) {
	key := path + "#" + field
	if cached, ok := p.cache.Get(key); ok {
		return cached.(string), nil
	}

	value, err := p.inner.GetSecret(ctx, path, field)
	if err != nil {
		return "", err
	}

	p.cache.Set(key, value, gocache.DefaultExpiration)
	return value, nil
}
