// Package quota implements per-tenant usage counters and the admission
// service built on them. Counters roll over lazily: a stored window start
// that no longer matches the demanded one reads as zero, no scheduled reset
// job exists.
package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/service"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// takeAllScript admits one request against every window counter in a single
// atomic step. For window i, KEYS[i] is the counter hash, ARGV[2i-1] the
// window segment and ARGV[2i] the limit (0 or below counts without
// rejecting). The trailing #KEYS entries of ARGV carry per-key TTLs in
// milliseconds. Returns {allowed, count...} with post-operation counts.
const takeAllScript = `
local n = #KEYS
local counts = {}
for i = 1, n do
    local seg = ARGV[2*i-1]
    local cur = redis.call('HMGET', KEYS[i], 'window', 'count')
    local count = 0
    if cur[1] == seg then
        count = tonumber(cur[2]) or 0
    end
    counts[i] = count
end

for i = 1, n do
    local limit = tonumber(ARGV[2*i])
    if limit > 0 and counts[i] + 1 > limit then
        local out = {0}
        for j = 1, n do out[j+1] = counts[j] end
        return out
    end
end

local out = {1}
for i = 1, n do
    redis.call('HMSET', KEYS[i], 'window', ARGV[2*i-1], 'count', counts[i] + 1)
    redis.call('PEXPIRE', KEYS[i], tonumber(ARGV[2*n+i]))
    out[i+1] = counts[i] + 1
end
return out
`

// RedisQuotaStore keeps usage counters in Redis. It is the store for
// multi-node deployments where every instance must see the same counts.
type RedisQuotaStore struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    logger.Logger
}

var _ service.QuotaStore = (*RedisQuotaStore)(nil)

// NewRedisQuotaStore creates a Redis-backed quota store.
func NewRedisQuotaStore(client redis.UniversalClient, log logger.Logger) *RedisQuotaStore {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &RedisQuotaStore{
		client:    client,
		keyPrefix: "rampart:quota",
		logger:    log.WithComponent("quota_store"),
	}
}

// key builds the counter key. The braced tenant id is a cluster hash tag so
// every window of one tenant lands in the same slot, which the multi-key
// take script requires.
func (s *RedisQuotaStore) key(tenantID string, kind models.WindowKind) string {
	return fmt.Sprintf("%s:{%s}:%s", s.keyPrefix, tenantID, kind)
}

// TakeAll implements service.QuotaStore.
func (s *RedisQuotaStore) TakeAll(ctx context.Context, tenantID string, demands []service.WindowDemand) ([]int64, bool, error) {
	if len(demands) == 0 {
		return nil, true, nil
	}

	now := time.Now()
	keys := make([]string, len(demands))
	argv := make([]interface{}, 0, len(demands)*3)
	for i, d := range demands {
		keys[i] = s.key(tenantID, d.Kind)
		argv = append(argv, d.Kind.KeySegment(d.WindowStart), d.Limit)
	}
	for _, d := range demands {
		argv = append(argv, counterTTL(d, now).Milliseconds())
	}

	res, err := s.client.Eval(ctx, takeAllScript, keys, argv...).Result()
	if err != nil {
		return nil, false, err
	}
	slice, ok := res.([]interface{})
	if !ok || len(slice) != len(demands)+1 {
		return nil, false, fmt.Errorf("unexpected quota script result: %v", res)
	}

	allowed := evalInt64(slice[0]) == 1
	counts := make([]int64, len(demands))
	for i := range demands {
		counts[i] = evalInt64(slice[i+1])
	}
	return counts, allowed, nil
}

// Peek implements service.QuotaStore.
func (s *RedisQuotaStore) Peek(ctx context.Context, tenantID string, kind models.WindowKind, windowStart time.Time) (int64, error) {
	values, err := s.client.HMGet(ctx, s.key(tenantID, kind), "window", "count").Result()
	if err != nil {
		return 0, err
	}
	if len(values) < 2 {
		return 0, nil
	}
	seg, _ := values[0].(string)
	if seg != kind.KeySegment(windowStart) {
		return 0, nil
	}
	raw, _ := values[1].(string)
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, nil
	}
	return count, nil
}

// Reset drops every window counter of the tenant. Used by the admin surface;
// the next admission starts the windows from zero.
func (s *RedisQuotaStore) Reset(ctx context.Context, tenantID string) error {
	keys := make([]string, 0, len(models.AllWindowKinds))
	for _, kind := range models.AllWindowKinds {
		keys = append(keys, s.key(tenantID, kind))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil && err != redis.Nil {
		return err
	}
	s.logger.Debug(ctx, "quota counters reset", logger.String("tenant_id", tenantID))
	return nil
}

// counterTTL keeps a counter readable well past its window for usage reports,
// then lets Redis reclaim it. Rollover correctness never depends on the TTL
// firing.
func counterTTL(d service.WindowDemand, now time.Time) time.Duration {
	expiry := d.Kind.NextStart(d.WindowStart).Add(24 * time.Hour)
	ttl := expiry.Sub(now)
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return ttl
}

func evalInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case string:
		parsed, _ := strconv.ParseInt(n, 10, 64)
		return parsed
	default:
		return 0
	}
}
