package quota

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/service"
)

const memoryShardCount = 32

// MemoryQuotaStore keeps counters in process memory, sharded by tenant.
// Suited to single-node deployments and tests; counters vanish on restart.
type MemoryQuotaStore struct {
	shards [memoryShardCount]*memoryShard
}

type memoryShard struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
}

type windowCounter struct {
	segment string
	count   int64
}

var _ service.QuotaStore = (*MemoryQuotaStore)(nil)

// NewMemoryQuotaStore creates an empty in-memory quota store.
func NewMemoryQuotaStore() *MemoryQuotaStore {
	s := &MemoryQuotaStore{}
	for i := range s.shards {
		s.shards[i] = &memoryShard{counters: make(map[string]*windowCounter)}
	}
	return s
}

// shardFor hashes the tenant id so all windows of one tenant share a lock.
func (s *MemoryQuotaStore) shardFor(tenantID string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tenantID))
	return s.shards[h.Sum32()%memoryShardCount]
}

func counterKey(tenantID string, kind models.WindowKind) string {
	return tenantID + "|" + string(kind)
}

// TakeAll implements service.QuotaStore.
func (s *MemoryQuotaStore) TakeAll(_ context.Context, tenantID string, demands []service.WindowDemand) ([]int64, bool, error) {
	if len(demands) == 0 {
		return nil, true, nil
	}

	shard := s.shardFor(tenantID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	counters := make([]*windowCounter, len(demands))
	counts := make([]int64, len(demands))
	for i, d := range demands {
		key := counterKey(tenantID, d.Kind)
		seg := d.Kind.KeySegment(d.WindowStart)
		c, ok := shard.counters[key]
		if !ok {
			c = &windowCounter{segment: seg}
			shard.counters[key] = c
		} else if c.segment != seg {
			c.segment = seg
			c.count = 0
		}
		counters[i] = c
		counts[i] = c.count
	}

	for i, d := range demands {
		if d.Limit > 0 && counts[i]+1 > d.Limit {
			return counts, false, nil
		}
	}
	for i, c := range counters {
		c.count++
		counts[i] = c.count
	}
	return counts, true, nil
}

// Peek implements service.QuotaStore.
func (s *MemoryQuotaStore) Peek(_ context.Context, tenantID string, kind models.WindowKind, windowStart time.Time) (int64, error) {
	shard := s.shardFor(tenantID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	c, ok := shard.counters[counterKey(tenantID, kind)]
	if !ok || c.segment != kind.KeySegment(windowStart) {
		return 0, nil
	}
	return c.count, nil
}

// Reset drops every window counter of the tenant.
func (s *MemoryQuotaStore) Reset(_ context.Context, tenantID string) error {
	shard := s.shardFor(tenantID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	for _, kind := range models.AllWindowKinds {
		delete(shard.counters, counterKey(tenantID, kind))
	}
	return nil
}
