// Package session implements the volatile secure-session layer: an
// in-memory sharded store for session keys, the AEAD sealer for transport
// payloads, and the sweeper that purges expired sessions. Nothing in this
// package touches a persistence layer; restarting the process drops every
// session by design of the store, and clients re-handshake.
package session

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/service"
	"github.com/rampartlabs/rampart/pkg/errors"
)

const shardCount = 32

// MemoryStore holds live sessions sharded by session ID to keep lock
// contention low under concurrent handshakes and lookups.
type MemoryStore struct {
	shards [shardCount]*shard
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

var _ service.SessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty session store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*models.Session)}
	}
	return s
}

func (s *MemoryStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

// Put implements service.SessionStore.
func (s *MemoryStore) Put(session *models.Session) error {
	if session == nil || session.ID == "" {
		return errors.ErrInternal.WithDescription("session must carry an id")
	}
	sh := s.shardFor(session.ID)
	sh.mu.Lock()
	sh.sessions[session.ID] = session
	sh.mu.Unlock()
	return nil
}

// Get implements service.SessionStore. The returned session owns an
// independent copy of the key so a concurrent Delete cannot wipe bytes a
// caller is still encrypting with.
func (s *MemoryStore) Get(id string, now time.Time) *models.Session {
	sh := s.shardFor(id)

	sh.mu.RLock()
	session, ok := sh.sessions[id]
	sh.mu.RUnlock()
	if !ok {
		return nil
	}
	if session.IsExpired(now) {
		s.purgeOne(sh, id, now)
		return nil
	}

	cp := *session
	cp.Key = make([]byte, len(session.Key))
	copy(cp.Key, session.Key)
	return &cp
}

// purgeOne removes the session if it is still present and still expired
// under the write lock.
func (s *MemoryStore) purgeOne(sh *shard, id string, now time.Time) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if session, ok := sh.sessions[id]; ok && session.IsExpired(now) {
		session.Zero()
		delete(sh.sessions, id)
	}
}

// Delete implements service.SessionStore.
func (s *MemoryStore) Delete(id string) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if session, ok := sh.sessions[id]; ok {
		session.Zero()
		delete(sh.sessions, id)
	}
}

// PurgeExpired implements service.SessionStore.
func (s *MemoryStore) PurgeExpired(now time.Time) int {
	purged := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, session := range sh.sessions {
			if session.IsExpired(now) {
				session.Zero()
				delete(sh.sessions, id)
				purged++
			}
		}
		sh.mu.Unlock()
	}
	return purged
}

// Count implements service.SessionStore.
func (s *MemoryStore) Count() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return total
}
