// Package models defines the domain models.
package models

import "time"

// Session represents one secure transport session negotiated over the
// handshake endpoint. The key lives only in process memory: sessions are
// never persisted, never cached outside the store, and never logged.
// Session 代表通过握手端点协商的一个安全传输会话。
// 密钥仅存在于进程内存中：会话绝不持久化、绝不缓存到存储之外、绝不写入日志。
type Session struct {
	// ID is the opaque session identifier returned to the client.
	// ID 是返回给客户端的不透明会话标识符。
	ID string
	// TenantID is the tenant that negotiated the session.
	// TenantID 是协商该会话的租户。
	TenantID string
	// Key is the 32-byte symmetric key sealing payloads for this session.
	// Key 是为该会话封装负载的 32 字节对称密钥。
	Key []byte
	// CreatedAt is the timestamp when the session was established.
	// CreatedAt 是会话建立的时间戳。
	CreatedAt time.Time
	// ExpiresAt is the timestamp after which the session must be rejected and purged.
	// ExpiresAt 是会话必须被拒绝并清除的时间戳。
	ExpiresAt time.Time
}

// IsExpired reports whether the session has passed its expiry at the given instant.
// IsExpired 报告会话在给定时刻是否已过期。
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TTL returns the remaining lifetime at the given instant, never negative.
// TTL 返回给定时刻的剩余存活时间，不会为负。
func (s *Session) TTL(now time.Time) time.Duration {
	if s.IsExpired(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}

// Zero overwrites the key material in place. Stores call this before
// releasing a session so expired keys do not linger on the heap.
// Zero 就地清除密钥材料。存储在释放会话前调用它，避免过期密钥残留在堆上。
func (s *Session) Zero() {
	for i := range s.Key {
		s.Key[i] = 0
	}
	s.Key = nil
}
