package auth

import (
	"context"
	"fmt"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/redis/go-redis/v9"
)

// Revocations records signed-out session ids until their token would have
// expired. After that the signature check rejects the token on its own, so
// entries never need to outlive it.
type Revocations interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// =========================================================================
// REDIS
// =========================================================================

const revokedKeyPrefix = "aurabetz:revoked:"

// RedisRevocations stores each revoked jti as a key with a TTL, so a sign-out
// is visible to every server instance sharing the Redis.
type RedisRevocations struct {
	rdb *redis.Client
}

var _ Revocations = (*RedisRevocations)(nil)

func NewRedisRevocations(rdb *redis.Client) *RedisRevocations {
	return &RedisRevocations{rdb: rdb}
}

func (r *RedisRevocations) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.rdb.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("auth: revoking session %s: %w", jti, err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("auth: checking session %s: %w", jti, err)
	}
	return n > 0, nil
}

// =========================================================================
// IN-MEMORY
// =========================================================================

// MemoryRevocations is the single-instance fallback used when no Redis is
// configured, and in tests. Expired entries are dropped lazily on lookup.
type MemoryRevocations struct {
	entries cmap.ConcurrentMap[string, time.Time]
	now     func() time.Time
}

var _ Revocations = (*MemoryRevocations)(nil)

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{entries: cmap.New[time.Time](), now: time.Now}
}

func (m *MemoryRevocations) Revoke(_ context.Context, jti string, until time.Time) error {
	if !until.After(m.now()) {
		return nil
	}
	m.entries.Set(jti, until)
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	until, ok := m.entries.Get(jti)
	if !ok {
		return false, nil
	}
	if !until.After(m.now()) {
		m.entries.Remove(jti)
		return false, nil
	}
	return true, nil
}

// Len is the number of entries currently held, expired or not.
func (m *MemoryRevocations) Len() int {
	return m.entries.Count()
}
