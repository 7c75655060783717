package cache

import (
	"context"
	"time"
)

// LayeredCache implements a two-level cache (L1: memory, L2: Redis).
// Writes go through to Redis first; reads promote L2 hits into L1 for the
// remainder of l1TTL.
type LayeredCache struct {
	mem   *TTLCache
	redis *RedisCache
	l1TTL time.Duration
}

func NewLayeredCache(redis *RedisCache, l1TTL time.Duration) *LayeredCache {
	return &LayeredCache{mem: NewTTLCache(), redis: redis, l1TTL: l1TTL}
}

func (lc *LayeredCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, _ := lc.mem.GetBytes(ctx, key); ok {
		return b, true, nil
	}
	b, ok, err := lc.redis.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = lc.mem.SetBytes(ctx, key, b, lc.l1TTL)
	return b, true, nil
}

func (lc *LayeredCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := lc.redis.SetBytes(ctx, key, value, ttl); err != nil {
		return err
	}
	l1 := ttl
	if lc.l1TTL > 0 && (l1 <= 0 || lc.l1TTL < l1) {
		l1 = lc.l1TTL
	}
	return lc.mem.SetBytes(ctx, key, value, l1)
}

func (lc *LayeredCache) Ping(ctx context.Context) error { return lc.redis.Ping(ctx) }

// Sweep drops expired L1 keys.
func (lc *LayeredCache) Sweep() int { return lc.mem.Sweep() }

func (lc *LayeredCache) Close() error { return lc.redis.Close() }
