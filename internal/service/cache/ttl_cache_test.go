package cache

import (
	"context"
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)
	c := NewTTLCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.SetBytes(ctx, "a", []byte("1"), time.Minute)
	_ = c.SetBytes(ctx, "b", []byte("2"), 0)

	if b, ok, _ := c.GetBytes(ctx, "a"); !ok || string(b) != "1" {
		t.Fatalf("expected hit for a")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.GetBytes(ctx, "a"); ok {
		t.Fatalf("a should have expired")
	}
	if _, ok, _ := c.GetBytes(ctx, "b"); !ok {
		t.Fatalf("b has no ttl and should stay")
	}
}

func TestTTLCacheSweep(t *testing.T) {
	now := time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)
	c := NewTTLCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		_ = c.SetBytes(ctx, k, []byte(k), time.Second)
	}
	_ = c.SetBytes(ctx, "d", []byte("d"), time.Hour)

	now = now.Add(time.Minute)
	if n := c.Sweep(); n != 3 || c.Len() != 1 {
		t.Fatalf("swept %d, left %d", n, c.Len())
	}
}

func TestNewBackend(t *testing.T) {
	if c, err := New(Config{Backend: "memory"}); err != nil || c == nil {
		t.Fatalf("memory backend: %v", err)
	}
	if c, err := New(Config{Backend: "none"}); err != nil || c != nil {
		t.Fatalf("none backend should be nil")
	}
	if _, err := New(Config{Backend: "memcached"}); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestNewLayeredBackend(t *testing.T) {
	c, err := New(Config{Backend: "layered", L1TTL: time.Second, Redis: RedisConfig{Addr: "localhost:6379"}})
	if err != nil {
		t.Fatalf("layered backend: %v", err)
	}
	lc, ok := c.(*LayeredCache)
	if !ok {
		t.Fatalf("expected *LayeredCache, got %T", c)
	}
	if lc.l1TTL != time.Second {
		t.Fatalf("l1 ttl = %v", lc.l1TTL)
	}
	_ = lc.Close()
}

func TestLayeredCacheServesFromMemory(t *testing.T) {
	lc := NewLayeredCache(NewRedisCache(RedisConfig{Addr: "127.0.0.1:1"}), time.Minute)
	defer lc.Close()
	ctx := context.Background()

	// L1 hits never reach the unreachable Redis layer.
	_ = lc.mem.SetBytes(ctx, "k", []byte("v"), time.Minute)
	b, ok, err := lc.GetBytes(ctx, "k")
	if err != nil || !ok || string(b) != "v" {
		t.Fatalf("expected L1 hit, got %q %v %v", b, ok, err)
	}
	if err := lc.SetBytes(ctx, "k2", []byte("v2"), time.Minute); err == nil {
		t.Fatalf("write-through should fail when redis is down")
	}
	if _, ok, _ := lc.mem.GetBytes(ctx, "k2"); ok {
		t.Fatalf("failed write must not populate L1")
	}
}
