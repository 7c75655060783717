package cache

import (
	"context"
	"fmt"
	"time"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
// A miss is reported with ok=false and a nil error.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Config struct {
	Backend string        `yaml:"backend" default:"memory" env:"CACHE_BACKEND" validate:"oneof=memory redis layered none"`
	TTL     time.Duration `yaml:"ttl" default:"60s" env:"CACHE_TTL"`
	// L1TTL bounds how long the layered backend keeps a key in memory.
	L1TTL time.Duration `yaml:"l1_ttl" default:"10s"`
	Redis RedisConfig   `yaml:"redis"`
}

// New builds the configured backend. It returns nil for backend "none".
func New(cfg Config) (BytesCache, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewTTLCache(), nil
	case "redis":
		return NewRedisCache(cfg.Redis), nil
	case "layered":
		return NewLayeredCache(NewRedisCache(cfg.Redis), cfg.L1TTL), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}
