package cache

import (
	"context"
	"fmt"
	"time"
)

// Store holds rendered pages as opaque blobs. Entries expire after a fixed
// TTL and are never invalidated by content changes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Clear drops every entry.
	Clear(ctx context.Context) error
	Close() error
}

// Options selects and sizes a backend.
type Options struct {
	Driver string
	TTL    time.Duration
	Size   int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// New builds the backend named by opts.Driver ("memory" or "redis").
func New(ctx context.Context, opts Options) (Store, error) {
	if opts.TTL <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive")
	}
	switch opts.Driver {
	case "", "memory":
		return NewMemory(opts.Size, opts.TTL), nil
	case "redis":
		return NewRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix, opts.TTL)
	default:
		return nil, fmt.Errorf("unknown cache driver: %s", opts.Driver)
	}
}

// PageKey names a cached page. The viewer part keeps one user's rendering
// away from everyone else.
func PageKey(viewer, requestURI string) string {
	if viewer == "" {
		viewer = "anonymous"
	}
	return "page:" + viewer + ":" + requestURI
}
