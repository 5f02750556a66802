package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// Service represents a generic cache service
type Service interface {
	// Get retrieves a value from the cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(ctx context.Context, key string) error

	Close() error
}

// Options selects and configures a backend for New
type Options struct {
	Backend      string // none, redis or memcache
	RedisAddr    string
	RedisDB      int
	MemcacheAddr string
}

// New builds the configured backend. "none" and "" give a cache that never hits.
func New(opts Options) (Service, error) {
	switch opts.Backend {
	case "", "none":
		return NopService{}, nil
	case "redis":
		return NewRedisService(opts.RedisAddr, opts.RedisDB), nil
	case "memcache":
		return NewMemcacheService(opts.MemcacheAddr), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// NopService never stores anything
type NopService struct{}

func (NopService) Get(ctx context.Context, key string) ([]byte, error) { return nil, ErrCacheMiss }

func (NopService) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return nil
}

func (NopService) Delete(ctx context.Context, key string) error { return nil }

func (NopService) Close() error { return nil }
