package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService implements Service using memcache
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService creates a new memcache service
func NewMemcacheService(serverAddr string) *MemcacheService {
	return &MemcacheService{
		client: memcache.New(serverAddr),
	}
}

// Get retrieves a value from memcache
func (m *MemcacheService) Get(ctx context.Context, key string) ([]byte, error) {
	item, err := m.client.Get(memcacheKey(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Set stores a value in memcache with an expiration time
func (m *MemcacheService) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        memcacheKey(key),
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
}

// Delete removes a value from memcache
func (m *MemcacheService) Delete(ctx context.Context, key string) error {
	err := m.client.Delete(memcacheKey(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}

// Close is a no-op; idle memcache connections are reaped by the client
func (m *MemcacheService) Close() error {
	return nil
}

const maxMemcacheKey = 250

// memcacheKey returns key unchanged when memcache accepts it. Keys with
// spaces or control bytes, or longer than the protocol limit, are replaced
// by a hash of the whole key so distinct keys never collide.
func memcacheKey(key string) string {
	if len(key) <= maxMemcacheKey && !strings.ContainsFunc(key, func(r rune) bool { return r <= ' ' || r == 0x7f }) {
		return key
	}
	sum := sha1.Sum([]byte(key))
	return "sha1:" + hex.EncodeToString(sum[:])
}
