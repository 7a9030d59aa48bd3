package cache

import (
	"errors"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	apperrors "sjsage522/alkotekaworker/pkg/errors"
)

const keyPrefix = "alkoteka:"

// MemcacheService implements CacheService using memcache
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService creates a new memcache service. addrs may list several
// servers separated by commas.
func NewMemcacheService(addrs string) *MemcacheService {
	servers := strings.Split(addrs, ",")
	for i := range servers {
		servers[i] = strings.TrimSpace(servers[i])
	}
	return &MemcacheService{
		client: memcache.New(servers...),
	}
}

// Ping checks that at least one server answers
func (m *MemcacheService) Ping() error {
	if err := m.client.Ping(); err != nil {
		return apperrors.NewCache("memcache", "ping failed", err)
	}
	return nil
}

// Get retrieves a value from memcache
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(keyPrefix + key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, apperrors.NewCache("memcache", "get "+key, err)
	}
	return item.Value, nil
}

// Set stores a value in memcache with an expiration time
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	err := m.client.Set(&memcache.Item{
		Key:        keyPrefix + key,
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
	if err != nil {
		return apperrors.NewCache("memcache", "set "+key, err)
	}
	return nil
}

// Delete removes a value from memcache
func (m *MemcacheService) Delete(key string) error {
	err := m.client.Delete(keyPrefix + key)
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return apperrors.NewCache("memcache", "delete "+key, err)
	}
	return nil
}
