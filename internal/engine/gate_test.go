package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sjsage522/alkotekaworker/services/cache"
)

// failingCache always errors, like an unreachable memcached
type failingCache struct{}

var _ cache.CacheService = failingCache{}

func (failingCache) Get(string) ([]byte, error) { return nil, errors.New("dial tcp: refused") }
func (failingCache) Set(string, []byte, time.Duration) error { return errors.New("dial tcp: refused") }
func (failingCache) Delete(string) error { return nil }

func TestGateBlocksHost(t *testing.T) {
	g := NewGate(cache.NewMemoryService(), time.Minute)

	assert.False(t, g.Blocked("alkoteka.com"))
	g.Block("alkoteka.com", 0)
	assert.True(t, g.Blocked("alkoteka.com"))
	assert.False(t, g.Blocked("example.com"))
}

func TestGateWaitHonoursContext(t *testing.T) {
	g := NewGate(cache.NewMemoryService(), time.Minute)
	g.poll = 5 * time.Millisecond
	g.Block("alkoteka.com", time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, g.Wait(ctx, "alkoteka.com"), context.DeadlineExceeded)
	assert.NoError(t, g.Wait(context.Background(), "example.com"))
}

func TestGateFailsOpen(t *testing.T) {
	g := NewGate(failingCache{}, time.Minute)
	g.Block("alkoteka.com", time.Second)
	assert.False(t, g.Blocked("alkoteka.com"))
}
