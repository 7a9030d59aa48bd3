package engine

import (
	"context"
	"errors"
	"strconv"
	"time"

	"sjsage522/alkotekaworker/logger"
	"sjsage522/alkotekaworker/services/cache"
)

const gateKeyPrefix = "ratelimit:"

// Gate holds requests to a host back while it is rate limited. The block is
// kept in a CacheService so several workers sharing memcached honour it.
type Gate struct {
	cache     cache.CacheService
	blockTime time.Duration
	poll      time.Duration
	log       *logger.Logger
}

// NewGate creates a gate blocking for blockTime unless the server asks otherwise
func NewGate(c cache.CacheService, blockTime time.Duration) *Gate {
	if c == nil {
		c = cache.NewMemoryService()
	}
	return &Gate{
		cache:     c,
		blockTime: blockTime,
		poll:      250 * time.Millisecond,
		log:       logger.ForCache(),
	}
}

// Block marks host as rate limited for d, or for the default block time when
// d is zero. Memcached expirations have second granularity, so shorter blocks
// are rounded up to one second.
func (g *Gate) Block(host string, d time.Duration) {
	if d <= 0 {
		d = g.blockTime
	}
	if d < time.Second {
		d = time.Second
	}
	value := []byte(strconv.Itoa(int(d / time.Second)))
	if err := g.cache.Set(gateKeyPrefix+host, value, d); err != nil {
		g.log.Warn().Err(err).Str("host", host).Msg("Failed to store rate limit block")
		return
	}
	g.log.Info().Str("host", host).Dur("block", d).Msg("Host rate limited, holding requests")
}

// Blocked reports whether host is currently rate limited
func (g *Gate) Blocked(host string) bool {
	_, err := g.cache.Get(gateKeyPrefix + host)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		g.log.Debug().Err(err).Str("host", host).Msg("Rate limit lookup failed, treating host as open")
	}
	return false
}

// Wait returns once host is no longer blocked or ctx is done
func (g *Gate) Wait(ctx context.Context, host string) error {
	for g.Blocked(host) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.poll):
		}
	}
	return ctx.Err()
}
