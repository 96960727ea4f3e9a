package envelopecache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oceanchat/oceanchat/internal/domain/routing"
)

type cachedEnvelope struct {
	payload   routing.Envelope
	expiresAt time.Time
}

// MemoryCache is an in-memory envelope cache for tests/dev.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cachedEnvelope
	clock   clockwork.Clock
}

// NewMemoryCache constructs a cache backed by process memory.
func NewMemoryCache(clock clockwork.Clock) *MemoryCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryCache{
		entries: make(map[string]cachedEnvelope),
		clock:   clock,
	}
}

// Get implements routing.EnvelopeCache.
func (c *MemoryCache) Get(_ context.Context, key string) (routing.Envelope, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return routing.Envelope{}, false, nil
	}
	if !entry.expiresAt.IsZero() && c.clock.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return routing.Envelope{}, false, nil
	}
	return entry.payload, true, nil
}

// Set implements routing.EnvelopeCache.
func (c *MemoryCache) Set(_ context.Context, key string, env routing.Envelope, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = c.clock.Now().Add(ttl)
	}
	c.entries[key] = cachedEnvelope{payload: env, expiresAt: exp}
	return nil
}

var _ routing.EnvelopeCache = (*MemoryCache)(nil)
