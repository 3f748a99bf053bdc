package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cartloom/taxbridge/types/api/responses"
)

type memoryEntry struct {
	response  *responses.GetTaxResponse
	expiresAt time.Time
}

// MemoryCache is an in-process TaxCache with idle expiry: each hit extends
// the entry's lifetime. Suitable for single-process deployments and tests;
// use RedisCache when multiple processes must share cached results.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// GetOrCompute returns the cached response for key, computing and storing
// it on a miss. The compute call runs outside the lock so a slow external
// call never blocks other readers.
func (c *MemoryCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) (*responses.GetTaxResponse, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && c.now().Before(entry.expiresAt) {
		entry.expiresAt = c.now().Add(ttl)
		c.entries[key] = entry
		c.mu.Unlock()
		return entry.response, nil
	}
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	response, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{response: response, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()

	return response, nil
}

// Invalidate drops a key, forcing the next read to recompute.
func (c *MemoryCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
