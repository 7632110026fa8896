package pricer

import (
	"context"
	"strings"
	"sync"
	"time"
)

// ResponseCache holds resolved price maps for a bounded validity window.
type ResponseCache interface {
	Get(ctx context.Context, key string) (map[string]float64, bool)
	Set(ctx context.Context, key string, prices map[string]float64)
}

// CacheKey derives the cache key for a request. Addresses must already be
// normalized and sorted so identical sets always produce the same key.
func CacheKey(chainName string, addresses []string) string {
	return strings.ToLower(chainName) + "|" + strings.Join(addresses, ",")
}

type memoryEntry struct {
	prices    map[string]float64
	expiresAt time.Time
}

// MemoryCache is the in-process ResponseCache, used when no shared backend
// is configured.
type MemoryCache struct {
	mu   sync.RWMutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]memoryEntry
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:  ttl,
		now:  time.Now,
		data: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (map[string]float64, bool) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}

	prices := make(map[string]float64, len(entry.prices))
	for address, price := range entry.prices {
		prices[address] = price
	}
	return prices, true
}

func (c *MemoryCache) Set(_ context.Context, key string, prices map[string]float64) {
	stored := make(map[string]float64, len(prices))
	for address, price := range prices {
		stored[address] = price
	}

	now := c.now()
	c.mu.Lock()
	for existing, entry := range c.data {
		if now.After(entry.expiresAt) {
			delete(c.data, existing)
		}
	}
	c.data[key] = memoryEntry{prices: stored, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
}
