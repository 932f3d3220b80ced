package stats

import (
	"sync"
	"time"

	"debatefloor/internal/polymarket/dataapi"
)

type cacheEntry struct {
	positions []dataapi.Position
	cachedAt  time.Time
}

// cache is an in-memory TTL cache of wallet positions. Expired entries are
// evicted lazily on lookup.
type cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newCache(ttl time.Duration) *cache {
	return &cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *cache) get(wallet string) ([]dataapi.Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[wallet]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.cachedAt) >= c.ttl {
		delete(c.entries, wallet)
		return nil, false
	}
	return entry.positions, true
}

func (c *cache) set(wallet string, positions []dataapi.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[wallet] = cacheEntry{positions: positions, cachedAt: c.now()}
}

func (c *cache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
