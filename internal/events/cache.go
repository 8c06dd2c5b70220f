package events

import (
	"context"
	"strings"
	"sync"
	"time"
)

type cacheEntry struct {
	events    []Event
	timestamp time.Time
}

// CachedSource remembers lookups for ttl, keyed by normalized location and
// category. Errors are never cached.
type CachedSource struct {
	next Source
	ttl  time.Duration
	now  func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewCachedSource(next Source, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSource{
		next:  next,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cacheEntry),
	}
}

func (c *CachedSource) Find(ctx context.Context, location, category string) ([]Event, error) {
	key := strings.ToLower(strings.TrimSpace(location)) + "|" + strings.ToLower(strings.TrimSpace(category))

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok {
		if c.now().Sub(entry.timestamp) < c.ttl {
			c.mu.Unlock()
			return entry.events, nil
		}
		delete(c.cache, key)
	}
	c.mu.Unlock()

	found, err := c.next.Find(ctx, location, category)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{events: found, timestamp: c.now()}
	c.mu.Unlock()
	return found, nil
}
