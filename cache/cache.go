// Package cache provides the time-bounded result store for scrape results,
// keyed by normalized product name.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a cached scrape result stays visible.
const DefaultTTL = 12 * time.Hour

type entry struct {
	value    interface{}
	storedAt time.Time
}

// Cache is a TTL-bounded key/value store. Expiry is lazy: an expired entry
// is removed on the next Get rather than by a background sweep. There is no
// size bound; entries accumulate until invalidated or the process restarts.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache with the given TTL; ttl <= 0 uses DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Set stores a value under the key, resetting its lifetime.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, storedAt: c.now()}
}

// Get returns the stored value, or (nil, false) when the key is absent or
// past its TTL. An expired entry is purged before returning.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(item.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return item.value, true
}

// Invalidate removes a single entry.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// NormalizeKey derives the canonical cache key for a product name:
// case-folded with whitespace collapsed. Every caller must key through this
// so that "Samsung  TV" and "samsung tv" share one entry.
func NormalizeKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
