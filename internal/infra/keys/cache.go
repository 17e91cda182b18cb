// Package keys maintains the privileged bypass key set consulted by the
// rate limiter. Keys come from static config, optionally refreshed from
// Postgres in the background.
package keys

import "sync"

// Cache is the in-memory key set. Replace swaps the whole set atomically;
// readers never see a partial load.
type Cache struct {
	mu    sync.RWMutex
	set   map[string]struct{}
	ready bool
}

func NewCache() *Cache {
	return &Cache{}
}

// Replace installs a new key set. An empty slice still marks the cache
// ready; ready means loaded, not non-empty.
func (c *Cache) Replace(keys []string) {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		set[k] = struct{}{}
	}
	c.mu.Lock()
	c.set = set
	c.ready = true
	c.mu.Unlock()
}

// Has reports membership. Satisfies the limiter's KeyChecker.
func (c *Cache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.set[key]
	return ok
}

// Ready reports whether the cache has been loaded at least once.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Len returns the current key count, for startup logging.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.set)
}
