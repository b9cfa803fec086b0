// file: internal/cache/cache.go
// version: 1.1.0
// guid: a1b2c3d4-e5f6-7a8b-9c0d-1e2f3a4b5c6d

package cache

import (
	"sync"
	"time"
)

// Cache memoizes catalog lookups so repeated searches and detail fetches for
// the same book do not hit the Audible API again. Entries expire after their
// TTL; expired entries are dropped lazily on the next Get.
type Cache[T any] struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry[T]
	defaultTTL time.Duration
}

type cacheEntry[T any] struct {
	value    T
	deadline time.Time
}

// New creates a cache whose Set entries live for defaultTTL.
func New[T any](defaultTTL time.Duration) *Cache[T] {
	return &Cache[T]{
		entries:    make(map[string]cacheEntry[T]),
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value for key. A hit past its deadline is removed
// and reported as a miss.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	if time.Now().After(e.deadline) {
		delete(c.entries, key)
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache[T]) Set(key string, value T) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL, overriding the
// default for this entry only.
func (c *Cache[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[T]{value: value, deadline: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Invalidate drops a single key.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll empties the cache.
func (c *Cache[T]) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry[T])
	c.mu.Unlock()
}

// Len reports how many entries are stored, including any not yet swept.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
