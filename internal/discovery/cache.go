package discovery

import (
	"sync"
	"time"

	"github.com/cinescout/cinescout/internal/catalog"
)

// ItemCache is an in-memory TTL cache for fetched item lists: warmed
// popular pages and similar-movie lookups.
type ItemCache struct {
	mu       sync.RWMutex
	items    map[string]cacheEntry
	ttl      time.Duration
	maxItems int
}

type cacheEntry struct {
	items     []catalog.MovieItem
	expiresAt time.Time
}

// CacheConfig holds cache configuration.
type CacheConfig struct {
	TTL      time.Duration
	MaxItems int
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:      30 * time.Minute,
		MaxItems: 500,
	}
}

// NewItemCache creates a new cache with the given configuration.
func NewItemCache(cfg CacheConfig) *ItemCache {
	if cfg.TTL == 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.MaxItems == 0 {
		cfg.MaxItems = 500
	}

	c := &ItemCache{
		items:    make(map[string]cacheEntry),
		ttl:      cfg.TTL,
		maxItems: cfg.MaxItems,
	}

	go c.cleanup()

	return c
}

// Get retrieves a cached item list.
func (c *ItemCache) Get(key string) ([]catalog.MovieItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.items[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.items, true
}

// Set stores an item list under the default TTL.
func (c *ItemCache) Set(key string, items []catalog.MovieItem) {
	c.SetWithTTL(key, items, c.ttl)
}

// SetWithTTL stores an item list with a custom TTL.
func (c *ItemCache) SetWithTTL(key string, items []catalog.MovieItem, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.maxItems {
		c.evictExpired()
	}

	c.items[key] = cacheEntry{
		items:     items,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes an entry.
func (c *ItemCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all entries.
func (c *ItemCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]cacheEntry)
}

// Len returns the number of entries.
func (c *ItemCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// evictExpired removes expired entries; if none are expired and the cache
// is still full, the soonest-to-expire entry goes. Caller holds the lock.
func (c *ItemCache) evictExpired() {
	now := time.Now()
	for key, entry := range c.items {
		if now.After(entry.expiresAt) {
			delete(c.items, key)
		}
	}

	if len(c.items) >= c.maxItems {
		var oldestKey string
		var oldestAt time.Time
		for key, entry := range c.items {
			if oldestKey == "" || entry.expiresAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.expiresAt
			}
		}
		if oldestKey != "" {
			delete(c.items, oldestKey)
		}
	}
}

// cleanup periodically removes expired entries.
func (c *ItemCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, entry := range c.items {
			if now.After(entry.expiresAt) {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}
