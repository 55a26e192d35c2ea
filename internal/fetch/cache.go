package fetch

import "sync"

// Cache stores resolved values by composite key ("<url>|<path>"). A stored
// empty string is the failure sentinel and counts as resolved.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Len() int
	// Flush drops every entry and returns how many were dropped.
	Flush() int
}

// MemoryCache is a mutex-guarded in-memory Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *MemoryCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]string)
	}
	c.entries[key] = value
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) Flush() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]string)
	return n
}
