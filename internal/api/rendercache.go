package api

import (
	"sync"
	"time"
)

// renderCache keeps recently rendered chart PNGs so a page load with
// six chart images runs the pipeline once per distinct query, not six
// times past the source cache.
type renderCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]renderEntry
}

type renderEntry struct {
	data      []byte
	expiresAt time.Time
}

func newRenderCache(ttl time.Duration) *renderCache {
	return &renderCache{ttl: ttl, entries: make(map[string]renderEntry)}
}

func (c *renderCache) get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.data, true
}

func (c *renderCache) set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Opportunistic sweep keeps the map bounded without a janitor.
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = renderEntry{data: data, expiresAt: now.Add(c.ttl)}
}
