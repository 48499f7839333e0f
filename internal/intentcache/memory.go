package intentcache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	result    string
	expiresAt time.Time
}

// MemoryCache is the fallback backend when no Redis URL is configured, with
// the same lazy-expiry-on-read behavior as Store session lookups.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]entry)}
}

func (c *MemoryCache) Get(_ context.Context, botId string, visibleNames []string, utterance string) (string, bool) {
	key := Key(botId, visibleNames, utterance)

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return "", false
	}
	return e.result, true
}

func (c *MemoryCache) Set(_ context.Context, botId string, visibleNames []string, utterance, result string) {
	key := Key(botId, visibleNames, utterance)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{result: result, expiresAt: time.Now().Add(TTL)}
}
