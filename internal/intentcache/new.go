package intentcache

import "log/slog"

// New returns a RedisCache when redisURL is non-empty and reachable,
// falling back to an in-process MemoryCache otherwise (including on a
// failed Redis connection, logged but non-fatal — spec.md treats the cache
// as a pure optimization, never a hard dependency).
func New(redisURL string) Cache {
	if redisURL == "" {
		return NewMemoryCache()
	}
	rc, err := NewRedisCache(redisURL)
	if err != nil {
		slog.Warn("intentcache: redis unavailable, falling back to in-process cache", "error", err)
		return NewMemoryCache()
	}
	return rc
}
