package intentcache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const noMatchSentinel = "\x00nomatch"

// RedisCache backs the cache with go-redis when config.Cache.RedisURL is
// set. A miss or a transient Redis error is treated the same as a cold
// cache by the caller — the classification call simply goes out again,
// matching spec.md's "cache hit returns byte-identical output" framing (a
// cache failure must never change behavior, only latency).
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, botId string, visibleNames []string, utterance string) (string, bool) {
	key := Key(botId, visibleNames, utterance)
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("intentcache redis get failed", "error", err)
		}
		return "", false
	}
	if val == noMatchSentinel {
		return "", true
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, botId string, visibleNames []string, utterance, result string) {
	key := Key(botId, visibleNames, utterance)
	stored := result
	if stored == "" {
		stored = noMatchSentinel
	}
	if err := c.client.Set(ctx, key, stored, TTL).Err(); err != nil {
		slog.Warn("intentcache redis set failed", "error", err)
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
