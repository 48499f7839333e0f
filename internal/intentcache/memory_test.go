package intentcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_, ok := c.Get(ctx, "bot1", []string{"a", "b"}, "hello")
	assert.False(t, ok)

	c.Set(ctx, "bot1", []string{"a", "b"}, "hello", "a")
	result, ok := c.Get(ctx, "bot1", []string{"a", "b"}, "hello")
	require.True(t, ok)
	assert.Equal(t, "a", result)
}

func TestMemoryCache_OrderInsensitiveKey(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "bot1", []string{"a", "b"}, "hello", "a")
	result, ok := c.Get(ctx, "bot1", []string{"b", "a"}, "hello")
	require.True(t, ok)
	assert.Equal(t, "a", result)
}

func TestMemoryCache_NoMatchIsCacheable(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "bot1", []string{"a"}, "hello", "")
	result, ok := c.Get(ctx, "bot1", []string{"a"}, "hello")
	require.True(t, ok)
	assert.Empty(t, result)
}

func TestMemoryCache_Expires(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	key := Key("bot1", []string{"a"}, "hello")
	c.mu.Lock()
	c.entries[key] = entry{result: "a", expiresAt: time.Now().Add(-time.Second)}
	c.mu.Unlock()

	_, ok := c.Get(ctx, "bot1", []string{"a"}, "hello")
	assert.False(t, ok)
}
