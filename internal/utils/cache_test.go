package utils

import (
	"context"
	"testing"
	"time"
	"yatube/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(10, time.Minute)

	_, ok := c.Get(ctx, "index", 1)
	assert.False(t, ok)

	c.Set(ctx, "index", 1, []byte("page one"))
	data, ok := c.Get(ctx, "index", 1)
	assert.True(t, ok)
	assert.Equal(t, "page one", string(data))
}

func TestLocalCacheExpires(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(10, time.Millisecond)

	c.Set(ctx, "index", 1, []byte("stale"))
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, "index", 1)
	assert.False(t, ok)
}

func TestLocalCacheInvalidateOnlyTouchesView(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(10, time.Minute)

	c.Set(ctx, "index", 1, []byte("a"))
	c.Set(ctx, "index", 2, []byte("b"))
	c.Set(ctx, "other", 1, []byte("c"))

	c.Invalidate(ctx, "index")

	_, ok := c.Get(ctx, "index", 1)
	assert.False(t, ok)
	_, ok = c.Get(ctx, "index", 2)
	assert.False(t, ok)
	_, ok = c.Get(ctx, "other", 1)
	assert.True(t, ok)
}

func TestPageKey(t *testing.T) {
	assert.Equal(t, "index:page:3", PageKey("index", 3))
}

func TestNewPageCacheBackends(t *testing.T) {
	ctx := context.Background()

	off := NewPageCache(ctx, &config.Config{IndexCacheTTL: 0})
	assert.IsType(t, NoCache{}, off)

	local := NewPageCache(ctx, &config.Config{IndexCacheTTL: time.Second, CacheSize: 10})
	assert.IsType(t, &LocalCache{}, local)
}

func TestNoCache(t *testing.T) {
	ctx := context.Background()
	var c PageCache = NoCache{}
	c.Set(ctx, "index", 1, []byte("x"))
	_, ok := c.Get(ctx, "index", 1)
	assert.False(t, ok)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "", mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisCache(client, time.Minute)
}

func TestRedisCacheGetSet(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestRedis(t)

	_, ok := c.Get(ctx, "index", 1)
	assert.False(t, ok)

	c.Set(ctx, "index", 1, []byte("page one"))
	data, ok := c.Get(ctx, "index", 1)
	assert.True(t, ok)
	assert.Equal(t, []byte("page one"), data)
	assert.True(t, mr.Exists("yatube:index:page:1"))

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "index", 1)
	assert.False(t, ok)
}

func TestRedisCacheInvalidateOnlyTouchesView(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestRedis(t)

	// 超过一次 SCAN 的数量
	for page := 1; page <= 150; page++ {
		c.Set(ctx, "index", page, []byte("x"))
	}
	c.Set(ctx, "group", 1, []byte("group page"))
	require.NoError(t, mr.Set("other:index:page:1", "foreign"))

	c.Invalidate(ctx, "index")

	for _, page := range []int{1, 100, 150} {
		_, ok := c.Get(ctx, "index", page)
		assert.False(t, ok, page)
	}
	data, ok := c.Get(ctx, "group", 1)
	assert.True(t, ok)
	assert.Equal(t, []byte("group page"), data)
	assert.True(t, mr.Exists("other:index:page:1"))
}

func TestNewPageCacheRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	byAddr := NewPageCache(ctx, &config.Config{IndexCacheTTL: time.Second, RedisAddr: mr.Addr()})
	assert.IsType(t, &RedisCache{}, byAddr)

	byURL := NewPageCache(ctx, &config.Config{IndexCacheTTL: time.Second, RedisURL: "redis://" + mr.Addr()})
	assert.IsType(t, &RedisCache{}, byURL)

	addr := mr.Addr()
	mr.Close()
	fallback := NewPageCache(ctx, &config.Config{IndexCacheTTL: time.Second, CacheSize: 10, RedisAddr: addr})
	assert.IsType(t, &LocalCache{}, fallback)
}
