package utils

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"yatube/internal/config"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// PageCache 页面片段缓存, key 由视图名和页码组成
type PageCache interface {
	Get(ctx context.Context, view string, page int) ([]byte, bool)
	Set(ctx context.Context, view string, page int, data []byte)
	// Invalidate drops every cached page of view.
	Invalidate(ctx context.Context, view string)
}

// PageKey builds the cache key for one page of a view.
func PageKey(view string, page int) string {
	return fmt.Sprintf("%s:page:%d", view, page)
}

// CacheItem 包装缓存数据和过期时间
type CacheItem struct {
	Data      []byte
	ExpiresAt time.Time
}

// LocalCache 进程内 LRU 缓存
type LocalCache struct {
	lruCache *lru.Cache[string, CacheItem]
	ttl      time.Duration
}

func NewLocalCache(size int, ttl time.Duration) *LocalCache {
	l, err := lru.New[string, CacheItem](size)
	if err != nil {
		log.Fatalf("Failed to create LRU cache: %v", err)
	}
	return &LocalCache{lruCache: l, ttl: ttl}
}

func (c *LocalCache) Set(_ context.Context, view string, page int, data []byte) {
	c.lruCache.Add(PageKey(view, page), CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(c.ttl),
	})
}

// Get 获取缓存，若不存在或已过期则返回 false
func (c *LocalCache) Get(_ context.Context, view string, page int) ([]byte, bool) {
	key := PageKey(view, page)
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil, false
	}

	if time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil, false
	}

	return val.Data, true
}

func (c *LocalCache) Invalidate(_ context.Context, view string) {
	prefix := view + ":page:"
	for _, key := range c.lruCache.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lruCache.Remove(key)
		}
	}
}

// RedisCache shares cached pages between processes.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: "yatube:"}
}

// NewRedisClient connects using REDIS_URL when set, otherwise addr/password.
func NewRedisClient(ctx context.Context, redisURL, addr, password string) (*redis.Client, error) {
	var client *redis.Client
	if redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, view string, page int) ([]byte, bool) {
	val, err := c.client.Get(ctx, c.prefix+PageKey(view, page)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[PageCache] Get FAILED: view=%s page=%d err=%v", view, page, err)
		return nil, false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, view string, page int, data []byte) {
	if err := c.client.Set(ctx, c.prefix+PageKey(view, page), data, c.ttl).Err(); err != nil {
		log.Printf("[PageCache] Set FAILED: view=%s page=%d err=%v", view, page, err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, view string) {
	pattern := c.prefix + view + ":page:*"
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			log.Printf("[PageCache] Invalidate FAILED: view=%s err=%v", view, err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				log.Printf("[PageCache] Invalidate FAILED: view=%s err=%v", view, err)
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// NoCache disables caching.
type NoCache struct{}

func (NoCache) Get(context.Context, string, int) ([]byte, bool) {
	return nil, false
}

func (NoCache) Set(context.Context, string, int, []byte) {}

func (NoCache) Invalidate(context.Context, string) {}

// NewPageCache picks the cache backend: Redis when configured and reachable,
// otherwise the in-process LRU. A zero TTL disables caching.
func NewPageCache(ctx context.Context, cfg *config.Config) PageCache {
	if cfg.IndexCacheTTL <= 0 {
		log.Println("[PageCache] Disabled")
		return NoCache{}
	}

	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		client, err := NewRedisClient(ctx, cfg.RedisURL, cfg.RedisAddr, cfg.RedisPassword)
		if err == nil {
			log.Println("[PageCache] Using Redis")
			return NewRedisCache(client, cfg.IndexCacheTTL)
		}
		log.Printf("[PageCache] Redis unavailable, falling back to LRU: %v", err)
	}

	log.Printf("[PageCache] Using in-process LRU (size=%d)", cfg.CacheSize)
	return NewLocalCache(cfg.CacheSize, cfg.IndexCacheTTL)
}
