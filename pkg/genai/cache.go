package genai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/infem06/progress/internal/domain"
)

// Cache stores raw generation results keyed by prompt digest, so a repeated
// identical request (same patient, keywords and start date) does not burn a
// second provider call.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// CacheKey derives the cache key for a model/prompt pair.
func CacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + prompt))
	return "genai:" + hex.EncodeToString(sum[:])
}

// RedisCache is the Redis-backed cache, for installations that already run
// Redis. Cache errors degrade to misses.
type RedisCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
	log        *logrus.Logger
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg domain.CacheConfig, logger *logrus.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{redis: client, defaultTTL: ttl, log: logger}, nil
}

// Get retrieves a cached result.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.WithError(err).Warn("Redis cache read failed")
		return nil, false
	}
	return val, true
}

// Set stores a result with the default TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) {
	if err := c.redis.Set(ctx, key, value, c.defaultTTL).Err(); err != nil {
		c.log.WithError(err).Warn("Redis cache write failed")
	}
}

// MemoryCache is the in-process fallback when no Redis is configured.
type MemoryCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryCache creates an expiring LRU cache.
func NewMemoryCache(maxItems int, ttl time.Duration) *MemoryCache {
	if maxItems <= 0 {
		maxItems = 128
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryCache{lru: expirable.NewLRU[string, []byte](maxItems, nil, ttl)}
}

// Get retrieves a cached result.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	return c.lru.Get(key)
}

// Set stores a result.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte) {
	c.lru.Add(key, value)
}
