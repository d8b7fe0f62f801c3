package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "user-browser-service/internal/domain/user"
)

// PageCache defines the interface for caching decoded remote pages.
type PageCache interface {
	// Get retrieves a page from cache.
	// Returns found=false if the page is not cached.
	Get(ctx context.Context, req domain.PageRequest) (records []domain.Record, found bool, err error)

	// Set stores a page in cache with the configured TTL.
	Set(ctx context.Context, req domain.PageRequest, records []domain.Record) error

	// Delete removes a page from cache.
	Delete(ctx context.Context, req domain.PageRequest) error
}

// RedisPageCache implements PageCache using Redis as the backing store.
type RedisPageCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisPageCache creates a new Redis-backed page cache.
func NewRedisPageCache(client *redis.Client, ttl time.Duration, log *zap.Logger) PageCache {
	return &RedisPageCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// cacheKey generates a Redis key for a page request. Unseeded pages are
// random per call, so they share the "-" seed slot and only live for the TTL.
func cacheKey(req domain.PageRequest) string {
	seed := req.Seed
	if seed == "" {
		seed = "-"
	}
	return fmt.Sprintf("randomuser:page:%s:%d:%d", seed, req.Size, req.Page)
}

// Get retrieves a page from Redis cache.
func (c *RedisPageCache) Get(ctx context.Context, req domain.PageRequest) ([]domain.Record, bool, error) {
	key := cacheKey(req)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		// Cache miss - not an error
		c.log.Debug("cache miss", zap.String("key", key))
		return nil, false, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, false, err
	}

	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		c.log.Error("failed to unmarshal cached page, evicting", zap.String("key", key), zap.Error(err))
		_ = c.Delete(ctx, req)
		return nil, false, err
	}

	c.log.Debug("cache hit", zap.String("key", key), zap.Int("count", len(records)))
	return records, true, nil
}

// Set stores a page in Redis cache with TTL.
func (c *RedisPageCache) Set(ctx context.Context, req domain.PageRequest, records []domain.Record) error {
	if records == nil {
		return fmt.Errorf("cannot cache nil page")
	}

	key := cacheKey(req)

	data, err := json.Marshal(records)
	if err != nil {
		c.log.Error("failed to marshal page for cache", zap.String("key", key), zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Error("failed to set cache", zap.String("key", key), zap.Error(err))
		return err
	}

	c.log.Debug("cached page", zap.String("key", key), zap.Int("count", len(records)), zap.Duration("ttl", c.ttl))
	return nil
}

// Delete removes a page from Redis cache.
func (c *RedisPageCache) Delete(ctx context.Context, req domain.PageRequest) error {
	key := cacheKey(req)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Error("failed to delete from cache", zap.String("key", key), zap.Error(err))
		return err
	}

	c.log.Debug("deleted from cache", zap.String("key", key))
	return nil
}
