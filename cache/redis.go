package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cartloom/taxbridge/logger"
	"github.com/cartloom/taxbridge/types/api/responses"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const taxKeyPrefix = "tax:"

// RedisConfig configures the shared cache connection.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisCache is a TaxCache backed by Redis, for deployments where multiple
// processes serve the same orders. Cache errors degrade to a recompute; tax
// calculation never fails because the cache is down.
type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisCache creates a Redis-backed tax cache.
func NewRedisCache(cfg RedisConfig) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisCache{
		client: client,
		log:    logger.Log,
	}
}

// GetOrCompute returns the cached response for key, computing and storing
// it on a miss. Hits extend the key's idle lifetime.
func (c *RedisCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) (*responses.GetTaxResponse, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	fullKey := taxKeyPrefix + key

	data, err := c.client.Get(ctx, fullKey).Bytes()
	if err == nil {
		var response responses.GetTaxResponse
		if unmarshalErr := json.Unmarshal(data, &response); unmarshalErr == nil {
			c.client.Expire(ctx, fullKey, ttl)
			c.log.Debug("tax cache hit", zap.String("key", key))
			return &response, nil
		}
		c.log.Error("corrupt tax cache entry, recomputing",
			zap.String("key", key))
	} else if err != redis.Nil {
		c.log.Error("tax cache read error, recomputing",
			zap.String("key", key),
			zap.Error(err))
	}

	response, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(response)
	if err != nil {
		c.log.Error("failed to encode tax response for cache",
			zap.String("key", key),
			zap.Error(err))
		return response, nil
	}
	if err := c.client.Set(ctx, fullKey, encoded, ttl).Err(); err != nil {
		c.log.Error("tax cache write error",
			zap.String("key", key),
			zap.Error(err))
	}
	return response, nil
}

// Invalidate drops a key, forcing the next read to recompute.
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, taxKeyPrefix+key).Err()
}
