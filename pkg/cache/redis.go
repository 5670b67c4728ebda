package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"irisplate/pkg/domain"
)

const keyPrefix = "extraction:"

// RedisCache keeps extraction results in Redis with TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache builds a Redis-backed extraction cache.
func NewRedisCache(addr, password string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

// Get returns the cached extraction for an image digest, if present.
func (c *RedisCache) Get(ctx context.Context, digest string) (domain.Extraction, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+digest).Bytes()
	if err == redis.Nil {
		return domain.Extraction{}, false, nil
	}
	if err != nil {
		return domain.Extraction{}, false, err
	}
	var extraction domain.Extraction
	if err := json.Unmarshal(val, &extraction); err != nil {
		// A corrupt entry behaves as a miss; the pipeline will overwrite it.
		return domain.Extraction{}, false, nil
	}
	return extraction, true, nil
}

// Set stores an extraction result under the image digest.
func (c *RedisCache) Set(ctx context.Context, digest string, extraction domain.Extraction) error {
	val, err := json.Marshal(extraction)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+digest, val, c.ttl).Err()
}
