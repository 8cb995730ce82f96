package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/markolybrx/Celi-AI/internal/database"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached dashboard data
	CacheKeyPrefix = "cache:"
	// DefaultCacheTTL keeps dashboard reads (trivia, insight) off Mongo
	// between worker refreshes
	DefaultCacheTTL = 8 * time.Hour
	MinCacheTTL     = 6 * time.Hour
	MaxCacheTTL     = 12 * time.Hour
)

// CacheService provides read-through caching for dashboard payloads.
type CacheService struct{}

// Get retrieves a value from cache. A miss is not an error.
func (c *CacheService) Get(key string, dest interface{}) (bool, error) {
	ctx := context.Background()
	cacheKey := CacheKeyPrefix + key

	val, err := database.RedisClient.Get(ctx, cacheKey).Result()
	if err != nil {
		return false, nil
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}

	return true, nil
}

// Set stores a value in cache with the default TTL.
func (c *CacheService) Set(key string, value interface{}) error {
	return c.SetWithTTL(key, value, DefaultCacheTTL)
}

// SetWithTTL stores a value with a custom TTL, clamped to 6-12 hours.
func (c *CacheService) SetWithTTL(key string, value interface{}, ttl time.Duration) error {
	if ttl < MinCacheTTL {
		ttl = MinCacheTTL
	}
	if ttl > MaxCacheTTL {
		ttl = MaxCacheTTL
	}

	ctx := context.Background()
	cacheKey := CacheKeyPrefix + key

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return database.RedisClient.Set(ctx, cacheKey, data, ttl).Err()
}

// Delete drops a cached value (after a worker refresh or profile edit).
func (c *CacheService) Delete(key string) error {
	ctx := context.Background()
	return database.RedisClient.Del(ctx, CacheKeyPrefix+key).Err()
}
