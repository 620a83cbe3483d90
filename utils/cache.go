package utils

import (
	"StudyVault/config"
	"StudyVault/internal/repo"
	"StudyVault/model"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis cache client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
	}
}

// Get reads a cached value.
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

// Set writes a cached value.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, string(data), expiration).Err()
}

// Delete removes a cache entry.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func materialKey(materialID uint64) string {
	return fmt.Sprintf("material:%d", materialID)
}

// CacheMaterial stores a material record with the configured TTL.
func CacheMaterial(ctx context.Context, m *model.Material) error {
	if repo.Redis == nil {
		return nil
	}
	cache := NewRedisCache(repo.Redis)
	return cache.Set(ctx, materialKey(m.ID), m, config.AppConfig.MaterialCacheTTL)
}

// GetCachedMaterial reads a material record from cache. Returns redis.Nil
// on a miss.
func GetCachedMaterial(ctx context.Context, materialID uint64) (*model.Material, error) {
	if repo.Redis == nil {
		return nil, redis.Nil
	}
	cache := NewRedisCache(repo.Redis)
	var m model.Material
	if err := cache.Get(ctx, materialKey(materialID), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// InvalidateMaterial drops a material's cache entry. Called on every write
// that changes moderation or content state.
func InvalidateMaterial(ctx context.Context, materialID uint64) error {
	if repo.Redis == nil {
		return nil
	}
	cache := NewRedisCache(repo.Redis)
	return cache.Delete(ctx, materialKey(materialID))
}
