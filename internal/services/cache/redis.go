package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tax-credit-engine/internal/utils"
)

// RedisCache is a Cache backed by a Redis server.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a cache talking to the Redis server at addr.
func NewRedisCache(addr, password string) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	return &RedisCache{client: rdb}
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Ping checks connectivity to the server.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Open returns a Redis-backed cache when addr is set and reachable, and an
// in-memory cache otherwise.
func Open(ctx context.Context, addr, password string) Cache {
	if addr == "" {
		return NewMemoryCache()
	}

	rc := NewRedisCache(addr, password)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		utils.GetLogger().Warn("Redis unreachable, falling back to in-memory cache",
			zap.String("addr", addr),
			zap.Error(err),
		)
		_ = rc.Close()
		return NewMemoryCache()
	}

	utils.GetLogger().Info("Using Redis cache", zap.String("addr", addr))
	return rc
}
