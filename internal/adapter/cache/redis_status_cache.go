package cache

import (
	"context"
	"time"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/usecase"
	"github.com/redis/go-redis/v9"
)

// RedisStatusCache holds the latest known fulfillment status per order
// id / tracking number. Best-effort: a miss just means a provider
// lookup.
type RedisStatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStatusCache(rdb *redis.Client, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{rdb: rdb, ttl: ttl}
}

func (r *RedisStatusCache) SetStatus(ctx context.Context, key, status string) error {
	return r.rdb.Set(ctx, "order:status:"+key, status, r.ttl).Err()
}

func (r *RedisStatusCache) GetStatus(ctx context.Context, key string) (string, error) {
	val, err := r.rdb.Get(ctx, "order:status:"+key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

var _ usecase.StatusCache = (*RedisStatusCache)(nil)
