package distance

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
)

const failedRouteSentinel = "N/A"

// RedisCache keeps route results in Redis for a limited time
type RedisCache struct {
	Cache *cache.Cache[string]
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(ttl))

	return &RedisCache{
		Cache: cache.New[string](redisStore),
	}
}

func (r *RedisCache) Get(ctx context.Context, key Key) (*Result, error) {
	value, err := r.Cache.Get(ctx, key.String())
	if err != nil {
		return nil, ErrNotCached
	}

	if value == failedRouteSentinel {
		return nil, nil
	}

	var result Result
	if err := json.Unmarshal([]byte(value), &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *RedisCache) Set(ctx context.Context, key Key, result *Result) error {
	if result == nil {
		return r.Cache.Set(ctx, key.String(), failedRouteSentinel)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return r.Cache.Set(ctx, key.String(), string(resultJSON))
}
