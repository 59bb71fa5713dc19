package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/employee-console/internal/employee"
	"github.com/frahmantamala/employee-console/internal/metrics"
	"github.com/redis/go-redis/v9"
)

// ListCache stores employee lists as JSON under prefix+key. Every written key is also
// recorded in an index set so Invalidate can drop them all at once.
type ListCache struct {
	client *redis.Client
	prefix string
}

func NewListCache(client *redis.Client, prefix string) employee.CacheAPI {
	if prefix == "" {
		prefix = "console:"
	}
	return &ListCache{client: client, prefix: prefix}
}

func (c *ListCache) indexKey() string {
	return c.prefix + "users:index"
}

func (c *ListCache) Get(ctx context.Context, key string) ([]employee.User, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.DirectoryCacheTotal.WithLabelValues("miss").Inc()
			return nil, false, nil
		}
		metrics.DirectoryCacheTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}

	var users []employee.User
	if err := json.Unmarshal(data, &users); err != nil {
		metrics.DirectoryCacheTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	metrics.DirectoryCacheTotal.WithLabelValues("hit").Inc()
	return users, true, nil
}

func (c *ListCache) Set(ctx context.Context, key string, users []employee.User, ttl time.Duration) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.prefix+key, data, ttl)
		pipe.SAdd(ctx, c.indexKey(), c.prefix+key)
		pipe.Expire(ctx, c.indexKey(), ttl*2)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (c *ListCache) Invalidate(ctx context.Context) error {
	keys, err := c.client.SMembers(ctx, c.indexKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("list cached keys: %w", err)
	}
	keys = append(keys, c.indexKey())
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate: %w", err)
	}
	return nil
}

// Ping lets the health check include redis.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
