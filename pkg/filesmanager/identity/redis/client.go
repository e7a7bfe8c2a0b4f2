package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// errKeyNotFound is returned by Get for a missing key
var errKeyNotFound = errors.New("key not found")

// redisClient is the subset of Redis commands the resolver uses
type redisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Del(ctx context.Context, key string) error
}

// goRedisClient implements redisClient on go-redis
type goRedisClient struct {
	client goredis.UniversalClient
}

var _ redisClient = (*goRedisClient)(nil)

func (c *goRedisClient) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", errKeyNotFound
	}
	return value, err
}

func (c *goRedisClient) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

func (c *goRedisClient) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
