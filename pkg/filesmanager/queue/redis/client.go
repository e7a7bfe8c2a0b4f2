package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// errEmpty is returned when a list has nothing to move
var errEmpty = errors.New("list is empty")

// redisClient is the subset of list commands the queue uses
type redisClient interface {
	LPush(ctx context.Context, key string, value string) error
	RPush(ctx context.Context, key string, value string) error
	BLMove(ctx context.Context, source, destination, srcpos, destpos string, timeout time.Duration) (string, error)
	LMove(ctx context.Context, source, destination, srcpos, destpos string) (string, error)
	LRem(ctx context.Context, key string, count int64, value string) (int64, error)
	LLen(ctx context.Context, key string) (int64, error)
}

// goRedisClient implements redisClient on go-redis
type goRedisClient struct {
	client goredis.UniversalClient
}

var _ redisClient = (*goRedisClient)(nil)

func (c *goRedisClient) LPush(ctx context.Context, key string, value string) error {
	return c.client.LPush(ctx, key, value).Err()
}

func (c *goRedisClient) RPush(ctx context.Context, key string, value string) error {
	return c.client.RPush(ctx, key, value).Err()
}

func (c *goRedisClient) BLMove(ctx context.Context, source, destination, srcpos, destpos string, timeout time.Duration) (string, error) {
	value, err := c.client.BLMove(ctx, source, destination, srcpos, destpos, timeout).Result()
	if errors.Is(err, goredis.Nil) {
		return "", errEmpty
	}
	return value, err
}

func (c *goRedisClient) LMove(ctx context.Context, source, destination, srcpos, destpos string) (string, error) {
	value, err := c.client.LMove(ctx, source, destination, srcpos, destpos).Result()
	if errors.Is(err, goredis.Nil) {
		return "", errEmpty
	}
	return value, err
}

func (c *goRedisClient) LRem(ctx context.Context, key string, count int64, value string) (int64, error) {
	return c.client.LRem(ctx, key, count, value).Result()
}

func (c *goRedisClient) LLen(ctx context.Context, key string) (int64, error) {
	return c.client.LLen(ctx, key).Result()
}
