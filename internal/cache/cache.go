package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"AreYouDead/pkg/breaker"
	"AreYouDead/pkg/logger"
)

// Cache Redis 上的去重、幂等与锁。Redis 不可用时全部放行（fail open），
// 宁可重复告警也不能漏发
type Cache struct {
	client redis.Cmdable
	prefix string
	cb     *breaker.CircuitBreaker
	log    *zap.Logger
}

// New client 为 nil 时所有操作直接放行
func New(client redis.Cmdable, prefix string) *Cache {
	if prefix == "" {
		prefix = "ayd"
	}
	return &Cache{
		client: client,
		prefix: prefix,
		cb:     breaker.New("redis", 5, 30*time.Second),
		log:    logger.Named("cache"),
	}
}

func (c *Cache) key(parts ...string) string {
	k := c.prefix
	for _, p := range parts {
		if p != "" {
			k += ":" + p
		}
	}
	return k
}

func (c *Cache) available() bool {
	return c != nil && c.client != nil
}

// setNX 返回 (acquired, err)；调用方决定出错时如何降级
func (c *Cache) setNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	var ok bool
	err := c.cb.Call(ctx, func(ctx context.Context) error {
		var err error
		ok, err = c.client.SetNX(ctx, key, value, ttl).Result()
		return err
	})
	return ok, err
}

func (c *Cache) set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.cb.Call(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, key, value, ttl).Err()
	})
}

func (c *Cache) del(ctx context.Context, key string) error {
	return c.cb.Call(ctx, func(ctx context.Context) error {
		return c.client.Del(ctx, key).Err()
	})
}
