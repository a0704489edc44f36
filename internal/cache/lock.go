package cache

import (
	"context"
	"time"
)

const lockPrefix = "lock"

// TryLock 多实例部署时保证同一时刻只有一个实例执行某个任务。
// Redis 不可用时视为获得锁
func (c *Cache) TryLock(ctx context.Context, name string, ttl time.Duration) bool {
	if !c.available() {
		return true
	}
	ok, err := c.setNX(ctx, c.key(lockPrefix, name), "1", ttl)
	if err != nil {
		return true
	}
	return ok
}

func (c *Cache) Unlock(ctx context.Context, name string) error {
	if !c.available() {
		return nil
	}
	return c.del(ctx, c.key(lockPrefix, name))
}
