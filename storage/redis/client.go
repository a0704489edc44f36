package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"AreYouDead/config"
	"AreYouDead/pkg/logger"
)

var client *redis.Client

// Init 连接 Redis；失败时 client 保持 nil，去重和限流按不可用降级
func Init() error {
	if client != nil {
		return nil
	}
	cfg := config.Cfg

	c := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		MinIdleConns: 2,
		MaxRetries:   2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return fmt.Errorf("failed to ping redis at %s: %w", cfg.RedisAddr, err)
	}

	if cfg.OTelEnabled {
		c.AddHook(NewTracingHook(cfg.ServiceName, cfg.RedisDB))
	}

	client = c
	logger.Logger.Info("Redis connected",
		zap.String("addr", cfg.RedisAddr),
		zap.Int("db", cfg.RedisDB),
		zap.Bool("tracing", cfg.OTelEnabled),
	)
	return nil
}

// Cmdable 未初始化时返回 nil 接口值，而不是带类型的 nil 指针
func Cmdable() redis.Cmdable {
	if client == nil {
		return nil
	}
	return client
}

func Close(_ context.Context) error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

// Key 以 REDIS_PREFIX 开头拼接 key，空段跳过
func Key(parts ...string) string {
	prefix := config.Cfg.RedisPrefix
	if prefix == "" {
		prefix = "ayd"
	}
	segs := make([]string, 0, len(parts)+1)
	segs = append(segs, prefix)
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return strings.Join(segs, ":")
}
