package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"AreYouDead/config"
	"AreYouDead/pkg/errors"
	"AreYouDead/pkg/logger"
	"AreYouDead/pkg/response"
	"AreYouDead/storage/redis"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	KeyPrefix     string
	Window        int // 窗口时长，秒
	MaxRequests   int
	BlockDuration int // 超限后封禁时长，秒，0 表示不封禁
	BySubject     bool
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		KeyPrefix:   "api:rate",
		Window:      60,
		MaxRequests: config.Cfg.RateLimitRPM,
		BySubject:   true,
	}
}

// CheckInRateLimitConfig 打卡接口，防止脚本刷打卡
func CheckInRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		KeyPrefix:     "checkin:rate",
		Window:        60,
		MaxRequests:   10,
		BlockDuration: 300,
	}
}

// RateLimiter 基于 Redis ZSET 的滑动窗口限流器
type RateLimiter struct {
	config RateLimitConfig
	client redislib.Cmdable
}

func NewRateLimiter(config RateLimitConfig, client redislib.Cmdable) *RateLimiter {
	return &RateLimiter{
		config: config,
		client: client,
	}
}

// getKey 生成限流键，有令牌时按 subject，否则按 IP
func (rl *RateLimiter) getKey(ctx context.Context, c *app.RequestContext) string {
	var identifier string

	if rl.config.BySubject {
		if sub, exists := GetSubject(ctx, c); exists {
			identifier = "sub:" + sub
		}
	}
	if identifier == "" {
		identifier = "ip:" + c.ClientIP()
	}

	return redis.Key(rl.config.KeyPrefix, identifier)
}

// Allow 检查是否允许请求，使用滑动窗口算法
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	now := time.Now()
	windowStart := now.Add(-time.Duration(rl.config.Window) * time.Second)

	pipe := rl.client.Pipeline()

	// 每次请求先移除窗口之前的记录
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redislib.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	zcardCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, time.Duration(rl.config.Window+10)*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcardCmd.Val())
	return count <= rl.config.MaxRequests, count, nil
}

func (rl *RateLimiter) blockKey(key string) string {
	return key + ":block"
}

func (rl *RateLimiter) Block(ctx context.Context, key string) error {
	if rl.config.BlockDuration <= 0 {
		return nil
	}
	return rl.client.Set(ctx, rl.blockKey(key), "1", time.Duration(rl.config.BlockDuration)*time.Second).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	if rl.config.BlockDuration <= 0 {
		return false, nil
	}
	result, err := rl.client.Exists(ctx, rl.blockKey(key)).Result()
	return result > 0, err
}

// RateLimitMiddleware 创建限流中间件。Redis 不可用时放行
func RateLimitMiddleware(limiter *RateLimiter) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if limiter.client == nil {
			c.Next(ctx)
			return
		}

		key := limiter.getKey(ctx, c)

		blocked, err := limiter.IsBlocked(ctx, key)
		if err != nil {
			logger.Logger.Warn("Failed to check block status, allowing request", zap.Error(err))
			c.Next(ctx)
			return
		}
		if blocked {
			c.Abort()
			response.Error(ctx, c, errors.RateLimited)
			return
		}

		allowed, count, err := limiter.Allow(ctx, key)
		if err != nil {
			logger.Logger.Warn("Failed to check rate limit, allowing request", zap.Error(err))
			c.Next(ctx)
			return
		}

		remaining := limiter.config.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(limiter.config.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Duration(limiter.config.Window)*time.Second).Unix(), 10))

		if !allowed {
			if err := limiter.Block(ctx, key); err != nil {
				logger.Logger.Warn("Failed to block client", zap.Error(err))
			}
			c.Abort()
			response.Error(ctx, c, errors.RateLimited)
			return
		}

		c.Next(ctx)
	}
}

func newLimiter(cfg RateLimitConfig) app.HandlerFunc {
	if !config.Cfg.RateLimitEnabled {
		return func(ctx context.Context, c *app.RequestContext) { c.Next(ctx) }
	}
	return RateLimitMiddleware(NewRateLimiter(cfg, redis.Cmdable()))
}

// GeneralRateLimitMiddleware 通用限流中间件
func GeneralRateLimitMiddleware() app.HandlerFunc {
	return newLimiter(DefaultRateLimitConfig())
}

// CheckInRateLimitMiddleware 打卡接口限流中间件
func CheckInRateLimitMiddleware() app.HandlerFunc {
	return newLimiter(CheckInRateLimitConfig())
}
