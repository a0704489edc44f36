package storage

import (
	"go.uber.org/zap"

	"AreYouDead/pkg/logger"
	"AreYouDead/storage/database"
	"AreYouDead/storage/mq"
	"AreYouDead/storage/redis"
)

// Init 按依赖顺序初始化存储层；withQueue 为 false 时不连接 RabbitMQ
func Init(withQueue bool) error {
	if err := database.Init(); err != nil {
		return err
	}

	// Redis 只承担去重与限流，连接失败时降级运行
	if err := redis.Init(); err != nil {
		logger.Logger.Warn("Redis unavailable, running without dedupe cache", zap.Error(err))
	}

	if !withQueue {
		return nil
	}

	return mq.Init()
}
