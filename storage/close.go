package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"AreYouDead/pkg/logger"
	"AreYouDead/storage/database"
	"AreYouDead/storage/mq"
	"AreYouDead/storage/redis"
)

// Close 先停消息，再关缓存，最后关数据库
func Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	closers := []struct {
		name  string
		close func(context.Context) error
	}{
		{"rabbitmq", mq.Close},
		{"redis", redis.Close},
		{"postgres", database.Close},
	}

	for _, c := range closers {
		if err := c.close(ctx); err != nil {
			logger.Logger.Error("Failed to close storage", zap.String("backend", c.name), zap.Error(err))
			continue
		}
		logger.Logger.Debug("Storage closed", zap.String("backend", c.name))
	}
	logger.Logger.Info("Storage connections closed")
}
