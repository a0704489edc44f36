package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	messageProcessedPrefix = "msg:processed"
	processingTTL          = 24 * time.Hour
	processedTTL           = 48 * time.Hour
)

// TryMarkMessageProcessing 使用 SETNX 标记消息正在处理，false 表示已处理或处理中
func (c *Cache) TryMarkMessageProcessing(ctx context.Context, messageID string) (bool, error) {
	if !c.available() {
		return true, nil
	}
	ok, err := c.setNX(ctx, c.key(messageProcessedPrefix, messageID), "processing", processingTTL)
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return ok, nil
}

// UnmarkMessageProcessing 处理失败时取消标记，允许重投后再次处理
func (c *Cache) UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	if !c.available() {
		return nil
	}
	return c.del(ctx, c.key(messageProcessedPrefix, messageID))
}

// MarkMessageProcessed 处理成功后延长标记
func (c *Cache) MarkMessageProcessed(ctx context.Context, messageID string) error {
	if !c.available() {
		return nil
	}
	return c.set(ctx, c.key(messageProcessedPrefix, messageID), "completed", processedTTL)
}
