package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"AreYouDead/internal/model"
	"AreYouDead/pkg/errors"
	"AreYouDead/pkg/logger"
	"AreYouDead/storage/mq"
)

// EscalationHandler 执行告警任务，见 service.EscalationService
type EscalationHandler interface {
	DispatchEscalation(ctx context.Context, job model.EscalationMessage) error
}

// MessageTracker 消息幂等标记，见 cache.Cache
type MessageTracker interface {
	TryMarkMessageProcessing(ctx context.Context, messageID string) (bool, error)
	UnmarkMessageProcessing(ctx context.Context, messageID string) error
	MarkMessageProcessed(ctx context.Context, messageID string) error
}

type Consumers struct {
	escalations EscalationHandler
	tracker     MessageTracker
	log         *zap.Logger
}

func NewConsumers(escalations EscalationHandler, tracker MessageTracker, log *zap.Logger) *Consumers {
	if log == nil {
		log = logger.Named("queue")
	}
	return &Consumers{escalations: escalations, tracker: tracker, log: log}
}

// HandleEscalation 处理一条告警任务
func (c *Consumers) HandleEscalation(ctx context.Context, body []byte) error {
	var msg model.EscalationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return errors.NewNonRetryableError("BAD_MESSAGE", err.Error(), "failed to unmarshal escalation message")
	}

	// SETNX 原子地检查并标记消息正在处理
	processing, err := c.tracker.TryMarkMessageProcessing(ctx, msg.MessageID)
	if err != nil {
		// 检查失败时继续处理，宁可重复也不漏发
		c.log.Warn("Failed to check message processed status",
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
	} else if !processing {
		return &errors.SkipMessageError{Reason: fmt.Sprintf("message %s already processed", msg.MessageID)}
	}

	c.log.Info("Processing escalation message",
		zap.String("message_id", msg.MessageID),
		zap.String("period_key", msg.PeriodKey),
	)

	if err := c.escalations.DispatchEscalation(ctx, msg); err != nil {
		// 取消标记，允许重投后再次处理
		if unmarkErr := c.tracker.UnmarkMessageProcessing(ctx, msg.MessageID); unmarkErr != nil {
			c.log.Warn("Failed to unmark message", zap.String("message_id", msg.MessageID), zap.Error(unmarkErr))
		}
		return fmt.Errorf("failed to run escalation: %w", err)
	}

	if err := c.tracker.MarkMessageProcessed(ctx, msg.MessageID); err != nil {
		c.log.Warn("Failed to mark message as processed",
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
	}
	return nil
}

// HandleDisplayEvent 展示事件的日志出口
func (c *Consumers) HandleDisplayEvent(_ context.Context, body []byte) error {
	var msg model.DisplayEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return errors.NewNonRetryableError("BAD_MESSAGE", err.Error(), "failed to unmarshal display event")
	}
	c.log.Info("Display event received",
		zap.String("message_id", msg.MessageID),
		zap.String("event_type", string(msg.EventType)),
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
		zap.Int("contact_count", msg.ContactCount),
		zap.String("occurred_at", msg.OccurredAt),
	)
	return nil
}

func (c *Consumers) StartEscalationConsumer(ctx context.Context) error {
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         mq.EscalationQueue,
		ConsumerTag:   "escalation_consumer",
		PrefetchCount: 1, // 一次只跑一个告警
		Handler:       c.HandleEscalation,
	})
}

func (c *Consumers) StartDisplayConsumer(ctx context.Context) error {
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         mq.DisplayQueue,
		ConsumerTag:   "display_event_consumer",
		PrefetchCount: 20,
		Handler:       c.HandleDisplayEvent,
	})
}

// StartAll 启动所有消费者，阻塞直到全部退出
func (c *Consumers) StartAll(ctx context.Context) {
	var wg sync.WaitGroup

	consumers := []struct {
		name     string
		consumer func(context.Context) error
	}{
		{"escalation", c.StartEscalationConsumer},
		{"display_event", c.StartDisplayConsumer},
	}

	for _, cs := range consumers {
		wg.Add(1)
		go func(name string, consumer func(context.Context) error) {
			defer wg.Done()

			c.log.Info("Starting consumer", zap.String("consumer_name", name))
			if err := consumer(ctx); err != nil {
				c.log.Error("Consumer exited with error",
					zap.String("consumer_name", name),
					zap.Error(err),
				)
			}
		}(cs.name, cs.consumer)
	}

	wg.Wait()
	c.log.Info("All consumers stopped")
}
