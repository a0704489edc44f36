package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"AreYouDead/internal/model"
	"AreYouDead/pkg/logger"
	"AreYouDead/pkg/snowflake"
	"AreYouDead/storage/mq"
)

type publishFunc func(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error

// Producer 投递告警任务与展示事件
type Producer struct {
	publish publishFunc
}

func NewProducer() *Producer {
	return &Producer{publish: mq.PublishMessage}
}

// PublishEscalation 发布告警任务（queue 模式下由 worker 执行）
func (p *Producer) PublishEscalation(ctx context.Context, msg model.EscalationMessage) error {
	if msg.MessageID == "" {
		id, err := snowflake.NextMessageID("escalation")
		if err != nil {
			logger.Logger.Error("Failed to generate message ID",
				zap.String("period_key", msg.PeriodKey),
				zap.Error(err),
			)
			return err
		}
		msg.MessageID = id
	}
	if msg.DetectedAt == "" {
		msg.DetectedAt = time.Now().UTC().Format(time.RFC3339)
	}

	if err := p.publish(ctx, mq.EventsExchange, mq.EscalationRoutingKey, msg.MessageID, msg); err != nil {
		logger.Logger.Error("Failed to publish escalation message",
			zap.String("message_id", msg.MessageID),
			zap.String("period_key", msg.PeriodKey),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish escalation message: %w", err)
	}

	logger.Logger.Info("Published escalation message",
		zap.String("message_id", msg.MessageID),
		zap.String("period_key", msg.PeriodKey),
	)
	return nil
}

// DispatchEscalation queue 模式下的告警派发：只投递，不在本进程执行
func (p *Producer) DispatchEscalation(ctx context.Context, job model.EscalationMessage) error {
	return p.PublishEscalation(ctx, job)
}

// PublishDisplayEvent 发布展示事件
func (p *Producer) PublishDisplayEvent(ctx context.Context, msg model.DisplayEventMessage) error {
	return p.publish(ctx, mq.EventsExchange, mq.DisplayRoutingKey, msg.MessageID, msg)
}
