// Package notify 本地展示事件：提醒、告警已发送、取消提醒
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"AreYouDead/internal/model"
	"AreYouDead/pkg/metrics"
)

const (
	ReminderTitle = "Time to Check In!"
	ReminderBody  = "Tap to confirm you're okay"
	AlertTitle    = "Alert Sent"
)

// Publisher 展示事件的投递端，见 queue.Producer
type Publisher interface {
	PublishDisplayEvent(ctx context.Context, msg model.DisplayEventMessage) error
}

// Display 把展示事件投递给客户端；没有 Publisher 时只写日志
type Display struct {
	pub Publisher
	now func() time.Time
	log *zap.Logger
}

func NewDisplay(pub Publisher, log *zap.Logger) *Display {
	if log == nil {
		log = zap.NewNop()
	}
	return &Display{pub: pub, now: time.Now, log: log}
}

func (d *Display) ShowReminder(ctx context.Context) {
	d.emit(ctx, model.DisplayEventMessage{
		EventType: model.DisplayEventReminder,
		Title:     ReminderTitle,
		Body:      ReminderBody,
	})
	metrics.RecordReminder(ctx, "shown")
}

func (d *Display) ShowAlertSent(ctx context.Context, contactCount int) {
	d.emit(ctx, model.DisplayEventMessage{
		EventType:    model.DisplayEventAlertSent,
		Title:        AlertTitle,
		Body:         AlertBody(contactCount),
		ContactCount: contactCount,
	})
}

func (d *Display) CancelReminder(ctx context.Context) {
	d.emit(ctx, model.DisplayEventMessage{EventType: model.DisplayEventReminderCancelled})
}

// AlertBody 告警已发送的提示文案
func AlertBody(contactCount int) string {
	return fmt.Sprintf("Notified %d emergency contact(s)", contactCount)
}

func (d *Display) emit(ctx context.Context, msg model.DisplayEventMessage) {
	msg.MessageID = "display_" + uuid.NewString()
	msg.OccurredAt = d.now().UTC().Format(time.RFC3339)

	d.log.Info("Display event",
		zap.String("event_type", string(msg.EventType)),
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
	)

	if d.pub == nil {
		return
	}
	if err := d.pub.PublishDisplayEvent(ctx, msg); err != nil {
		d.log.Warn("Failed to publish display event",
			zap.String("event_type", string(msg.EventType)),
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
	}
}
