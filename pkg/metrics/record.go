package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 以下函数在指标未初始化时什么都不做

func RecordChannelSend(ctx context.Context, channel, provider string, success bool, d time.Duration) {
	if m := GetMetrics(); m != nil {
		m.RecordChannelSend(ctx, channel, provider, success, d.Seconds())
	}
}

func RecordEscalation(ctx context.Context, status string, attempted, succeeded int) {
	if m := GetMetrics(); m != nil {
		m.RecordEscalation(ctx, status, attempted, succeeded)
	}
}

// RecordEscalationSkipped reason: not_overdue, duplicate, disabled
func RecordEscalationSkipped(ctx context.Context, reason string) {
	if m := GetMetrics(); m != nil {
		m.EscalationSkippedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func RecordCheckIn(ctx context.Context, source string) {
	if m := GetMetrics(); m != nil {
		m.CheckInsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	}
}

// RecordReminder outcome: shown, skipped
func RecordReminder(ctx context.Context, outcome string) {
	if m := GetMetrics(); m != nil {
		m.RemindersTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// RecordScheduleConfigure state: scheduled, disabled, failed
func RecordScheduleConfigure(ctx context.Context, state string) {
	if m := GetMetrics(); m != nil {
		m.ScheduleConfigTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
	}
}
