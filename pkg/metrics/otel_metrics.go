package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics OpenTelemetry 指标集合
type OTelMetrics struct {
	// 通道相关指标
	ChannelSendTotal    metric.Int64Counter
	ChannelSendDuration metric.Float64Histogram

	// 告警相关指标
	EscalationRunsTotal     metric.Int64Counter
	EscalationOutcomesTotal metric.Int64Counter
	EscalationSkippedTotal  metric.Int64Counter

	// 打卡与调度相关指标
	CheckInsTotal       metric.Int64Counter
	RemindersTotal      metric.Int64Counter
	ScheduleConfigTotal metric.Int64Counter
}

var (
	// 全局指标实例
	metrics *OTelMetrics
	// meter 用于创建指标
	meter = otel.Meter("areyoudead")
)

// InitMetrics 初始化 OpenTelemetry 指标，需在 meter provider 安装之后调用
func InitMetrics() error {
	var err error
	meter = otel.Meter("areyoudead")
	m := &OTelMetrics{}

	if m.ChannelSendTotal, err = meter.Int64Counter(
		"channel_send_total",
		metric.WithDescription("Total number of alert sends per channel and provider"),
		metric.WithUnit("{send}"),
	); err != nil {
		return err
	}

	if m.ChannelSendDuration, err = meter.Float64Histogram(
		"channel_send_duration_seconds",
		metric.WithDescription("Time spent on a single channel send in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return err
	}

	if m.EscalationRunsTotal, err = meter.Int64Counter(
		"escalation_runs_total",
		metric.WithDescription("Total number of escalation runs"),
		metric.WithUnit("{run}"),
	); err != nil {
		return err
	}

	if m.EscalationOutcomesTotal, err = meter.Int64Counter(
		"escalation_outcomes_total",
		metric.WithDescription("Total number of contact/channel outcomes produced by escalation runs"),
		metric.WithUnit("{outcome}"),
	); err != nil {
		return err
	}

	if m.EscalationSkippedTotal, err = meter.Int64Counter(
		"escalation_skipped_total",
		metric.WithDescription("Verification fires that did not escalate"),
		metric.WithUnit("{fire}"),
	); err != nil {
		return err
	}

	if m.CheckInsTotal, err = meter.Int64Counter(
		"check_ins_total",
		metric.WithDescription("Total number of recorded check-ins"),
		metric.WithUnit("{check_in}"),
	); err != nil {
		return err
	}

	if m.RemindersTotal, err = meter.Int64Counter(
		"reminders_total",
		metric.WithDescription("Total number of reminder fires"),
		metric.WithUnit("{reminder}"),
	); err != nil {
		return err
	}

	if m.ScheduleConfigTotal, err = meter.Int64Counter(
		"schedule_configure_total",
		metric.WithDescription("Total number of scheduler configure calls"),
		metric.WithUnit("{call}"),
	); err != nil {
		return err
	}

	metrics = m
	return nil
}

// GetMetrics 获取全局指标实例，未初始化时为 nil
func GetMetrics() *OTelMetrics {
	return metrics
}

func statusOf(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

// RecordChannelSend 记录一次通道发送
func (m *OTelMetrics) RecordChannelSend(ctx context.Context, channel, provider string, success bool, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("provider", provider),
		attribute.String("status", statusOf(success)),
	)
	m.ChannelSendTotal.Add(ctx, 1, attrs)
	m.ChannelSendDuration.Record(ctx, seconds, attrs)
}

// RecordEscalation 记录一次告警
func (m *OTelMetrics) RecordEscalation(ctx context.Context, status string, attempted, succeeded int) {
	m.EscalationRunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.EscalationOutcomesTotal.Add(ctx, int64(succeeded), metric.WithAttributes(attribute.String("status", "success")))
	m.EscalationOutcomesTotal.Add(ctx, int64(attempted-succeeded), metric.WithAttributes(attribute.String("status", "failed")))
}
