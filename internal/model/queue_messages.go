package model

// EscalationMessage 告警任务消息，queue 模式下由调度器投递、worker 执行
type EscalationMessage struct {
	MessageID     string `json:"message_id"` // 消息唯一ID，用于幂等性检查
	PeriodKey     string `json:"period_key"`
	LastCheckInID int64  `json:"last_check_in_id,omitempty"`
	DetectedAt    string `json:"detected_at"`
}

// DisplayEventType 本地展示事件类型
type DisplayEventType string

const (
	DisplayEventReminder          DisplayEventType = "reminder"
	DisplayEventAlertSent         DisplayEventType = "alert_sent"
	DisplayEventReminderCancelled DisplayEventType = "reminder_cancelled"
)

// DisplayEventMessage 给客户端的展示事件（提醒、告警已发送、取消提醒）
type DisplayEventMessage struct {
	MessageID    string           `json:"message_id"`
	EventType    DisplayEventType `json:"event_type"`
	Title        string           `json:"title,omitempty"`
	Body         string           `json:"body,omitempty"`
	ContactCount int              `json:"contact_count,omitempty"`
	OccurredAt   string           `json:"occurred_at"`
}
