package model

import "time"

// Channel 告警通道
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	// ChannelMessaging 发送方式为 both 时的一次电话类尝试，包含 sms 和 whatsapp 两条腿
	ChannelMessaging Channel = "messaging"
)

// Leg 一次尝试中某个具体通道/服务商的结果
type Leg struct {
	Channel  Channel `json:"channel"`
	Provider string  `json:"provider,omitempty"`
	Success  bool    `json:"success"`
	Error    string  `json:"error,omitempty"`
}

// ChannelOutcome 一个 (联系人, 通道) 对的发送结果，每次告警只产生一次，不在告警内重试
type ChannelOutcome struct {
	Contact  Contact `json:"contact"`
	Channel  Channel `json:"channel"`
	Success  bool    `json:"success"`
	Error    string  `json:"error,omitempty"`
	Provider string  `json:"provider,omitempty"`
	Legs     []Leg   `json:"legs,omitempty"`
}

// EscalationResult 一次告警的汇总结果
type EscalationResult struct {
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   time.Time        `json:"finished_at"`
	Outcomes     []ChannelOutcome `json:"outcomes"`
	ContactCount int              `json:"contact_count"`
	Attempted    int              `json:"attempted"`
	Succeeded    int              `json:"succeeded"`
}

// EscalationRunStatus 告警记录状态
type EscalationRunStatus string

const (
	EscalationRunCompleted  EscalationRunStatus = "completed"   // 已对所有联系人完成发送（允许部分失败）
	EscalationRunNoContacts EscalationRunStatus = "no_contacts" // 没有联系人，无动作
)

// EscalationRun 告警记录，对应一个错过的打卡周期
type EscalationRun struct {
	BaseModel
	RunCode       int64               `gorm:"uniqueIndex;not null" json:"run_code"`
	PeriodKey     string              `gorm:"type:varchar(64);not null;index:idx_escalation_runs_period" json:"period_key"`
	LastCheckInAt *time.Time          `gorm:"type:timestamptz" json:"last_check_in_at,omitempty"`
	Status        EscalationRunStatus `gorm:"type:varchar(16);not null" json:"status"`
	ContactCount  int                 `gorm:"not null;default:0" json:"contact_count"`
	Attempted     int                 `gorm:"not null;default:0" json:"attempted"`
	Succeeded     int                 `gorm:"not null;default:0" json:"succeeded"`
	StartedAt     time.Time           `gorm:"type:timestamptz;not null" json:"started_at"`
	FinishedAt    time.Time           `gorm:"type:timestamptz;not null" json:"finished_at"`
	Attempts      []ContactAttempt    `gorm:"foreignKey:RunID" json:"attempts,omitempty"`
}

// TableName 指定表名
func (EscalationRun) TableName() string {
	return "escalation_runs"
}
