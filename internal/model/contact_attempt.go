package model

import (
	"time"
)

// ContactAttemptStatus 通知尝试状态枚举
type ContactAttemptStatus string

const (
	ContactAttemptStatusSuccess ContactAttemptStatus = "success" // 成功
	ContactAttemptStatusFailed  ContactAttemptStatus = "failed"  // 失败
)

// ContactAttempt 每条通道腿的发送记录
type ContactAttempt struct {
	BaseModel
	RunID        int64                `gorm:"not null;index:idx_contact_attempts_run" json:"run_id"`
	ContactID    int64                `gorm:"not null;index:idx_contact_attempts_contact" json:"contact_id"`
	ContactName  string               `gorm:"type:varchar(64);not null" json:"contact_name"`
	Attempt      Channel              `gorm:"type:varchar(16);not null" json:"attempt"` // 所属尝试：sms / whatsapp / email / messaging
	Channel      Channel              `gorm:"type:varchar(16);not null" json:"channel"`
	Provider     string               `gorm:"type:varchar(32);not null;default:''" json:"provider"`
	Status       ContactAttemptStatus `gorm:"type:varchar(16);not null" json:"status"`
	ErrorMessage *string              `gorm:"type:varchar(255)" json:"error_message,omitempty"`
	AttemptedAt  time.Time            `gorm:"type:timestamptz;not null;default:now()" json:"attempted_at"`
}

// TableName 指定表名
func (ContactAttempt) TableName() string {
	return "contact_attempts"
}

// AttemptsFromOutcomes 将发送结果展开为逐条腿的记录
func AttemptsFromOutcomes(outcomes []ChannelOutcome, at time.Time) []ContactAttempt {
	attempts := make([]ContactAttempt, 0, len(outcomes))
	for _, o := range outcomes {
		legs := o.Legs
		if len(legs) == 0 {
			legs = []Leg{{Channel: o.Channel, Provider: o.Provider, Success: o.Success, Error: o.Error}}
		}
		for _, leg := range legs {
			a := ContactAttempt{
				ContactID:   o.Contact.ID,
				ContactName: o.Contact.Name,
				Attempt:     o.Channel,
				Channel:     leg.Channel,
				Provider:    leg.Provider,
				Status:      ContactAttemptStatusFailed,
				AttemptedAt: at,
			}
			if leg.Success {
				a.Status = ContactAttemptStatusSuccess
			}
			if leg.Error != "" {
				msg := truncate(leg.Error, 255)
				a.ErrorMessage = &msg
			}
			attempts = append(attempts, a)
		}
	}
	return attempts
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
