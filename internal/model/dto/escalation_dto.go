package dto

import "time"

// ========== Escalation 相关 DTO ==========

// AttemptItem 一条通道腿的发送记录
type AttemptItem struct {
	ContactID   int64     `json:"contact_id,string"`
	ContactName string    `json:"contact_name"`
	Attempt     string    `json:"attempt"`
	Channel     string    `json:"channel"`
	Provider    string    `json:"provider,omitempty"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// EscalationRunItem 一次告警记录
type EscalationRunItem struct {
	RunCode      int64         `json:"run_code,string"`
	PeriodKey    string        `json:"period_key"`
	Status       string        `json:"status"`
	ContactCount int           `json:"contact_count"`
	Attempted    int           `json:"attempted"`
	Succeeded    int           `json:"succeeded"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Attempts     []AttemptItem `json:"attempts,omitempty"`
}
