package dto

import "time"

// ========== CheckIn 相关 DTO ==========

// CheckInStatusData 首页状态：当前状态、最后打卡、下一截止时间与宽限截止时间
type CheckInStatusData struct {
	Status          string     `json:"status"`
	LastCheckIn     *time.Time `json:"last_check_in,omitempty"`
	LastCheckInText string     `json:"last_check_in_text"`
	NextDeadline    time.Time  `json:"next_deadline"`
	GraceDeadline   time.Time  `json:"grace_deadline"`
	Enabled         bool       `json:"is_enabled"`
}

// CompleteCheckInRequest 打卡请求，source 标识来源（api / cli）
type CompleteCheckInRequest struct {
	Source string `json:"source,omitempty"`
}

// CompleteCheckInResponse 完成打卡响应
type CompleteCheckInResponse struct {
	ID           int64     `json:"id,string"`
	CompletedAt  time.Time `json:"completed_at"`
	Status       string    `json:"status"`
	NextDeadline time.Time `json:"next_deadline"`
}

// CheckInItem 打卡历史项
type CheckInItem struct {
	ID        int64     `json:"id,string"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// CheckInHistoryQuery 打卡历史查询参数
type CheckInHistoryQuery struct {
	Days  int `query:"days"`
	Limit int `query:"limit"`
}
