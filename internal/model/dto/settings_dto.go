package dto

// ========== Settings 相关 DTO ==========

// SettingsData 当前设置
type SettingsData struct {
	CheckInHour          int    `json:"check_in_hour"`
	CheckInMinute        int    `json:"check_in_minute"`
	GracePeriodHours     int    `json:"grace_period_hours"`
	CheckInFrequencyDays int    `json:"check_in_frequency_days"`
	Enabled              bool   `json:"is_enabled"`
	MessagingMethod      string `json:"messaging_method"`
	UserName             string `json:"user_name"`
	ScheduleState        string `json:"schedule_state,omitempty"`
}

// UpdateSettingsRequest 部分更新，nil 字段保持不变
type UpdateSettingsRequest struct {
	CheckInHour          *int    `json:"check_in_hour,omitempty"`
	CheckInMinute        *int    `json:"check_in_minute,omitempty"`
	GracePeriodHours     *int    `json:"grace_period_hours,omitempty"`
	CheckInFrequencyDays *int    `json:"check_in_frequency_days,omitempty"`
	Enabled              *bool   `json:"is_enabled,omitempty"`
	MessagingMethod      *string `json:"messaging_method,omitempty"`
	UserName             *string `json:"user_name,omitempty"`
}
