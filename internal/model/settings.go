package model

import (
	"fmt"
	"strings"
	"time"

	"AreYouDead/pkg/errors"
)

// MessagingMethod 电话类通道的发送方式
type MessagingMethod string

const (
	MessagingSMS      MessagingMethod = "sms"
	MessagingWhatsApp MessagingMethod = "whatsapp"
	MessagingBoth     MessagingMethod = "both"
)

// ParseMessagingMethod 大小写不敏感地解析发送方式
func ParseMessagingMethod(s string) (MessagingMethod, error) {
	switch MessagingMethod(strings.ToLower(strings.TrimSpace(s))) {
	case MessagingSMS:
		return MessagingSMS, nil
	case MessagingWhatsApp:
		return MessagingWhatsApp, nil
	case MessagingBoth:
		return MessagingBoth, nil
	default:
		return "", errors.MessagingMethodInvalid
	}
}

const (
	MinFrequencyDays = 1
	MaxFrequencyDays = 3
)

// ClampFrequency 将打卡频率限制在 [1, 3] 天
func ClampFrequency(days int) int {
	if days < MinFrequencyDays {
		return MinFrequencyDays
	}
	if days > MaxFrequencyDays {
		return MaxFrequencyDays
	}
	return days
}

// ScheduleConfig 打卡配置快照，按值传递，任务触发时重新读取
type ScheduleConfig struct {
	CheckInHour          int             `json:"check_in_hour"`
	CheckInMinute        int             `json:"check_in_minute"`
	GracePeriodHours     int             `json:"grace_period_hours"`
	CheckInFrequencyDays int             `json:"check_in_frequency_days"`
	Enabled              bool            `json:"is_enabled"`
	MessagingMethod      MessagingMethod `json:"messaging_method"`
	UserName             string          `json:"user_name"`
}

func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		CheckInHour:          9,
		CheckInMinute:        0,
		GracePeriodHours:     4,
		CheckInFrequencyDays: 1,
		Enabled:              true,
		MessagingMethod:      MessagingBoth,
		UserName:             "User",
	}
}

// Normalize 处理可以安全修正的字段：频率夹取、空发送方式、空用户名
func (c ScheduleConfig) Normalize() ScheduleConfig {
	c.CheckInFrequencyDays = ClampFrequency(c.CheckInFrequencyDays)
	if c.MessagingMethod == "" {
		c.MessagingMethod = MessagingBoth
	}
	c.UserName = strings.TrimSpace(c.UserName)
	if c.UserName == "" {
		c.UserName = "User"
	}
	return c
}

// Validate 校验无法修正的字段，应在 Normalize 之后调用
func (c ScheduleConfig) Validate() error {
	if c.CheckInHour < 0 || c.CheckInHour > 23 {
		return errors.Wrap(errors.SettingsInvalid, fmt.Errorf("check_in_hour %d out of range 0-23", c.CheckInHour))
	}
	if c.CheckInMinute < 0 || c.CheckInMinute > 59 {
		return errors.Wrap(errors.SettingsInvalid, fmt.Errorf("check_in_minute %d out of range 0-59", c.CheckInMinute))
	}
	if c.GracePeriodHours < 1 {
		return errors.Wrap(errors.SettingsInvalid, fmt.Errorf("grace_period_hours must be positive, got %d", c.GracePeriodHours))
	}
	if _, err := ParseMessagingMethod(string(c.MessagingMethod)); err != nil {
		return err
	}
	return nil
}

// RepeatInterval 两个周期任务的重复间隔
func (c ScheduleConfig) RepeatInterval() time.Duration {
	return time.Duration(ClampFrequency(c.CheckInFrequencyDays)) * 24 * time.Hour
}

// TimingChanged 判断两份配置的调度相关字段是否不同
func (c ScheduleConfig) TimingChanged(other ScheduleConfig) bool {
	return c.CheckInHour != other.CheckInHour ||
		c.CheckInMinute != other.CheckInMinute ||
		c.GracePeriodHours != other.GracePeriodHours ||
		c.CheckInFrequencyDays != other.CheckInFrequencyDays ||
		c.Enabled != other.Enabled
}

// SettingsRowID 单用户部署只有一行设置
const SettingsRowID int64 = 1

// Settings 设置表模型
type Settings struct {
	BaseModel
	CheckInHour          int    `gorm:"type:smallint;not null;default:9" json:"check_in_hour"`
	CheckInMinute        int    `gorm:"type:smallint;not null;default:0" json:"check_in_minute"`
	GracePeriodHours     int    `gorm:"type:smallint;not null;default:4" json:"grace_period_hours"`
	CheckInFrequencyDays int    `gorm:"type:smallint;not null;default:1" json:"check_in_frequency_days"`
	Enabled              bool   `gorm:"not null;default:true" json:"is_enabled"`
	MessagingMethod      string `gorm:"type:varchar(16);not null;default:'both'" json:"messaging_method"`
	UserName             string `gorm:"type:varchar(64);not null;default:'User'" json:"user_name"`
}

// TableName 指定表名
func (Settings) TableName() string {
	return "settings"
}

// Snapshot 转换为调度使用的配置快照
func (s Settings) Snapshot() ScheduleConfig {
	return ScheduleConfig{
		CheckInHour:          s.CheckInHour,
		CheckInMinute:        s.CheckInMinute,
		GracePeriodHours:     s.GracePeriodHours,
		CheckInFrequencyDays: s.CheckInFrequencyDays,
		Enabled:              s.Enabled,
		MessagingMethod:      MessagingMethod(s.MessagingMethod),
		UserName:             s.UserName,
	}.Normalize()
}

// SettingsFromConfig 由配置快照构造设置行
func SettingsFromConfig(c ScheduleConfig) Settings {
	s := Settings{
		CheckInHour:          c.CheckInHour,
		CheckInMinute:        c.CheckInMinute,
		GracePeriodHours:     c.GracePeriodHours,
		CheckInFrequencyDays: c.CheckInFrequencyDays,
		Enabled:              c.Enabled,
		MessagingMethod:      string(c.MessagingMethod),
		UserName:             c.UserName,
	}
	s.ID = SettingsRowID
	return s
}
