package policy

import (
	"math"
	"time"

	"AreYouDead/internal/model"
)

// Evaluate 计算当前打卡状态。
// 宽限截止时间以今天的打卡时间点为起点，而不是实际错过的那一天。
func Evaluate(lastCheckIn *time.Time, cfg model.ScheduleConfig, now time.Time) model.CheckInStatus {
	if lastCheckIn == nil {
		return model.CheckInStatusPending
	}

	daysSince := int(math.Floor(now.Sub(*lastCheckIn).Hours() / 24))
	if daysSince < model.ClampFrequency(cfg.CheckInFrequencyDays) {
		return model.CheckInStatusCompliant
	}

	if now.After(GraceDeadline(DueToday(cfg, now), cfg)) {
		return model.CheckInStatusOverdue
	}
	return model.CheckInStatusPending
}

// Summary 首页展示的状态汇总
type Summary struct {
	Status        model.CheckInStatus `json:"status"`
	LastCheckIn   *time.Time          `json:"last_check_in,omitempty"`
	NextDeadline  time.Time           `json:"next_deadline"`
	GraceDeadline time.Time           `json:"grace_deadline"`
	Enabled       bool                `json:"is_enabled"`
}

func Summarize(lastCheckIn *time.Time, cfg model.ScheduleConfig, now time.Time) Summary {
	return Summary{
		Status:        Evaluate(lastCheckIn, cfg, now),
		LastCheckIn:   lastCheckIn,
		NextDeadline:  NextDeadline(lastCheckIn, cfg, now),
		GraceDeadline: GraceDeadline(DueToday(cfg, now), cfg),
		Enabled:       cfg.Enabled,
	}
}
