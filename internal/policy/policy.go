// Package policy 打卡时间计算，全部为纯函数，不做 I/O
package policy

import (
	"time"

	"AreYouDead/internal/model"
)

// at 返回 ref 所在日期的 hour:minute，hour >= 24 时按天进位
func at(ref time.Time, hour, minute int) time.Time {
	y, m, d := ref.Date()
	t := time.Date(y, m, d, hour%24, minute, 0, 0, ref.Location())
	if hour >= 24 {
		t = t.AddDate(0, 0, hour/24)
	}
	return t
}

// NextDeadline 下一次打卡截止时间，总是严格晚于 now。
// 从未打卡时返回下一次出现的 hour:minute（此时状态已是 PENDING）。
func NextDeadline(lastCheckIn *time.Time, cfg model.ScheduleConfig, now time.Time) time.Time {
	freq := model.ClampFrequency(cfg.CheckInFrequencyDays)

	if lastCheckIn == nil {
		next := at(now, cfg.CheckInHour, cfg.CheckInMinute)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}

	next := at(lastCheckIn.In(now.Location()).AddDate(0, 0, freq), cfg.CheckInHour, cfg.CheckInMinute)
	for !next.After(now) {
		next = next.AddDate(0, 0, freq)
	}
	return next
}

// GraceDeadline 周期开始时间加上宽限小时数
func GraceDeadline(periodStart time.Time, cfg model.ScheduleConfig) time.Time {
	return periodStart.Add(time.Duration(cfg.GracePeriodHours) * time.Hour)
}

// DueToday now 所在日期的打卡时间点
func DueToday(cfg model.ScheduleConfig, now time.Time) time.Time {
	return at(now, cfg.CheckInHour, cfg.CheckInMinute)
}

// InitialDelay 到下一次 targetHour:targetMinute 的时长。
// targetHour >= 24 时先按天进位；目标时间不晚于 now 则顺延一天。
func InitialDelay(targetHour, targetMinute int, now time.Time) time.Duration {
	target := at(now, targetHour, targetMinute)
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target.Sub(now)
}

// ReminderDelay 提醒任务的首次延迟
func ReminderDelay(cfg model.ScheduleConfig, now time.Time) time.Duration {
	return InitialDelay(cfg.CheckInHour, cfg.CheckInMinute, now)
}

// VerificationDelay 检查任务的首次延迟，目标小时为打卡小时加宽限小时
func VerificationDelay(cfg model.ScheduleConfig, now time.Time) time.Duration {
	return InitialDelay(cfg.CheckInHour+cfg.GracePeriodHours, cfg.CheckInMinute, now)
}
