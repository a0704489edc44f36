package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"AreYouDead/internal/model"
)

func cfgAt(hour, minute, grace, freq int) model.ScheduleConfig {
	cfg := model.DefaultScheduleConfig()
	cfg.CheckInHour = hour
	cfg.CheckInMinute = minute
	cfg.GracePeriodHours = grace
	cfg.CheckInFrequencyDays = freq
	return cfg
}

func day(d, hour, minute int) time.Time {
	return time.Date(2026, time.March, d, hour, minute, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestNextDeadlineWithoutCheckIn(t *testing.T) {
	cfg := cfgAt(9, 0, 4, 1)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before due time", day(10, 7, 0), day(10, 9, 0)},
		{"after due time", day(10, 10, 0), day(11, 9, 0)},
		{"exactly at due time", day(10, 9, 0), day(11, 9, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDeadline(nil, cfg, tt.now))
		})
	}
}

func TestNextDeadlineLoopsUntilFuture(t *testing.T) {
	tests := []struct {
		name string
		last time.Time
		cfg  model.ScheduleConfig
		now  time.Time
		want time.Time
	}{
		{"next morning", day(1, 22, 0), cfgAt(9, 0, 4, 1), day(2, 8, 0), day(2, 9, 0)},
		{"missed several periods", day(1, 8, 0), cfgAt(9, 0, 4, 2), day(6, 10, 0), day(7, 9, 0)},
		{"minute precision", day(1, 8, 0), cfgAt(18, 45, 4, 1), day(2, 18, 45), day(3, 18, 45)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDeadline(ptr(tt.last), tt.cfg, tt.now))
		})
	}
}

func TestNextDeadlineAlwaysAfterNow(t *testing.T) {
	last := day(1, 13, 17)
	for freq := 1; freq <= 3; freq++ {
		for hour := 0; hour < 24; hour += 5 {
			cfg := cfgAt(hour, 30, 4, freq)
			for offset := -2 * time.Hour; offset < 10*24*time.Hour; offset += 97 * time.Minute {
				now := last.Add(offset)
				assert.True(t, NextDeadline(ptr(last), cfg, now).After(now), "freq=%d hour=%d now=%s", freq, hour, now)
				assert.True(t, NextDeadline(nil, cfg, now).After(now), "freq=%d hour=%d now=%s", freq, hour, now)
			}
		}
	}
}

func TestGraceDeadline(t *testing.T) {
	assert.Equal(t, day(10, 13, 0), GraceDeadline(day(10, 9, 0), cfgAt(9, 0, 4, 1)))
	assert.Equal(t, day(11, 1, 0), GraceDeadline(day(10, 9, 0), cfgAt(9, 0, 16, 1)))
}

func TestInitialDelay(t *testing.T) {
	tests := []struct {
		name   string
		hour   int
		minute int
		now    time.Time
		want   time.Duration
	}{
		{"later today", 9, 0, day(10, 8, 30), 30 * time.Minute},
		{"exactly now rolls to tomorrow", 9, 0, day(10, 9, 0), 24 * time.Hour},
		{"passed rolls to tomorrow", 9, 0, day(10, 9, 30), 23*time.Hour + 30*time.Minute},
		{"hour overflow carries a day", 28, 0, day(10, 21, 0), 7 * time.Hour},
		{"hour overflow early morning", 28, 0, day(10, 2, 0), 26 * time.Hour},
		{"due 9 plus grace 16", 25, 0, day(10, 10, 0), 15 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InitialDelay(tt.hour, tt.minute, tt.now))
		})
	}
}

func TestVerificationDelayNormalisesOverflowHour(t *testing.T) {
	cfg := cfgAt(20, 0, 8, 1)
	now := day(10, 21, 0)

	delay := VerificationDelay(cfg, now)
	fire := now.Add(delay)

	assert.Equal(t, 4, fire.Hour())
	assert.Equal(t, 11, fire.Day())
	assert.Equal(t, 23*time.Hour, ReminderDelay(cfg, now))
}
