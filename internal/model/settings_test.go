package model

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AreYouDead/pkg/errors"
)

func TestClampFrequency(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-4, 1}, {0, 1}, {1, 1}, {2, 2}, {3, 3}, {4, 3}, {30, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampFrequency(tt.in), "in=%d", tt.in)
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := ScheduleConfig{CheckInHour: 7, GracePeriodHours: 2, CheckInFrequencyDays: 9, UserName: "  "}.Normalize()

	assert.Equal(t, 3, cfg.CheckInFrequencyDays)
	assert.Equal(t, MessagingBoth, cfg.MessagingMethod)
	assert.Equal(t, "User", cfg.UserName)
	assert.Equal(t, 72*time.Hour, cfg.RepeatInterval())
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	base := DefaultScheduleConfig()
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*ScheduleConfig)
		want   errors.Definition
	}{
		{"hour", func(c *ScheduleConfig) { c.CheckInHour = 24 }, errors.SettingsInvalid},
		{"negative minute", func(c *ScheduleConfig) { c.CheckInMinute = -1 }, errors.SettingsInvalid},
		{"zero grace", func(c *ScheduleConfig) { c.GracePeriodHours = 0 }, errors.SettingsInvalid},
		{"method", func(c *ScheduleConfig) { c.MessagingMethod = "pigeon" }, errors.MessagingMethodInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.want))
		})
	}
}

func TestParseMessagingMethod(t *testing.T) {
	m, err := ParseMessagingMethod(" WhatsApp ")
	require.NoError(t, err)
	assert.Equal(t, MessagingWhatsApp, m)

	_, err = ParseMessagingMethod("fax")
	assert.ErrorIs(t, err, errors.MessagingMethodInvalid)
}

func TestTimingChangedIgnoresNonTimingFields(t *testing.T) {
	a := DefaultScheduleConfig()
	b := a
	b.UserName = "Sam"
	b.MessagingMethod = MessagingSMS
	assert.False(t, a.TimingChanged(b))

	b.GracePeriodHours = 6
	assert.True(t, a.TimingChanged(b))
}

func TestSettingsRoundTripThroughSnapshot(t *testing.T) {
	cfg := ScheduleConfig{
		CheckInHour: 20, CheckInMinute: 30, GracePeriodHours: 8,
		CheckInFrequencyDays: 2, Enabled: true, MessagingMethod: MessagingSMS, UserName: "Alex",
	}
	row := SettingsFromConfig(cfg)
	assert.Equal(t, SettingsRowID, row.ID)
	assert.Equal(t, cfg, row.Snapshot())
}
