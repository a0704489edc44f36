package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AreYouDead/pkg/errors"
)

func TestDelayThenEvery(t *testing.T) {
	first := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s := delayThenEvery{first: first, every: 24 * time.Hour}

	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{"before first", first.Add(-5 * time.Hour), first},
		{"at first", first, first.Add(24 * time.Hour)},
		{"mid period", first.Add(30 * time.Hour), first.Add(48 * time.Hour)},
		{"exactly one period later", first.Add(24 * time.Hour), first.Add(48 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Next(tt.at)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.After(tt.at))
		})
	}
}

func TestCronRegistryReplaceAndCancel(t *testing.T) {
	r := NewCronRegistry(time.UTC, nil)
	noop := func() {}

	require.NoError(t, r.ScheduleUnique("a", time.Hour, 24*time.Hour, noop))
	require.NoError(t, r.ScheduleUnique("a", 2*time.Hour, 24*time.Hour, noop))
	require.NoError(t, r.ScheduleUnique("b", time.Hour, 48*time.Hour, noop))

	assert.Len(t, r.cron.Entries(), 2)
	assert.True(t, r.Registered("a"))

	require.NoError(t, r.Cancel("a"))
	require.NoError(t, r.Cancel("a"))
	assert.False(t, r.Registered("a"))
	assert.Len(t, r.cron.Entries(), 1)
}

func TestCronRegistryRejectsBadInput(t *testing.T) {
	r := NewCronRegistry(time.UTC, nil)

	assert.ErrorIs(t, r.ScheduleUnique("a", time.Hour, 0, func() {}), errors.ScheduleRegisterFailed)
	assert.ErrorIs(t, r.ScheduleUnique("", time.Hour, time.Hour, func() {}), errors.ScheduleRegisterFailed)
	assert.ErrorIs(t, r.ScheduleUnique("a", time.Hour, time.Hour, nil), errors.ScheduleRegisterFailed)
}

func TestCronRegistryRunsTask(t *testing.T) {
	r := NewCronRegistry(time.UTC, nil)
	fired := make(chan struct{}, 1)

	require.NoError(t, r.ScheduleUnique("soon", 200*time.Millisecond, time.Hour, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}))
	r.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = r.Stop(ctx)
	}()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("task did not fire")
	}
}
