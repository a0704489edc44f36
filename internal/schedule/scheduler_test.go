package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AreYouDead/internal/model"
	"AreYouDead/pkg/errors"
)

type registered struct {
	delay    time.Duration
	interval time.Duration
	fn       func()
}

type fakeRegistry struct {
	tasks     map[string]registered
	registers int
	failID    string
	cancelErr error
	cancelled []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{tasks: map[string]registered{}}
}

func (r *fakeRegistry) ScheduleUnique(id string, delay, interval time.Duration, fn func()) error {
	if id == r.failID {
		return assert.AnError
	}
	r.registers++
	r.tasks[id] = registered{delay: delay, interval: interval, fn: fn}
	return nil
}

func (r *fakeRegistry) Cancel(id string) error {
	if r.cancelErr != nil {
		return r.cancelErr
	}
	r.cancelled = append(r.cancelled, id)
	delete(r.tasks, id)
	return nil
}

type stubSettings struct {
	cfg model.ScheduleConfig
	err error
}

func (s *stubSettings) Get(context.Context, model.ScheduleConfig) (model.ScheduleConfig, error) {
	return s.cfg, s.err
}

type stubCheckIns struct {
	last *model.CheckInRecord
}

func (s *stubCheckIns) Latest(context.Context) (*model.CheckInRecord, error) {
	return s.last, nil
}

type memDeduper struct {
	mu       sync.Mutex
	keys     map[string]time.Duration
	released []string
}

func newMemDeduper() *memDeduper {
	return &memDeduper{keys: map[string]time.Duration{}}
}

func (d *memDeduper) TryMarkEscalation(_ context.Context, key string, ttl time.Duration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.keys[key]; ok {
		return false
	}
	d.keys[key] = ttl
	return true
}

func (d *memDeduper) ReleaseEscalation(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.keys, key)
	d.released = append(d.released, key)
}

func (d *memDeduper) TryLock(context.Context, string, time.Duration) bool { return true }

type recordingDispatcher struct {
	jobs []model.EscalationMessage
	err  error
}

func (r *recordingDispatcher) DispatchEscalation(_ context.Context, job model.EscalationMessage) error {
	r.jobs = append(r.jobs, job)
	return r.err
}

type countingReminder struct {
	shown int
}

func (c *countingReminder) ShowReminder(context.Context) { c.shown++ }

type harness struct {
	s          *Scheduler
	registry   *fakeRegistry
	settings   *stubSettings
	checkIns   *stubCheckIns
	dedupe     *memDeduper
	dispatcher *recordingDispatcher
	reminder   *countingReminder
}

var clock = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func newHarness(cfg model.ScheduleConfig) *harness {
	h := &harness{
		registry:   newFakeRegistry(),
		settings:   &stubSettings{cfg: cfg},
		checkIns:   &stubCheckIns{},
		dedupe:     newMemDeduper(),
		dispatcher: &recordingDispatcher{},
		reminder:   &countingReminder{},
	}
	h.s = NewScheduler(Options{
		Settings:   h.settings,
		CheckIns:   h.checkIns,
		Dedupe:     h.dedupe,
		Dispatcher: h.dispatcher,
		Display:    h.reminder,
		Registry:   h.registry,
		Defaults:   model.DefaultScheduleConfig(),
		Location:   time.UTC,
	})
	h.s.clock = func() time.Time { return clock }
	return h
}

func checkedIn(id int64, ago time.Duration) *model.CheckInRecord {
	return &model.CheckInRecord{ID: id, Timestamp: clock.Add(-ago)}
}

func TestConfigureRegistersBothTasks(t *testing.T) {
	cfg := model.DefaultScheduleConfig()
	h := newHarness(cfg)
	assert.Equal(t, StateUnscheduled, h.s.State())

	require.NoError(t, h.s.Configure(context.Background(), cfg))

	assert.Equal(t, StateScheduled, h.s.State())
	require.Len(t, h.registry.tasks, 2)

	// 14:00 之后，09:00 与 13:00 都顺延到明天
	reminder := h.registry.tasks[ReminderTaskID]
	assert.Equal(t, 19*time.Hour, reminder.delay)
	assert.Equal(t, 24*time.Hour, reminder.interval)

	verification := h.registry.tasks[VerificationTaskID]
	assert.Equal(t, 23*time.Hour, verification.delay)
	assert.Equal(t, 24*time.Hour, verification.interval)
}

func TestConfigureUsesConfiguredLocation(t *testing.T) {
	cfg := model.DefaultScheduleConfig()
	h := newHarness(cfg)
	h.s.loc = time.FixedZone("UTC+8", 8*3600)
	// 00:00 UTC 即当地 08:00
	h.s.clock = func() time.Time { return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, h.s.Configure(context.Background(), cfg))

	assert.Equal(t, time.Hour, h.registry.tasks[ReminderTaskID].delay)
	assert.Equal(t, 5*time.Hour, h.registry.tasks[VerificationTaskID].delay)
}

func TestVerificationEvaluatesInConfiguredLocation(t *testing.T) {
	h := newHarness(model.DefaultScheduleConfig())
	h.s.loc = time.FixedZone("UTC+8", 8*3600)
	// 06:00 UTC 即当地 14:00，已过当地 13:00 的宽限截止；按 UTC 计算仍在宽限内
	now := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	h.s.clock = func() time.Time { return now }
	h.checkIns.last = &model.CheckInRecord{ID: 11, Timestamp: now.Add(-30 * time.Hour)}

	h.s.fireVerification()

	require.Len(t, h.dispatcher.jobs, 1)
	assert.Equal(t, "2026-03-10T06:00:00Z", h.dispatcher.jobs[0].DetectedAt)
}

func TestConfigureReplacesInsteadOfStacking(t *testing.T) {
	cfg := model.DefaultScheduleConfig()
	h := newHarness(cfg)

	require.NoError(t, h.s.Configure(context.Background(), cfg))
	cfg.CheckInFrequencyDays = 7 // 夹取为 3
	require.NoError(t, h.s.Configure(context.Background(), cfg))

	assert.Len(t, h.registry.tasks, 2)
	assert.Equal(t, 4, h.registry.registers)
	assert.Equal(t, 72*time.Hour, h.registry.tasks[VerificationTaskID].interval)
}

func TestConfigureDisabledCancelsBoth(t *testing.T) {
	cfg := model.DefaultScheduleConfig()
	h := newHarness(cfg)
	require.NoError(t, h.s.Configure(context.Background(), cfg))

	cfg.Enabled = false
	require.NoError(t, h.s.Configure(context.Background(), cfg))

	assert.Equal(t, StateDisabled, h.s.State())
	assert.Empty(t, h.registry.tasks)
	assert.ElementsMatch(t, []string{ReminderTaskID, VerificationTaskID}, h.registry.cancelled)
}

func TestConfigureSurfacesRegistryErrors(t *testing.T) {
	cfg := model.DefaultScheduleConfig()

	h := newHarness(cfg)
	h.registry.failID = VerificationTaskID
	err := h.s.Configure(context.Background(), cfg)
	assert.ErrorIs(t, err, errors.ScheduleRegisterFailed)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, StateUnscheduled, h.s.State())
	assert.Empty(t, h.registry.tasks, "reminder must not outlive a failed first registration")
	assert.Equal(t, []string{ReminderTaskID}, h.registry.cancelled)

	h = newHarness(cfg)
	h.registry.cancelErr = assert.AnError
	cfg.Enabled = false
	assert.ErrorIs(t, h.s.Configure(context.Background(), cfg), errors.ScheduleCancelFailed)
}

func TestConfigureRestoresReminderWhenVerificationFails(t *testing.T) {
	cfg := model.DefaultScheduleConfig()
	h := newHarness(cfg)
	require.NoError(t, h.s.Configure(context.Background(), cfg))
	before := h.registry.tasks[ReminderTaskID]

	changed := cfg
	changed.CheckInHour = 20
	h.registry.failID = VerificationTaskID
	err := h.s.Configure(context.Background(), changed)
	require.ErrorIs(t, err, errors.ScheduleRegisterFailed)

	// 两个任务仍然对应旧配置
	require.Len(t, h.registry.tasks, 2)
	assert.Equal(t, before.delay, h.registry.tasks[ReminderTaskID].delay)
	assert.Equal(t, 23*time.Hour, h.registry.tasks[VerificationTaskID].delay)
	assert.Equal(t, StateScheduled, h.s.State())
}

func TestOnDeviceRestart(t *testing.T) {
	cfg := model.DefaultScheduleConfig()
	h := newHarness(cfg)
	require.NoError(t, h.s.OnDeviceRestart(context.Background(), cfg))
	assert.Len(t, h.registry.tasks, 2)

	cfg.Enabled = false
	h = newHarness(cfg)
	require.NoError(t, h.s.OnDeviceRestart(context.Background(), cfg))
	assert.Empty(t, h.registry.tasks)
	assert.Empty(t, h.registry.cancelled)
	assert.Equal(t, StateUnscheduled, h.s.State())
}

func TestVerificationEscalatesOncePerPeriod(t *testing.T) {
	cfg := model.DefaultScheduleConfig()
	h := newHarness(cfg)
	h.checkIns.last = checkedIn(42, 30*time.Hour)

	h.s.fireVerification()
	h.s.fireVerification()

	require.Len(t, h.dispatcher.jobs, 1)
	job := h.dispatcher.jobs[0]
	assert.Equal(t, "escalation:period:42", job.PeriodKey)
	assert.Equal(t, int64(42), job.LastCheckInID)
	assert.Equal(t, "2026-03-10T14:00:00Z", job.DetectedAt)
	assert.Equal(t, 23*time.Hour, h.dedupe.keys["escalation:period:42"])

	// 新的打卡开启新周期
	h.checkIns.last = checkedIn(43, 30*time.Hour)
	h.s.fireVerification()
	assert.Len(t, h.dispatcher.jobs, 2)
}

func TestVerificationUsesConfiguredDedupeTTL(t *testing.T) {
	cfg := model.DefaultScheduleConfig()
	h := newHarness(cfg)
	h.s.dedupeTTL = 2 * time.Hour
	h.checkIns.last = checkedIn(7, 30*time.Hour)

	h.s.fireVerification()
	assert.Equal(t, 2*time.Hour, h.dedupe.keys["escalation:period:7"])
}

func TestVerificationReleasesKeyWhenDispatchFails(t *testing.T) {
	cfg := model.DefaultScheduleConfig()
	h := newHarness(cfg)
	h.checkIns.last = checkedIn(5, 30*time.Hour)
	h.dispatcher.err = assert.AnError

	h.s.fireVerification()
	assert.Equal(t, []string{"escalation:period:5"}, h.dedupe.released)

	h.dispatcher.err = nil
	h.s.fireVerification()
	assert.Len(t, h.dispatcher.jobs, 2)
}

func TestVerificationSkipsWhenNotOverdue(t *testing.T) {
	tests := []struct {
		name string
		last *model.CheckInRecord
	}{
		{"never checked in", nil},
		{"checked in recently", checkedIn(1, 2*time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(model.DefaultScheduleConfig())
			h.checkIns.last = tt.last

			h.s.fireVerification()
			assert.Empty(t, h.dispatcher.jobs)
			assert.Empty(t, h.dedupe.keys)
		})
	}
}

func TestFiresAreNoOpsWhenDisabledInFreshSnapshot(t *testing.T) {
	cfg := model.DefaultScheduleConfig()
	h := newHarness(cfg)
	require.NoError(t, h.s.Configure(context.Background(), cfg))
	h.checkIns.last = checkedIn(9, 30*time.Hour)

	h.settings.cfg.Enabled = false
	h.registry.tasks[VerificationTaskID].fn()
	h.registry.tasks[ReminderTaskID].fn()

	assert.Empty(t, h.dispatcher.jobs)
	assert.Zero(t, h.reminder.shown)
}

func TestFiresSkipWhenSettingsUnavailable(t *testing.T) {
	h := newHarness(model.DefaultScheduleConfig())
	h.settings.err = assert.AnError
	h.checkIns.last = checkedIn(9, 30*time.Hour)

	h.s.fireVerification()
	h.s.fireReminder()

	assert.Empty(t, h.dispatcher.jobs)
	assert.Zero(t, h.reminder.shown)
}

func TestReminder(t *testing.T) {
	tests := []struct {
		name  string
		last  *model.CheckInRecord
		shown int
	}{
		{"compliant is a no-op", checkedIn(1, time.Hour), 0},
		{"pending shows reminder", nil, 1},
		{"overdue shows reminder", checkedIn(1, 30*time.Hour), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(model.DefaultScheduleConfig())
			h.checkIns.last = tt.last

			h.s.fireReminder()
			assert.Equal(t, tt.shown, h.reminder.shown)
		})
	}
}
