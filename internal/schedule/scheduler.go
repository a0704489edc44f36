// Package schedule 打卡提醒与超时核查两个周期任务
package schedule

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"AreYouDead/internal/cache"
	"AreYouDead/internal/model"
	"AreYouDead/internal/policy"
	"AreYouDead/pkg/errors"
	"AreYouDead/pkg/metrics"
)

const (
	ReminderTaskID     = "checkin.reminder"
	VerificationTaskID = "checkin.verification"

	fireTimeout     = 5 * time.Minute
	reminderLockTTL = time.Minute
)

// State 调度器状态
type State string

const (
	StateUnscheduled State = "unscheduled"
	StateScheduled   State = "scheduled"
	StateDisabled    State = "disabled"
)

type SettingsReader interface {
	Get(ctx context.Context, defaults model.ScheduleConfig) (model.ScheduleConfig, error)
}

type CheckInReader interface {
	Latest(ctx context.Context) (*model.CheckInRecord, error)
}

// Deduper 周期去重与多实例互斥，见 cache.Cache
type Deduper interface {
	TryMarkEscalation(ctx context.Context, periodKey string, ttl time.Duration) bool
	ReleaseEscalation(ctx context.Context, periodKey string)
	TryLock(ctx context.Context, name string, ttl time.Duration) bool
}

// EscalationDispatcher 启动一次告警：inline 模式为 service.EscalationService，queue 模式为 queue.Producer。
// 返回错误表示告警没有启动
type EscalationDispatcher interface {
	DispatchEscalation(ctx context.Context, job model.EscalationMessage) error
}

type Reminder interface {
	ShowReminder(ctx context.Context)
}

type Options struct {
	Settings   SettingsReader
	CheckIns   CheckInReader
	Dedupe     Deduper
	Dispatcher EscalationDispatcher
	Display    Reminder
	Registry   Registry
	Defaults   model.ScheduleConfig
	// DedupeTTL 为 0 时按重复间隔计算
	DedupeTTL time.Duration
	// Location 打卡时间点所在时区，为空时使用 time.Local
	Location *time.Location
	Logger   *zap.Logger
}

type Scheduler struct {
	settings   SettingsReader
	checkIns   CheckInReader
	dedupe     Deduper
	dispatcher EscalationDispatcher
	display    Reminder
	registry   Registry
	defaults   model.ScheduleConfig
	dedupeTTL  time.Duration
	log        *zap.Logger
	loc        *time.Location
	clock      func() time.Time

	mu    sync.Mutex
	state State
	// applied 最近一次成功注册的配置，注册中途失败时用于回滚
	applied    model.ScheduleConfig
	hasApplied bool
}

func NewScheduler(opts Options) *Scheduler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		settings:   opts.Settings,
		checkIns:   opts.CheckIns,
		dedupe:     opts.Dedupe,
		dispatcher: opts.Dispatcher,
		display:    opts.Display,
		registry:   opts.Registry,
		defaults:   opts.Defaults,
		dedupeTTL:  opts.DedupeTTL,
		log:        log,
		loc:        loc,
		clock:      time.Now,
		state:      StateUnscheduled,
	}
}

// now 当前时间，换算到打卡时区
func (s *Scheduler) now() time.Time {
	return s.clock().In(s.loc)
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Configure 按配置注册或取消两个周期任务，注册表错误直接返回
func (s *Scheduler) Configure(ctx context.Context, cfg model.ScheduleConfig) error {
	cfg = cfg.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !cfg.Enabled {
		if err := s.registry.Cancel(ReminderTaskID); err != nil {
			return errors.Wrap(errors.ScheduleCancelFailed, err)
		}
		if err := s.registry.Cancel(VerificationTaskID); err != nil {
			return errors.Wrap(errors.ScheduleCancelFailed, err)
		}
		s.state = StateDisabled
		s.hasApplied = false
		metrics.RecordScheduleConfigure(ctx, string(s.state))
		s.log.Info("Check-in schedule disabled")
		return nil
	}

	now := s.now()
	interval := cfg.RepeatInterval()
	reminderDelay := policy.ReminderDelay(cfg, now)
	verificationDelay := policy.VerificationDelay(cfg, now)

	if err := s.registry.ScheduleUnique(ReminderTaskID, reminderDelay, interval, s.fireReminder); err != nil {
		return errors.Wrap(errors.ScheduleRegisterFailed, err)
	}
	if err := s.registry.ScheduleUnique(VerificationTaskID, verificationDelay, interval, s.fireVerification); err != nil {
		s.rollbackReminder(now)
		return errors.Wrap(errors.ScheduleRegisterFailed, err)
	}

	s.state = StateScheduled
	s.applied = cfg
	s.hasApplied = true
	metrics.RecordScheduleConfigure(ctx, string(s.state))
	s.log.Info("Check-in schedule configured",
		zap.Int("check_in_hour", cfg.CheckInHour),
		zap.Int("check_in_minute", cfg.CheckInMinute),
		zap.Int("grace_period_hours", cfg.GracePeriodHours),
		zap.Duration("interval", interval),
		zap.Duration("reminder_delay", reminderDelay),
		zap.Duration("verification_delay", verificationDelay),
	)
	return nil
}

// rollbackReminder 核查任务注册失败后，提醒任务恢复到上一次成功的配置；
// 没有成功过则取消，两个任务不会停在一新一旧的状态
func (s *Scheduler) rollbackReminder(now time.Time) {
	if !s.hasApplied {
		if err := s.registry.Cancel(ReminderTaskID); err != nil {
			s.log.Error("Failed to cancel reminder after registration failure", zap.Error(err))
		}
		return
	}
	prev := s.applied
	if err := s.registry.ScheduleUnique(ReminderTaskID, policy.ReminderDelay(prev, now), prev.RepeatInterval(), s.fireReminder); err != nil {
		s.log.Error("Failed to restore previous reminder", zap.Error(err))
	}
}

// OnDeviceRestart 进程启动后恢复调度；关闭状态下什么都不做
func (s *Scheduler) OnDeviceRestart(ctx context.Context, cfg model.ScheduleConfig) error {
	if !cfg.Enabled {
		s.log.Info("Check-in disabled, nothing to restore")
		return nil
	}
	return s.Configure(ctx, cfg)
}

// snapshot 任务触发时重新读取设置和最后一次打卡
func (s *Scheduler) snapshot(ctx context.Context) (model.ScheduleConfig, *model.CheckInRecord, bool) {
	cfg, err := s.settings.Get(ctx, s.defaults)
	if err != nil {
		s.log.Error("Failed to load settings", zap.Error(err))
		return cfg, nil, false
	}
	if !cfg.Enabled {
		return cfg, nil, false
	}
	last, err := s.checkIns.Latest(ctx)
	if err != nil {
		s.log.Error("Failed to load latest check-in", zap.Error(err))
		return cfg, nil, false
	}
	return cfg, last, true
}

func (s *Scheduler) fireReminder() {
	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	cfg, last, ok := s.snapshot(ctx)
	if !ok {
		return
	}

	status := policy.Evaluate(lastTimestamp(last), cfg, s.now())
	if status == model.CheckInStatusCompliant {
		metrics.RecordReminder(ctx, "skipped")
		s.log.Debug("Already checked in, reminder skipped")
		return
	}

	if !s.dedupe.TryLock(ctx, ReminderTaskID, reminderLockTTL) {
		s.log.Debug("Reminder handled by another instance")
		return
	}

	s.display.ShowReminder(ctx)
	s.log.Info("Check-in reminder shown", zap.String("status", string(status)))
}

func (s *Scheduler) fireVerification() {
	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	cfg, last, ok := s.snapshot(ctx)
	if !ok {
		return
	}

	now := s.now()
	status := policy.Evaluate(lastTimestamp(last), cfg, now)
	if status != model.CheckInStatusOverdue {
		s.log.Debug("Check-in not overdue", zap.String("status", string(status)))
		return
	}

	var lastID int64
	if last != nil {
		lastID = last.ID
	}
	periodKey := cache.PeriodKey(lastID)

	ttl := s.dedupeTTL
	if ttl <= 0 {
		ttl = cache.EscalationTTL(cfg.RepeatInterval())
	}
	if !s.dedupe.TryMarkEscalation(ctx, periodKey, ttl) {
		metrics.RecordEscalationSkipped(ctx, "duplicate")
		s.log.Info("Escalation already ran for this period", zap.String("period_key", periodKey))
		return
	}

	s.log.Warn("Check-in overdue, starting escalation",
		zap.String("period_key", periodKey),
		zap.Int64("last_check_in_id", lastID),
	)

	job := model.EscalationMessage{
		PeriodKey:     periodKey,
		LastCheckInID: lastID,
		DetectedAt:    now.UTC().Format(time.RFC3339),
	}
	if err := s.dispatcher.DispatchEscalation(ctx, job); err != nil {
		s.dedupe.ReleaseEscalation(ctx, periodKey)
		s.log.Error("Failed to start escalation",
			zap.String("period_key", periodKey),
			zap.Error(err),
		)
	}
}

func lastTimestamp(rec *model.CheckInRecord) *time.Time {
	if rec == nil {
		return nil
	}
	ts := rec.Timestamp
	return &ts
}
