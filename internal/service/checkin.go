package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"AreYouDead/internal/model"
	"AreYouDead/internal/policy"
	"AreYouDead/pkg/errors"
	"AreYouDead/pkg/metrics"
)

const maxHistoryItems = 500

type CheckInService struct {
	checkIns   CheckInStore
	settings   SettingsStore
	scheduler  Configurer
	display    Display
	defaults   model.ScheduleConfig
	historyDay int
	loc        *time.Location
	clock      func() time.Time
	log        *zap.Logger
}

func NewCheckInService(
	checkIns CheckInStore,
	settings SettingsStore,
	scheduler Configurer,
	display Display,
	defaults model.ScheduleConfig,
	loc *time.Location,
	historyDays int,
	log *zap.Logger,
) *CheckInService {
	if historyDays <= 0 {
		historyDays = 30
	}
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckInService{
		checkIns:   checkIns,
		settings:   settings,
		scheduler:  scheduler,
		display:    display,
		defaults:   defaults,
		historyDay: historyDays,
		loc:        loc,
		clock:      time.Now,
		log:        log,
	}
}

func (s *CheckInService) now() time.Time {
	return s.clock().In(s.loc)
}

// CheckIn 记录一次打卡，取消待显示的提醒，并按当前设置重新调度
func (s *CheckInService) CheckIn(ctx context.Context, source string) (*model.CheckInRecord, error) {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		source = "api"
	}

	record := &model.CheckInRecord{
		Timestamp: s.now().UTC(),
		Source:    source,
	}
	if err := s.checkIns.Create(ctx, record); err != nil {
		return nil, err
	}
	metrics.RecordCheckIn(ctx, source)

	if s.display != nil {
		s.display.CancelReminder(ctx)
	}

	cfg, err := s.settings.Get(ctx, s.defaults)
	if err != nil {
		return record, fmt.Errorf("failed to load settings after check-in: %w", err)
	}
	if err := s.scheduler.Configure(ctx, cfg); err != nil {
		s.log.Error("Failed to reschedule after check-in",
			zap.Int64("check_in_id", record.ID),
			zap.Error(err),
		)
		return record, errors.Wrap(errors.SettingsRescheduleFailed, err)
	}

	s.log.Info("Check-in recorded",
		zap.Int64("check_in_id", record.ID),
		zap.String("source", source),
		zap.Time("timestamp", record.Timestamp),
	)
	return record, nil
}

// Status 首页状态摘要
func (s *CheckInService) Status(ctx context.Context) (policy.Summary, error) {
	cfg, err := s.settings.Get(ctx, s.defaults)
	if err != nil {
		return policy.Summary{}, err
	}
	last, err := s.checkIns.Latest(ctx)
	if err != nil {
		return policy.Summary{}, err
	}

	var lastAt *time.Time
	if last != nil {
		ts := last.Timestamp
		lastAt = &ts
	}
	return policy.Summarize(lastAt, cfg, s.now()), nil
}

// History 最近 days 天的打卡记录，days <= 0 时使用默认窗口
func (s *CheckInService) History(ctx context.Context, days, limit int) ([]model.CheckInRecord, error) {
	if days <= 0 {
		days = s.historyDay
	}
	if limit <= 0 || limit > maxHistoryItems {
		limit = maxHistoryItems
	}
	since := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	return s.checkIns.Since(ctx, since, limit)
}
