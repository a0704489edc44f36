package service

import (
	"context"

	"go.uber.org/zap"

	"AreYouDead/config"
	"AreYouDead/internal/model"
	"AreYouDead/internal/model/dto"
	"AreYouDead/pkg/errors"
)

type SettingsService struct {
	settings  SettingsStore
	scheduler Configurer
	defaults  model.ScheduleConfig
	log       *zap.Logger
}

func NewSettingsService(settings SettingsStore, scheduler Configurer, defaults model.ScheduleConfig, log *zap.Logger) *SettingsService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettingsService{
		settings:  settings,
		scheduler: scheduler,
		defaults:  defaults,
		log:       log,
	}
}

func (s *SettingsService) Get(ctx context.Context) (model.ScheduleConfig, error) {
	return s.settings.Get(ctx, s.defaults)
}

// Update 应用部分更新；调度相关字段变化时在返回前完成重新调度
func (s *SettingsService) Update(ctx context.Context, req dto.UpdateSettingsRequest) (model.ScheduleConfig, error) {
	current, err := s.settings.Get(ctx, s.defaults)
	if err != nil {
		return model.ScheduleConfig{}, err
	}

	next, err := applySettings(current, req)
	if err != nil {
		return model.ScheduleConfig{}, err
	}

	if err := s.settings.Save(ctx, next); err != nil {
		return model.ScheduleConfig{}, err
	}

	if !current.TimingChanged(next) {
		return next, nil
	}

	s.log.Info("Schedule settings changed, reconfiguring",
		zap.Int("check_in_hour", next.CheckInHour),
		zap.Int("check_in_minute", next.CheckInMinute),
		zap.Int("grace_period_hours", next.GracePeriodHours),
		zap.Int("frequency_days", next.CheckInFrequencyDays),
		zap.Bool("enabled", next.Enabled),
	)
	if err := s.scheduler.Configure(ctx, next); err != nil {
		return next, errors.Wrap(errors.SettingsRescheduleFailed, err)
	}
	return next, nil
}

func applySettings(cfg model.ScheduleConfig, req dto.UpdateSettingsRequest) (model.ScheduleConfig, error) {
	if req.CheckInHour != nil {
		cfg.CheckInHour = *req.CheckInHour
	}
	if req.CheckInMinute != nil {
		cfg.CheckInMinute = *req.CheckInMinute
	}
	if req.GracePeriodHours != nil {
		cfg.GracePeriodHours = *req.GracePeriodHours
	}
	if req.CheckInFrequencyDays != nil {
		cfg.CheckInFrequencyDays = *req.CheckInFrequencyDays
	}
	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
	}
	if req.MessagingMethod != nil {
		method, err := model.ParseMessagingMethod(*req.MessagingMethod)
		if err != nil {
			return model.ScheduleConfig{}, err
		}
		cfg.MessagingMethod = method
	}
	if req.UserName != nil {
		cfg.UserName = *req.UserName
	}

	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return model.ScheduleConfig{}, err
	}
	return cfg, nil
}

// ToSettingsData 转换为接口输出
func ToSettingsData(cfg model.ScheduleConfig) dto.SettingsData {
	return dto.SettingsData{
		CheckInHour:          cfg.CheckInHour,
		CheckInMinute:        cfg.CheckInMinute,
		GracePeriodHours:     cfg.GracePeriodHours,
		CheckInFrequencyDays: cfg.CheckInFrequencyDays,
		Enabled:              cfg.Enabled,
		MessagingMethod:      string(cfg.MessagingMethod),
		UserName:             cfg.UserName,
	}
}

// DefaultsFromConfig 数据库中没有设置记录时使用的默认值
func DefaultsFromConfig(cfg *config.Config) model.ScheduleConfig {
	method, err := model.ParseMessagingMethod(cfg.MessagingMethod)
	if err != nil {
		method = model.MessagingBoth
	}
	return model.ScheduleConfig{
		CheckInHour:          cfg.CheckInHour,
		CheckInMinute:        cfg.CheckInMinute,
		GracePeriodHours:     cfg.GracePeriodHours,
		CheckInFrequencyDays: cfg.CheckInFrequencyDays,
		Enabled:              cfg.CheckInEnabled,
		MessagingMethod:      method,
		UserName:             cfg.UserName,
	}.Normalize()
}
