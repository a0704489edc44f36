package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"AreYouDead/internal/model"
	"AreYouDead/internal/policy"
	"AreYouDead/pkg/metrics"
	"AreYouDead/pkg/snowflake"
)

const maxParallelSends = 8

// Orchestrator 对所有联系人执行一次完整的告警扇出。无状态，不做去重
type Orchestrator struct {
	sender  Sender
	display Display
	loc     *time.Location
	now     func() time.Time
	log     *zap.Logger
}

func NewOrchestrator(sender Sender, display Display, loc *time.Location, log *zap.Logger) *Orchestrator {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		sender:  sender,
		display: display,
		loc:     loc,
		now:     time.Now,
		log:     log,
	}
}

type sendPair struct {
	contact model.Contact
	channel model.Channel
}

// phoneChannel 电话类通道按发送方式映射；both 是一次包含两条腿的尝试
func phoneChannel(method model.MessagingMethod) model.Channel {
	switch method {
	case model.MessagingSMS:
		return model.ChannelSMS
	case model.MessagingWhatsApp:
		return model.ChannelWhatsApp
	default:
		return model.ChannelMessaging
	}
}

func planSends(contacts []model.Contact, method model.MessagingMethod) []sendPair {
	pairs := make([]sendPair, 0, len(contacts)*2)
	for _, c := range contacts {
		if c.HasPhone() {
			pairs = append(pairs, sendPair{contact: c, channel: phoneChannel(method)})
		}
		if c.HasEmail() {
			pairs = append(pairs, sendPair{contact: c, channel: model.ChannelEmail})
		}
	}
	return pairs
}

// RunEscalation 每个 (联系人, 通道) 只发一次，失败互不影响，全部完成后汇总
func (o *Orchestrator) RunEscalation(ctx context.Context, contacts []model.Contact, cfg model.ScheduleConfig, lastCheckIn *time.Time) model.EscalationResult {
	result := model.EscalationResult{
		StartedAt:    o.now(),
		ContactCount: len(contacts),
		Outcomes:     []model.ChannelOutcome{},
	}
	if len(contacts) == 0 {
		result.FinishedAt = o.now()
		o.log.Info("No emergency contacts, escalation is a no-op")
		return result
	}

	msg := BuildAlertMessage(cfg.UserName, lastCheckIn, o.loc)
	pairs := planSends(contacts, cfg.MessagingMethod)
	outcomes := make([]model.ChannelOutcome, len(pairs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxParallelSends)
	for i, p := range pairs {
		wg.Add(1)
		go func(i int, p sendPair) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			// 单个通道 panic 只算这一次发送失败
			defer func() {
				if r := recover(); r != nil {
					o.log.Error("Panic during alert send",
						zap.Int64("contact_id", p.contact.ID),
						zap.String("channel", string(p.channel)),
						zap.Any("panic", r),
					)
					outcomes[i] = model.ChannelOutcome{Contact: p.contact, Channel: p.channel, Error: fmt.Sprint(r)}
				}
			}()
			outcomes[i] = o.sender.Send(ctx, p.channel, p.contact, msg)
		}(i, p)
	}
	wg.Wait()

	result.Outcomes = outcomes
	result.Attempted = len(outcomes)
	for _, oc := range outcomes {
		if oc.Success {
			result.Succeeded++
			continue
		}
		o.log.Warn("Alert delivery failed",
			zap.Int64("contact_id", oc.Contact.ID),
			zap.String("channel", string(oc.Channel)),
			zap.String("error", oc.Error),
		)
	}
	result.FinishedAt = o.now()

	// 即使全部失败也要告知本地：告警已执行
	if o.display != nil {
		o.display.ShowAlertSent(ctx, len(contacts))
	}

	o.log.Info("Escalation completed",
		zap.Int("contact_count", result.ContactCount),
		zap.Int("attempted", result.Attempted),
		zap.Int("succeeded", result.Succeeded),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)),
	)
	return result
}

// EscalationService 读取告警输入、执行扇出并持久化结果
type EscalationService struct {
	checkIns CheckInStore
	contacts ContactStore
	settings SettingsStore
	runs     EscalationStore
	orch     *Orchestrator
	defaults model.ScheduleConfig
	log      *zap.Logger
}

func NewEscalationService(
	checkIns CheckInStore,
	contacts ContactStore,
	settings SettingsStore,
	runs EscalationStore,
	orch *Orchestrator,
	defaults model.ScheduleConfig,
	log *zap.Logger,
) *EscalationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EscalationService{
		checkIns: checkIns,
		contacts: contacts,
		settings: settings,
		runs:     runs,
		orch:     orch,
		defaults: defaults,
		log:      log,
	}
}

// DispatchEscalation 执行一次告警。返回错误表示告警没有启动（输入读取失败），
// 调用方可以释放去重键；发送失败和持久化失败只记录日志
func (s *EscalationService) DispatchEscalation(ctx context.Context, job model.EscalationMessage) error {
	cfg, err := s.settings.Get(ctx, s.defaults)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !cfg.Enabled {
		s.log.Info("Check-in disabled since the job was issued, skipping escalation",
			zap.String("period_key", job.PeriodKey),
		)
		metrics.RecordEscalationSkipped(ctx, "disabled")
		return nil
	}

	last, err := s.checkIns.Latest(ctx)
	if err != nil {
		return fmt.Errorf("failed to load last check-in: %w", err)
	}

	var lastAt *time.Time
	if last != nil {
		ts := last.Timestamp
		lastAt = &ts
	}

	// 任务发出后到执行前可能已经打卡，按最新快照重新判断
	if status := policy.Evaluate(lastAt, cfg, s.orch.now().In(s.orch.loc)); status != model.CheckInStatusOverdue {
		s.log.Info("No longer overdue, skipping escalation",
			zap.String("period_key", job.PeriodKey),
			zap.String("status", string(status)),
		)
		metrics.RecordEscalationSkipped(ctx, "not_overdue")
		return nil
	}

	contacts, err := s.contacts.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load contacts: %w", err)
	}

	result := s.orch.RunEscalation(ctx, contacts, cfg, lastAt)
	run := s.record(ctx, job.PeriodKey, lastAt, result)
	metrics.RecordEscalation(ctx, string(run.Status), result.Attempted, result.Succeeded)
	return nil
}

func (s *EscalationService) record(ctx context.Context, periodKey string, lastAt *time.Time, result model.EscalationResult) *model.EscalationRun {
	run := &model.EscalationRun{
		PeriodKey:     periodKey,
		LastCheckInAt: lastAt,
		Status:        model.EscalationRunCompleted,
		ContactCount:  result.ContactCount,
		Attempted:     result.Attempted,
		Succeeded:     result.Succeeded,
		StartedAt:     result.StartedAt,
		FinishedAt:    result.FinishedAt,
		Attempts:      model.AttemptsFromOutcomes(result.Outcomes, result.FinishedAt),
	}
	if result.ContactCount == 0 {
		run.Status = model.EscalationRunNoContacts
	}

	code, err := snowflake.NextID()
	if err != nil {
		s.log.Error("Failed to generate run code", zap.Error(err))
		code = result.StartedAt.UnixNano()
	}
	run.RunCode = code

	if err := s.runs.Create(ctx, run); err != nil {
		s.log.Error("Failed to persist escalation run",
			zap.Int64("run_code", run.RunCode),
			zap.String("period_key", periodKey),
			zap.Error(err),
		)
	}
	return run
}

// ListRuns 最近的告警记录
func (s *EscalationService) ListRuns(ctx context.Context, limit int) ([]model.EscalationRun, error) {
	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalation runs: %w", err)
	}
	return runs, nil
}
