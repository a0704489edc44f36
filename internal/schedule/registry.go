package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"AreYouDead/pkg/errors"
)

// Registry 周期任务注册表：同一 id 重复注册时替换旧任务，不叠加
type Registry interface {
	ScheduleUnique(id string, delay, interval time.Duration, fn func()) error
	Cancel(id string) error
}

// delayThenEvery 首次在 first 触发，之后每隔 every 触发
type delayThenEvery struct {
	first time.Time
	every time.Duration
}

func (s delayThenEvery) Next(t time.Time) time.Time {
	if t.Before(s.first) {
		return s.first
	}
	n := t.Sub(s.first)/s.every + 1
	return s.first.Add(n * s.every)
}

// CronRegistry 基于 robfig/cron 的任务注册表
type CronRegistry struct {
	cron    *cron.Cron
	mu      sync.Mutex
	entries map[string]cron.EntryID
	now     func() time.Time
	log     *zap.Logger
}

func NewCronRegistry(loc *time.Location, log *zap.Logger) *CronRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{log: log.Sugar()}
	return &CronRegistry{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		entries: make(map[string]cron.EntryID),
		now:     time.Now,
		log:     log,
	}
}

func (r *CronRegistry) Start() {
	r.cron.Start()
	r.log.Info("Periodic task registry started")
}

// Stop 停止调度并等待正在执行的任务结束
func (r *CronRegistry) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		r.log.Info("Periodic task registry stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to wait for running tasks: %w", ctx.Err())
	}
}

func (r *CronRegistry) ScheduleUnique(id string, delay, interval time.Duration, fn func()) error {
	if id == "" || fn == nil {
		return errors.Wrap(errors.ScheduleRegisterFailed, fmt.Errorf("task id and function are required"))
	}
	if interval <= 0 {
		return errors.Wrap(errors.ScheduleRegisterFailed, fmt.Errorf("task %s: interval must be positive, got %s", id, interval))
	}
	if delay < 0 {
		delay = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[id]; ok {
		r.cron.Remove(old)
	}

	first := r.now().Add(delay)
	r.entries[id] = r.cron.Schedule(delayThenEvery{first: first, every: interval}, cron.FuncJob(fn))

	r.log.Info("Periodic task registered",
		zap.String("task_id", id),
		zap.Time("first_run", first),
		zap.Duration("interval", interval),
	)
	return nil
}

func (r *CronRegistry) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil
	}
	r.cron.Remove(entry)
	delete(r.entries, id)

	r.log.Info("Periodic task cancelled", zap.String("task_id", id))
	return nil
}

// Registered 返回已注册的任务 id 是否存在
func (r *CronRegistry) Registered(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
