package service

import (
	"context"
	"time"

	"AreYouDead/internal/channel"
	"AreYouDead/internal/model"
)

// 服务层依赖的存储与外部协作方，由 cmd 中的组装代码注入

type CheckInStore interface {
	Create(ctx context.Context, record *model.CheckInRecord) error
	Latest(ctx context.Context) (*model.CheckInRecord, error)
	Since(ctx context.Context, since time.Time, limit int) ([]model.CheckInRecord, error)
}

type ContactStore interface {
	List(ctx context.Context) ([]model.Contact, error)
	Get(ctx context.Context, id int64) (*model.Contact, error)
	Create(ctx context.Context, contact *model.Contact) error
	Update(ctx context.Context, contact *model.Contact) error
	Delete(ctx context.Context, id int64) error
}

type SettingsStore interface {
	Get(ctx context.Context, defaults model.ScheduleConfig) (model.ScheduleConfig, error)
	Save(ctx context.Context, cfg model.ScheduleConfig) error
}

type EscalationStore interface {
	Create(ctx context.Context, run *model.EscalationRun) error
	ListRecent(ctx context.Context, limit int) ([]model.EscalationRun, error)
}

// Sender 对一个联系人执行一次通道尝试，见 channel.Dispatcher
type Sender interface {
	Send(ctx context.Context, ch model.Channel, contact model.Contact, msg channel.Message) model.ChannelOutcome
}

// Display 本地展示副作用：提醒、告警已发送、取消提醒
type Display interface {
	ShowReminder(ctx context.Context)
	ShowAlertSent(ctx context.Context, contactCount int)
	CancelReminder(ctx context.Context)
}

// Configurer 调度器的重新配置入口
type Configurer interface {
	Configure(ctx context.Context, cfg model.ScheduleConfig) error
}
