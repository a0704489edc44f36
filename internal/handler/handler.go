// Package handler HTTP 接口层，只做参数绑定与响应转换
package handler

import (
	"context"
	"strconv"
	"time"

	"AreYouDead/internal/model"
	"AreYouDead/internal/model/dto"
	"AreYouDead/internal/policy"
	"AreYouDead/internal/schedule"
	"AreYouDead/pkg/errors"
)

type CheckInAPI interface {
	CheckIn(ctx context.Context, source string) (*model.CheckInRecord, error)
	Status(ctx context.Context) (policy.Summary, error)
	History(ctx context.Context, days, limit int) ([]model.CheckInRecord, error)
}

type SettingsAPI interface {
	Get(ctx context.Context) (model.ScheduleConfig, error)
	Update(ctx context.Context, req dto.UpdateSettingsRequest) (model.ScheduleConfig, error)
}

type ContactAPI interface {
	ListContacts(ctx context.Context) ([]dto.ContactItem, error)
	CreateContact(ctx context.Context, req dto.CreateContactRequest) (*dto.ContactItem, error)
	UpdateContact(ctx context.Context, id int64, req dto.UpdateContactRequest) (*dto.ContactItem, error)
	DeleteContact(ctx context.Context, id int64) error
}

type EscalationAPI interface {
	ListRuns(ctx context.Context, limit int) ([]model.EscalationRun, error)
}

// StateReporter 调度器当前状态
type StateReporter interface {
	State() schedule.State
}

type Handlers struct {
	checkIns    CheckInAPI
	settings    SettingsAPI
	contacts    ContactAPI
	escalations EscalationAPI
	scheduler   StateReporter
	loc         *time.Location
}

type Deps struct {
	CheckIns    CheckInAPI
	Settings    SettingsAPI
	Contacts    ContactAPI
	Escalations EscalationAPI
	Scheduler   StateReporter
	Location    *time.Location
}

func New(d Deps) *Handlers {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handlers{
		checkIns:    d.CheckIns,
		settings:    d.Settings,
		contacts:    d.Contacts,
		escalations: d.Escalations,
		scheduler:   d.Scheduler,
		loc:         loc,
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.InvalidRequest
	}
	return id, nil
}

func parseLimit(raw []byte, def int) int {
	if len(raw) == 0 {
		return def
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
