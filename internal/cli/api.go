package cli

import (
	"context"

	"AreYouDead/internal/model/dto"
)

// API 命令行用到的服务端接口，由 client.Client 实现
type API interface {
	Status(ctx context.Context) (*dto.CheckInStatusData, error)
	CheckIn(ctx context.Context, source string) (*dto.CompleteCheckInResponse, string, error)
	History(ctx context.Context, days, limit int) ([]dto.CheckInItem, error)
	Settings(ctx context.Context) (*dto.SettingsData, error)
	UpdateSettings(ctx context.Context, req dto.UpdateSettingsRequest) (*dto.SettingsData, error)
	Contacts(ctx context.Context) ([]dto.ContactItem, error)
	AddContact(ctx context.Context, req dto.CreateContactRequest) (*dto.ContactItem, error)
	RemoveContact(ctx context.Context, id int64) error
	Escalations(ctx context.Context, limit int) ([]dto.EscalationRunItem, error)
}
