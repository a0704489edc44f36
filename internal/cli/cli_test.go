package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AreYouDead/internal/model/dto"
)

type stubAPI struct {
	status   *dto.CheckInStatusData
	warning  string
	contacts []dto.ContactItem
	update   *dto.UpdateSettingsRequest
	added    *dto.CreateContactRequest
	removed  int64
	err      error
}

func (s *stubAPI) Status(context.Context) (*dto.CheckInStatusData, error) {
	return s.status, s.err
}

func (s *stubAPI) CheckIn(_ context.Context, source string) (*dto.CompleteCheckInResponse, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return &dto.CompleteCheckInResponse{ID: 1, CompletedAt: time.Now(), Status: "COMPLIANT"}, s.warning, nil
}

func (s *stubAPI) History(context.Context, int, int) ([]dto.CheckInItem, error) {
	return nil, s.err
}

func (s *stubAPI) Settings(context.Context) (*dto.SettingsData, error) {
	return &dto.SettingsData{CheckInHour: 9, MessagingMethod: "both"}, s.err
}

func (s *stubAPI) UpdateSettings(_ context.Context, req dto.UpdateSettingsRequest) (*dto.SettingsData, error) {
	s.update = &req
	return &dto.SettingsData{CheckInHour: 8}, s.err
}

func (s *stubAPI) Contacts(context.Context) ([]dto.ContactItem, error) {
	return s.contacts, s.err
}

func (s *stubAPI) AddContact(_ context.Context, req dto.CreateContactRequest) (*dto.ContactItem, error) {
	s.added = &req
	return &dto.ContactItem{ID: 7, Name: req.Name}, s.err
}

func (s *stubAPI) RemoveContact(_ context.Context, id int64) error {
	s.removed = id
	return s.err
}

func (s *stubAPI) Escalations(context.Context, int) ([]dto.EscalationRunItem, error) {
	return nil, s.err
}

// run 以 stub 执行一条命令并返回标准输出
func run(t *testing.T, api *stubAPI, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	prevOut, prevClient := out, newClient
	out = &buf
	newClient = func() (API, error) { return api, nil }
	t.Cleanup(func() {
		out = prevOut
		newClient = prevClient
	})

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestStatusCommand(t *testing.T) {
	api := &stubAPI{status: &dto.CheckInStatusData{
		Status:          "OVERDUE",
		LastCheckInText: "Yesterday at 9:00 AM",
		Enabled:         true,
		NextDeadline:    time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		GraceDeadline:   time.Date(2026, 3, 11, 13, 0, 0, 0, time.UTC),
	}}

	got, err := run(t, api, "status")
	require.NoError(t, err)
	assert.Contains(t, got, "OVERDUE")
	assert.Contains(t, got, "Yesterday at 9:00 AM")
	assert.Contains(t, got, "Grace ends")
}

func TestStatusCommand_Disabled(t *testing.T) {
	api := &stubAPI{status: &dto.CheckInStatusData{Status: "PENDING", LastCheckInText: "Never"}}

	got, err := run(t, api, "status")
	require.NoError(t, err)
	assert.Contains(t, got, "disabled")
	assert.NotContains(t, got, "Next deadline")
}

func TestCheckInCommand_Warning(t *testing.T) {
	got, err := run(t, &stubAPI{warning: "SETTINGS_RESCHEDULE_FAILED"}, "check-in")
	require.NoError(t, err)
	assert.Contains(t, got, "Checked in")
	assert.Contains(t, got, "SETTINGS_RESCHEDULE_FAILED")
}

func TestSettingsSet_OnlyChangedFlags(t *testing.T) {
	api := &stubAPI{}
	_, err := run(t, api, "settings", "set", "--hour", "8", "--method", "sms")
	require.NoError(t, err)
	require.NotNil(t, api.update)
	require.NotNil(t, api.update.CheckInHour)
	assert.Equal(t, 8, *api.update.CheckInHour)
	require.NotNil(t, api.update.MessagingMethod)
	assert.Equal(t, "sms", *api.update.MessagingMethod)
	assert.Nil(t, api.update.Enabled)
	assert.Nil(t, api.update.GracePeriodHours)
}

func TestContactsAdd(t *testing.T) {
	api := &stubAPI{}
	got, err := run(t, api, "contacts", "add", "Jane Doe", "--email", "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, api.added)
	assert.Equal(t, "Jane Doe", api.added.Name)
	assert.Equal(t, "jane@example.com", api.added.Email)
	assert.Contains(t, got, "id 7")
}

func TestContactsRm_InvalidID(t *testing.T) {
	api := &stubAPI{}
	_, err := run(t, api, "contacts", "rm", "abc")
	assert.Error(t, err)
	assert.Zero(t, api.removed)
}

func TestContactsList_Empty(t *testing.T) {
	got, err := run(t, &stubAPI{}, "contacts", "list")
	require.NoError(t, err)
	assert.Contains(t, got, "No emergency contacts")
}
