package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AreYouDead/internal/channel"
	"AreYouDead/internal/model"
)

func contact(id int64, name, phone, email string) model.Contact {
	c := model.Contact{Name: name, Phone: phone, Email: email}
	c.ID = id
	return c
}

func bothConfig() model.ScheduleConfig {
	cfg := model.DefaultScheduleConfig()
	cfg.UserName = "Sam"
	return cfg
}

func TestRunEscalationFanOutBothIsTwoAttemptsPerContact(t *testing.T) {
	sender := &fakeSender{}
	display := &fakeDisplay{}
	orch := NewOrchestrator(sender, display, time.UTC, nil)

	contacts := []model.Contact{
		contact(1, "Alice", "+15551230001", "alice@example.com"),
		contact(2, "Bob", "+15551230002", "bob@example.com"),
		contact(3, "Carol", "+15551230003", "carol@example.com"),
	}

	result := orch.RunEscalation(context.Background(), contacts, bothConfig(), nil)

	assert.Equal(t, 3, result.ContactCount)
	assert.Equal(t, 6, result.Attempted)
	assert.Equal(t, 6, result.Succeeded)
	require.Len(t, result.Outcomes, 6)

	perChannel := map[model.Channel]int{}
	for _, o := range result.Outcomes {
		perChannel[o.Channel]++
	}
	assert.Equal(t, 3, perChannel[model.ChannelMessaging])
	assert.Equal(t, 3, perChannel[model.ChannelEmail])
	assert.Equal(t, []int{3}, display.alertSent)
}

func TestRunEscalationFanOutCountIgnoresFailures(t *testing.T) {
	sender := &fakeSender{fail: map[string]bool{"*": true}}
	orch := NewOrchestrator(sender, &fakeDisplay{}, time.UTC, nil)

	contacts := []model.Contact{
		contact(1, "Alice", "+15551230001", "alice@example.com"),
		contact(2, "Bob", "+15551230002", "bob@example.com"),
	}
	result := orch.RunEscalation(context.Background(), contacts, bothConfig(), nil)

	assert.Equal(t, 4, result.Attempted)
	assert.Equal(t, 0, result.Succeeded)
}

func TestRunEscalationPartialFailureIsIsolated(t *testing.T) {
	sender := &fakeSender{fail: map[string]bool{"Alice/sms": true}}
	orch := NewOrchestrator(sender, &fakeDisplay{}, time.UTC, nil)

	cfg := bothConfig()
	cfg.MessagingMethod = model.MessagingSMS
	contacts := []model.Contact{
		contact(1, "Alice", "+15551230001", ""),
		contact(2, "Bob", "", "bob@example.com"),
	}

	result := orch.RunEscalation(context.Background(), contacts, cfg, nil)

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, "Alice", result.Outcomes[0].Contact.Name)
	assert.False(t, result.Outcomes[0].Success)
	assert.Equal(t, "Bob", result.Outcomes[1].Contact.Name)
	assert.Equal(t, model.ChannelEmail, result.Outcomes[1].Channel)
	assert.True(t, result.Outcomes[1].Success)
	assert.Equal(t, 1, result.Succeeded)
}

func TestRunEscalationNoContacts(t *testing.T) {
	sender := &fakeSender{}
	display := &fakeDisplay{}
	orch := NewOrchestrator(sender, display, time.UTC, nil)

	result := orch.RunEscalation(context.Background(), nil, bothConfig(), nil)

	assert.Equal(t, 0, result.Attempted)
	assert.Equal(t, 0, result.Succeeded)
	assert.Empty(t, result.Outcomes)
	assert.Empty(t, sender.calls)
	assert.Empty(t, display.alertSent, "no contacts means nothing was sent")
}

func TestRunEscalationAllFailedStillShowsAlertSent(t *testing.T) {
	display := &fakeDisplay{}
	orch := NewOrchestrator(&fakeSender{fail: map[string]bool{"*": true}}, display, time.UTC, nil)

	orch.RunEscalation(context.Background(), []model.Contact{contact(1, "Alice", "", "alice@example.com")}, bothConfig(), nil)

	assert.Equal(t, []int{1}, display.alertSent)
}

func TestRunEscalationPhoneChannelFollowsMethod(t *testing.T) {
	tests := []struct {
		method model.MessagingMethod
		want   model.Channel
	}{
		{model.MessagingSMS, model.ChannelSMS},
		{model.MessagingWhatsApp, model.ChannelWhatsApp},
		{model.MessagingBoth, model.ChannelMessaging},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			sender := &fakeSender{}
			orch := NewOrchestrator(sender, nil, time.UTC, nil)
			cfg := bothConfig()
			cfg.MessagingMethod = tt.method

			orch.RunEscalation(context.Background(), []model.Contact{contact(1, "Alice", "+15551230001", "")}, cfg, nil)

			require.Len(t, sender.calls, 1)
			assert.Equal(t, tt.want, sender.calls[0].channel)
		})
	}
}

func TestRunEscalationUsesOneMessagePerRun(t *testing.T) {
	sender := &fakeSender{}
	orch := NewOrchestrator(sender, nil, time.UTC, nil)
	last := time.Date(2026, 3, 9, 8, 15, 0, 0, time.UTC)

	orch.RunEscalation(context.Background(), []model.Contact{
		contact(1, "Alice", "+15551230001", "alice@example.com"),
		contact(2, "Bob", "+15551230002", ""),
	}, bothConfig(), &last)

	require.Len(t, sender.calls, 3)
	for _, c := range sender.calls {
		assert.Equal(t, sender.calls[0].msg, c.msg)
	}
	assert.Contains(t, sender.calls[0].msg.Text, "Mar 09, 2026 at 8:15 AM")
}

type panickingSender struct {
	fakeSender
	panicOn string
}

func (p *panickingSender) Send(ctx context.Context, ch model.Channel, contact model.Contact, msg channel.Message) model.ChannelOutcome {
	if contact.Name+"/"+string(ch) == p.panicOn {
		panic("provider exploded")
	}
	return p.fakeSender.Send(ctx, ch, contact, msg)
}

func TestRunEscalationRecoversPanickingChannel(t *testing.T) {
	sender := &panickingSender{panicOn: "Alice/sms"}
	display := &fakeDisplay{}
	orch := NewOrchestrator(sender, display, time.UTC, nil)
	cfg := bothConfig()
	cfg.MessagingMethod = model.MessagingSMS

	result := orch.RunEscalation(context.Background(), []model.Contact{
		contact(1, "Alice", "+15551230001", ""),
		contact(2, "Bob", "", "bob@example.com"),
	}, cfg, nil)

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 1, result.Succeeded)

	alice := result.Outcomes[0]
	assert.Equal(t, "Alice", alice.Contact.Name)
	assert.Equal(t, model.ChannelSMS, alice.Channel)
	assert.False(t, alice.Success)
	assert.Equal(t, "provider exploded", alice.Error)

	bob := result.Outcomes[1]
	assert.Equal(t, "Bob", bob.Contact.Name)
	assert.Equal(t, model.ChannelEmail, bob.Channel)
	assert.True(t, bob.Success)
	assert.Equal(t, []int{2}, display.alertSent)
}

// 09:00 打卡、4 小时宽限，14:00 时前一天的打卡已超时
var escalationNow = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func overdueCheckIns() *fakeCheckIns {
	return &fakeCheckIns{records: []model.CheckInRecord{{ID: 5, Timestamp: time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)}}}
}

func newEscalationService(checkIns *fakeCheckIns, contacts *fakeContacts, settings *fakeSettings, runs *fakeRuns, sender Sender) *EscalationService {
	orch := NewOrchestrator(sender, &fakeDisplay{}, time.UTC, nil)
	orch.now = func() time.Time { return escalationNow }
	return NewEscalationService(checkIns, contacts, settings, runs, orch, bothConfig(), nil)
}

func TestDispatchEscalationPersistsRunWithLegs(t *testing.T) {
	last := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	checkIns := overdueCheckIns()
	contacts := &fakeContacts{contacts: []model.Contact{contact(1, "Alice", "+15551230001", "alice@example.com")}}
	runs := &fakeRuns{}
	svc := newEscalationService(checkIns, contacts, &fakeSettings{}, runs, &fakeSender{fail: map[string]bool{"Alice/email": true}})

	err := svc.DispatchEscalation(context.Background(), model.EscalationMessage{PeriodKey: "escalation:period:5"})
	require.NoError(t, err)

	require.Len(t, runs.runs, 1)
	run := runs.runs[0]
	assert.Equal(t, "escalation:period:5", run.PeriodKey)
	assert.Equal(t, model.EscalationRunCompleted, run.Status)
	assert.Equal(t, 2, run.Attempted)
	assert.Equal(t, 1, run.Succeeded)
	require.NotNil(t, run.LastCheckInAt)
	assert.True(t, run.LastCheckInAt.Equal(last))
	assert.NotZero(t, run.RunCode)
	// messaging 尝试展开为两条腿，加上 email 共三条
	assert.Len(t, run.Attempts, 3)
}

func TestDispatchEscalationWithoutContactsRecordsNoContacts(t *testing.T) {
	runs := &fakeRuns{}
	svc := newEscalationService(overdueCheckIns(), &fakeContacts{}, &fakeSettings{}, runs, &fakeSender{})

	require.NoError(t, svc.DispatchEscalation(context.Background(), model.EscalationMessage{PeriodKey: "escalation:period:5"}))
	require.Len(t, runs.runs, 1)
	assert.Equal(t, model.EscalationRunNoContacts, runs.runs[0].Status)
	assert.Zero(t, runs.runs[0].Attempted)
}

func TestDispatchEscalationReportsNotStarted(t *testing.T) {
	sender := &fakeSender{}
	svc := newEscalationService(overdueCheckIns(), &fakeContacts{err: assert.AnError}, &fakeSettings{}, &fakeRuns{}, sender)

	err := svc.DispatchEscalation(context.Background(), model.EscalationMessage{})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, sender.calls)
}

func TestDispatchEscalationPersistFailureDoesNotFail(t *testing.T) {
	contacts := &fakeContacts{contacts: []model.Contact{contact(1, "Alice", "", "alice@example.com")}}
	sender := &fakeSender{}
	svc := newEscalationService(overdueCheckIns(), contacts, &fakeSettings{}, &fakeRuns{err: assert.AnError}, sender)

	assert.NoError(t, svc.DispatchEscalation(context.Background(), model.EscalationMessage{}))
	assert.Len(t, sender.calls, 1)
}

func TestDispatchEscalationSkipsWhenDisabled(t *testing.T) {
	cfg := bothConfig()
	cfg.Enabled = false
	contacts := &fakeContacts{contacts: []model.Contact{contact(1, "Alice", "", "alice@example.com")}}
	sender := &fakeSender{}
	runs := &fakeRuns{}
	svc := newEscalationService(overdueCheckIns(), contacts, &fakeSettings{cfg: &cfg}, runs, sender)

	assert.NoError(t, svc.DispatchEscalation(context.Background(), model.EscalationMessage{}))
	assert.Empty(t, sender.calls)
	assert.Empty(t, runs.runs)
}

func TestDispatchEscalationSkipsWhenNoLongerOverdue(t *testing.T) {
	tests := []struct {
		name     string
		checkIns *fakeCheckIns
	}{
		// 任务发出后用户刚刚打卡
		{"checked in after publish", &fakeCheckIns{records: []model.CheckInRecord{
			{ID: 5, Timestamp: time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)},
			{ID: 6, Timestamp: escalationNow.Add(-time.Minute)},
		}}},
		{"never checked in", &fakeCheckIns{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contacts := &fakeContacts{contacts: []model.Contact{contact(1, "Alice", "", "alice@example.com")}}
			sender := &fakeSender{}
			runs := &fakeRuns{}
			svc := newEscalationService(tt.checkIns, contacts, &fakeSettings{}, runs, sender)

			assert.NoError(t, svc.DispatchEscalation(context.Background(), model.EscalationMessage{PeriodKey: "escalation:period:5"}))
			assert.Empty(t, sender.calls)
			assert.Empty(t, runs.runs)
		})
	}
}

func TestDispatchEscalationEvaluatesInOrchestratorLocation(t *testing.T) {
	contacts := &fakeContacts{contacts: []model.Contact{contact(1, "Alice", "", "alice@example.com")}}
	sender := &fakeSender{}
	runs := &fakeRuns{}
	svc := newEscalationService(&fakeCheckIns{}, contacts, &fakeSettings{}, runs, sender)
	svc.orch.loc = time.FixedZone("UTC+8", 8*3600)
	// 06:00 UTC 即当地 14:00，已过当地宽限截止
	now := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	svc.orch.now = func() time.Time { return now }
	svc.checkIns = &fakeCheckIns{records: []model.CheckInRecord{{ID: 8, Timestamp: now.Add(-30 * time.Hour)}}}

	require.NoError(t, svc.DispatchEscalation(context.Background(), model.EscalationMessage{PeriodKey: "escalation:period:8"}))
	assert.Len(t, sender.calls, 1)
	assert.Len(t, runs.runs, 1)
}
