package channel

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AreYouDead/internal/model"
	"AreYouDead/pkg/email"
)

type fakePhone struct {
	name string
	err  error

	mu    sync.Mutex
	calls []string
}

func (f *fakePhone) Provider() string { return f.name }

func (f *fakePhone) Send(_ context.Context, phone, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, phone)
	return f.err
}

func (f *fakePhone) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeMail struct {
	name string
	err  error

	mu   sync.Mutex
	sent []email.Message
}

func (f *fakeMail) Provider() string { return f.name }

func (f *fakeMail) Send(_ context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeMail) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var (
	errDown = stderrors.New("connection refused")
	msg     = Message{Text: "SAFETY ALERT", Subject: "Safety Alert", HTML: "<p>x</p>", Body: "x", UserName: "Sam"}
	contact = model.Contact{Name: "Mom", Phone: "5551234567", Email: "mom@example.com"}
)

func newDispatcher(s Senders) *Dispatcher {
	return NewDispatcher(s, Options{SendTimeout: time.Second, BreakerFailures: 3, BreakerReset: time.Minute}, nil)
}

func TestSMSPrefersGateway(t *testing.T) {
	gw := &fakePhone{name: "twilio"}
	fb := &fakePhone{name: "aliyun"}
	d := newDispatcher(Senders{SMSGateway: gw, SMSFallback: fb})

	leg := d.SendSMS(context.Background(), contact.Phone, msg.Text)

	assert.True(t, leg.Success)
	assert.Equal(t, "twilio", leg.Provider)
	assert.Equal(t, 1, gw.count())
	assert.Equal(t, 0, fb.count())
}

func TestSMSFallsBackOnceWhenGatewayFails(t *testing.T) {
	gw := &fakePhone{name: "twilio", err: errDown}
	fb := &fakePhone{name: "aliyun"}
	d := newDispatcher(Senders{SMSGateway: gw, SMSFallback: fb})

	leg := d.SendSMS(context.Background(), contact.Phone, msg.Text)

	assert.True(t, leg.Success)
	assert.Equal(t, "aliyun", leg.Provider)
	assert.Equal(t, 1, gw.count())
	assert.Equal(t, 1, fb.count())
}

func TestSMSFallsBackWhenGatewayUnconfigured(t *testing.T) {
	fb := &fakePhone{name: "aliyun"}
	d := newDispatcher(Senders{SMSFallback: fb})

	leg := d.SendSMS(context.Background(), contact.Phone, msg.Text)
	assert.True(t, leg.Success)
	assert.Equal(t, 1, fb.count())
}

func TestSMSBothTiersFail(t *testing.T) {
	gw := &fakePhone{name: "twilio", err: errDown}
	fb := &fakePhone{name: "aliyun", err: stderrors.New("quota exceeded")}
	d := newDispatcher(Senders{SMSGateway: gw, SMSFallback: fb})

	leg := d.SendSMS(context.Background(), contact.Phone, msg.Text)

	assert.False(t, leg.Success)
	assert.Contains(t, leg.Error, "connection refused")
	assert.Contains(t, leg.Error, "quota exceeded")
	assert.Equal(t, 1, gw.count())
	assert.Equal(t, 1, fb.count())
}

func TestOpenBreakerSkipsGateway(t *testing.T) {
	gw := &fakePhone{name: "twilio", err: errDown}
	fb := &fakePhone{name: "aliyun"}
	d := NewDispatcher(Senders{SMSGateway: gw, SMSFallback: fb}, Options{BreakerFailures: 1, BreakerReset: time.Hour}, nil)

	d.SendSMS(context.Background(), contact.Phone, msg.Text)
	leg := d.SendSMS(context.Background(), contact.Phone, msg.Text)

	assert.True(t, leg.Success)
	assert.Equal(t, 1, gw.count(), "second call must not reach the open gateway")
	assert.Equal(t, 2, fb.count())
}

func TestWhatsAppRequiresGateway(t *testing.T) {
	d := newDispatcher(Senders{})

	leg := d.SendWhatsApp(context.Background(), contact.Phone, msg.Text)
	assert.False(t, leg.Success)
	assert.Equal(t, "Channel unavailable", leg.Error)
}

func TestEmailTiers(t *testing.T) {
	t.Run("api preferred", func(t *testing.T) {
		api := &fakeMail{name: "sendgrid"}
		relay := &fakeMail{name: "relay"}
		leg := newDispatcher(Senders{EmailAPI: api, EmailRelay: relay}).SendEmail(context.Background(), contact.Email, msg)

		assert.True(t, leg.Success)
		assert.Equal(t, "sendgrid", leg.Provider)
		assert.Equal(t, 0, relay.count())
		require.Equal(t, 1, api.count())
		assert.Equal(t, "mom@example.com", api.sent[0].To)
		assert.Equal(t, "x", api.sent[0].Text)
	})

	t.Run("api failure does not use relay", func(t *testing.T) {
		api := &fakeMail{name: "sendgrid", err: errDown}
		relay := &fakeMail{name: "relay"}
		leg := newDispatcher(Senders{EmailAPI: api, EmailRelay: relay}).SendEmail(context.Background(), contact.Email, msg)

		assert.False(t, leg.Success)
		assert.Equal(t, 0, relay.count())
	})

	t.Run("relay when api unconfigured", func(t *testing.T) {
		relay := &fakeMail{name: "relay"}
		leg := newDispatcher(Senders{EmailRelay: relay}).SendEmail(context.Background(), contact.Email, msg)

		assert.True(t, leg.Success)
		assert.Equal(t, "relay", leg.Provider)
	})

	t.Run("no tier configured", func(t *testing.T) {
		leg := newDispatcher(Senders{}).SendEmail(context.Background(), contact.Email, msg)
		assert.False(t, leg.Success)
		assert.Equal(t, "Channel unavailable", leg.Error)
	})
}

func TestMessagingOutcomeSucceedsWhenAnyLegSucceeds(t *testing.T) {
	gw := &fakePhone{name: "twilio", err: errDown}
	wa := &fakePhone{name: "twilio_whatsapp"}
	d := newDispatcher(Senders{SMSGateway: gw, WhatsApp: wa})

	out := d.Send(context.Background(), model.ChannelMessaging, contact, msg)

	assert.True(t, out.Success)
	assert.Equal(t, model.ChannelMessaging, out.Channel)
	assert.Equal(t, "twilio_whatsapp", out.Provider)
	require.Len(t, out.Legs, 2)
	assert.False(t, out.Legs[0].Success)
	assert.True(t, out.Legs[1].Success)
	assert.Empty(t, out.Error)
}

func TestMessagingOutcomeFailsWhenAllLegsFail(t *testing.T) {
	d := newDispatcher(Senders{SMSGateway: &fakePhone{name: "twilio", err: errDown}})

	out := d.Send(context.Background(), model.ChannelMessaging, contact, msg)

	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "sms: ")
	assert.Contains(t, out.Error, "whatsapp: ")
}
