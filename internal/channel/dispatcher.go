// Package channel 告警通道选择：短信主备线路、WhatsApp、邮件分层
package channel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"AreYouDead/internal/model"
	"AreYouDead/pkg/breaker"
	"AreYouDead/pkg/email"
	"AreYouDead/pkg/errors"
	"AreYouDead/pkg/metrics"
	"AreYouDead/pkg/sms"
)

// Message 一次告警对所有通道使用的同一份内容
type Message struct {
	Text     string // 短信、WhatsApp 正文
	Subject  string
	HTML     string
	Body     string // 邮件纯文本正文
	UserName string
}

// Senders 各通道的发送端，nil 表示未配置
type Senders struct {
	SMSGateway  sms.Client
	SMSFallback sms.Client
	WhatsApp    sms.Client
	EmailAPI    email.Client
	EmailRelay  email.Client
}

type Options struct {
	SendTimeout     time.Duration
	BreakerFailures int
	BreakerReset    time.Duration
}

// Dispatcher 实现通道选择策略，每个 (联系人, 通道) 只尝试一次，不重试
type Dispatcher struct {
	senders  Senders
	breakers map[string]*breaker.CircuitBreaker
	timeout  time.Duration
	log      *zap.Logger
}

func NewDispatcher(senders Senders, opts Options, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		senders:  senders,
		breakers: make(map[string]*breaker.CircuitBreaker),
		timeout:  opts.SendTimeout,
		log:      log,
	}

	// 每个发送端一个熔断器，按服务商名称区分
	for _, name := range []string{
		providerOf(senders.SMSGateway), providerOf(senders.SMSFallback), providerOf(senders.WhatsApp),
		emailProviderOf(senders.EmailAPI), emailProviderOf(senders.EmailRelay),
	} {
		if name == "" {
			continue
		}
		if _, ok := d.breakers[name]; !ok {
			d.breakers[name] = breaker.New(name, opts.BreakerFailures, opts.BreakerReset)
		}
	}
	return d
}

// Send 对一个联系人执行一次通道尝试
func (d *Dispatcher) Send(ctx context.Context, ch model.Channel, contact model.Contact, msg Message) model.ChannelOutcome {
	outcome := model.ChannelOutcome{Contact: contact, Channel: ch}

	var legs []model.Leg
	switch ch {
	case model.ChannelSMS:
		legs = []model.Leg{d.SendSMS(ctx, contact.Phone, msg.Text)}
	case model.ChannelWhatsApp:
		legs = []model.Leg{d.SendWhatsApp(ctx, contact.Phone, msg.Text)}
	case model.ChannelMessaging:
		legs = []model.Leg{
			d.SendSMS(ctx, contact.Phone, msg.Text),
			d.SendWhatsApp(ctx, contact.Phone, msg.Text),
		}
	case model.ChannelEmail:
		legs = []model.Leg{d.SendEmail(ctx, contact.Email, msg)}
	default:
		legs = []model.Leg{{Channel: ch, Error: fmt.Sprintf("unknown channel %q", ch)}}
	}

	var errs []string
	for _, leg := range legs {
		if leg.Success {
			outcome.Success = true
			if outcome.Provider == "" {
				outcome.Provider = leg.Provider
			}
			continue
		}
		if leg.Error != "" {
			errs = append(errs, string(leg.Channel)+": "+leg.Error)
		}
	}
	if len(legs) == 1 {
		outcome.Provider = legs[0].Provider
	}
	if !outcome.Success {
		outcome.Error = strings.Join(errs, "; ")
	}
	if ch == model.ChannelMessaging {
		outcome.Legs = legs
	}
	return outcome
}

// SendSMS 主网关优先；网关未配置、熔断或失败时尝试备用线路一次
func (d *Dispatcher) SendSMS(ctx context.Context, phone, text string) model.Leg {
	leg := model.Leg{Channel: model.ChannelSMS}

	primaryErr := d.sendPhone(ctx, model.ChannelSMS, d.senders.SMSGateway, phone, text)
	if primaryErr == nil {
		leg.Success = true
		leg.Provider = d.senders.SMSGateway.Provider()
		return leg
	}

	if d.senders.SMSFallback == nil {
		leg.Provider = providerOf(d.senders.SMSGateway)
		leg.Error = primaryErr.Error()
		return leg
	}

	d.log.Warn("SMS gateway failed, trying fallback sender",
		zap.String("gateway", providerOf(d.senders.SMSGateway)),
		zap.String("fallback", d.senders.SMSFallback.Provider()),
		zap.Error(primaryErr),
	)

	leg.Provider = d.senders.SMSFallback.Provider()
	if err := d.sendPhone(ctx, model.ChannelSMS, d.senders.SMSFallback, phone, text); err != nil {
		leg.Error = fmt.Sprintf("gateway: %v; fallback: %v", primaryErr, err)
		return leg
	}
	leg.Success = true
	return leg
}

// SendWhatsApp 仅在配置了 WhatsApp 网关时发送，没有备用线路
func (d *Dispatcher) SendWhatsApp(ctx context.Context, phone, text string) model.Leg {
	leg := model.Leg{Channel: model.ChannelWhatsApp, Provider: providerOf(d.senders.WhatsApp)}
	if err := d.sendPhone(ctx, model.ChannelWhatsApp, d.senders.WhatsApp, phone, text); err != nil {
		leg.Error = err.Error()
		return leg
	}
	leg.Success = true
	return leg
}

// SendEmail 专用 API 已配置且可用时只用 API；API 未配置或熔断时改用转发层
func (d *Dispatcher) SendEmail(ctx context.Context, to string, msg Message) model.Leg {
	leg := model.Leg{Channel: model.ChannelEmail}
	mail := email.Message{To: strings.TrimSpace(to), Subject: msg.Subject, HTML: msg.HTML, Text: msg.Body, UserName: msg.UserName}

	err := d.sendEmail(ctx, d.senders.EmailAPI, mail)
	leg.Provider = emailProviderOf(d.senders.EmailAPI)
	if err != nil && isUnavailable(err) && d.senders.EmailRelay != nil {
		if d.senders.EmailAPI != nil {
			d.log.Warn("Email API unavailable, using relay", zap.Error(err))
		}
		leg.Provider = d.senders.EmailRelay.Provider()
		err = d.sendEmail(ctx, d.senders.EmailRelay, mail)
	}

	if err != nil {
		leg.Error = err.Error()
		return leg
	}
	leg.Success = true
	return leg
}

func (d *Dispatcher) sendPhone(ctx context.Context, ch model.Channel, sender sms.Client, phone, text string) error {
	if sender == nil {
		return errors.ChannelUnavailable
	}
	if strings.TrimSpace(phone) == "" {
		return errors.Wrap(errors.ChannelUnavailable, fmt.Errorf("contact has no phone"))
	}
	return d.guard(ctx, ch, sender.Provider(), func(ctx context.Context) error {
		return sender.Send(ctx, phone, text)
	})
}

func (d *Dispatcher) sendEmail(ctx context.Context, sender email.Client, msg email.Message) error {
	if sender == nil {
		return errors.ChannelUnavailable
	}
	if msg.To == "" {
		return errors.Wrap(errors.ChannelUnavailable, fmt.Errorf("contact has no email"))
	}
	return d.guard(ctx, model.ChannelEmail, sender.Provider(), func(ctx context.Context) error {
		return sender.Send(ctx, msg)
	})
}

// guard 加超时、熔断、指标
func (d *Dispatcher) guard(ctx context.Context, ch model.Channel, provider string, op func(ctx context.Context) error) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	var err error
	if cb, ok := d.breakers[provider]; ok {
		err = cb.Call(ctx, op)
	} else {
		err = op(ctx)
	}
	metrics.RecordChannelSend(ctx, string(ch), provider, err == nil, time.Since(start))

	if err != nil {
		d.log.Warn("Channel send failed",
			zap.String("channel", string(ch)),
			zap.String("provider", provider),
			zap.Error(err),
		)
	}
	return err
}

// isUnavailable 未配置或熔断
func isUnavailable(err error) bool {
	if def, ok := errors.As(err); ok {
		return def.Code == errors.ChannelUnavailable.Code || def.Code == errors.BreakerOpen.Code
	}
	return false
}

func providerOf(c sms.Client) string {
	if c == nil {
		return ""
	}
	return c.Provider()
}

func emailProviderOf(c email.Client) string {
	if c == nil {
		return ""
	}
	return c.Provider()
}
