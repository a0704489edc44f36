package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/mail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// SMTPClient 未配置 HTTP 转发时的转发层实现
type SMTPClient struct {
	cfg  SMTPConfig
	send func(m *mail.Message) error
}

func NewSMTPClient(cfg SMTPConfig) *SMTPClient {
	dialer := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		dialer.Timeout = cfg.Timeout
	}
	dialer.RetryFailure = false
	return &SMTPClient{cfg: cfg, send: func(m *mail.Message) error { return dialer.DialAndSend(m) }}
}

func (c *SMTPClient) Provider() string {
	return "smtp"
}

func (c *SMTPClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetAddressHeader("From", c.cfg.From, c.cfg.FromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := c.send(m); err != nil {
		return fmt.Errorf("failed to send smtp mail: %w", err)
	}
	return nil
}
