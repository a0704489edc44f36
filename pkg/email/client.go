package email

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"AreYouDead/config"
	"AreYouDead/pkg/logger"
)

// Message 一封告警邮件
type Message struct {
	To       string
	Subject  string
	HTML     string
	Text     string
	UserName string
}

// Client 邮件发送接口
type Client interface {
	Send(ctx context.Context, msg Message) error
	Provider() string
}

// Clients 邮件发送分层：专用 API 优先，其次转发服务（HTTP 转发或 SMTP）
type Clients struct {
	API   Client
	Relay Client
}

func NewClients(cfg *config.Config) Clients {
	var out Clients

	if cfg.SendGridAPIKey != "" {
		c, err := NewSendGridClient(SendGridConfig{
			APIKey:   cfg.SendGridAPIKey,
			BaseURL:  cfg.SendGridBaseURL,
			From:     cfg.EmailFromAddress,
			FromName: cfg.EmailFromName,
			Timeout:  cfg.ChannelSendTimeout,
		})
		if err != nil {
			logger.Logger.Warn("SendGrid unavailable", zap.Error(err))
		} else {
			out.API = c
		}
	}

	switch {
	case cfg.RelayBaseURL != "":
		c, err := NewRelayClient(cfg.RelayBaseURL, cfg.ChannelSendTimeout)
		if err != nil {
			logger.Logger.Warn("Email relay unavailable", zap.Error(err))
		} else {
			out.Relay = c
		}
	case strings.TrimSpace(cfg.SMTPHost) != "":
		out.Relay = NewSMTPClient(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFromAddress,
			FromName: cfg.EmailFromName,
			Timeout:  cfg.ChannelSendTimeout,
		})
	}

	logger.Logger.Info("Email clients initialized",
		zap.String("api", providerName(out.API)),
		zap.String("relay", providerName(out.Relay)),
	)
	return out
}

func providerName(c Client) string {
	if c == nil {
		return "none"
	}
	return c.Provider()
}
