package sms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"AreYouDead/config"
	"AreYouDead/pkg/logger"
)

// Client 电话类消息发送接口（短信、WhatsApp）
type Client interface {
	// Send 向单个号码发送一条文本，号码可为本地格式，由实现负责规范化
	Send(ctx context.Context, phone, text string) error
	// Provider 服务商名称，用于记录和指标
	Provider() string
}

// Clients 按配置构造的全部电话类客户端，未配置的为 nil
type Clients struct {
	Gateway  Client // 主短信网关
	Fallback Client // 备用短信线路
	WhatsApp Client
}

// NewClients 根据配置构造客户端。构造失败的服务商记录日志后视为未配置，
// 由上层按不可用处理并走备用线路。
func NewClients(cfg *config.Config) Clients {
	var out Clients

	gateway, err := newPhoneClient(cfg, cfg.SMSProvider, cfg.ChannelSendTimeout)
	if err != nil {
		logger.Logger.Warn("SMS gateway unavailable", zap.String("provider", cfg.SMSProvider), zap.Error(err))
	}
	out.Gateway = gateway

	if !strings.EqualFold(cfg.SMSFallbackProvider, cfg.SMSProvider) {
		fallback, err := newPhoneClient(cfg, cfg.SMSFallbackProvider, cfg.ChannelSendTimeout)
		if err != nil {
			logger.Logger.Warn("SMS fallback unavailable", zap.String("provider", cfg.SMSFallbackProvider), zap.Error(err))
		}
		out.Fallback = fallback
	}

	if cfg.TwilioWhatsAppFrom != "" {
		wa, err := NewTwilioClient(TwilioConfig{
			AccountSID:         cfg.TwilioAccountSID,
			AuthToken:          cfg.TwilioAuthToken,
			From:               cfg.TwilioWhatsAppFrom,
			BaseURL:            cfg.TwilioBaseURL,
			DefaultCountryCode: cfg.DefaultCountryCode,
			WhatsApp:           true,
			Timeout:            cfg.ChannelSendTimeout,
		})
		if err != nil {
			logger.Logger.Warn("WhatsApp gateway unavailable", zap.Error(err))
		}
		if wa != nil {
			out.WhatsApp = wa
		}
	}

	logger.Logger.Info("Phone clients initialized",
		zap.String("gateway", providerName(out.Gateway)),
		zap.String("fallback", providerName(out.Fallback)),
		zap.String("whatsapp", providerName(out.WhatsApp)),
	)
	return out
}

func newPhoneClient(cfg *config.Config, provider string, timeout time.Duration) (Client, error) {
	switch strings.ToLower(provider) {
	case "", "none":
		return nil, nil
	case "twilio":
		c, err := NewTwilioClient(TwilioConfig{
			AccountSID:         cfg.TwilioAccountSID,
			AuthToken:          cfg.TwilioAuthToken,
			From:               cfg.TwilioPhoneNumber,
			BaseURL:            cfg.TwilioBaseURL,
			DefaultCountryCode: cfg.DefaultCountryCode,
			Timeout:            timeout,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "aliyun":
		c, err := NewAliyunClient(cfg.SMSSignName, cfg.SMSTemplateCode, cfg.DefaultCountryCode)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported SMS provider: %s", provider)
	}
}

func providerName(c Client) string {
	if c == nil {
		return "none"
	}
	return c.Provider()
}
