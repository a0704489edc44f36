package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"AreYouDead/pkg/errors"
	"AreYouDead/pkg/httpclient"
	"AreYouDead/pkg/logger"
)

const whatsAppPrefix = "whatsapp:"

type TwilioConfig struct {
	AccountSID         string
	AuthToken          string
	From               string
	BaseURL            string
	DefaultCountryCode string
	WhatsApp           bool // 为 true 时 To/From 加 whatsapp: 前缀
	Timeout            time.Duration
}

// TwilioClient 通过 Twilio Messages API 发送短信或 WhatsApp
type TwilioClient struct {
	cfg  TwilioConfig
	http *httpclient.Client
}

// twilioError Twilio 错误响应
type twilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

func NewTwilioClient(cfg TwilioConfig) (*TwilioClient, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, fmt.Errorf("twilio credentials are not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	hc, err := httpclient.New(cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &TwilioClient{cfg: cfg, http: hc}, nil
}

func (c *TwilioClient) Provider() string {
	if c.cfg.WhatsApp {
		return "twilio_whatsapp"
	}
	return "twilio"
}

func (c *TwilioClient) address(number string) string {
	if c.cfg.WhatsApp {
		return whatsAppPrefix + strings.TrimPrefix(number, whatsAppPrefix)
	}
	return number
}

func (c *TwilioClient) Send(ctx context.Context, phone, text string) error {
	to := FormatE164(phone, c.cfg.DefaultCountryCode)
	if to == "" {
		return errors.NewNonRetryableError("EMPTY_NUMBER", "recipient number is empty", "recipient rejected")
	}

	form := url.Values{}
	form.Set("To", c.address(to))
	form.Set("From", c.address(c.cfg.From))
	form.Set("Body", text)

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/2010-04-01/Accounts/" + c.cfg.AccountSID + "/Messages.json"
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:      "POST",
		URL:         endpoint,
		Body:        []byte(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
		Headers:     map[string]string{"Authorization": httpclient.BasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)},
	})
	if err != nil {
		return fmt.Errorf("failed to call twilio: %w", err)
	}

	if resp.IsSuccess() {
		var msg twilioMessage
		_ = json.Unmarshal(resp.Body, &msg)
		logger.Logger.Debug("Twilio message accepted",
			zap.String("provider", c.Provider()),
			zap.String("sid", msg.SID),
			zap.String("status", msg.Status),
		)
		return nil
	}

	var apiErr twilioError
	_ = json.Unmarshal(resp.Body, &apiErr)
	logger.Logger.Error("Twilio API returned error",
		zap.String("provider", c.Provider()),
		zap.Int("status_code", resp.StatusCode),
		zap.Int("code", apiErr.Code),
		zap.String("message", apiErr.Message),
	)

	// 400 为号码/内容被拒，重试无意义；401/403/429/5xx 说明网关不可用
	if resp.StatusCode == 400 {
		return errors.NewNonRetryableError(strconv.Itoa(apiErr.Code), apiErr.Message, "recipient rejected")
	}
	return fmt.Errorf("twilio API error: status=%d code=%d message=%s", resp.StatusCode, apiErr.Code, apiErr.Message)
}
