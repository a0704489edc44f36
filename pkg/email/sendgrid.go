package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"AreYouDead/pkg/errors"
	"AreYouDead/pkg/httpclient"
	"AreYouDead/pkg/logger"
)

type SendGridConfig struct {
	APIKey   string
	BaseURL  string
	From     string
	FromName string
	Timeout  time.Duration
}

// SendGridClient 通过 SendGrid v3 mail/send 发送
type SendGridClient struct {
	cfg  SendGridConfig
	http *httpclient.Client
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

type sgErrorResponse struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

func NewSendGridClient(cfg SendGridConfig) (*SendGridClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sendgrid api key is not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	hc, err := httpclient.New(cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &SendGridClient{cfg: cfg, http: hc}, nil
}

func (c *SendGridClient) Provider() string {
	return "sendgrid"
}

// Send SendGrid 以 202 表示已受理
func (c *SendGridClient) Send(ctx context.Context, msg Message) error {
	// text/plain 必须在 text/html 之前
	content := make([]sgContent, 0, 2)
	if msg.Text != "" {
		content = append(content, sgContent{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		content = append(content, sgContent{Type: "text/html", Value: msg.HTML})
	}

	body := sgRequest{
		Personalizations: []sgPersonalization{{To: []sgAddress{{Email: msg.To}}}},
		From:             sgAddress{Email: c.cfg.From, Name: c.cfg.FromName},
		Subject:          msg.Subject,
		Content:          content,
	}

	resp, err := c.http.DoJSON(ctx, "POST", strings.TrimRight(c.cfg.BaseURL, "/")+"/v3/mail/send",
		map[string]string{"Authorization": httpclient.Bearer(c.cfg.APIKey)}, body, nil)
	if err != nil {
		return fmt.Errorf("failed to call sendgrid: %w", err)
	}
	if resp.StatusCode == 202 {
		return nil
	}

	detail := parseSendGridError(resp.Body)
	logger.Logger.Error("SendGrid API returned error",
		zap.Int("status_code", resp.StatusCode),
		zap.String("detail", detail),
	)
	if resp.StatusCode == 400 {
		return errors.NewNonRetryableError("400", detail, "email rejected")
	}
	return fmt.Errorf("sendgrid API error: status=%d %s", resp.StatusCode, detail)
}

func parseSendGridError(raw []byte) string {
	var parsed sgErrorResponse
	if err := jsonUnmarshal(raw, &parsed); err != nil || len(parsed.Errors) == 0 {
		return strings.TrimSpace(string(raw))
	}
	msgs := make([]string, 0, len(parsed.Errors))
	for _, e := range parsed.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
