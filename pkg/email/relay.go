package email

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"AreYouDead/pkg/httpclient"
)

// RelayClient 自建后端转发：POST {base}/api/send-alert-email
type RelayClient struct {
	baseURL string
	http    *httpclient.Client
}

type relayRequest struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	UserName string `json:"userName"`
}

type relayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func NewRelayClient(baseURL string, timeout time.Duration) (*RelayClient, error) {
	hc, err := httpclient.New(timeout)
	if err != nil {
		return nil, err
	}
	return &RelayClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}, nil
}

func (c *RelayClient) Provider() string {
	return "relay"
}

// Send 需要 2xx 且 success=true
func (c *RelayClient) Send(ctx context.Context, msg Message) error {
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:      "POST",
		URL:         c.baseURL + "/api/send-alert-email",
		Body:        mustJSON(relayRequest{To: msg.To, Subject: msg.Subject, Body: msg.Text, UserName: msg.UserName}),
		ContentType: "application/json",
		Headers:     map[string]string{"Idempotency-Key": uuid.NewString()},
	})
	if err != nil {
		return fmt.Errorf("failed to call email relay: %w", err)
	}

	var parsed relayResponse
	_ = jsonUnmarshal(resp.Body, &parsed)
	if !resp.IsSuccess() {
		return fmt.Errorf("email relay error: status=%d message=%s", resp.StatusCode, parsed.Message)
	}
	if !parsed.Success {
		return fmt.Errorf("email relay reported failure: %s", parsed.Message)
	}
	return nil
}

func mustJSON(v interface{}) []byte {
	b, _ := json.Marshal(v)
	return b
}

func jsonUnmarshal(raw []byte, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty body")
	}
	return json.Unmarshal(raw, v)
}
