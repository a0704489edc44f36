// Package client 调用服务端 /v1 接口，供 ayok 命令行使用
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"AreYouDead/internal/model/dto"
	"AreYouDead/pkg/httpclient"
)

// APIError 服务端返回的业务错误
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.StatusCode)
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type Client struct {
	http    *httpclient.Client
	baseURL string
	token   string
}

func New(baseURL, token string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("api base url is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	hc, err := httpclient.New(timeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}, nil
}

// call 发送请求并解出 data；返回 meta 供调用方读取警告
func (c *Client) call(ctx context.Context, method, path string, in, out interface{}) (map[string]interface{}, error) {
	headers := map[string]string{}
	if c.token != "" {
		headers["Authorization"] = httpclient.Bearer(c.token)
	}

	var env envelope
	resp, err := c.http.DoJSON(ctx, method, c.baseURL+path, headers, in, &env)
	if err != nil {
		if resp != nil && !resp.IsSuccess() {
			return nil, &APIError{StatusCode: resp.StatusCode}
		}
		return nil, err
	}
	if !resp.IsSuccess() {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return nil, apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return env.Meta, fmt.Errorf("failed to decode %s response: %w", path, err)
		}
	}
	return env.Meta, nil
}

func (c *Client) Status(ctx context.Context) (*dto.CheckInStatusData, error) {
	var out dto.CheckInStatusData
	if _, err := c.call(ctx, consts.MethodGet, "/v1/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckIn 打卡；打卡已记录但服务端重新调度失败时 warning 非空
func (c *Client) CheckIn(ctx context.Context, source string) (*dto.CompleteCheckInResponse, string, error) {
	var out dto.CompleteCheckInResponse
	meta, err := c.call(ctx, consts.MethodPost, "/v1/check-ins", dto.CompleteCheckInRequest{Source: source}, &out)
	if err != nil {
		return nil, "", err
	}
	warning, _ := meta["warning"].(string)
	return &out, warning, nil
}

func (c *Client) History(ctx context.Context, days, limit int) ([]dto.CheckInItem, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/check-ins"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []dto.CheckInItem
	if _, err := c.call(ctx, consts.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Settings(ctx context.Context) (*dto.SettingsData, error) {
	var out dto.SettingsData
	if _, err := c.call(ctx, consts.MethodGet, "/v1/settings", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSettings(ctx context.Context, req dto.UpdateSettingsRequest) (*dto.SettingsData, error) {
	var out dto.SettingsData
	if _, err := c.call(ctx, consts.MethodPut, "/v1/settings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Contacts(ctx context.Context) ([]dto.ContactItem, error) {
	var out []dto.ContactItem
	if _, err := c.call(ctx, consts.MethodGet, "/v1/contacts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddContact(ctx context.Context, req dto.CreateContactRequest) (*dto.ContactItem, error) {
	var out dto.ContactItem
	if _, err := c.call(ctx, consts.MethodPost, "/v1/contacts", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveContact(ctx context.Context, id int64) error {
	_, err := c.call(ctx, consts.MethodDelete, "/v1/contacts/"+strconv.FormatInt(id, 10), nil, nil)
	return err
}

func (c *Client) Escalations(ctx context.Context, limit int) ([]dto.EscalationRunItem, error) {
	path := "/v1/escalations"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []dto.EscalationRunItem
	if _, err := c.call(ctx, consts.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
