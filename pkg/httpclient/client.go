// Package httpclient 出站 HTTP 调用（Twilio、SendGrid、转发服务、CLI）
package httpclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const defaultTimeout = 15 * time.Second

// Client hertz 客户端的薄封装，使用标准库网络层以支持 HTTPS
type Client struct {
	hc      *client.Client
	timeout time.Duration
}

func New(timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc, err := client.NewClient(
		client.WithDialer(standard.NewDialer()),
		client.WithDialTimeout(timeout),
		client.WithClientReadTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}
	return &Client{hc: hc, timeout: timeout}, nil
}

// Request 一次出站请求
type Request struct {
	Method      string
	URL         string
	Body        []byte
	ContentType string
	Headers     map[string]string
}

// Response 请求结果，Body 已拷贝，可在释放底层对象后使用
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Do 发送请求；只有网络层错误返回 error，非 2xx 由调用方判断
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	method := r.Method
	if method == "" {
		method = consts.MethodGet
	}
	req.SetMethod(method)
	req.SetRequestURI(r.URL)
	if r.ContentType != "" {
		req.Header.SetContentTypeBytes([]byte(r.ContentType))
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	if len(r.Body) > 0 {
		req.SetBody(r.Body)
	}

	if err := c.hc.DoTimeout(ctx, req, resp, c.timeout); err != nil {
		return nil, fmt.Errorf("failed to %s %s: %w", method, r.URL, err)
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return &Response{StatusCode: resp.StatusCode(), Body: body}, nil
}

// DoJSON 以 JSON 发送 in，成功时把响应体解析到 out（out 可为 nil）
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, in, out interface{}) (*Response, error) {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = b
	}

	resp, err := c.Do(ctx, Request{
		Method:      method,
		URL:         url,
		Body:        body,
		ContentType: "application/json",
		Headers:     headers,
	})
	if err != nil {
		return nil, err
	}

	if out != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return resp, fmt.Errorf("failed to unmarshal response (status %d): %w", resp.StatusCode, err)
		}
	}
	return resp, nil
}

// BasicAuth 生成 Authorization 头的值
func BasicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// Bearer 生成 Bearer Authorization 头的值
func Bearer(token string) string {
	return "Bearer " + token
}
