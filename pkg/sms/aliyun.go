package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	openapiutil "github.com/alibabacloud-go/openapi-util/service"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	credential "github.com/aliyun/credentials-go/credentials"
	"go.uber.org/zap"

	"AreYouDead/pkg/errors"
	"AreYouDead/pkg/logger"
)

// AliyunClient 阿里云短信，作为备用线路
type AliyunClient struct {
	client             *openapi.Client
	signName           string
	templateCode       string
	defaultCountryCode string
}

// NewAliyunClient 创建阿里云 SMS 客户端
// 需要设置环境变量：ALIBABA_CLOUD_ACCESS_KEY_ID 和 ALIBABA_CLOUD_ACCESS_KEY_SECRET
func NewAliyunClient(signName, templateCode, defaultCountryCode string) (*AliyunClient, error) {
	if signName == "" {
		return nil, fmt.Errorf("signName is required")
	}
	if templateCode == "" {
		return nil, fmt.Errorf("templateCode is required")
	}

	cred, err := credential.NewCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun credential: %w", err)
	}

	client, err := openapi.NewClient(&openapi.Config{
		Credential: cred,
		Endpoint:   tea.String("dysmsapi.aliyuncs.com"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun client: %w", err)
	}

	return &AliyunClient{
		client:             client,
		signName:           signName,
		templateCode:       templateCode,
		defaultCountryCode: defaultCountryCode,
	}, nil
}

func (c *AliyunClient) Provider() string {
	return "aliyun"
}

func (c *AliyunClient) createApiInfo(action string) *openapi.Params {
	return &openapi.Params{
		Action:      tea.String(action),
		Version:     tea.String("2017-05-25"),
		Protocol:    tea.String("HTTPS"),
		Method:      tea.String("POST"),
		AuthType:    tea.String("AK"),
		Style:       tea.String("RPC"),
		Pathname:    tea.String("/"),
		ReqBodyType: tea.String("json"),
		BodyType:    tea.String("json"),
	}
}

// Send 模板参数 content 承载完整告警文本
func (c *AliyunClient) Send(ctx context.Context, phone, text string) error {
	// 国际短信号码格式为国家码+号码，不带 +
	to := strings.TrimPrefix(FormatE164(phone, c.defaultCountryCode), "+")
	if to == "" {
		return errors.NewNonRetryableError("EMPTY_NUMBER", "recipient number is empty", "recipient rejected")
	}

	param, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return fmt.Errorf("failed to marshal template param: %w", err)
	}

	request := &openapi.OpenApiRequest{
		Query: openapiutil.Query(map[string]interface{}{
			"PhoneNumbers":  tea.String(to),
			"SignName":      tea.String(c.signName),
			"TemplateCode":  tea.String(c.templateCode),
			"TemplateParam": tea.String(string(param)),
		}),
	}

	resp, err := c.client.CallApi(c.createApiInfo("SendSms"), request, &util.RuntimeOptions{})
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	if statusCode, ok := parseStatusCode(resp["statusCode"]); ok && statusCode != 200 {
		logger.Logger.Error("SMS API returned error",
			zap.Int("status_code", statusCode),
			zap.Any("body", resp["body"]),
		)
		return fmt.Errorf("SMS API error: statusCode=%d", statusCode)
	}

	code, message, requestID := parseBody(resp["body"])
	if code != "" && code != "OK" {
		logger.Logger.Error("SMS send failed",
			zap.String("code", code),
			zap.String("message", message),
			zap.String("request_id", requestID),
		)
		if isNonRetryableError(code) {
			return errors.NewNonRetryableError(code, message, "SMS configuration error")
		}
		return fmt.Errorf("SMS send failed: %s - %s", code, message)
	}

	logger.Logger.Debug("SMS sent successfully",
		zap.String("provider", c.Provider()),
		zap.String("request_id", requestID),
	)
	return nil
}

func parseStatusCode(v interface{}) (int, bool) {
	switch s := v.(type) {
	case int:
		return s, true
	case int32:
		return int(s), true
	case int64:
		return int(s), true
	case float64:
		return int(s), true
	case *int:
		if s != nil {
			return *s, true
		}
	}
	return 0, false
}

func parseBody(body interface{}) (code, message, requestID string) {
	if body == nil {
		return "", "", ""
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", "", ""
	}
	var parsed struct {
		Code      string `json:"Code"`
		Message   string `json:"Message"`
		RequestID string `json:"RequestId"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", "", ""
	}
	return parsed.Code, parsed.Message, parsed.RequestID
}

// isNonRetryableError 签名、模板、号码类错误码，重试无意义
func isNonRetryableError(code string) bool {
	switch code {
	case "isv.SMS_SIGNATURE_ILLEGAL",
		"isv.SMS_TEMPLATE_ILLEGAL",
		"isv.TEMPLATE_MISSING_PARAMETERS",
		"isv.MOBILE_NUMBER_ILLEGAL",
		"isv.INVALID_PARAMETERS",
		"isv.BLACK_KEY_CONTROL_LIMIT",
		"isv.PARAM_LENGTH_LIMIT":
		return true
	}
	return false
}
