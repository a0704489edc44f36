package sms

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"AreYouDead/pkg/logger"
)

type MockCall struct {
	Phone string
	Text  string
}

// MockClient 可配置的短信客户端 mock，实现 Client 接口，SMS_PROVIDER=mock 时用于本地联调
type MockClient struct {
	mu    sync.Mutex
	Calls []MockCall

	// FailNext 置为 true 时，下一次调用返回 mock 错误并自动复位
	FailNext bool
}

func NewMockClient() *MockClient {
	return &MockClient{
		Calls: make([]MockCall, 0),
	}
}

func (m *MockClient) Provider() string {
	return "mock"
}

func (m *MockClient) Send(ctx context.Context, phone, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Phone: phone, Text: text})

	if m.FailNext {
		m.FailNext = false
		return errors.New("mock sms send failure")
	}

	logger.Logger.Info("Mock SMS sent", zap.String("phone", phone), zap.Int("length", len(text)))
	return nil
}

// CallCount 已记录的调用次数
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
