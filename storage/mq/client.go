package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"AreYouDead/config"
	"AreYouDead/pkg/logger"
)

const (
	// EventsExchange 所有业务消息走同一个 topic exchange
	EventsExchange = "areyoudead.events"

	EscalationQueue      = "escalation.dispatch"
	EscalationRoutingKey = "escalation.dispatch"

	DisplayQueue      = "display.events"
	DisplayRoutingKey = "display.event"
)

var (
	conn     *amqp.Connection
	connMu   sync.RWMutex
	initOnce sync.Once
	initErr  error
)

func Init() error {
	initOnce.Do(func() {
		c, err := amqp.Dial(config.Cfg.GetRabbitMQURL())
		if err != nil {
			initErr = fmt.Errorf("failed to dial rabbitmq: %w", err)
			return
		}

		connMu.Lock()
		conn = c
		connMu.Unlock()

		if err := DeclareTopology(); err != nil {
			initErr = err
			return
		}

		logger.Logger.Info("RabbitMQ connected",
			zap.String("component", "rabbitmq"),
			zap.String("addr", config.Cfg.RabbitMQAddr),
		)
	})

	return initErr
}

// Connection 未初始化时返回 nil
func Connection() *amqp.Connection {
	connMu.RLock()
	defer connMu.RUnlock()
	return conn
}

// DeclareTopology 声明 exchange 与队列，重复声明是幂等的
func DeclareTopology() error {
	c := Connection()
	if c == nil {
		return fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := c.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(EventsExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", EventsExchange, err)
	}

	bindings := []struct {
		queue string
		key   string
	}{
		{EscalationQueue, EscalationRoutingKey},
		{DisplayQueue, DisplayRoutingKey},
	}
	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(b.queue, b.key, EventsExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", b.queue, err)
		}
	}
	return nil
}

func Close(ctx context.Context) error {
	pubMutex.Lock()
	if publisherCh != nil {
		_ = publisherCh.Close()
		publisherCh = nil
	}
	pubMutex.Unlock()

	c := Connection()
	if c == nil || c.IsClosed() {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- c.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
