package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"AreYouDead/config"
	"AreYouDead/internal/cache"
	"AreYouDead/internal/channel"
	"AreYouDead/internal/notify"
	"AreYouDead/internal/queue"
	"AreYouDead/internal/repository"
	"AreYouDead/internal/service"
	"AreYouDead/pkg/email"
	"AreYouDead/pkg/logger"
	"AreYouDead/pkg/metrics"
	pkgotel "AreYouDead/pkg/otel"
	"AreYouDead/pkg/sms"
	"AreYouDead/pkg/snowflake"
	"AreYouDead/storage"
	"AreYouDead/storage/database"
	"AreYouDead/storage/redis"
)

func main() {

	logger.Init()
	defer logger.Sync()

	cfg := &config.Cfg

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if cfg.OTelEnabled {
		shutdown, err := pkgotel.InitOpenTelemetry(ctx, pkgotel.Config{
			ServiceName:    cfg.ServiceName + "-worker",
			ServiceVersion: cfg.Version,
			Environment:    cfg.Environment,
			OTLPEndpoint:   cfg.OTelEndpoint,
			SampleRatio:    cfg.OTelSampleRatio,
		})
		if err != nil {
			logger.Logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
			}
		}()
		if err := metrics.InitMetrics(); err != nil {
			logger.Logger.Warn("Failed to initialize business metrics", zap.Error(err))
		}
	}

	// worker 只消费队列，MQ 必须可用
	if err := storage.Init(true); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	loc := cfg.Location()
	defaults := service.DefaultsFromConfig(cfg)
	repos := repository.New(database.DB())
	tracker := cache.New(redis.Cmdable(), cfg.RedisPrefix)

	// 告警完成后的提示同样经由队列发出
	display := notify.NewDisplay(queue.NewProducer(), logger.Named("display"))

	phones := sms.NewClients(cfg)
	mails := email.NewClients(cfg)
	dispatcher := channel.NewDispatcher(channel.Senders{
		SMSGateway:  phones.Gateway,
		SMSFallback: phones.Fallback,
		WhatsApp:    phones.WhatsApp,
		EmailAPI:    mails.API,
		EmailRelay:  mails.Relay,
	}, channel.Options{
		SendTimeout:     cfg.ChannelSendTimeout,
		BreakerFailures: cfg.GatewayBreakerFailure,
		BreakerReset:    cfg.GatewayBreakerReset,
	}, logger.Named("channel"))

	orchestrator := service.NewOrchestrator(dispatcher, display, loc, logger.Named("escalation"))
	escalations := service.NewEscalationService(
		repos.CheckIns, repos.Contacts, repos.Settings, repos.Escalations,
		orchestrator, defaults, logger.Named("escalation"),
	)

	logger.Logger.Info("Worker service starting",
		zap.String("service", cfg.ServiceName+"-worker"),
		zap.String("environment", cfg.Environment),
	)

	// 阻塞直到 ctx 取消且所有消费者退出
	queue.NewConsumers(escalations, tracker, logger.Named("queue")).StartAll(ctx)

	logger.Logger.Info("Worker service shutting down gracefully")
}
