package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"AreYouDead/config"
	"AreYouDead/internal/cache"
	"AreYouDead/internal/channel"
	"AreYouDead/internal/handler"
	"AreYouDead/internal/middleware"
	"AreYouDead/internal/notify"
	"AreYouDead/internal/queue"
	"AreYouDead/internal/repository"
	"AreYouDead/internal/router"
	"AreYouDead/internal/schedule"
	"AreYouDead/internal/service"
	"AreYouDead/pkg/email"
	"AreYouDead/pkg/logger"
	"AreYouDead/pkg/metrics"
	pkgotel "AreYouDead/pkg/otel"
	"AreYouDead/pkg/sms"
	"AreYouDead/pkg/snowflake"
	"AreYouDead/pkg/token"
	"AreYouDead/storage"
	"AreYouDead/storage/database"
	"AreYouDead/storage/mq"
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
			ServiceName:    cfg.ServiceName,
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
		if err := middleware.InitMetrics(otel.Meter("areyoudead-http")); err != nil {
			logger.Logger.Warn("Failed to initialize HTTP metrics", zap.Error(err))
		}
	}

	if err := snowflake.Init(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	// queue 模式下 MQ 是必需的；inline 模式下只用于展示事件，连不上也能运行
	queueMode := cfg.QueueDispatch()
	if err := storage.Init(queueMode); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if !queueMode {
		if err := mq.Init(); err != nil {
			logger.Logger.Warn("RabbitMQ unavailable, display events will only be logged", zap.Error(err))
		}
	}

	var producer *queue.Producer
	var publisher notify.Publisher
	if mq.Connection() != nil {
		producer = queue.NewProducer()
		publisher = producer
	}

	loc := cfg.Location()
	defaults := service.DefaultsFromConfig(cfg)
	repos := repository.New(database.DB())
	dedupe := cache.New(redis.Cmdable(), cfg.RedisPrefix)
	display := notify.NewDisplay(publisher, logger.Named("display"))

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

	var escalationDispatcher schedule.EscalationDispatcher = escalations
	if queueMode {
		escalationDispatcher = producer
	}

	registry := schedule.NewCronRegistry(loc, logger.Named("cron"))
	scheduler := schedule.NewScheduler(schedule.Options{
		Settings:   repos.Settings,
		CheckIns:   repos.CheckIns,
		Dedupe:     dedupe,
		Dispatcher: escalationDispatcher,
		Display:    display,
		Registry:   registry,
		Defaults:   defaults,
		DedupeTTL:  cfg.EscalationDedupeTTL,
		Location:   loc,
		Logger:     logger.Named("scheduler"),
	})

	checkIns := service.NewCheckInService(repos.CheckIns, repos.Settings, scheduler, display, defaults, loc, cfg.HistoryWindowDays, logger.Named("checkin"))
	settings := service.NewSettingsService(repos.Settings, scheduler, defaults, logger.Named("settings"))
	contacts := service.NewContactService(repos.Contacts, logger.Named("contact"))

	// 进程重启后按已保存的设置恢复周期任务
	current, err := settings.Get(ctx)
	if err != nil {
		logger.Logger.Fatal("Failed to load settings", zap.Error(err))
	}
	if err := scheduler.OnDeviceRestart(ctx, current); err != nil {
		logger.Logger.Fatal("Failed to restore check-in schedule", zap.Error(err))
	}
	registry.Start()

	if err := token.Init(cfg.JWTSecret, time.Duration(cfg.JWTExpireMinutes)*time.Minute); err != nil {
		logger.Logger.Fatal("Failed to initialize token package", zap.Error(err))
	} // token 在中间件前初始化，middleware 依赖 token

	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	logger.Logger.Info("Server starting",
		zap.String("service", cfg.ServiceName),
		zap.String("port", cfg.ServerPort),
		zap.String("environment", cfg.Environment),
		zap.Bool("queue_dispatch", queueMode),
		zap.String("schedule_state", string(scheduler.State())),
	)

	addr := net.JoinHostPort(cfg.ServerHost, cfg.ServerPort)
	serverOpts := []hertzconfig.Option{server.WithHostPorts(addr)}

	var h *server.Hertz
	if cfg.OTelEnabled {
		tracerOpt, tracing := middleware.NewServerTracerConfig()
		h = server.New(append(serverOpts, tracerOpt)...)
		h.Use(tracing)
	} else {
		h = server.New(serverOpts...)
	}

	router.Register(h, handler.New(handler.Deps{
		CheckIns:    checkIns,
		Settings:    settings,
		Contacts:    contacts,
		Escalations: escalations,
		Scheduler:   scheduler,
		Location:    loc,
	}))

	// 优雅关闭：先停 HTTP，再等待正在执行的周期任务
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
		if err := registry.Stop(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to stop periodic tasks", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}
