package logger

import (
	"io"
	"os"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzap "github.com/hertz-contrib/logger/zap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"AreYouDead/config"
)

var (
	// Logger 在 Init 之前为 Nop，库代码和测试可以直接使用
	Logger   = zap.NewNop()
	logClose io.Closer
)

// Init 用 hertz-contrib 的 zap 适配器同时接管 hlog 和业务日志
func Init() {
	cfg := config.Cfg
	level := parseLevel(cfg.LoggerLevel)

	zapOpts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.IsProduction() {
		// 告警重试时同一条日志可能刷屏
		zapOpts = append(zapOpts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewSamplerWithOptions(core, 1e9, 50, 10)
		}))
	}

	hz := hertzzap.NewLogger(
		hertzzap.WithCoreEnc(newEncoder(cfg)),
		hertzzap.WithCoreWs(newWriteSyncer(cfg.LoggerOutputPath)),
		hertzzap.WithCoreLevel(zap.NewAtomicLevelAt(level)),
		hertzzap.WithZapOptions(zapOpts...),
	)
	hlog.SetLogger(hz)
	hlog.SetLevel(toHlogLevel(level))

	Logger = hz.Logger().With(zap.String("service", cfg.ServiceName))
	Logger.Info("Logger initialized",
		zap.String("level", level.CapitalString()),
		zap.String("format", cfg.LoggerFormat),
		zap.String("environment", cfg.Environment),
	)
}

func Sync() {
	// stdout 上的 Sync 在部分平台会返回 EINVAL，忽略
	_ = Logger.Sync()
	if logClose != nil {
		_ = logClose.Close()
	}
}

// Named 返回带组件名的子 logger
func Named(component string) *zap.Logger {
	return Logger.With(zap.String("component", component))
}

func newEncoder(cfg config.Config) zapcore.Encoder {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder

	if cfg.IsDevelopment() || strings.EqualFold(cfg.LoggerFormat, "text") {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(enc)
	}
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(enc)
}

func newWriteSyncer(path string) zapcore.WriteSyncer {
	switch strings.ToLower(path) {
	case "", "stdout":
		return zapcore.AddSync(os.Stdout)
	case "stderr":
		return zapcore.AddSync(os.Stderr)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		panic("failed to open log file: " + err.Error())
	}
	logClose = file
	return zapcore.AddSync(file)
}

// parseLevel 无法识别时按 INFO
func parseLevel(s string) zapcore.Level {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func toHlogLevel(level zapcore.Level) hlog.Level {
	switch {
	case level <= zapcore.DebugLevel:
		return hlog.LevelDebug
	case level == zapcore.InfoLevel:
		return hlog.LevelInfo
	case level == zapcore.WarnLevel:
		return hlog.LevelWarn
	default:
		return hlog.LevelError
	}
}
