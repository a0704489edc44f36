package middleware

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"AreYouDead/config"
	"AreYouDead/pkg/errors"
	"AreYouDead/pkg/logger"
	"AreYouDead/pkg/response"
)

type RecoverConfig struct {
	StackTraceLevel string // full, simple, none
	IsProduction    bool   // 生产环境不在响应里返回 panic 内容
}

func RecoverMiddleware() app.HandlerFunc {
	return RecoverMiddlewareWithConfig(RecoverConfig{
		StackTraceLevel: "simple",
		IsProduction:    config.Cfg.IsProduction(),
	})
}

func RecoverMiddlewareWithConfig(cfg RecoverConfig) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if r := recover(); r != nil {
				handlePanic(ctx, c, r, cfg)
			}
		}()
		c.Next(ctx)
	}
}

func handlePanic(ctx context.Context, c *app.RequestContext, r interface{}, cfg RecoverConfig) {
	msg := fmt.Sprintf("%v", r)
	stack := stackTrace(cfg.StackTraceLevel)

	fields := []zap.Field{
		zap.String("panic", msg),
		zap.String("method", string(c.Method())),
		zap.String("path", string(c.Path())),
		zap.String("client_ip", c.ClientIP()),
		zap.Bool("severe", isSeverePanic(r)),
	}
	if requestID := c.GetHeader("X-Request-Id"); len(requestID) > 0 {
		fields = append(fields, zap.ByteString("request_id", requestID))
	}
	if sub, ok := GetSubject(ctx, c); ok {
		fields = append(fields, zap.String("subject", sub))
	}
	if stack != "" {
		fields = append(fields, zap.String("stack", stack))
	}
	logger.Logger.Error("Panic recovered in HTTP handler", fields...)

	span := trace.SpanFromContext(ctx)
	span.RecordError(fmt.Errorf("panic: %s", msg))
	span.SetStatus(codes.Error, "panic recovered")

	c.Abort()

	var details map[string]interface{}
	if !cfg.IsProduction {
		details = map[string]interface{}{"panic": msg}
		if stack != "" {
			details["stack"] = stack
		}
	}
	response.ErrorWithDetails(ctx, c, errors.Internal, details)
}

// stackTrace simple 只保留业务帧
func stackTrace(level string) string {
	switch level {
	case "full":
		return string(debug.Stack())
	case "simple":
		var b strings.Builder
		for i := 3; ; i++ {
			pc, file, line, ok := runtime.Caller(i)
			if !ok {
				break
			}
			fn := runtime.FuncForPC(pc)
			if fn == nil || strings.HasPrefix(fn.Name(), "runtime.") {
				continue
			}
			fmt.Fprintf(&b, "%s\n\t%s:%d\n", fn.Name(), file, line)
		}
		return b.String()
	default:
		return ""
	}
}

func isSeverePanic(r interface{}) bool {
	if r == nil {
		return false
	}
	s := fmt.Sprintf("%v", r)
	for _, p := range []string{"out of memory", "concurrent map", "index out of range", "nil pointer dereference"} {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
