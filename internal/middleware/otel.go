package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// httpMetrics 请求指标；span 由 hertz-contrib tracing 负责，这里只补充属性
type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	inflight metric.Int64UpDownCounter
}

var serverMetrics *httpMetrics

func InitMetrics(meter metric.Meter) error {
	m := &httpMetrics{}
	var err error

	if m.requests, err = meter.Int64Counter(
		"areyoudead.http.requests",
		metric.WithDescription("HTTP requests by route and status"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}
	if m.duration, err = meter.Float64Histogram(
		"areyoudead.http.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 10),
	); err != nil {
		return err
	}
	if m.inflight, err = meter.Int64UpDownCounter(
		"areyoudead.http.inflight",
		metric.WithDescription("Requests currently being served"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}

	serverMetrics = m
	return nil
}

// statusClass 2xx / 4xx / 5xx，避免按具体状态码拆太细
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

// OpenTelemetryMiddleware 记录请求指标，并在当前 span 上补充操作者和请求 ID
func OpenTelemetryMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		m := serverMetrics
		if m == nil {
			c.Next(ctx)
			return
		}

		start := time.Now()
		m.inflight.Add(ctx, 1)
		defer m.inflight.Add(ctx, -1)

		span := trace.SpanFromContext(ctx)
		if sub, ok := GetSubject(ctx, c); ok {
			span.SetAttributes(attribute.String("enduser.id", strings.ToValidUTF8(sub, "")))
		}
		if requestID := c.GetHeader("X-Request-Id"); len(requestID) > 0 {
			span.SetAttributes(attribute.String("http.request_id", strings.ToValidUTF8(string(requestID), "")))
		}

		c.Next(ctx)

		// /contacts/:id 这类路由用模板，避免按 id 膨胀
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Response.StatusCode()
		attrs := metric.WithAttributes(
			semconv.HTTPMethod(string(c.Method())),
			semconv.HTTPRoute(route),
			attribute.String("http.status_class", statusClass(status)),
		)
		m.requests.Add(ctx, 1, attrs)
		m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

// NewServerTracerConfig 返回 hertz server 的 tracer 选项和对应中间件
func NewServerTracerConfig(opts ...hertztracing.Option) (config.Option, app.HandlerFunc) {
	tracer, cfg := hertztracing.NewServerTracer(opts...)
	return tracer, hertztracing.ServerMiddleware(cfg)
}
