package database

import (
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	spanKey  = "otel:span"
	startKey = "otel:start_time"
	maxSQL   = 500
)

// TracingPlugin 为每条 SQL 创建 span 并记录耗时
type TracingPlugin struct {
	tracer   trace.Tracer
	duration metric.Float64Histogram
}

func NewTracingPlugin(serviceName string) *TracingPlugin {
	p := &TracingPlugin{tracer: otel.Tracer(serviceName + ".gorm")}
	// 指标创建失败时只保留追踪
	if h, err := otel.Meter(serviceName).Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
	); err == nil {
		p.duration = h
	}
	return p
}

func (p *TracingPlugin) Name() string {
	return "otel_tracing"
}

func (p *TracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		name     string
		before   func(name string, fn func(*gorm.DB)) error
		after    func(name string, fn func(*gorm.DB)) error
		gormName string
	}{
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register, "query"},
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register, "create"},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register, "update"},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register, "delete"},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register, "row"},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register, "raw"},
	}
	for _, h := range hooks {
		if err := h.before("otel:before_"+h.name, p.before); err != nil {
			return err
		}
		if err := h.after("otel:after_"+h.name, p.after); err != nil {
			return err
		}
	}
	return nil
}

func (p *TracingPlugin) before(db *gorm.DB) {
	ctx, span := p.tracer.Start(db.Statement.Context, "db."+tableOf(db),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(semconv.DBSystemPostgreSQL, attribute.String("db.table", tableOf(db))),
	)
	db.InstanceSet(startKey, time.Now())
	db.InstanceSet(spanKey, span)
	db.Statement.Context = ctx
}

func (p *TracingPlugin) after(db *gorm.DB) {
	v, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := v.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	stmt := db.Statement.SQL.String()
	if len(stmt) > maxSQL {
		stmt = stmt[:maxSQL] + "..."
	}
	span.SetAttributes(
		semconv.DBStatement(stmt),
		attribute.String("db.operation", operationOf(stmt)),
		attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
	)

	status := "success"
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		status = "error"
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if p.duration == nil {
		return
	}
	if start, ok := db.InstanceGet(startKey); ok {
		if t, ok := start.(time.Time); ok {
			p.duration.Record(db.Statement.Context, time.Since(t).Seconds(), metric.WithAttributes(
				attribute.String("db.operation", operationOf(stmt)),
				attribute.String("db.status", status),
			))
		}
	}
}

func tableOf(db *gorm.DB) string {
	if db.Statement.Table == "" {
		return "unknown"
	}
	return db.Statement.Table
}

func operationOf(stmt string) string {
	s := strings.ToUpper(strings.TrimSpace(stmt))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(s, op) {
			return strings.ToLower(op)
		}
	}
	return "query"
}
