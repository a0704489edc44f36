package logger

import (
	"testing"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"DEBUG":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		" Error ": zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestToHlogLevel(t *testing.T) {
	assert.Equal(t, hlog.LevelDebug, toHlogLevel(zapcore.DebugLevel))
	assert.Equal(t, hlog.LevelWarn, toHlogLevel(zapcore.WarnLevel))
	assert.Equal(t, hlog.LevelError, toHlogLevel(zapcore.FatalLevel))
}

func TestNamedBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Named("scheduler").Info("noop")
	})
}
