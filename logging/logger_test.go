package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"bananas": zapcore.InfoLevel,
	}
	for input, want := range cases {
		assert.Equal(t, want, parseLevel(input), "level %q", input)
	}
}

func TestNew_ReturnsUsableLogger(t *testing.T) {
	logger := New(Config{Level: "debug", Encoding: "console"})
	logger.Info("hello", zapcore.Field{})
	logger.With(zapcore.Field{}).Warn("with field")
}

func TestNewNop_DiscardsWithoutPanicking(t *testing.T) {
	logger := NewNop()
	logger.Debug("x")
	logger.Error("y")
	assert.NoError(t, logger.Sync())
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, 100, orDefault(0, 100))
	assert.Equal(t, 5, orDefault(5, 100))
	assert.Equal(t, 100, orDefault(-1, 100))
}
