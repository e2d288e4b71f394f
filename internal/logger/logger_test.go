package logger_test

import (
	"testing"

	"github.com/freelance-crm/relation-bot/internal/config"
	"github.com/freelance-crm/relation-bot/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		env       string
		wantDebug bool
	}{
		{name: "debug console", level: "debug", format: "console", env: "development", wantDebug: true},
		{name: "info json", level: "info", format: "json", env: "development", wantDebug: false},
		{name: "invalid level defaults to info", level: "loud", format: "console", env: "development", wantDebug: false},
		{name: "production forces json", level: "warn", format: "console", env: "production", wantDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := logger.NewLogger(
				&config.LoggingConfig{Level: tt.level, Format: tt.format},
				&config.AppConfig{Name: "test", Environment: tt.env},
			)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDebug, log.Core().Enabled(zapcore.DebugLevel))
		})
	}
}

func TestWithHelpers_AddFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	logger.WithRequest(base, "GET", "/api/v1/projects", "req-1").Info("request")
	logger.WithChatUser(base, "U123", "/estimate").Info("chat")
	logger.WithPrincipal(base, "system", "api_key").Info("auth")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "/estimate", entries[1].ContextMap()["trigger"])
	assert.Equal(t, "api_key", entries[2].ContextMap()["auth_type"])
}
