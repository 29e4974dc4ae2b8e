package bootstrap

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/bullboard/config"
)

func TestNewLogger(t *testing.T) {
	t.Run("json at configured level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, &config.AppConfig{LogLevel: "warn"})

		assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
		logger.Warn("careful", "queue", "emails")
		assert.Contains(t, buf.String(), `"msg":"careful"`)
		assert.Contains(t, buf.String(), `"queue":"emails"`)
	})

	t.Run("text in dev with debug fallback", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, &config.AppConfig{IsDev: true, LogLevel: "chatty"})

		assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
		logger.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("nil config", func(t *testing.T) {
		logger := newLogger(&bytes.Buffer{}, nil)
		assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
		assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	})
}

func TestValidateServiceConfig(t *testing.T) {
	require.Error(t, ValidateServiceConfig(nil))
	require.Error(t, ValidateServiceConfig(&config.AppConfig{Services: "nope"}))

	cfg := &config.AppConfig{Services: "http", Board: config.BoardConfig{Timezone: "Not/AZone"}}
	require.Error(t, ValidateServiceConfig(cfg))

	cfg.Board.Timezone = "UTC"
	require.NoError(t, ValidateServiceConfig(cfg))
}

func TestGetEnabledServices(t *testing.T) {
	assert.Empty(t, GetEnabledServices(nil))
	assert.Empty(t, GetEnabledServices(&config.AppConfig{Services: "bogus"}))
	assert.Equal(t, []string{"http", "refresher"},
		GetEnabledServices(&config.AppConfig{Services: "refresher,http"}))
}
