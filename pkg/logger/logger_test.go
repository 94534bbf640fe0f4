package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ispeed-collector/pkg/config"
	"github.com/ispeed-collector/pkg/logger"
)

func TestDefaultFieldsAreAttached(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := logger.ReplaceForTest(zap.New(core))
	defer restore()

	logger.SetDefaultComponent("acquisition")
	defer logger.SetDefaultComponent("")

	logger.Info("measurement stored", zap.String("interface", "WLAN"))
	logger.Debug("debug msg")

	entries := logs.All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "acquisition", fields["component"])
	assert.Equal(t, "WLAN", fields["interface"])
	assert.NotEmpty(t, fields["goid"])
	assert.Equal(t, "measurement stored", entries[0].Message)
}

func TestUninitializedLoggerIsSilent(t *testing.T) {
	assert.NotPanics(t, func() {
		logger.Warn("nobody listens")
		_ = logger.Sync()
	})
}

func TestInitWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.ZapLogConfig{Level: "debug", Format: "json", Path: dir, MaxAge: 1}

	require.NoError(t, logger.Init(cfg))
	logger.Info("info msg")
	require.NoError(t, logger.Sync())

	matches, err := filepath.Glob(filepath.Join(dir, "ispeed-*.log"))
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"info msg"`)
}
