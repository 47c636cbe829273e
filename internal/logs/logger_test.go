package logs

import (
	"testing"

	"github.com/agentchaos/chaosproxy/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger_NilConfigUsesDefaults(t *testing.T) {
	logger, err := SetupLogger(nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestSetupLogger_FileOutputWritesToLogDir(t *testing.T) {
	dir := t.TempDir()
	cfg := &plan.LogConfig{Level: LogLevelDebug, EnableFile: true, LogDir: dir, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1}

	logger, err := SetupLogger(cfg)
	require.NoError(t, err)
	logger.Info("hello")
	_ = logger.Sync()

	path, err := GetLogFilePathWithDir(dir, logFilename)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestZapLevel_UnknownFallsBackToInfo(t *testing.T) {
	assert.Equal(t, zapLevel(LogLevelInfo), zapLevel("nonsense"))
}

func TestGetLoggerInfo_DefaultsWhenNilConfig(t *testing.T) {
	info, err := GetLoggerInfo(nil)
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, info.Level)
	assert.False(t, info.EnableFile)
}
