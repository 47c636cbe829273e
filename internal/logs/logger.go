package logs

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/agentchaos/chaosproxy/internal/plan"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log level constants
const (
	LogLevelTrace = "trace"
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const logFilename = "chaosproxy.log"

func zapLevel(level string) zapcore.Level {
	switch level {
	case LogLevelTrace, LogLevelDebug:
		return zap.DebugLevel
	case LogLevelInfo:
		return zap.InfoLevel
	case LogLevelWarn:
		return zap.WarnLevel
	case LogLevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// SetupLogger builds a console+optional-file zap logger from cfg. Console
// output is always on; file output is added as a second tee'd core when
// cfg.EnableFile is set, rotated via lumberjack.
func SetupLogger(cfg *plan.LogConfig) (*zap.Logger, error) {
	if cfg == nil {
		cfg = plan.DefaultLogConfig()
	}

	level := zapLevel(cfg.Level)

	cores := []zapcore.Core{
		zapcore.NewCore(getConsoleEncoder(), zapcore.AddSync(os.Stderr), level),
	}

	if cfg.EnableFile {
		fileCore, err := createFileCore(cfg, level)
		if err != nil {
			return nil, fmt.Errorf("create file core: %w", err)
		}
		cores = append(cores, fileCore)
	}

	core := zapcore.NewTee(cores...)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)), nil
}

func createFileCore(cfg *plan.LogConfig, level zapcore.Level) (zapcore.Core, error) {
	logFilePath, err := GetLogFilePathWithDir(cfg.LogDir, logFilename)
	if err != nil {
		return nil, fmt.Errorf("get log file path: %w", err)
	}

	lumberjackLogger := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    maxOr(cfg.MaxSizeMB, 10),
		MaxBackups: maxOr(cfg.MaxBackups, 5),
		MaxAge:     maxOr(cfg.MaxAgeDays, 30),
		Compress:   true,
	}

	var encoder zapcore.Encoder
	if cfg.JSONFormat {
		encoder = getJSONEncoder()
	} else {
		encoder = getFileEncoder()
	}

	return zapcore.NewCore(encoder, zapcore.AddSync(lumberjackLogger), level), nil
}

func maxOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func getConsoleEncoder() zapcore.Encoder {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getFileEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	encoderConfig.ConsoleSeparator = " | "
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getJSONEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

// LoggerInfo describes the active logger setup, surfaced by the control
// plane's status endpoint.
type LoggerInfo struct {
	LogDir     string    `json:"log_dir"`
	LogFile    string    `json:"log_file"`
	Level      string    `json:"level"`
	EnableFile bool      `json:"enable_file"`
	JSONFormat bool      `json:"json_format"`
	CreatedAt  time.Time `json:"created_at"`
}

// GetLoggerInfo returns information about the current logger configuration.
func GetLoggerInfo(cfg *plan.LogConfig) (*LoggerInfo, error) {
	if cfg == nil {
		cfg = plan.DefaultLogConfig()
	}

	logDir := cfg.LogDir
	if logDir == "" {
		var err error
		logDir, err = GetLogDir()
		if err != nil {
			return nil, err
		}
	}

	logFile, err := GetLogFilePathWithDir(logDir, logFilename)
	if err != nil {
		return nil, err
	}

	return &LoggerInfo{
		LogDir:     logDir,
		LogFile:    logFile,
		Level:      cfg.Level,
		EnableFile: cfg.EnableFile,
		JSONFormat: cfg.JSONFormat,
		CreatedAt:  time.Now(),
	}, nil
}

// CreateTestWriter creates a writer for tests that need a real file on disk.
func CreateTestWriter() (io.Writer, *os.File, error) {
	tmpFile, err := os.CreateTemp("", "chaosproxy-test-*.log")
	if err != nil {
		return nil, nil, err
	}
	return tmpFile, tmpFile, nil
}

// CleanupTestWriter removes a temporary test log file.
func CleanupTestWriter(file *os.File) error {
	if file == nil {
		return nil
	}
	filename := file.Name()
	file.Close()
	return os.Remove(filename)
}
