package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *slog.Logger
	zapLogger    *zap.Logger
)

// Init builds a zap production logger at the given level, bridges it into slog and
// installs it as the default. Output goes to stdout and, when set, to filePath.
func Init(levelStr string, filePath string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(levelStr))
	zcfg.Encoding = "json"
	zcfg.OutputPaths = []string{"stdout"}
	if filePath != "" {
		zcfg.OutputPaths = append(zcfg.OutputPaths, filePath)
	}

	zl, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}

	zapLogger = zl
	globalLogger = slog.New(zapslog.NewHandler(zl.Core()))
	slog.SetDefault(globalLogger)
	return zl, nil
}

func parseLevel(levelStr string) zapcore.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO", "":
		return zapcore.InfoLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		slog.Warn("Invalid log level string, defaulting to INFO", "input", levelStr)
		return zapcore.InfoLevel
	}
}

// Zap returns the zap logger behind the global slog logger, or a no-op logger
// before Init has run.
func Zap() *zap.Logger {
	if zapLogger == nil {
		return zap.NewNop()
	}
	return zapLogger
}

// Sync flushes buffered zap output.
func Sync() {
	if zapLogger != nil {
		_ = zapLogger.Sync()
	}
}

func ensureInitialized() {
	if globalLogger == nil {
		globalLogger = slog.Default()
	}
}

// Debug logs a message at DebugLevel.
func Debug(msg string, args ...any) {
	ensureInitialized()
	if globalLogger.Enabled(context.Background(), slog.LevelDebug) {
		globalLogger.Debug(msg, args...)
	}
}

// Info logs a message at InfoLevel.
func Info(msg string, args ...any) {
	ensureInitialized()
	globalLogger.Info(msg, args...)
}

// Warn logs a message at WarnLevel.
func Warn(msg string, args ...any) {
	ensureInitialized()
	globalLogger.Warn(msg, args...)
}

// Error logs a message at ErrorLevel.
func Error(msg string, args ...any) {
	ensureInitialized()
	globalLogger.Error(msg, args...)
}

// Fatal logs a message at ErrorLevel then exits.
func Fatal(msg string, args ...any) {
	ensureInitialized()
	globalLogger.Error(msg, args...)
	Sync()
	os.Exit(1)
}
