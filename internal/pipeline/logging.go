package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// NewLogger builds the tint-backed slog logger used throughout the pipeline.
// Debug level also switches on source locations.
func NewLogger(level LogLevel) *slog.Logger {
	var slogLevel slog.Level

	switch level {
	case LogLevelDebug:
		slogLevel = slog.LevelDebug
	case LogLevelInfo:
		slogLevel = slog.LevelInfo
	case LogLevelWarn:
		slogLevel = slog.LevelWarn
	case LogLevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slogLevel,
		TimeFormat: time.Kitchen,
		AddSource:  level == LogLevelDebug,
	}))
}

// LogError logs a PipelineError with its type, operation, and context
// attached as attributes.
func LogError(log *slog.Logger, err *PipelineError, msg string) {
	attrs := []slog.Attr{
		slog.String("error_type", string(err.Type)),
		slog.String("operation", err.Operation),
		slog.String("error_message", err.Message),
	}

	for key, value := range err.ContextMap() {
		attrs = append(attrs, slog.Any(key, value))
	}

	if err.Cause != nil {
		attrs = append(attrs, slog.String("cause", err.Cause.Error()))
	}

	log.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}
