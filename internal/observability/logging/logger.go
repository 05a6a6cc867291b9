package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"newsdesk/internal/handler/http/requestid"
)

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func options() *slog.HandlerOptions {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	return &slog.HandlerOptions{
		Level: level,
		// debug 時のみ呼び出し元を出す
		AddSource: level <= slog.LevelDebug,
	}
}

// New returns a JSON logger on stdout, or a text logger when LOG_FORMAT=text.
func New() *slog.Logger {
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "text") {
		return NewTextLogger()
	}
	return NewLogger()
}

// NewLogger returns a JSON logger on stdout.
func NewLogger() *slog.Logger {
	return NewLoggerTo(os.Stdout)
}

// NewLoggerTo returns a JSON logger writing to w.
func NewLoggerTo(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, options()))
}

// NewTextLogger returns a text logger on stdout.
func NewTextLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, options()))
}

// WithRequestID adds the request ID from ctx to logger, if there is one.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		return logger
	}
	return logger.With(slog.String("request_id", reqID))
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"
