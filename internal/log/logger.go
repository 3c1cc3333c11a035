package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// CorrelationIDField is the record attribute and header-derived context value
// that ties log lines to one request.
const CorrelationIDField = "correlation_id"

type ctxKey int

const (
	correlationIDKey ctxKey = iota
	loggerKey
)

type Logger struct {
	*slog.Logger
}

// NewLoggerWithJSONOutput honours LOG_LEVEL and LOG_FORMAT (json or text).
func NewLoggerWithJSONOutput() *Logger {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "text") {
		return newLogger(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return NewLogger(os.Stdout, level)
}

// NewLogger writes JSON records at or above level to w.
func NewLogger(w io.Writer, level slog.Level) *Logger {
	return newLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func newLogger(h slog.Handler) *Logger {
	return &Logger{Logger: slog.New(h)}
}

func ParseLevel(raw string) slog.Level {
	var level slog.Level
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "warning":
		return slog.LevelWarn
	default:
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return slog.LevelInfo
		}
		return level
	}
}

// WithCorrelationID tags every record with the request's correlation id,
// minting one when ctx has none.
func (l *Logger) WithCorrelationID(ctx context.Context) *Logger {
	id, ok := CorrelationID(ctx)
	if !ok {
		id = NewCorrelationID()
	}
	return &Logger{Logger: l.Logger.With(CorrelationIDField, id)}
}

func NewCorrelationID() string {
	return uuid.NewString()
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func CorrelationID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(correlationIDKey).(string)
	return id, ok && id != ""
}

func ContextWithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the request logger stored in ctx. Without one it tags
// fallback (or a fresh stdout logger) with the context's correlation id.
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*Logger); ok && l != nil {
			return l
		}
	}
	if fallback == nil {
		fallback = NewLoggerWithJSONOutput()
	}
	if ctx == nil {
		return fallback
	}
	return fallback.WithCorrelationID(ctx)
}
