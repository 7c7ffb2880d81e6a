package log

import (
	"errors"
	"io"
	"log/slog"
)

// Logger is a thin structured logger over slog.
type Logger struct {
	slog *slog.Logger
}

// New creates a Logger from cfg. A nil Output discards everything.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = io.Discard
	}
	opts := &slog.HandlerOptions{Level: cfg.Level.slogLevel()}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}
	return &Logger{slog: slog.New(handler)}
}

// Nop returns a Logger that drops every record. Used by tests and as the
// fallback when no logger is injected.
func Nop() *Logger {
	return New(Config{Output: io.Discard})
}

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

// WithError attaches err, plus the HTTP status when err carries one.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	args := []any{"error", err.Error()}
	var st interface{ HTTPStatus() int }
	if errors.As(err, &st) && st.HTTPStatus() != 0 {
		args = append(args, "status", st.HTTPStatus())
	}
	return l.With(args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }
