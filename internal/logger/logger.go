// Package logger wraps log/slog with the small surface the service needs.
package logger

import (
	"log/slog"
	"os"
)

// Logger is the application logger. It embeds *slog.Logger so call sites use
// the standard structured API (Info, Warn, Error with key/value pairs).
type Logger struct {
	*slog.Logger
}

// New returns a Logger writing JSON to stdout at the given level.
func New(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})),
	}
}

// Fatal logs at error level and exits the process.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Logger.Error(msg, args...)
	os.Exit(1)
}

// With returns a Logger with the given attributes attached to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}
