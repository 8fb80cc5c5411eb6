// Package logger wraps slog with tint for colored terminal output and a
// handful of structured-attribute constructors for the fields the guard's
// own log lines actually carry (rule name, risk level, statement id).
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Logger wraps a colored slog.Logger. The CLI builds one at startup and
// installs it as slog's default; nothing downstream holds a *Logger
// directly, they just log through the standard slog package.
type Logger struct {
	logger *slog.Logger
}

// NewWithLevel creates a new logger at the given level with colored output,
// rendering any "error" attribute (or any value that implements error) in
// red.
func NewWithLevel(level slog.Level) *Logger {
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				return tint.Attr(9, a)
			}
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
	return &Logger{
		logger: slog.New(handler),
	}
}

// GetSlogLogger returns the underlying slog logger.
func (l *Logger) GetSlogLogger() *slog.Logger {
	return l.logger
}

// Rule creates a structured rule-name field.
func Rule(name string) slog.Attr {
	return slog.String("rule", name)
}

// Risk creates a structured risk-level field.
func Risk(level fmt.Stringer) slog.Attr {
	return slog.String("risk", level.String())
}

// StatementID creates a structured statement-id field.
func StatementID(id string) slog.Attr {
	return slog.String("statement_id", id)
}
