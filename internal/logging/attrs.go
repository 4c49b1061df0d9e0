package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

type Attr = slog.Attr

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Args converts attributes into the variadic form slog methods accept.
func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with a component attribute. A nil logger
// yields a discarding logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// defaultHints maps event type prefixes to the next step shown when a caller
// did not provide its own error_hint.
var defaultHints = []struct {
	prefix string
	hint   string
}{
	{"auth_", "sign in again or check backend.base_url"},
	{"payment_", "check the backend payment status for the invoice"},
	{"export_", "check paths.export_dir and the exports settings"},
	{"history_", "check that paths.data_dir is writable"},
	{"generate_", "check backend.base_url and the backend logs"},
	{"web_", "check paths.bind and the server log"},
}

// DefaultHint returns the fallback error_hint for an event type.
func DefaultHint(eventType string) string {
	for _, entry := range defaultHints {
		if strings.HasPrefix(eventType, entry.prefix) {
			return entry.hint
		}
	}
	return "check logs for details"
}

// WarnWithContext logs a warning that always carries event_type and
// error_hint.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logEvent(logger, slog.LevelWarn, msg, eventType, attrs)
}

// ErrorWithContext is WarnWithContext at error level.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logEvent(logger, slog.LevelError, msg, eventType, attrs)
}

func logEvent(logger *slog.Logger, level slog.Level, msg, eventType string, attrs []Attr) {
	if logger == nil {
		return
	}
	var haveType, haveHint bool
	for _, a := range attrs {
		switch a.Key {
		case FieldEventType:
			haveType = true
		case FieldErrorHint:
			haveHint = true
		}
	}
	if !haveType {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !haveHint {
		attrs = append(attrs, String(FieldErrorHint, DefaultHint(eventType)))
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}
