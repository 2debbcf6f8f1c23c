package logging

import (
	"context"
	"log/slog"
	"time"

	"menuscope/internal/services"
)

// Attr is re-exported so callers build fields without importing log/slog.
type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Error records err under "error". A nil error is logged as "<nil>" so a
// missing cause is visible rather than silently dropped.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// ErrorKind records the summary classification of err under "kind".
func ErrorKind(err error) Attr {
	return slog.String("kind", string(services.KindOf(err)))
}

// NewComponentLogger tags logger with component. A nil logger discards.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact, filling defaults for whichever the caller left out. Every
// menuscope warning marks something that was skipped, so the reader needs to
// know what and why.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefault(attrs, FieldEventType, eventType)
	attrs = withDefault(attrs, FieldErrorHint, "rerun with logging.level = \"debug\" for details")
	attrs = withDefault(attrs, FieldImpact, "item skipped; the rest of the run continues")
	logger.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...)
}

// ErrorWithContext logs an error that always carries event_type and error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefault(attrs, FieldEventType, eventType)
	attrs = withDefault(attrs, FieldErrorHint, "rerun with logging.level = \"debug\" for details")
	logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}

func withDefault(attrs []Attr, key, value string) []Attr {
	for _, a := range attrs {
		if a.Key == key {
			return attrs
		}
	}
	return append(attrs, String(key, value))
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool { return false }

func (discardHandler) Handle(context.Context, slog.Record) error { return nil }

func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h discardHandler) WithGroup(string) slog.Handler { return h }
