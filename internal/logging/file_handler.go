package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// newJSONHandler writes one JSON object per record with short keys (ts,
// level, msg). Durations become integer milliseconds under "<key>_ms" so the
// file can be summed with jq.
func newJSONHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	})
}

func replaceJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch attr.Key {
		case slog.TimeKey:
			attr.Key = "ts"
			if attr.Value.Kind() == slog.KindTime {
				attr.Value = slog.StringValue(attr.Value.Time().UTC().Format("2006-01-02T15:04:05.000Z07:00"))
			}
			return attr
		case slog.LevelKey:
			attr.Key = "level"
			attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			return attr
		case slog.MessageKey:
			attr.Key = "msg"
			return attr
		case slog.SourceKey:
			if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
				attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
			}
			return attr
		}
	}
	if attr.Value.Kind() == slog.KindDuration {
		return slog.Int64(attr.Key+"_ms", attr.Value.Duration().Milliseconds())
	}
	if err, ok := attr.Value.Any().(error); ok {
		attr.Value = slog.StringValue(err.Error())
	}
	return attr
}

// teeHandler sends each record to every handler that accepts its level. It
// lets the log file keep debug detail while the console stays at the
// configured level.
type teeHandler struct {
	handlers []slog.Handler
}

func newTeeHandler(handlers ...slog.Handler) slog.Handler {
	kept := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			kept = append(kept, h)
		}
	}
	switch len(kept) {
	case 0:
		return discardHandler{}
	case 1:
		return kept[0]
	}
	return &teeHandler{handlers: kept}
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: next}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: next}
}
