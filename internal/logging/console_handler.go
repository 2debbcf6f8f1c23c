package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// consoleHandler renders records for a person watching a batch run:
//
//	14:02:11.480 WARN [harvest] protein-chef (flatten) – catalog structure not recognized
//	    - Event: schema_violation
//	    - Kind: schema_violation
//	    + 2 more fields hidden
//
// Info and above show a curated set of fields; debug shows everything.
type consoleHandler struct {
	out       *lockedWriter
	level     slog.Leveler
	addSource bool
	// fields holds attributes bound with With, already flattened.
	fields []kv
	prefix string
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) write(p []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.w.Write(p)
	return err
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := make([]kv, len(h.fields), len(h.fields)+record.NumAttrs())
	copy(fields, h.fields)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendFlattened(fields, h.prefix, attr)
		return true
	})
	fields = dedupeKVsByKey(fields)

	var component, subject, stage string
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = plainValue(f.value)
		case FieldSubject:
			subject = plainValue(f.value)
		case FieldStage:
			stage = plainValue(f.value)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(consoleTimestamp(record.Time))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	if component != "" {
		buf.WriteString(" [" + component + "]")
	}
	if where := composeSubject(subject, stage); where != "" {
		buf.WriteString(" " + where)
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}
	buf.WriteString(" – " + message)
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	buf.WriteByte('\n')

	if record.Level < slog.LevelInfo {
		writeDebugFields(&buf, fields)
	} else {
		writeInfoFields(&buf, fields)
	}
	return h.out.write(buf.Bytes())
}

func writeInfoFields(buf *bytes.Buffer, fields []kv) {
	shown, hidden := selectInfoFields(fields)
	for _, f := range shown {
		buf.WriteString("    - " + f.label + ": " + f.value + "\n")
	}
	switch {
	case hidden == 1:
		buf.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		buf.WriteString("    + " + strconv.Itoa(hidden) + " more fields hidden\n")
	}
}

func writeDebugFields(buf *bytes.Buffer, fields []kv) {
	for _, f := range fields {
		if skipInfoKey(f.key) {
			continue
		}
		buf.WriteString("    " + f.key + ": " + renderValue(f.value) + "\n")
	}
}

func composeSubject(subject, stage string) string {
	subject = strings.TrimSpace(subject)
	stage = strings.TrimSpace(stage)
	switch {
	case subject != "" && stage != "":
		return subject + " (" + stage + ")"
	case subject != "":
		return subject
	default:
		return stage
	}
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = make([]kv, len(h.fields), len(h.fields)+len(attrs))
	copy(next.fields, h.fields)
	for _, attr := range attrs {
		next.fields = appendFlattened(next.fields, h.prefix, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = joinKey(h.prefix, name)
	return &next
}

type kv struct {
	key   string
	value slog.Value
}

// appendFlattened adds attr to dst, expanding groups into dotted keys.
func appendFlattened(dst []kv, prefix string, attr slog.Attr) []kv {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		inner := prefix
		if attr.Key != "" {
			inner = joinKey(prefix, attr.Key)
		}
		for _, member := range value.Group() {
			dst = appendFlattened(dst, inner, member)
		}
		return dst
	}
	return append(dst, kv{key: joinKey(prefix, attr.Key), value: value})
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

// dedupeKVsByKey keeps the first position of each key with its last value.
func dedupeKVsByKey(fields []kv) []kv {
	if len(fields) < 2 {
		return fields
	}
	positions := make(map[string]int, len(fields))
	out := fields[:0:0]
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if pos, ok := positions[f.key]; ok {
			out[pos].value = f.value
			continue
		}
		positions[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
