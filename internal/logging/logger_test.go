package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"menuscope/internal/config"
	"menuscope/internal/logging"
	"menuscope/internal/services"
)

func TestNewFromConfigWritesRotatedFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.File = true
	cfg.Logging.Level = "debug"

	logger, closer, err := logging.NewFromConfig(&cfg, io.Discard)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("file message", logging.String("restaurant", "protein-chef"))
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	content, err := os.ReadFile(cfg.LogFilePath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &entry); err != nil {
		t.Fatalf("log file is not JSON lines: %v (%q)", err, content)
	}
	if entry["msg"] != "file message" || entry["level"] != "info" || entry["restaurant"] != "protein-chef" {
		t.Fatalf("unexpected entry %#v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %#v", entry)
	}
}

func TestNewFromConfigWithoutFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "unused")
	cfg.Logging.File = false

	_, closer, err := logging.NewFromConfig(&cfg, io.Discard)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.LogDir); !os.IsNotExist(err) {
		t.Fatalf("expected no log directory, stat err = %v", err)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "console", Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerLayout(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithSubject(services.WithRunID(context.Background(), "run-1"), "protein-chef")
	ctx = services.WithStage(ctx, "flatten")
	component := logging.NewComponentLogger(logger, "harvest")
	logging.WithContext(ctx, component).Warn("schema violation",
		logging.String(logging.FieldEventType, "schema_violation"),
		logging.Int("records", 3),
		logging.Bool("skipped", true),
		logging.Duration("elapsed", 1500*time.Millisecond),
		logging.String("html_path", "/tmp/page.html"),
	)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.Contains(lines[0], "WARN [harvest] protein-chef (flatten) – schema violation") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	want := []string{
		"    - Event: schema_violation",
		"    - Items: 3",
		"    - Skipped: yes",
		"    - Elapsed: 1.5s",
		"    + 2 more fields hidden",
	}
	if len(lines) != len(want)+1 {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want)+1, len(lines), buf.String())
	}
	for i, line := range want {
		if lines[i+1] != line {
			t.Errorf("line %d = %q, want %q", i+1, lines[i+1], line)
		}
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("json message", logging.String("k", "v"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["level"] != "debug" || entry["k"] != "v" {
		t.Fatalf("unexpected entry %#v", entry)
	}
	if src, _ := entry["source"].(string); !strings.Contains(src, "logger_test.go:") {
		t.Fatalf("expected short source, got %#v", entry["source"])
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	tests := []struct {
		name string
		opts logging.Options
	}{
		{name: "level", opts: logging.Options{Level: "verbose"}},
		{name: "format", opts: logging.Options{Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := logging.New(tt.opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		debug   bool
		warning bool
	}{
		{level: "debug", debug: true, warning: true},
		{level: "", debug: false, warning: true},
		{level: "WARNING", debug: false, warning: true},
		{level: "error", debug: false, warning: false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, _, err := logging.New(logging.Options{Level: tt.level, Console: &bytes.Buffer{}})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			ctx := context.Background()
			if got := logger.Enabled(ctx, -4); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
			if got := logger.Enabled(ctx, 4); got != tt.warning {
				t.Errorf("warn enabled = %v, want %v", got, tt.warning)
			}
		})
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-xyz")
	ctx = services.WithStage(ctx, "extract")
	ctx = services.WithSubject(ctx, "protein-chef")

	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WithContext(ctx, logger).Info("contextual log")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for key, want := range map[string]string{
		logging.FieldCorrelationID: "run-xyz",
		logging.FieldStage:         "extract",
		logging.FieldSubject:       "protein-chef",
	} {
		if entry[key] != want {
			t.Errorf("field %s = %v, want %q", key, entry[key], want)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "skipped page", "payload_missing", logging.String(logging.FieldImpact, "no CSV written"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[logging.FieldEventType] != "payload_missing" {
		t.Fatalf("event_type = %v", entry[logging.FieldEventType])
	}
	if entry[logging.FieldImpact] != "no CSV written" {
		t.Fatalf("impact = %v", entry[logging.FieldImpact])
	}
	if entry[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
}
