package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"menuscope/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Console receives human-facing output. Defaults to stderr so stdout stays
	// free for command results.
	Console io.Writer
	// FilePath enables a rotated JSON log file when non-empty. The file
	// records debug detail whatever Level says.
	FilePath    string
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
	Development bool
}

// New constructs a slog logger using the provided options. The returned closer
// releases the log file, if any, and is always non-nil.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, nopCloser{}, err
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	addSource := opts.Development || level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = newJSONHandler(console, levelVar, addSource)
	case "console":
		handler = newConsoleHandler(console, levelVar, addSource)
	default:
		return nil, nopCloser{}, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	path := strings.TrimSpace(opts.FilePath)
	if path == "" {
		return slog.New(handler), nopCloser{}, nil
	}

	if err := ensureLogDir(path); err != nil {
		return nil, nopCloser{}, fmt.Errorf("ensure log directory: %w", err)
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}
	return slog.New(newTeeHandler(handler, newJSONHandler(file, slog.LevelDebug, true))), file, nil
}

// NewFromConfig creates a logger using application config defaults. console
// may be nil, in which case stderr is used.
func NewFromConfig(cfg *config.Config, console io.Writer) (*slog.Logger, io.Closer, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", Console: console})
	}

	opts := Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: console,
	}
	if cfg.Logging.File {
		opts.FilePath = cfg.LogFilePath()
		opts.MaxSizeMB = cfg.Logging.MaxSizeMB
		opts.MaxBackups = cfg.Logging.MaxBackups
		opts.MaxAgeDays = cfg.Logging.MaxAgeDays
	}
	return New(opts)
}

var errUnknownLevel = errors.New("unknown log level")

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w %q", errUnknownLevel, level)
	}
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
