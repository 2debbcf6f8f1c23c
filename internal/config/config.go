package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the working directories of a harvest run.
type Paths struct {
	NamesFile    string `toml:"names_file"`
	HTMLDir      string `toml:"html_dir"`
	JSONDir      string `toml:"json_dir"`
	CSVDir       string `toml:"csv_dir"`
	NutritionDir string `toml:"nutrition_dir"`
	LogDir       string `toml:"log_dir"`
	// SQLitePath, when set, receives a database copy of every run's output.
	SQLitePath string `toml:"sqlite_path"`
}

// Fetch contains configuration for downloading restaurant order pages.
type Fetch struct {
	URLTemplate    string `toml:"url_template"`
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Concurrency    int    `toml:"concurrency"`
}

// Extract contains configuration for the extract/flatten batch.
type Extract struct {
	Workers int `toml:"workers"`
}

// Image contains configuration for photo normalization before estimation.
type Image struct {
	MaxWidth       int `toml:"max_width"`
	MaxHeight      int `toml:"max_height"`
	Quality        int `toml:"quality"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Estimators selects which providers answer nutrition queries.
type Estimators struct {
	// Enabled lists provider names in the order their results are reported.
	Enabled []string `toml:"enabled"`
	// TimeoutSeconds bounds each provider call; 0 disables the bound.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// Concurrency caps in-flight provider calls per dish; 0 runs all at once.
	Concurrency int `toml:"concurrency"`
}

// OpenAI contains settings for any OpenAI-compatible chat completion endpoint.
type OpenAI struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	MaxTokens      int    `toml:"max_tokens"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Anthropic contains settings for the Messages API.
type Anthropic struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Version        string `toml:"version"`
	MaxTokens      int    `toml:"max_tokens"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Gemini contains settings for generateContent.
type Gemini struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	Model           string `toml:"model"`
	MaxOutputTokens int    `toml:"max_output_tokens"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	File       bool   `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for menuscope.
//
// Configuration sections by subsystem:
//   - Paths: names file, per-stage output directories, optional SQLite copy
//   - Fetch: page download template, user agent and concurrency
//   - Extract: worker count for the extract/flatten batch
//   - Image: photo bound and JPEG quality
//   - Estimators: enabled providers, per-call timeout and concurrency
//   - OpenAI / Anthropic / Gemini: provider credentials and models
//   - Logging: log format, level, and rotated log file
type Config struct {
	Paths      Paths      `toml:"paths"`
	Fetch      Fetch      `toml:"fetch"`
	Extract    Extract    `toml:"extract"`
	Image      Image      `toml:"image"`
	Estimators Estimators `toml:"estimators"`
	OpenAI     OpenAI     `toml:"openai"`
	Anthropic  Anthropic  `toml:"anthropic"`
	Gemini     Gemini     `toml:"gemini"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads ./.env into the process environment without overriding
// variables that are already set.
func loadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat .env: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("menuscope.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output directories a harvest run writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.HTMLDir, c.Paths.JSONDir, c.Paths.CSVDir, c.Paths.NutritionDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Logging.File {
		if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
			return fmt.Errorf("create log directory %q: %w", c.Paths.LogDir, err)
		}
	}
	return nil
}

// LogFilePath returns the rotated log file location.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "menuscope.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}
