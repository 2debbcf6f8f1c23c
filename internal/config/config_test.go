package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"menuscope/internal/config"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENROUTER_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultsExpandPathsAgainstWorkingDir(t *testing.T) {
	clearProviderEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	work := t.TempDir()
	t.Chdir(work)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}
	if resolved != filepath.Join(tempHome, ".config", "menuscope", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Paths.HTMLDir != filepath.Join(work, "htmls") {
		t.Fatalf("unexpected html dir %q", cfg.Paths.HTMLDir)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "menuscope", "logs") {
		t.Fatalf("unexpected log dir %q", cfg.Paths.LogDir)
	}
	if cfg.Paths.SQLitePath != "" {
		t.Fatalf("expected sqlite disabled by default, got %q", cfg.Paths.SQLitePath)
	}
	if !reflect.DeepEqual(cfg.Estimators.Enabled, []string{"anthropic", "openai"}) {
		t.Fatalf("unexpected default estimators %v", cfg.Estimators.Enabled)
	}
	if cfg.Image.MaxWidth != 800 || cfg.Image.Quality != 85 {
		t.Fatalf("unexpected image defaults %+v", cfg.Image)
	}
	if err := cfg.ProviderReady(config.ProviderAnthropic); err == nil {
		t.Fatal("expected missing anthropic key to be reported")
	}
}

func TestLoadEnvFallbacks(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", " router-key ")
	t.Setenv("ANTHROPIC_API_KEY", "claude-key")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.OpenAI.APIKey != "router-key" {
		t.Fatalf("unexpected openai key %q", cfg.OpenAI.APIKey)
	}
	if !strings.Contains(cfg.OpenAI.BaseURL, "openrouter.ai") || cfg.OpenAI.Model != "openai/gpt-4o-mini" {
		t.Fatalf("expected openrouter endpoint for router key, got %q %q", cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	}
	if cfg.Anthropic.APIKey != "claude-key" || cfg.Gemini.APIKey != "google-key" {
		t.Fatalf("unexpected provider keys %q %q", cfg.Anthropic.APIKey, cfg.Gemini.APIKey)
	}
	for _, name := range []string{config.ProviderOpenAI, config.ProviderAnthropic, config.ProviderGemini} {
		if err := cfg.ProviderReady(name); err != nil {
			t.Fatalf("ProviderReady(%s): %v", name, err)
		}
	}
}

func TestLoadReadsDotEnvWithoutOverriding(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("HOME", t.TempDir())
	work := t.TempDir()
	t.Chdir(work)
	t.Setenv("ANTHROPIC_API_KEY", "from-shell")
	env := "ANTHROPIC_API_KEY=from-dotenv\nGEMINI_API_KEY=gemini-dotenv\n"
	if err := os.WriteFile(filepath.Join(work, ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("GEMINI_API_KEY") })

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Anthropic.APIKey != "from-shell" {
		t.Fatalf("expected shell value to win, got %q", cfg.Anthropic.APIKey)
	}
	if cfg.Gemini.APIKey != "gemini-dotenv" {
		t.Fatalf("expected .env value, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoadProjectFileAndNormalization(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("HOME", t.TempDir())
	work := t.TempDir()
	t.Chdir(work)

	contents := `
[paths]
html_dir = "pages"
sqlite_path = "out/menus.db"

[estimators]
enabled = [" OpenAI ", "gemini", "openai", ""]
timeout_seconds = -5

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(filepath.Join(work, "menuscope.toml"), []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != filepath.Join(work, "menuscope.toml") {
		t.Fatalf("expected project config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.HTMLDir != filepath.Join(work, "pages") {
		t.Fatalf("unexpected html dir %q", cfg.Paths.HTMLDir)
	}
	if cfg.Paths.SQLitePath != filepath.Join(work, "out", "menus.db") {
		t.Fatalf("unexpected sqlite path %q", cfg.Paths.SQLitePath)
	}
	if !reflect.DeepEqual(cfg.Estimators.Enabled, []string{"openai", "gemini"}) {
		t.Fatalf("unexpected estimators %v", cfg.Estimators.Enabled)
	}
	if cfg.Estimators.TimeoutSeconds != 0 {
		t.Fatalf("expected negative timeout clamped to 0, got %d", cfg.Estimators.TimeoutSeconds)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging %+v", cfg.Logging)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*config.Config){
		"unknown provider":  func(c *config.Config) { c.Estimators.Enabled = []string{"llama"} },
		"template":          func(c *config.Config) { c.Fetch.URLTemplate = "https://example.com/menu" },
		"quality":           func(c *config.Config) { c.Image.Quality = 101 },
		"workers":           func(c *config.Config) { c.Extract.Workers = 0 },
		"log level":         func(c *config.Config) { c.Logging.Level = "chatty" },
		"relative template": func(c *config.Config) { c.Fetch.URLTemplate = "/{restaurant-name}" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	var parsed config.Config
	if err := toml.Unmarshal([]byte(config.SampleConfig()), &parsed); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected sample to be loaded from %q, got %q", path, resolved)
	}
	if cfg.Fetch.Concurrency != 4 || cfg.Estimators.TimeoutSeconds != 90 {
		t.Fatalf("unexpected sample values %+v %+v", cfg.Fetch, cfg.Estimators)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.HTMLDir = filepath.Join(base, "h")
	cfg.Paths.JSONDir = filepath.Join(base, "j")
	cfg.Paths.CSVDir = filepath.Join(base, "c")
	cfg.Paths.NutritionDir = filepath.Join(base, "n")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Logging.File = true
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{"h", "j", "c", "n", "logs"} {
		if info, err := os.Stat(filepath.Join(base, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
