package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Provider credentials are
// checked separately by ProviderReady because most commands never call a
// provider.
func (c *Config) Validate() error {
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateImage(); err != nil {
		return err
	}
	if err := c.validateEstimators(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"extract.workers":          c.Extract.Workers,
		"fetch.timeout_seconds":    c.Fetch.TimeoutSeconds,
		"fetch.concurrency":        c.Fetch.Concurrency,
		"image.timeout_seconds":    c.Image.TimeoutSeconds,
		"openai.max_tokens":        c.OpenAI.MaxTokens,
		"anthropic.max_tokens":     c.Anthropic.MaxTokens,
		"gemini.max_output_tokens": c.Gemini.MaxOutputTokens,
		"logging.max_size_mb":      c.Logging.MaxSizeMB,
	})
}

func (c *Config) validateFetch() error {
	if !strings.Contains(c.Fetch.URLTemplate, "{restaurant-name}") {
		return errors.New("fetch.url_template must contain the {restaurant-name} placeholder")
	}
	if !strings.HasPrefix(c.Fetch.URLTemplate, "http://") && !strings.HasPrefix(c.Fetch.URLTemplate, "https://") {
		return errors.New("fetch.url_template must be an http(s) URL")
	}
	return nil
}

func (c *Config) validateImage() error {
	if c.Image.MaxWidth <= 0 || c.Image.MaxHeight <= 0 {
		return errors.New("image.max_width and image.max_height must be positive")
	}
	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		return errors.New("image.quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateEstimators() error {
	for _, name := range c.Estimators.Enabled {
		switch name {
		case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		default:
			return fmt.Errorf("estimators.enabled: unknown provider %q (want %s, %s or %s)",
				name, ProviderAnthropic, ProviderOpenAI, ProviderGemini)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

// ProviderReady reports whether the named provider has the credentials it
// needs.
func (c *Config) ProviderReady(name string) error {
	var key, env string
	switch name {
	case ProviderOpenAI:
		key, env = c.OpenAI.APIKey, "OPENAI_API_KEY or OPENROUTER_API_KEY"
	case ProviderAnthropic:
		key, env = c.Anthropic.APIKey, "ANTHROPIC_API_KEY"
	case ProviderGemini:
		key, env = c.Gemini.APIKey, "GEMINI_API_KEY or GOOGLE_API_KEY"
	default:
		return fmt.Errorf("unknown provider %q", name)
	}
	if key != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("%s.api_key is required. Set %s or edit %s (create with 'menuscope config init')", name, env, defaultPath)
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
