package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFetch()
	c.normalizeEstimators()
	c.normalizeOpenAI()
	c.normalizeAnthropic()
	c.normalizeGemini()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.names_file", &c.Paths.NamesFile, defaultNamesFile},
		{"paths.html_dir", &c.Paths.HTMLDir, defaultHTMLDir},
		{"paths.json_dir", &c.Paths.JSONDir, defaultJSONDir},
		{"paths.csv_dir", &c.Paths.CSVDir, defaultCSVDir},
		{"paths.nutrition_dir", &c.Paths.NutritionDir, defaultNutritionDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.sqlite_path", &c.Paths.SQLitePath, ""},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeFetch() {
	c.Fetch.URLTemplate = strings.TrimSpace(c.Fetch.URLTemplate)
	if c.Fetch.URLTemplate == "" {
		c.Fetch.URLTemplate = defaultURLTemplate
	}
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeEstimators() {
	enabled := make([]string, 0, len(c.Estimators.Enabled))
	seen := make(map[string]struct{}, len(c.Estimators.Enabled))
	for _, name := range c.Estimators.Enabled {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		enabled = append(enabled, normalized)
	}
	c.Estimators.Enabled = enabled
	if c.Estimators.TimeoutSeconds < 0 {
		c.Estimators.TimeoutSeconds = 0
	}
	if c.Estimators.Concurrency < 0 {
		c.Estimators.Concurrency = 0
	}
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	c.OpenAI.BaseURL = strings.TrimSpace(c.OpenAI.BaseURL)
	c.OpenAI.Model = strings.TrimSpace(c.OpenAI.Model)
	if c.OpenAI.APIKey == "" {
		if value, ok := lookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = value
		} else if value, ok := lookupEnv("OPENROUTER_API_KEY"); ok {
			c.OpenAI.APIKey = value
			// An OpenRouter key is useless against the OpenAI endpoint.
			if c.OpenAI.BaseURL == "" || c.OpenAI.BaseURL == defaultOpenAIBaseURL {
				c.OpenAI.BaseURL = defaultOpenRouterBaseURL
				if c.OpenAI.Model == "" || c.OpenAI.Model == defaultOpenAIModel {
					c.OpenAI.Model = "openai/" + defaultOpenAIModel
				}
			}
		}
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultOpenAIModel
	}
	if c.OpenAI.MaxTokens <= 0 {
		c.OpenAI.MaxTokens = defaultOpenAIMaxTokens
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaultProviderTimeout
	}
}

func (c *Config) normalizeAnthropic() {
	c.Anthropic.APIKey = strings.TrimSpace(c.Anthropic.APIKey)
	if c.Anthropic.APIKey == "" {
		if value, ok := lookupEnv("ANTHROPIC_API_KEY"); ok {
			c.Anthropic.APIKey = value
		}
	}
	c.Anthropic.BaseURL = strings.TrimSpace(c.Anthropic.BaseURL)
	if c.Anthropic.BaseURL == "" {
		c.Anthropic.BaseURL = defaultAnthropicBaseURL
	}
	c.Anthropic.Model = strings.TrimSpace(c.Anthropic.Model)
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = defaultAnthropicModel
	}
	c.Anthropic.Version = strings.TrimSpace(c.Anthropic.Version)
	if c.Anthropic.Version == "" {
		c.Anthropic.Version = defaultAnthropicVersion
	}
	if c.Anthropic.MaxTokens <= 0 {
		c.Anthropic.MaxTokens = defaultAnthropicTokens
	}
	if c.Anthropic.TimeoutSeconds <= 0 {
		c.Anthropic.TimeoutSeconds = defaultProviderTimeout
	}
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if value, ok := lookupEnv("GEMINI_API_KEY"); ok {
			c.Gemini.APIKey = value
		} else if value, ok := lookupEnv("GOOGLE_API_KEY"); ok {
			c.Gemini.APIKey = value
		}
	}
	c.Gemini.BaseURL = strings.TrimSpace(c.Gemini.BaseURL)
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
	if c.Gemini.MaxOutputTokens <= 0 {
		c.Gemini.MaxOutputTokens = defaultGeminiTokens
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultProviderTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console", "text":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}

// lookupEnv returns a trimmed, non-empty environment value.
func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
