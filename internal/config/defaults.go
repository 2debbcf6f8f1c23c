package config

const (
	defaultConfigPath        = "~/.config/menuscope/config.toml"
	defaultNamesFile         = "restaurant_names.txt"
	defaultHTMLDir           = "htmls"
	defaultJSONDir           = "jsons"
	defaultCSVDir            = "csvs"
	defaultNutritionDir      = "nutrition"
	defaultLogDir            = "~/.local/share/menuscope/logs"
	defaultURLTemplate       = "https://www.zomato.com/bangalore/{restaurant-name}/order"
	defaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultFetchTimeout      = 30
	defaultFetchConcurrency  = 4
	defaultExtractWorkers    = 4
	defaultImageMaxWidth     = 800
	defaultImageMaxHeight    = 800
	defaultImageQuality      = 85
	defaultImageTimeout      = 30
	defaultEstimatorTimeout  = 90
	defaultOpenAIBaseURL     = "https://api.openai.com/v1/chat/completions"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenAIModel       = "gpt-4o-mini"
	defaultOpenAIMaxTokens   = 500
	defaultAnthropicBaseURL  = "https://api.anthropic.com/v1/messages"
	defaultAnthropicModel    = "claude-3-5-sonnet-20241022"
	defaultAnthropicVersion  = "2023-06-01"
	defaultAnthropicTokens   = 1000
	defaultGeminiBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel       = "gemini-1.5-flash"
	defaultGeminiTokens      = 1024
	defaultProviderTimeout   = 60
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogMaxSizeMB      = 10
	defaultLogMaxBackups     = 5
	defaultLogMaxAgeDays     = 30
)

// Provider names accepted in estimators.enabled.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			NamesFile:    defaultNamesFile,
			HTMLDir:      defaultHTMLDir,
			JSONDir:      defaultJSONDir,
			CSVDir:       defaultCSVDir,
			NutritionDir: defaultNutritionDir,
			LogDir:       defaultLogDir,
		},
		Fetch: Fetch{
			URLTemplate:    defaultURLTemplate,
			UserAgent:      defaultUserAgent,
			TimeoutSeconds: defaultFetchTimeout,
			Concurrency:    defaultFetchConcurrency,
		},
		Extract: Extract{
			Workers: defaultExtractWorkers,
		},
		Image: Image{
			MaxWidth:       defaultImageMaxWidth,
			MaxHeight:      defaultImageMaxHeight,
			Quality:        defaultImageQuality,
			TimeoutSeconds: defaultImageTimeout,
		},
		Estimators: Estimators{
			Enabled:        []string{ProviderAnthropic, ProviderOpenAI},
			TimeoutSeconds: defaultEstimatorTimeout,
		},
		OpenAI: OpenAI{
			BaseURL:        defaultOpenAIBaseURL,
			Model:          defaultOpenAIModel,
			MaxTokens:      defaultOpenAIMaxTokens,
			TimeoutSeconds: defaultProviderTimeout,
		},
		Anthropic: Anthropic{
			BaseURL:        defaultAnthropicBaseURL,
			Model:          defaultAnthropicModel,
			Version:        defaultAnthropicVersion,
			MaxTokens:      defaultAnthropicTokens,
			TimeoutSeconds: defaultProviderTimeout,
		},
		Gemini: Gemini{
			BaseURL:         defaultGeminiBaseURL,
			Model:           defaultGeminiModel,
			MaxOutputTokens: defaultGeminiTokens,
			TimeoutSeconds:  defaultProviderTimeout,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
