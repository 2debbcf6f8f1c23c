package estimators

import (
	"context"
	"net/http"
	"strings"

	"menuscope/internal/config"
	"menuscope/internal/nutrition"
	"menuscope/internal/services"
	"menuscope/internal/services/anthropic"
	"menuscope/internal/services/gemini"
	"menuscope/internal/services/llm"
)

// Describer is the provider surface a Vision estimator needs.
type Describer interface {
	DescribeImage(ctx context.Context, prompt string, image []byte, mediaType string) (string, error)
	Model() string
}

// Vision turns a multimodal model into a nutrition.Estimator.
type Vision struct {
	name   string
	client Describer
}

// NewVision wraps client under the given provider name.
func NewVision(name string, client Describer) *Vision {
	return &Vision{name: strings.TrimSpace(name), client: client}
}

// Name reports the provider name followed by the model, e.g. "openai/gpt-4o-mini".
func (v *Vision) Name() string {
	if v.client == nil {
		return v.name
	}
	model := strings.TrimSpace(v.client.Model())
	if model == "" {
		return v.name
	}
	return v.name + "/" + model
}

// Estimate asks the model about one dish and returns its validated answer.
func (v *Vision) Estimate(ctx context.Context, image []byte, description string) (nutrition.PartialResult, error) {
	if v.client == nil {
		return nutrition.PartialResult{}, services.Wrap(services.ErrConfiguration, "estimate", v.name, "client not configured", nil)
	}
	prompt, err := nutrition.Prompt(description)
	if err != nil {
		return nutrition.PartialResult{}, services.Wrap(services.ErrConfiguration, "estimate", v.name, "build prompt", err)
	}
	raw, err := v.client.DescribeImage(ctx, prompt, image, "image/jpeg")
	if err != nil {
		return nutrition.PartialResult{}, services.Wrap(services.ErrEstimator, "estimate", v.name, "provider call failed", err)
	}
	result, err := nutrition.ParseResponse([]byte(llm.SanitizeJSON(raw)))
	if err != nil {
		return nutrition.PartialResult{}, services.Wrap(services.ErrEstimator, "estimate", v.name, "unusable answer", err)
	}
	return result, nil
}

// FromConfig builds the enabled estimators in configured order. A provider
// without credentials is a configuration error. httpClient may be nil.
func FromConfig(cfg *config.Config, httpClient *http.Client) ([]nutrition.Estimator, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "estimate", "build estimators", "config is nil", nil)
	}
	out := make([]nutrition.Estimator, 0, len(cfg.Estimators.Enabled))
	for _, name := range cfg.Estimators.Enabled {
		if err := cfg.ProviderReady(name); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "estimate", name, "", err)
		}
		client, err := newDescriber(cfg, name, httpClient)
		if err != nil {
			return nil, err
		}
		out = append(out, NewVision(name, client))
	}
	if len(out) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "estimate", "build estimators", "no estimators enabled", nil)
	}
	return out, nil
}

func newDescriber(cfg *config.Config, name string, httpClient *http.Client) (Describer, error) {
	switch name {
	case config.ProviderOpenAI:
		return llm.NewClient(llm.Config{
			APIKey:         cfg.OpenAI.APIKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			Model:          cfg.OpenAI.Model,
			Referer:        cfg.OpenAI.Referer,
			Title:          cfg.OpenAI.Title,
			MaxTokens:      cfg.OpenAI.MaxTokens,
			TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
		}, llm.WithHTTPClient(httpClient)), nil
	case config.ProviderAnthropic:
		return anthropic.NewClient(anthropic.Config{
			APIKey:         cfg.Anthropic.APIKey,
			BaseURL:        cfg.Anthropic.BaseURL,
			Model:          cfg.Anthropic.Model,
			Version:        cfg.Anthropic.Version,
			MaxTokens:      cfg.Anthropic.MaxTokens,
			TimeoutSeconds: cfg.Anthropic.TimeoutSeconds,
		}, anthropic.WithHTTPClient(httpClient)), nil
	case config.ProviderGemini:
		return gemini.NewClient(gemini.Config{
			APIKey:          cfg.Gemini.APIKey,
			BaseURL:         cfg.Gemini.BaseURL,
			Model:           cfg.Gemini.Model,
			MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
			TimeoutSeconds:  cfg.Gemini.TimeoutSeconds,
		}, gemini.WithHTTPClient(httpClient)), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "estimate", name, "unknown provider", nil)
	}
}
