// Package gemini calls the Gemini generateContent REST endpoint with an
// inline image part.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"menuscope/internal/services/llm"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
	defaultTimeout = 60 * time.Second
)

// Config captures the generateContent settings.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxOutputTokens int
	TimeoutSeconds  int
}

// Client wraps generateContent.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retrier    llm.Retrier
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetrier replaces the retry policy.
func WithRetrier(r llm.Retrier) Option {
	return func(c *Client) {
		c.retrier = r
	}
}

// NewClient constructs a Gemini client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg: Config{
			APIKey:          strings.TrimSpace(cfg.APIKey),
			BaseURL:         strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:           strings.TrimSpace(cfg.Model),
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
		httpClient: &http.Client{Timeout: timeout},
		retrier:    llm.DefaultRetrier(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg.BaseURL == "" {
		c.cfg.BaseURL = defaultBaseURL
	}
	if c.cfg.Model == "" {
		c.cfg.Model = defaultModel
	}
	if c.cfg.MaxOutputTokens <= 0 {
		c.cfg.MaxOutputTokens = 1024
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// DescribeImage sends prompt plus the image as inline data and returns the
// text of the first candidate.
func (c *Client) DescribeImage(ctx context.Context, prompt string, image []byte, mediaType string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("gemini describe: prompt required")
	}
	if len(image) == 0 {
		return "", errors.New("gemini describe: image required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("gemini describe: api key required")
	}
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	payload := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{MimeType: mediaType, Data: base64.StdEncoding.EncodeToString(image)}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:      0.2,
			MaxOutputTokens:  c.cfg.MaxOutputTokens,
			ResponseMimeType: "application/json",
		},
	}
	return c.retrier.Do(ctx, "gemini describe", func(ctx context.Context) (string, error) {
		return c.send(ctx, payload)
	})
}

func (c *Client) endpoint() string {
	return c.cfg.BaseURL + "/models/" + url.PathEscape(c.cfg.Model) + ":generateContent"
}

func (c *Client) send(ctx context.Context, payload generateRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("gemini request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini request: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", llm.NewStatusError("gemini", resp, body)
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("gemini request: decode response: %w", err)
	}
	if decoded.PromptFeedback != nil && decoded.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini request: prompt blocked: %s", decoded.PromptFeedback.BlockReason)
	}
	var finishReason string
	for _, candidate := range decoded.Candidates {
		if finishReason == "" {
			finishReason = candidate.FinishReason
		}
		var text strings.Builder
		for _, p := range candidate.Content.Parts {
			text.WriteString(p.Text)
		}
		if out := strings.TrimSpace(text.String()); out != "" {
			return out, nil
		}
	}
	return "", llm.NewEmptyContentError("gemini describe", finishReason, "", body)
}
