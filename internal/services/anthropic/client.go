// Package anthropic calls the Anthropic Messages API with an image and a
// prompt and returns the model's text answer.
package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"menuscope/internal/services/llm"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1/messages"
	defaultModel     = "claude-3-5-sonnet-20241022"
	defaultVersion   = "2023-06-01"
	defaultMaxTokens = 1000
	defaultTimeout   = 60 * time.Second
)

// Config captures the Messages API settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Version        string
	MaxTokens      int
	TimeoutSeconds int
}

// Client wraps the Messages API.
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

// NewClient constructs a Messages API client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg: Config{
			APIKey:    strings.TrimSpace(cfg.APIKey),
			BaseURL:   strings.TrimSpace(cfg.BaseURL),
			Model:     strings.TrimSpace(cfg.Model),
			Version:   strings.TrimSpace(cfg.Version),
			MaxTokens: cfg.MaxTokens,
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
	if c.cfg.Version == "" {
		c.cfg.Version = defaultVersion
	}
	if c.cfg.MaxTokens <= 0 {
		c.cfg.MaxTokens = defaultMaxTokens
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// DescribeImage sends the image (base64 block) followed by the prompt and
// returns the concatenated text blocks of the answer.
func (c *Client) DescribeImage(ctx context.Context, prompt string, image []byte, mediaType string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("anthropic describe: prompt required")
	}
	if len(image) == 0 {
		return "", errors.New("anthropic describe: image required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("anthropic describe: api key required")
	}
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	payload := messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    "You are a nutritionist. You must respond with JSON only.",
		Messages: []message{{
			Role: "user",
			Content: []contentBlock{
				{Type: "image", Source: &imageSource{
					Type:      "base64",
					MediaType: mediaType,
					Data:      base64.StdEncoding.EncodeToString(image),
				}},
				{Type: "text", Text: prompt},
			},
		}},
	}
	return c.retrier.Do(ctx, "anthropic describe", func(ctx context.Context) (string, error) {
		return c.send(ctx, payload)
	})
}

func (c *Client) send(ctx context.Context, payload messagesRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("anthropic request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("anthropic request: new request: %w", err)
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", c.cfg.Version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("anthropic request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", llm.NewStatusError("anthropic", resp, body)
	}

	var decoded messagesResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("anthropic request: decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("anthropic request: api error %s: %s", decoded.Error.Type, decoded.Error.Message)
	}
	var text strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(text.String())
	if content == "" {
		return "", llm.NewEmptyContentError("anthropic describe", decoded.StopReason, "", body)
	}
	return content, nil
}
