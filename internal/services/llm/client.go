package llm

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
)

const (
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 60 * time.Second
	defaultBaseURL     = "https://api.openai.com/v1/chat/completions"
	defaultModel       = "gpt-4o-mini"
	defaultMaxTokens   = 500
)

// Config captures the runtime settings required to talk to an
// OpenAI-compatible chat completion endpoint (OpenAI, OpenRouter, ...).
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	MaxTokens      int
	TimeoutSeconds int
}

// Client wraps the chat completion API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retrier    Retrier
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
func WithRetrier(r Retrier) Option {
	return func(c *Client) {
		c.retrier = r
	}
}

// NewClient constructs an LLM client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			MaxTokens:      cfg.MaxTokens,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		retrier:    DefaultRetrier(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	if client.cfg.MaxTokens <= 0 {
		client.cfg.MaxTokens = defaultMaxTokens
	}
	return client
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// DescribeImage sends prompt together with a JPEG or PNG image and returns
// the raw text the model produced. The model is asked for a JSON object.
func (c *Client) DescribeImage(ctx context.Context, prompt string, image []byte, mediaType string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("llm describe: prompt required")
	}
	if len(image) == 0 {
		return "", errors.New("llm describe: image required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("llm describe: api key required")
	}
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	dataURL := "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(image)
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a nutritionist. You must respond with JSON only."},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			}},
		},
		Temperature:    0,
		MaxTokens:      c.cfg.MaxTokens,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	return c.retrier.Do(ctx, "llm describe", func(ctx context.Context) (string, error) {
		return c.completionContent(ctx, payload, "llm describe")
	})
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

// chatMessage content is either a plain string or a list of contentPart.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []completionChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type completionChoice struct {
	Message completionMessage `json:"message"`
	// Some OpenAI-compatible routers answer with the streaming shape even
	// when stream=false.
	Delta        completionMessage `json:"delta"`
	Text         string            `json:"text"`
	FinishReason string            `json:"finish_reason"`
}

type completionMessage struct {
	Content   string `json:"content"`
	Refusal   string `json:"refusal"`
	ToolCalls []struct {
		Function struct {
			Arguments string `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}

// answer returns the first non-empty text of the message: its content, or the
// arguments of a tool call when the model chose to answer through one.
func (m completionMessage) answer() string {
	if content := strings.TrimSpace(m.Content); content != "" {
		return content
	}
	for _, call := range m.ToolCalls {
		if args := strings.TrimSpace(call.Function.Arguments); args != "" {
			return args
		}
	}
	return ""
}

func (c *Client) completionContent(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	completion, body, err := c.sendChatRequestOnce(ctx, payload)
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices", op)
	}
	var finishReason, refusal string
	for _, choice := range completion.Choices {
		for _, text := range []string{choice.Message.answer(), choice.Delta.answer(), strings.TrimSpace(choice.Text)} {
			if text != "" {
				return text, nil
			}
		}
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if refusal == "" {
			refusal = strings.TrimSpace(choice.Message.Refusal + choice.Delta.Refusal)
		}
	}
	return "", NewEmptyContentError(op, finishReason, refusal, body)
}

func (c *Client) sendChatRequestOnce(ctx context.Context, payload chatCompletionRequest) (chatCompletionResponse, []byte, error) {
	var completion chatCompletionResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return completion, nil, fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return completion, nil, fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion, nil, fmt.Errorf("llm request: http error (timeout=%s): %w", c.timeoutDuration(), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion, nil, fmt.Errorf("llm request: read body (timeout=%s): %w", c.timeoutDuration(), err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return completion, body, NewStatusError("llm", resp, body)
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, body, fmt.Errorf("llm request: decode response: %w", err)
	}
	if completion.Error != nil {
		return completion, body, fmt.Errorf("llm request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	return completion, body, nil
}

func (c *Client) timeoutDuration() time.Duration {
	if c == nil || c.httpClient == nil || c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}
