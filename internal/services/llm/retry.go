package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 5
)

// Retrier repeats a provider call on throttling, server errors, empty
// answers and network timeouts with exponential backoff. It is shared by
// every vision provider client.
type Retrier struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Sleeper     func(time.Duration)
}

// DefaultRetrier returns the backoff used when a client is not tuned: base
// 1s doubling to 10s, five attempts.
func DefaultRetrier() Retrier {
	return Retrier{
		MaxAttempts: defaultRetryAttempts,
		BaseDelay:   defaultRetryBaseDelay,
		MaxDelay:    defaultRetryMaxDelay,
	}
}

// StatusError reports a non-2xx provider response.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request: http %d: %s", e.Provider, e.StatusCode, summarizePayloadSnippet(e.Body))
}

// NewStatusError captures resp as a StatusError, honouring Retry-After.
func NewStatusError(provider string, resp *http.Response, body []byte) *StatusError {
	retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
	return &StatusError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
		RetryAfter: retryAfter,
	}
}

// EmptyContentError reports a successful response that carried no text.
type EmptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf(
		"%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op,
		e.FinishReason,
		e.Refusal,
		e.Snippet,
	)
}

// NewEmptyContentError builds an EmptyContentError with a trimmed snippet of
// the raw response body.
func NewEmptyContentError(op, finishReason, refusal string, body []byte) *EmptyContentError {
	return &EmptyContentError{
		Op:           op,
		FinishReason: finishReason,
		Refusal:      refusal,
		Snippet:      summarizePayloadSnippet(string(body)),
	}
}

// Do runs call until it succeeds, returns a non-retryable error, or the
// attempt budget is spent.
func (r Retrier) Do(ctx context.Context, op string, call func(context.Context) (string, error)) (string, error) {
	attempts := r.attempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := call(ctx)
		if err == nil {
			return content, nil
		}

		delay, retry := r.delay(ctx, err, attempt)
		if !retry {
			return "", err
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if err := r.sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (r Retrier) attempts() int {
	if r.MaxAttempts <= 0 {
		return 1
	}
	return r.MaxAttempts
}

// delay reports whether err is worth another attempt and how long to wait
// before it. The attempt budget is enforced by Do.
func (r Retrier) delay(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if err == nil || ctx == nil {
		return 0, false
	}
	if ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var emptyErr *EmptyContentError
	if errors.As(err, &emptyErr) {
		return r.backoff(attempt), true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return r.capDelay(statusErr.RetryAfter), true
			}
			return r.backoff(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return r.backoff(attempt), true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return r.backoff(attempt), true
	}

	return 0, false
}

func (r Retrier) backoff(attempt int) time.Duration {
	base := r.BaseDelay
	if base < 0 {
		base = defaultRetryBaseDelay
	}
	if base == 0 {
		return 0
	}
	maxDelay := r.maxDelay()
	if attempt <= 0 {
		attempt = 1
	}

	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return r.capDelay(delay)
}

func (r Retrier) maxDelay() time.Duration {
	if r.MaxDelay > 0 {
		return r.MaxDelay
	}
	return defaultRetryMaxDelay
}

func (r Retrier) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if maxDelay := r.maxDelay(); delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (r Retrier) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if r.Sleeper != nil {
		r.Sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
