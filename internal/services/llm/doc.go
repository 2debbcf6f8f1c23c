// Package llm provides an OpenAI-compatible chat client used to estimate dish
// nutrition from a photo, plus the retry and payload helpers shared by the
// other vision providers.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.DescribeImage: send a prompt and an image, receive the model's JSON text.
// Retrier.Do: retry a provider call with exponential backoff.
// SanitizeJSON / DecodeLLMJSON: recover JSON from fenced or chatty answers.
//
// # Retry Behaviour
//
// Calls are retried on HTTP 408/429/5xx errors, empty answers and network
// timeouts with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default). Retry-After is honoured. Context cancellation aborts retries
// immediately.
package llm
