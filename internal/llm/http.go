package llm

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"

	"github.com/vk/promptgridgo/internal/config"
	"github.com/vk/promptgridgo/internal/ctxlog"
)

// Options configures the HTTP generation client.
type Options struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

// DefaultOptions returns the client defaults: Groq's OpenAI-compatible
// endpoint, a two-minute request timeout and three retries with exponential
// backoff between 1s and 8s.
func DefaultOptions() Options {
	return Options{
		BaseURL:      "https://api.groq.com/openai/v1",
		Timeout:      2 * time.Minute,
		RetryCount:   3,
		RetryWait:    1 * time.Second,
		RetryMaxWait: 8 * time.Second,
	}
}

// HTTPClient talks to an OpenAI-compatible chat completions endpoint.
// Bounded retry with exponential backoff is delegated to the underlying
// resty client, which retries on transport errors, 429 and 5xx responses.
type HTTPClient struct {
	rc *resty.Client
}

// NewHTTPClient builds a client from the given options. Zero-valued fields
// fall back to DefaultOptions.
func NewHTTPClient(opts Options) *HTTPClient {
	defaults := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = defaults.BaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.RetryCount == 0 {
		opts.RetryCount = defaults.RetryCount
	}
	if opts.RetryWait == 0 {
		opts.RetryWait = defaults.RetryWait
	}
	if opts.RetryMaxWait == 0 {
		opts.RetryMaxWait = defaults.RetryMaxWait
	}

	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryMaxWait).
		SetHeader("Content-Type", "application/json")
	if opts.APIKey != "" {
		rc.SetAuthToken(opts.APIKey)
	}

	return &HTTPClient{rc: rc}
}

// Close releases the underlying transport resources.
func (c *HTTPClient) Close() error {
	return c.rc.Close()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate sends one chat completion request and returns the model's text
// verbatim. Retries are exhausted inside this call; the returned error is
// distinguishable via ErrExhausted.
func (c *HTTPClient) Generate(ctx context.Context, prompt string, params config.LLMConfig) (string, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Sending generation request.", "model", params.Model, "max_tokens", params.MaxTokens)

	body := chatRequest{
		Model:       params.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: effectiveTemperature(params),
		MaxTokens:   params.MaxTokens,
	}

	var out chatResponse
	var apiErr apiError
	res, err := c.rc.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExhausted, err)
	}
	if res.IsError() {
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("%w: %s (%s)", ErrExhausted, apiErr.Error.Message, res.Status())
		}
		return "", fmt.Errorf("%w: unexpected status %s", ErrExhausted, res.Status())
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrExhausted)
	}

	return out.Choices[0].Message.Content, nil
}
