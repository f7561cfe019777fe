package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/promptgridgo/internal/config"
)

func testParams() config.LLMConfig {
	return config.LLMConfig{
		Model:           "openai/gpt-oss-120b",
		Temperature:     0.5,
		ReasoningEffort: config.EffortMedium,
		MaxTokens:       256,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewHTTPClient(Options{
		BaseURL:      server.URL,
		APIKey:       "test-key",
		Timeout:      5 * time.Second,
		RetryCount:   1,
		RetryWait:    time.Millisecond,
		RetryMaxWait: 2 * time.Millisecond,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func completion(text string) string {
	return `{"choices":[{"message":{"content":` + jsonString(text) + `}}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the first choice verbatim", func(t *testing.T) {
		var gotBody chatRequest
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(completion("  Paris.\n")))
		})

		text, err := client.Generate(ctx, "capital of France?", testParams())
		require.NoError(t, err)
		assert.Equal(t, "  Paris.\n", text, "response text is not trimmed or post-processed")

		assert.Equal(t, "openai/gpt-oss-120b", gotBody.Model)
		assert.Equal(t, 256, gotBody.MaxTokens)
		require.Len(t, gotBody.Messages, 1)
		assert.Equal(t, "user", gotBody.Messages[0].Role)
		assert.Equal(t, "capital of France?", gotBody.Messages[0].Content)
	})

	t.Run("API error body surfaces in the message", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
		})

		_, err := client.Generate(ctx, "p", testParams())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrExhausted)
		assert.ErrorContains(t, err, "model not found")
	})

	t.Run("empty choices is an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"choices":[]}`))
		})

		_, err := client.Generate(ctx, "p", testParams())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrExhausted)
		assert.ErrorContains(t, err, "no choices")
	})

	t.Run("unreachable endpoint is an exhausted error", func(t *testing.T) {
		client := NewHTTPClient(Options{
			BaseURL:      "http://127.0.0.1:1",
			Timeout:      time.Second,
			RetryCount:   1,
			RetryWait:    time.Millisecond,
			RetryMaxWait: 2 * time.Millisecond,
		})
		defer client.Close()

		_, err := client.Generate(ctx, "p", testParams())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrExhausted)
	})
}

func TestEffectiveTemperature(t *testing.T) {
	cases := []struct {
		name        string
		effort      string
		temperature float64
		want        float64
	}{
		{"low clamps down", config.EffortLow, 0.7, 0.3},
		{"low below clamp passes", config.EffortLow, 0.1, 0.1},
		{"high clamps up", config.EffortHigh, 0.5, 0.8},
		{"high above clamp passes", config.EffortHigh, 0.95, 0.95},
		{"medium passes through", config.EffortMedium, 0.6, 0.6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := effectiveTemperature(config.LLMConfig{
				Temperature:     tc.temperature,
				ReasoningEffort: tc.effort,
			})
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "https://api.groq.com/openai/v1", opts.BaseURL)
	assert.Equal(t, 3, opts.RetryCount)
	assert.Equal(t, 2*time.Minute, opts.Timeout)
}
