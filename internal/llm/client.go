// Package llm defines the text-generation client contract the engine
// consumes and provides an HTTP implementation for OpenAI-compatible chat
// completion APIs (Groq being the reference deployment).
//
// The engine treats the client as opaque: one Generate call per node, with
// retry and backoff owned entirely by the implementation.
package llm

import (
	"context"
	"errors"

	"github.com/vk/promptgridgo/internal/config"
)

// ErrExhausted marks a generation failure that persisted through the
// client's whole retry budget.
var ErrExhausted = errors.New("generation failed after exhausting retries")

// Client is the external text-generation capability consumed by nodes. The
// handle is shared across nodes and across repeated pipeline runs; params
// carry the per-node model settings bound at factory time.
type Client interface {
	Generate(ctx context.Context, prompt string, params config.LLMConfig) (string, error)
}

// effectiveTemperature shapes the configured temperature by reasoning
// effort: low clamps down, high clamps up, medium passes through.
func effectiveTemperature(params config.LLMConfig) float64 {
	switch params.ReasoningEffort {
	case config.EffortLow:
		return min(params.Temperature, 0.3)
	case config.EffortHigh:
		return max(params.Temperature, 0.8)
	default:
		return params.Temperature
	}
}
