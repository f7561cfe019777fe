// Package testutil provides test doubles shared by the engine's package
// tests, chiefly a scripted in-memory generation client.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vk/promptgridgo/internal/config"
)

// Call records one Generate invocation.
type Call struct {
	Prompt string
	Params config.LLMConfig
}

// FakeClient is a scripted llm.Client. Responses are selected by prompt
// substring, optionally after a per-script delay, so tests can randomize
// completion order without touching the network.
type FakeClient struct {
	mu      sync.Mutex
	scripts []script
	fail    map[string]error
	calls   []Call
}

type script struct {
	substr string
	text   string
	delay  time.Duration
}

// NewFakeClient creates an empty scripted client. With no scripts, every
// prompt is answered by echoing it back.
func NewFakeClient() *FakeClient {
	return &FakeClient{fail: make(map[string]error)}
}

// Respond registers a response for prompts containing substr.
func (c *FakeClient) Respond(substr, text string) *FakeClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts = append(c.scripts, script{substr: substr, text: text})
	return c
}

// RespondAfter registers a delayed response for prompts containing substr.
func (c *FakeClient) RespondAfter(substr, text string, delay time.Duration) *FakeClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts = append(c.scripts, script{substr: substr, text: text, delay: delay})
	return c
}

// FailOn makes prompts containing substr return err.
func (c *FakeClient) FailOn(substr string, err error) *FakeClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail[substr] = err
	return c
}

// Calls returns a copy of every recorded invocation.
func (c *FakeClient) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// Generate implements llm.Client.
func (c *FakeClient) Generate(ctx context.Context, prompt string, params config.LLMConfig) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Prompt: prompt, Params: params})
	var matched *script
	for i := range c.scripts {
		if strings.Contains(prompt, c.scripts[i].substr) {
			matched = &c.scripts[i]
			break
		}
	}
	var failErr error
	for substr, err := range c.fail {
		if strings.Contains(prompt, substr) {
			failErr = err
			break
		}
	}
	c.mu.Unlock()

	if failErr != nil {
		return "", failErr
	}
	if matched == nil {
		return fmt.Sprintf("echo(%s)", prompt), nil
	}
	if matched.delay > 0 {
		select {
		case <-time.After(matched.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return matched.text, nil
}
