// Package node binds one node configuration to its template and the shared
// generation client, producing the executable unit of work: render one
// prompt, invoke the client once, return the text verbatim.
package node

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/promptgridgo/internal/config"
	"github.com/vk/promptgridgo/internal/ctxlog"
	"github.com/vk/promptgridgo/internal/llm"
	"github.com/vk/promptgridgo/internal/pggerr"
	"github.com/vk/promptgridgo/internal/template"
)

// Input is the data handed to a node: either the raw query text (first
// layer) or a keyed variable set derived from upstream outputs.
type Input struct {
	text  string
	vars  map[string]string
	keyed bool
}

// RawInput wraps unstructured text, the shape the first layer receives.
func RawInput(text string) Input {
	return Input{text: text}
}

// KeyedInput wraps a resolved variable mapping, the shape later layers
// receive from data-flow inference.
func KeyedInput(vars map[string]string) Input {
	return Input{vars: vars, keyed: true}
}

// Keyed reports whether the input carries a variable mapping.
func (in Input) Keyed() bool { return in.keyed }

// Text returns the raw text of an unkeyed input.
func (in Input) Text() string { return in.text }

// Vars returns the variable mapping of a keyed input.
func (in Input) Vars() map[string]string { return in.vars }

// Node is the executable unit of work. Render and Invoke are the two
// capabilities; Process composes them for one input.
type Node interface {
	ID() string
	// OutputKey is the name by which this node's result is addressable by
	// downstream templates: the template's expected-output token, falling
	// back to the node id.
	OutputKey() string
	// Placeholders lists the variables this node requires from upstream.
	Placeholders() []string
	Render(vars map[string]string) (string, error)
	Invoke(ctx context.Context, prompt string) (string, error)
	Process(ctx context.Context, in Input) (string, error)
}

type llmNode struct {
	cfg          config.NodeConfig
	tpl          *config.Template
	store        *template.Store
	client       llm.Client
	placeholders []string
}

func (n *llmNode) ID() string { return n.cfg.ID }

func (n *llmNode) OutputKey() string {
	if n.tpl.ExpectedOutput != "" {
		return n.tpl.ExpectedOutput
	}
	return n.cfg.ID
}

func (n *llmNode) Placeholders() []string {
	out := make([]string, len(n.placeholders))
	copy(out, n.placeholders)
	return out
}

// Render builds the full prompt for the given variables via the store.
func (n *llmNode) Render(vars map[string]string) (string, error) {
	return n.store.BuildPrompt(n.cfg.TemplateID, vars)
}

// Invoke calls the generation client with this node's bound parameters and
// returns its text verbatim. No post-processing, no truncation.
func (n *llmNode) Invoke(ctx context.Context, prompt string) (string, error) {
	text, err := n.client.Generate(ctx, prompt, n.cfg.LLM)
	if err != nil {
		return "", &pggerr.NodeError{NodeID: n.cfg.ID, Err: err}
	}
	return text, nil
}

// Process prepares variables from the input, renders the prompt and invokes
// the client.
func (n *llmNode) Process(ctx context.Context, in Input) (string, error) {
	logger := ctxlog.FromContext(ctx).With("node", n.cfg.ID)

	vars, err := n.prepareVariables(in)
	if err != nil {
		return "", err
	}

	prompt, err := n.Render(vars)
	if err != nil {
		return "", err
	}
	logger.Debug("Prompt rendered.", "template", n.cfg.TemplateID, "bytes", len(prompt))

	text, err := n.Invoke(ctx, prompt)
	if err != nil {
		logger.Error("Generation failed.", "error", err)
		return "", err
	}
	logger.Debug("Generation succeeded.", "bytes", len(text))
	return text, nil
}

// prepareVariables maps the input onto this node's declared placeholders.
// Raw text binds to every declared placeholder (the reserved question/query
// names being the conventional first-layer contract). Keyed input must
// satisfy every placeholder exactly; nothing is guessed and nothing is
// silently blanked.
func (n *llmNode) prepareVariables(in Input) (map[string]string, error) {
	vars := make(map[string]string, len(n.placeholders))

	if !in.Keyed() {
		for _, name := range n.placeholders {
			vars[name] = in.Text()
		}
		return vars, nil
	}

	input := in.Vars()
	var missing []string
	for _, name := range n.placeholders {
		if value, ok := input[name]; ok {
			vars[name] = value
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		available := make([]string, 0, len(input))
		for key := range input {
			available = append(available, key)
		}
		sort.Strings(available)
		return nil, fmt.Errorf(
			"node %q: missing required input variables [%s]; available input keys: [%s]",
			n.cfg.ID, strings.Join(missing, ", "), strings.Join(available, ", "))
	}
	return vars, nil
}
