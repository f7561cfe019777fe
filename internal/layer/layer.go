// Package layer groups nodes into one pipeline stage and runs them either
// as a concurrent fan-out or as a sequential chain. A layer fails as a
// whole: no partial output is ever returned.
package layer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vk/promptgridgo/internal/config"
	"github.com/vk/promptgridgo/internal/ctxlog"
	"github.com/vk/promptgridgo/internal/node"
)

// Layer is a named group of nodes executed together. It holds no
// per-request state; Process may be called repeatedly.
type Layer struct {
	cfg   config.LayerConfig
	nodes []node.Node
}

// New builds a layer over already-constructed nodes. The node slice order
// is the configuration order and fixes output addressing.
func New(cfg config.LayerConfig, nodes []node.Node) (*Layer, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("layer %q has no nodes", cfg.ID)
	}
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n.ID()]; dup {
			return nil, fmt.Errorf("layer %q: duplicate node id %q", cfg.ID, n.ID())
		}
		seen[n.ID()] = struct{}{}
	}
	return &Layer{cfg: cfg, nodes: nodes}, nil
}

// ID returns the layer identifier.
func (l *Layer) ID() string { return l.cfg.ID }

// Mode returns the execution mode, parallel or sequential.
func (l *Layer) Mode() string { return l.cfg.Mode }

// Nodes returns the layer's nodes in configuration order.
func (l *Layer) Nodes() []node.Node { return l.nodes }

// Process runs every node on the given input and returns the collected
// output keyed by node id, in configuration order.
func (l *Layer) Process(ctx context.Context, in node.Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx).With("layer", l.cfg.ID)
	logger.Debug("Processing layer.", "mode", l.cfg.Mode, "nodes", len(l.nodes))

	if l.cfg.Mode == config.ModeSequential {
		return l.processSequential(ctx, in)
	}
	return l.processParallel(ctx, in)
}

// processParallel gives every node an identical copy of the input and runs
// them concurrently. The first failure cancels the rest and fails the
// layer; completion order never affects how results are addressed.
func (l *Layer) processParallel(ctx context.Context, in node.Input) (*Output, error) {
	results := make([]string, len(l.nodes))

	g, gctx := errgroup.WithContext(ctx)
	for i, n := range l.nodes {
		g.Go(func() error {
			text, err := n.Process(gctx, in)
			if err != nil {
				return err
			}
			results[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("layer %q: %w", l.cfg.ID, err)
	}

	out := newOutput(len(l.nodes))
	for i, n := range l.nodes {
		out.add(n.ID(), n.OutputKey(), results[i])
	}
	return out, nil
}

// processSequential chains the nodes: node 0 receives the layer input, node
// i receives node i-1's raw text output. A failure aborts before the next
// node starts.
func (l *Layer) processSequential(ctx context.Context, in node.Input) (*Output, error) {
	out := newOutput(len(l.nodes))
	current := in

	for _, n := range l.nodes {
		text, err := n.Process(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", l.cfg.ID, err)
		}
		out.add(n.ID(), n.OutputKey(), text)
		current = node.RawInput(text)
	}
	return out, nil
}
