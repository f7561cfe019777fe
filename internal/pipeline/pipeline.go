// Package pipeline drives one query through an ordered list of layers,
// inferring the data flow between each layer and the next.
//
// Between layers, every placeholder a downstream node declares is resolved
// strictly: the reserved `query` name binds to the original query, the
// reserved `input` name binds to the whole upstream output, and anything
// else must match an upstream output exactly. There is no fuzzy matching;
// an unresolvable placeholder fails the call with a diagnostic precise
// enough to fix the configuration without reading source.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/promptgridgo/internal/config"
	"github.com/vk/promptgridgo/internal/ctxlog"
	"github.com/vk/promptgridgo/internal/layer"
	"github.com/vk/promptgridgo/internal/node"
	"github.com/vk/promptgridgo/internal/pggerr"
)

// Pipeline holds the ordered, built layers. It is stateless with respect to
// request data; Process may be called repeatedly and concurrently, subject
// to the shared generation client's own rate and retry state.
type Pipeline struct {
	layers []*layer.Layer
}

// Build constructs the layer and node object graph from a validated
// configuration.
func Build(cfg *config.PipelineConfig, factory *node.Factory) (*Pipeline, error) {
	if cfg == nil || len(cfg.Layers) == 0 {
		return nil, errors.New("pipeline config has no layers")
	}

	layers := make([]*layer.Layer, 0, len(cfg.Layers))
	for _, layerCfg := range cfg.Layers {
		nodes := make([]node.Node, 0, len(layerCfg.Nodes))
		for _, nodeCfg := range layerCfg.Nodes {
			n, err := factory.CreateNode(nodeCfg)
			if err != nil {
				return nil, fmt.Errorf("building layer %q: %w", layerCfg.ID, err)
			}
			nodes = append(nodes, n)
		}
		l, err := layer.New(layerCfg, nodes)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}

	return &Pipeline{layers: layers}, nil
}

// Layers returns the pipeline's layers in processing order.
func (p *Pipeline) Layers() []*layer.Layer { return p.layers }

// Result is the output of one pipeline run.
type Result struct {
	out *layer.Output
}

// Output returns the final layer's full output.
func (r *Result) Output() *layer.Output { return r.out }

// Text applies the single-exit convention: the sole entry's text when the
// final layer produced exactly one output, the flattened output otherwise.
func (r *Result) Text() string {
	if r.out.Len() == 1 {
		text, _ := r.out.Get(r.out.IDs()[0])
		return text
	}
	return r.out.Flatten()
}

// Process drives one query through all layers in strict order. The original
// query is retained for the whole call so any layer may reference it. A
// data-flow or node failure aborts this call only; the pipeline's static
// structure stays intact for the next call.
func (p *Pipeline) Process(ctx context.Context, query string) (*Result, error) {
	if len(p.layers) == 0 {
		return nil, errors.New("pipeline has no layers configured")
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Pipeline processing started.", "layers", len(p.layers))

	current := node.RawInput(query)
	var out *layer.Output

	for i, l := range p.layers {
		var err error
		out, err = l.Process(ctx, current)
		if err != nil {
			logger.Error("Pipeline failed.", "layer", l.ID(), "error", err)
			return nil, err
		}

		if i+1 == len(p.layers) {
			break
		}

		vars, err := p.resolveInputs(query, out, l, p.layers[i+1])
		if err != nil {
			logger.Error("Data-flow inference failed.", "layer", p.layers[i+1].ID(), "error", err)
			return nil, err
		}
		current = node.KeyedInput(vars)
	}

	logger.Info("Pipeline processing completed.")
	return &Result{out: out}, nil
}

// resolveInputs builds the variable mapping for the next layer from the
// current layer's output, the reserved names and the original query.
func (p *Pipeline) resolveInputs(query string, upstream *layer.Output, from, to *layer.Layer) (map[string]string, error) {
	vars := map[string]string{config.ReservedQuery: query}

	for _, n := range to.Nodes() {
		for _, name := range n.Placeholders() {
			if _, done := vars[name]; done {
				continue
			}
			switch name {
			case config.ReservedQuery:
				// Already bound to the query captured at call start.
			case config.ReservedInput:
				vars[name] = upstream.Flatten()
			default:
				text, ok := upstream.Resolve(name)
				if !ok {
					return nil, &pggerr.DataflowError{
						Placeholder:   name,
						NodeID:        n.ID(),
						LayerID:       to.ID(),
						UpstreamLayer: from.ID(),
						Available:     upstream.Keys(),
					}
				}
				vars[name] = text
			}
		}
	}
	return vars, nil
}
