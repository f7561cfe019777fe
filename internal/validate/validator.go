// Package validate cross-checks a loaded pipeline configuration against the
// template store before any network call happens. Each phase collects every
// violation it can detect into one batched report.
package validate

import (
	"context"
	"fmt"

	"github.com/vk/promptgridgo/internal/config"
	"github.com/vk/promptgridgo/internal/ctxlog"
	"github.com/vk/promptgridgo/internal/pggerr"
	"github.com/vk/promptgridgo/internal/template"
)

// Validator checks pipeline configurations for structural soundness, LLM
// parameter ranges and template references.
type Validator struct{}

// New creates a validator.
func New() *Validator {
	return &Validator{}
}

// ValidateComplete runs, in order: structural checks, LLM parameter range
// checks and template-reference checks. The first failing phase aborts with
// a report of every violation found in that phase.
func (v *Validator) ValidateComplete(ctx context.Context, cfg *config.PipelineConfig, store *template.Store) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Running complete configuration validation.")

	if err := v.validateStructure(cfg); err != nil {
		return err
	}
	if err := v.validateLLMConfigs(cfg); err != nil {
		return err
	}
	if err := v.validateTemplateRefs(ctx, cfg, store); err != nil {
		return err
	}

	logger.Info("Configuration validation passed.", "layers", len(cfg.Layers))
	return nil
}

// validateStructure checks layer/node identifier uniqueness, layer
// non-emptiness and execution-mode values.
func (v *Validator) validateStructure(cfg *config.PipelineConfig) error {
	var violations []string

	if len(cfg.Layers) == 0 {
		violations = append(violations, "pipeline must have at least one layer")
	}

	layerIDs := make(map[string]struct{})
	nodeOwner := make(map[string]string) // node id -> layer id of first occurrence
	for _, layer := range cfg.Layers {
		if _, dup := layerIDs[layer.ID]; dup {
			violations = append(violations, fmt.Sprintf("duplicate layer id %q", layer.ID))
		}
		layerIDs[layer.ID] = struct{}{}

		if len(layer.Nodes) == 0 {
			violations = append(violations, fmt.Sprintf("layer %q has no nodes", layer.ID))
		}
		if layer.Mode != config.ModeParallel && layer.Mode != config.ModeSequential {
			violations = append(violations,
				fmt.Sprintf("layer %q: invalid execution_mode %q (must be %q or %q)",
					layer.ID, layer.Mode, config.ModeParallel, config.ModeSequential))
		}

		for _, node := range layer.Nodes {
			if owner, dup := nodeOwner[node.ID]; dup {
				violations = append(violations,
					fmt.Sprintf("duplicate node id %q (layers %q and %q)", node.ID, owner, layer.ID))
				continue
			}
			nodeOwner[node.ID] = layer.ID
		}
	}

	if len(violations) > 0 {
		return &pggerr.ValidationError{Phase: "structural", Violations: violations}
	}
	return nil
}

// validateLLMConfigs range-checks every node's LLM parameter set.
func (v *Validator) validateLLMConfigs(cfg *config.PipelineConfig) error {
	var violations []string

	for _, layer := range cfg.Layers {
		for _, node := range layer.Nodes {
			llm := node.LLM
			if llm.Model == "" {
				violations = append(violations, fmt.Sprintf("node %q: empty model", node.ID))
			}
			if llm.Temperature < 0.0 || llm.Temperature > 2.0 {
				violations = append(violations,
					fmt.Sprintf("node %q: temperature %.2f not in [0.0, 2.0]", node.ID, llm.Temperature))
			}
			switch llm.ReasoningEffort {
			case config.EffortLow, config.EffortMedium, config.EffortHigh:
			default:
				violations = append(violations,
					fmt.Sprintf("node %q: reasoning_effort %q invalid (must be low, medium or high)",
						node.ID, llm.ReasoningEffort))
			}
			if llm.MaxTokens <= 0 {
				violations = append(violations,
					fmt.Sprintf("node %q: max_tokens %d must be > 0", node.ID, llm.MaxTokens))
			}
		}
	}

	if len(violations) > 0 {
		return &pggerr.ValidationError{Phase: "llm parameter", Violations: violations}
	}
	return nil
}

// validateTemplateRefs checks that every node's template id exists in the
// store. Templates referenced by no node are reported as a warning only, to
// support shared template libraries.
func (v *Validator) validateTemplateRefs(ctx context.Context, cfg *config.PipelineConfig, store *template.Store) error {
	logger := ctxlog.FromContext(ctx)
	var violations []string

	referenced := make(map[string]struct{})
	for _, layer := range cfg.Layers {
		for _, node := range layer.Nodes {
			referenced[node.TemplateID] = struct{}{}
			if !store.Has(node.TemplateID) {
				violations = append(violations,
					fmt.Sprintf("node %q references unknown template %q", node.ID, node.TemplateID))
			}
		}
	}

	for _, id := range store.IDs() {
		if _, used := referenced[id]; !used {
			logger.Warn("Template is not referenced by any node.", "template_id", id)
		}
	}

	if len(violations) > 0 {
		return &pggerr.ValidationError{Phase: "template reference", Violations: violations}
	}
	return nil
}
