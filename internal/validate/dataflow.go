package validate

import (
	"fmt"

	"github.com/vk/promptgridgo/internal/config"
	"github.com/vk/promptgridgo/internal/pggerr"
	"github.com/vk/promptgridgo/internal/template"
)

// ValidateDataflow symbolically replays the runtime placeholder-resolution
// algorithm over the declared input contexts, turning the run-time-only
// data-flow error class into a load-time one wherever statically decidable.
//
// First-layer nodes are exempt: their raw input binds to whatever
// placeholders they declare. Templates that are missing from the store are
// skipped here; the template-reference phase owns that failure.
func (v *Validator) ValidateDataflow(cfg *config.PipelineConfig, store *template.Store) error {
	var violations []string

	for i := 1; i < len(cfg.Layers); i++ {
		upstream := cfg.Layers[i-1]
		layer := cfg.Layers[i]

		produced := make(map[string]struct{})
		for _, node := range upstream.Nodes {
			produced[node.ID] = struct{}{}
			if tpl, err := store.Get(node.TemplateID); err == nil && tpl.ExpectedOutput != "" {
				produced[tpl.ExpectedOutput] = struct{}{}
			}
		}

		for _, node := range layer.Nodes {
			names, err := store.RequiredVariables(node.TemplateID)
			if err != nil {
				continue
			}
			for _, name := range names {
				if name == config.ReservedQuery || name == config.ReservedInput {
					continue
				}
				if _, ok := produced[name]; ok {
					continue
				}
				violations = append(violations, fmt.Sprintf(
					"placeholder '{%s}' required by node %q in layer %q is not produced by layer %q",
					name, node.ID, layer.ID, upstream.ID))
			}
		}
	}

	if len(violations) > 0 {
		return &pggerr.ValidationError{Phase: "dataflow", Violations: violations}
	}
	return nil
}
