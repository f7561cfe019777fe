package node

import (
	"fmt"

	"github.com/vk/promptgridgo/internal/config"
	"github.com/vk/promptgridgo/internal/llm"
	"github.com/vk/promptgridgo/internal/template"
)

// Factory builds executable nodes from node configurations, binding each to
// its template and to the shared generation client.
type Factory struct {
	store  *template.Store
	client llm.Client
}

// NewFactory creates a node factory over the given store and client.
func NewFactory(store *template.Store, client llm.Client) *Factory {
	return &Factory{store: store, client: client}
}

// CreateNode binds cfg to its template. The template lookup fails with the
// node id and the missing template id even when the node is constructed
// outside a fully-validated pipeline.
func (f *Factory) CreateNode(cfg config.NodeConfig) (Node, error) {
	tpl, err := f.store.Get(cfg.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("no template found for node %q (template_id %q): %w", cfg.ID, cfg.TemplateID, err)
	}

	return &llmNode{
		cfg:          cfg,
		tpl:          tpl,
		store:        f.store,
		client:       f.client,
		placeholders: template.Placeholders(tpl.InputContext...),
	}, nil
}
