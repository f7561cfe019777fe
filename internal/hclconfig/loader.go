// Package hclconfig is the HCL implementation of config.Loader. It loads
// the same pipeline and template model as the JSON adapter from .hcl files,
// for configurations that want HCL's comments and multi-line strings.
package hclconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/promptgridgo/internal/config"
	"github.com/vk/promptgridgo/internal/ctxlog"
	"github.com/vk/promptgridgo/internal/pggerr"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// layerRoot decodes the top level of a layer-structure file.
type layerRoot struct {
	Layers []*layerBlock `hcl:"layer,block"`
	Remain hcl.Body      `hcl:",remain"`
}

type layerBlock struct {
	ID          string       `hcl:"id,label"`
	Name        string       `hcl:"name"`
	Description string       `hcl:"description"`
	Mode        string       `hcl:"execution_mode,optional"`
	Nodes       []*nodeBlock `hcl:"node,block"`
}

type nodeBlock struct {
	ID          string    `hcl:"id,label"`
	Name        string    `hcl:"name"`
	Description string    `hcl:"description"`
	Type        string    `hcl:"type"`
	TemplateID  string    `hcl:"template_id"`
	LLM         *llmBlock `hcl:"llm_config,block"`
}

type llmBlock struct {
	Model           string  `hcl:"model"`
	Temperature     float64 `hcl:"temperature"`
	ReasoningEffort string  `hcl:"reasoning_effort"`
	MaxTokens       int     `hcl:"max_tokens"`
}

// templateRoot decodes the top level of a template file.
type templateRoot struct {
	Templates []*templateBlock `hcl:"template,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type templateBlock struct {
	ID             string            `hcl:"id,label"`
	Text           string            `hcl:"text"`
	InputContext   cty.Value         `hcl:"input_context"`
	ExpectedOutput string            `hcl:"expected_output"`
	Instructions   []string          `hcl:"instructions,optional"`
	Metadata       map[string]string `hcl:"metadata,optional"`
}

// Load parses the layer file and the template file into one model.
func (l *Loader) Load(ctx context.Context, layerPath, templatePath string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var layers layerRoot
	if err := decodeFile(layerPath, &layers); err != nil {
		return nil, err
	}
	if len(layers.Layers) == 0 {
		return nil, &pggerr.MissingFieldError{Object: layerPath, Field: "layer (at least one layer block required)"}
	}

	pipeline := &config.PipelineConfig{}
	for _, block := range layers.Layers {
		layerCfg, err := translateLayer(block)
		if err != nil {
			return nil, err
		}
		pipeline.Layers = append(pipeline.Layers, layerCfg)
	}

	var templates templateRoot
	if err := decodeFile(templatePath, &templates); err != nil {
		return nil, err
	}

	templateMap := make(map[string]*config.Template, len(templates.Templates))
	for _, block := range templates.Templates {
		if _, dup := templateMap[block.ID]; dup {
			return nil, &pggerr.SyntaxError{Path: templatePath,
				Err: fmt.Errorf("duplicate template block %q", block.ID)}
		}
		tpl, err := translateTemplate(templatePath, block)
		if err != nil {
			return nil, err
		}
		templateMap[block.ID] = tpl
	}

	logger.Debug("HCL config loaded.", "layers", len(pipeline.Layers), "templates", len(templateMap))
	return &config.Model{Pipeline: pipeline, Templates: templateMap}, nil
}

func translateLayer(block *layerBlock) (config.LayerConfig, error) {
	mode := block.Mode
	if mode == "" {
		mode = config.ModeParallel
	}

	layerCfg := config.LayerConfig{
		ID:          block.ID,
		Name:        block.Name,
		Description: block.Description,
		Mode:        mode,
	}
	if len(block.Nodes) == 0 {
		return layerCfg, &pggerr.MissingFieldError{
			Object: fmt.Sprintf("layer %q", block.ID),
			Field:  "node (at least one node block required)",
		}
	}

	for _, n := range block.Nodes {
		if n.LLM == nil {
			return layerCfg, &pggerr.MissingFieldError{
				Object: fmt.Sprintf("layer %q node %q", block.ID, n.ID),
				Field:  "llm_config",
			}
		}
		layerCfg.Nodes = append(layerCfg.Nodes, config.NodeConfig{
			ID:          n.ID,
			Name:        n.Name,
			Description: n.Description,
			Type:        n.Type,
			TemplateID:  n.TemplateID,
			LLM: config.LLMConfig{
				Model:           n.LLM.Model,
				Temperature:     n.LLM.Temperature,
				ReasoningEffort: n.LLM.ReasoningEffort,
				MaxTokens:       n.LLM.MaxTokens,
			},
		})
	}
	return layerCfg, nil
}

func translateTemplate(path string, block *templateBlock) (*config.Template, error) {
	inputContext, err := stringOrList(block.InputContext)
	if err != nil {
		return nil, &pggerr.SyntaxError{Path: path,
			Err: fmt.Errorf("template %q: input_context: %w", block.ID, err)}
	}

	var metadata map[string]any
	if len(block.Metadata) > 0 {
		metadata = make(map[string]any, len(block.Metadata))
		for k, v := range block.Metadata {
			metadata[k] = v
		}
	}

	return &config.Template{
		Text:           block.Text,
		InputContext:   inputContext,
		ExpectedOutput: block.ExpectedOutput,
		Instructions:   block.Instructions,
		Metadata:       metadata,
	}, nil
}

// stringOrList accepts the two shapes input_context may take: a single
// string or a list/tuple of strings.
func stringOrList(v cty.Value) ([]string, error) {
	if v.IsNull() {
		return nil, fmt.Errorf("must not be null")
	}
	if v.Type() == cty.String {
		return []string{v.AsString()}, nil
	}
	if v.Type().IsTupleType() || v.Type().IsListType() {
		var out []string
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			if elem.Type() != cty.String {
				return nil, fmt.Errorf("must contain only strings, got %s", elem.Type().FriendlyName())
			}
			out = append(out, elem.AsString())
		}
		return out, nil
	}
	return nil, fmt.Errorf("must be a string or a list of strings, got %s", v.Type().FriendlyName())
}

// decodeFile parses and decodes one HCL file, translating failures into the
// loader's distinct error kinds.
func decodeFile(path string, target any) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &pggerr.NotFoundError{Path: path, Err: err}
		}
		return fmt.Errorf("error accessing path %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return &pggerr.SyntaxError{Path: path, Err: diags}
	}

	diags = gohcl.DecodeBody(file.Body, nil, target)
	if diags.HasErrors() {
		return &pggerr.SyntaxError{Path: path, Err: diags}
	}
	return nil
}
