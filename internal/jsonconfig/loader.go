// Package jsonconfig is the JSON implementation of config.Loader. It parses
// the canonical layer and template file formats into the format-agnostic
// model, enforcing required-field presence with errors that name the field
// and its containing object.
package jsonconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vk/promptgridgo/internal/config"
	"github.com/vk/promptgridgo/internal/ctxlog"
	"github.com/vk/promptgridgo/internal/pggerr"
)

// Loader is the JSON-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new JSON configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the layer file and the template file into one model.
func (l *Loader) Load(ctx context.Context, layerPath, templatePath string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	pipeline, err := l.LoadLayerConfig(ctx, layerPath)
	if err != nil {
		return nil, err
	}
	templates, err := l.LoadTemplateConfig(ctx, templatePath)
	if err != nil {
		return nil, err
	}

	logger.Debug("JSON config loaded.", "layers", len(pipeline.Layers), "templates", len(templates))
	return &config.Model{Pipeline: pipeline, Templates: templates}, nil
}

// rawLayerFile mirrors the layer wire format. Pointer fields distinguish an
// absent key from a zero value so missing-field errors can name the key.
type rawLayerFile struct {
	Layers *[]rawLayer `json:"layers"`
}

type rawLayer struct {
	ID          *string    `json:"id"`
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Mode        string     `json:"execution_mode"`
	Nodes       *[]rawNode `json:"nodes"`
}

type rawNode struct {
	ID          *string `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
	TemplateID  *string `json:"template_id"`
	LLM         *rawLLM `json:"llm_config"`
}

type rawLLM struct {
	Model           *string  `json:"model"`
	Temperature     *float64 `json:"temperature"`
	ReasoningEffort *string  `json:"reasoning_effort"`
	MaxTokens       *int     `json:"max_tokens"`
}

// LoadLayerConfig parses a layer-structure file into a PipelineConfig.
func (l *Loader) LoadLayerConfig(ctx context.Context, path string) (*config.PipelineConfig, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading layer config.", "path", path)

	var root rawLayerFile
	if err := decodeFile(path, &root); err != nil {
		return nil, err
	}
	if root.Layers == nil {
		return nil, &pggerr.MissingFieldError{Object: "layer config", Field: "layers"}
	}
	if len(*root.Layers) == 0 {
		return nil, &pggerr.MissingFieldError{Object: "layer config", Field: "layers (at least one layer required)"}
	}

	pipeline := &config.PipelineConfig{}
	for i, raw := range *root.Layers {
		layer, err := parseLayer(i, raw)
		if err != nil {
			return nil, err
		}
		pipeline.Layers = append(pipeline.Layers, layer)
	}

	logger.Info("Layer config loaded.", "path", path, "layers", len(pipeline.Layers))
	return pipeline, nil
}

func parseLayer(i int, raw rawLayer) (config.LayerConfig, error) {
	object := fmt.Sprintf("layers[%d]", i)
	var layer config.LayerConfig

	switch {
	case raw.ID == nil:
		return layer, &pggerr.MissingFieldError{Object: object, Field: "id"}
	case raw.Name == nil:
		return layer, &pggerr.MissingFieldError{Object: object, Field: "name"}
	case raw.Description == nil:
		return layer, &pggerr.MissingFieldError{Object: object, Field: "description"}
	case raw.Nodes == nil:
		return layer, &pggerr.MissingFieldError{Object: object, Field: "nodes"}
	}
	if len(*raw.Nodes) == 0 {
		return layer, &pggerr.MissingFieldError{Object: object, Field: "nodes (at least one node required)"}
	}

	mode := raw.Mode
	if mode == "" {
		mode = config.ModeParallel
	}
	layer = config.LayerConfig{ID: *raw.ID, Name: *raw.Name, Description: *raw.Description, Mode: mode}
	for j, rawNode := range *raw.Nodes {
		node, err := parseNode(fmt.Sprintf("%s.nodes[%d]", object, j), rawNode)
		if err != nil {
			return layer, err
		}
		layer.Nodes = append(layer.Nodes, node)
	}
	return layer, nil
}

func parseNode(object string, raw rawNode) (config.NodeConfig, error) {
	var node config.NodeConfig

	switch {
	case raw.ID == nil:
		return node, &pggerr.MissingFieldError{Object: object, Field: "id"}
	case raw.Name == nil:
		return node, &pggerr.MissingFieldError{Object: object, Field: "name"}
	case raw.Description == nil:
		return node, &pggerr.MissingFieldError{Object: object, Field: "description"}
	case raw.Type == nil:
		return node, &pggerr.MissingFieldError{Object: object, Field: "type"}
	case raw.TemplateID == nil:
		return node, &pggerr.MissingFieldError{Object: object, Field: "template_id"}
	case raw.LLM == nil:
		return node, &pggerr.MissingFieldError{Object: object, Field: "llm_config"}
	}

	llmObject := object + ".llm_config"
	switch {
	case raw.LLM.Model == nil:
		return node, &pggerr.MissingFieldError{Object: llmObject, Field: "model"}
	case raw.LLM.Temperature == nil:
		return node, &pggerr.MissingFieldError{Object: llmObject, Field: "temperature"}
	case raw.LLM.ReasoningEffort == nil:
		return node, &pggerr.MissingFieldError{Object: llmObject, Field: "reasoning_effort"}
	case raw.LLM.MaxTokens == nil:
		return node, &pggerr.MissingFieldError{Object: llmObject, Field: "max_tokens"}
	}

	return config.NodeConfig{
		ID:          *raw.ID,
		Name:        *raw.Name,
		Description: *raw.Description,
		Type:        *raw.Type,
		TemplateID:  *raw.TemplateID,
		LLM: config.LLMConfig{
			Model:           *raw.LLM.Model,
			Temperature:     *raw.LLM.Temperature,
			ReasoningEffort: *raw.LLM.ReasoningEffort,
			MaxTokens:       *raw.LLM.MaxTokens,
		},
	}, nil
}

// rawTemplateFile mirrors the template wire format.
type rawTemplateFile struct {
	Templates *map[string]rawTemplate `json:"templates"`
}

type rawTemplate struct {
	Template       *string        `json:"template"`
	InputContext   *stringOrList  `json:"input_context"`
	ExpectedOutput *string        `json:"expected_output"`
	Instructions   []string       `json:"instructions"`
	Metadata       map[string]any `json:"metadata"`
}

// stringOrList accepts both a single string and a list of strings, the two
// shapes input_context may take on the wire.
type stringOrList []string

func (s *stringOrList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []string{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("input_context must be a string or a list of strings")
	}
	*s = list
	return nil
}

// LoadTemplateConfig parses a template file into a map of templates by id.
func (l *Loader) LoadTemplateConfig(ctx context.Context, path string) (map[string]*config.Template, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading template config.", "path", path)

	var root rawTemplateFile
	if err := decodeFile(path, &root); err != nil {
		return nil, err
	}
	if root.Templates == nil {
		return nil, &pggerr.MissingFieldError{Object: "template config", Field: "templates"}
	}

	templates := make(map[string]*config.Template, len(*root.Templates))
	for id, raw := range *root.Templates {
		object := fmt.Sprintf("templates[%q]", id)
		switch {
		case raw.Template == nil:
			return nil, &pggerr.MissingFieldError{Object: object, Field: "template"}
		case raw.InputContext == nil:
			return nil, &pggerr.MissingFieldError{Object: object, Field: "input_context"}
		case raw.ExpectedOutput == nil:
			return nil, &pggerr.MissingFieldError{Object: object, Field: "expected_output"}
		}
		templates[id] = &config.Template{
			Text:           *raw.Template,
			InputContext:   *raw.InputContext,
			ExpectedOutput: *raw.ExpectedOutput,
			Instructions:   raw.Instructions,
			Metadata:       raw.Metadata,
		}
	}

	logger.Info("Template config loaded.", "path", path, "templates", len(templates))
	return templates, nil
}

// decodeFile reads and unmarshals one JSON file, translating failures into
// the loader's distinct error kinds.
func decodeFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &pggerr.NotFoundError{Path: path, Err: err}
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &pggerr.SyntaxError{Path: path, Err: err}
	}
	return nil
}
