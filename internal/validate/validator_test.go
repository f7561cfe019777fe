package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/promptgridgo/internal/config"
	"github.com/vk/promptgridgo/internal/pggerr"
	"github.com/vk/promptgridgo/internal/template"
)

func validLLM() config.LLMConfig {
	return config.LLMConfig{
		Model:           "openai/gpt-oss-120b",
		Temperature:     0.7,
		ReasoningEffort: config.EffortMedium,
		MaxTokens:       1024,
	}
}

func makeNode(id, templateID string) config.NodeConfig {
	return config.NodeConfig{
		ID:          id,
		Name:        id,
		Description: id,
		Type:        "worker",
		TemplateID:  templateID,
		LLM:         validLLM(),
	}
}

func makeLayer(id string, nodes ...config.NodeConfig) config.LayerConfig {
	return config.LayerConfig{
		ID:          id,
		Name:        id,
		Description: id,
		Mode:        config.ModeParallel,
		Nodes:       nodes,
	}
}

func makeStore(t *testing.T, templates map[string]*config.Template) *template.Store {
	t.Helper()
	s := template.NewStore()
	s.Load(templates, template.Replace)
	return s
}

func TestValidateComplete(t *testing.T) {
	ctx := context.Background()
	v := New()

	t.Run("valid pipeline passes", func(t *testing.T) {
		cfg := &config.PipelineConfig{Layers: []config.LayerConfig{
			makeLayer("first", makeNode("a", "t1")),
		}}
		store := makeStore(t, map[string]*config.Template{
			"t1": {Text: "do {query}", InputContext: []string{"{query}"}, ExpectedOutput: "a_out"},
		})
		assert.NoError(t, v.ValidateComplete(ctx, cfg, store))
	})

	t.Run("structural phase collects every violation", func(t *testing.T) {
		cfg := &config.PipelineConfig{Layers: []config.LayerConfig{
			makeLayer("dup", makeNode("a", "t1")),
			makeLayer("dup", makeNode("a", "t1")),
			{ID: "empty", Name: "E", Description: "d", Mode: "bogus"},
		}}
		store := makeStore(t, map[string]*config.Template{
			"t1": {Text: "x {query}", InputContext: []string{"{query}"}, ExpectedOutput: "o"},
		})

		err := v.ValidateComplete(ctx, cfg, store)
		require.Error(t, err)
		var report *pggerr.ValidationError
		require.ErrorAs(t, err, &report)
		assert.Equal(t, "structural", report.Phase)
		assert.ErrorContains(t, err, `duplicate layer id "dup"`)
		assert.ErrorContains(t, err, `duplicate node id "a" (layers "dup" and "dup")`)
		assert.ErrorContains(t, err, `layer "empty" has no nodes`)
		assert.ErrorContains(t, err, `invalid execution_mode "bogus"`)
	})

	t.Run("llm parameter phase", func(t *testing.T) {
		bad := makeNode("a", "t1")
		bad.LLM.Temperature = 2.5
		bad.LLM.ReasoningEffort = "extreme"
		bad.LLM.MaxTokens = 0
		cfg := &config.PipelineConfig{Layers: []config.LayerConfig{makeLayer("first", bad)}}
		store := makeStore(t, map[string]*config.Template{
			"t1": {Text: "x {query}", InputContext: []string{"{query}"}, ExpectedOutput: "o"},
		})

		err := v.ValidateComplete(ctx, cfg, store)
		require.Error(t, err)
		var report *pggerr.ValidationError
		require.ErrorAs(t, err, &report)
		assert.Equal(t, "llm parameter", report.Phase)
		assert.Len(t, report.Violations, 3)
	})

	t.Run("unknown template reference fails", func(t *testing.T) {
		cfg := &config.PipelineConfig{Layers: []config.LayerConfig{
			makeLayer("first", makeNode("a", "ghost")),
		}}
		store := makeStore(t, nil)

		err := v.ValidateComplete(ctx, cfg, store)
		require.Error(t, err)
		var report *pggerr.ValidationError
		require.ErrorAs(t, err, &report)
		assert.Equal(t, "template reference", report.Phase)
		assert.ErrorContains(t, err, `node "a" references unknown template "ghost"`)
	})

	t.Run("unused template is not an error", func(t *testing.T) {
		cfg := &config.PipelineConfig{Layers: []config.LayerConfig{
			makeLayer("first", makeNode("a", "t1")),
		}}
		store := makeStore(t, map[string]*config.Template{
			"t1":    {Text: "x {query}", InputContext: []string{"{query}"}, ExpectedOutput: "o"},
			"spare": {Text: "y {query}", InputContext: []string{"{query}"}, ExpectedOutput: "s"},
		})
		assert.NoError(t, v.ValidateComplete(ctx, cfg, store))
	})
}

func TestValidateDataflow(t *testing.T) {
	v := New()

	store := makeStore(t, map[string]*config.Template{
		"intake": {Text: "restate {query}", InputContext: []string{"{query}"}, ExpectedOutput: "in_out"},
		"refine": {Text: "refine {in_out}", InputContext: []string{"{in_out}"}, ExpectedOutput: "refined"},
		"byid":   {Text: "inspect {a}", InputContext: []string{"{a}"}, ExpectedOutput: "inspected"},
		"all":    {Text: "combine {input} for {query}", InputContext: []string{"{input}", "{query}"}, ExpectedOutput: "final"},
		"orphan": {Text: "use {c_out}", InputContext: []string{"{c_out}"}, ExpectedOutput: "x"},
	})

	t.Run("expected-output token resolves", func(t *testing.T) {
		cfg := &config.PipelineConfig{Layers: []config.LayerConfig{
			makeLayer("l1", makeNode("a", "intake")),
			makeLayer("l2", makeNode("b", "refine")),
		}}
		assert.NoError(t, v.ValidateDataflow(cfg, store))
	})

	t.Run("upstream node id resolves", func(t *testing.T) {
		cfg := &config.PipelineConfig{Layers: []config.LayerConfig{
			makeLayer("l1", makeNode("a", "intake")),
			makeLayer("l2", makeNode("b", "byid")),
		}}
		assert.NoError(t, v.ValidateDataflow(cfg, store))
	})

	t.Run("reserved names are always resolvable", func(t *testing.T) {
		cfg := &config.PipelineConfig{Layers: []config.LayerConfig{
			makeLayer("l1", makeNode("a", "intake")),
			makeLayer("l2", makeNode("b", "all")),
		}}
		assert.NoError(t, v.ValidateDataflow(cfg, store))
	})

	t.Run("unresolvable placeholder is reported with full context", func(t *testing.T) {
		cfg := &config.PipelineConfig{Layers: []config.LayerConfig{
			makeLayer("l1", makeNode("a", "intake")),
			makeLayer("l2", makeNode("b", "orphan")),
		}}
		err := v.ValidateDataflow(cfg, store)
		require.Error(t, err)
		var report *pggerr.ValidationError
		require.ErrorAs(t, err, &report)
		assert.Equal(t, "dataflow", report.Phase)
		assert.ErrorContains(t, err,
			`placeholder '{c_out}' required by node "b" in layer "l2" is not produced by layer "l1"`)
	})

	t.Run("first layer is exempt", func(t *testing.T) {
		cfg := &config.PipelineConfig{Layers: []config.LayerConfig{
			makeLayer("only", makeNode("a", "orphan")),
		}}
		assert.NoError(t, v.ValidateDataflow(cfg, store))
	})
}
