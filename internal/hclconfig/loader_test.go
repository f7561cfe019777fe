package hclconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/promptgridgo/internal/config"
	"github.com/vk/promptgridgo/internal/pggerr"
	"github.com/vk/promptgridgo/internal/testutil"
)

const validLayerHCL = `
layer "first" {
  name        = "First"
  description = "The first layer."

  node "n1" {
    name        = "Node one"
    description = "A node."
    type        = "worker"
    template_id = "t1"

    llm_config {
      model            = "openai/gpt-oss-120b"
      temperature      = 0.7
      reasoning_effort = "medium"
      max_tokens       = 1024
    }
  }
}

layer "second" {
  name           = "Second"
  description    = "The second layer."
  execution_mode = "sequential"

  node "n2" {
    name        = "Node two"
    description = "Another node."
    type        = "worker"
    template_id = "t2"

    llm_config {
      model            = "openai/gpt-oss-120b"
      temperature      = 0.3
      reasoning_effort = "high"
      max_tokens       = 2048
    }
  }
}
`

const validTemplateHCL = `
template "t1" {
  text            = "Answer: {query}"
  input_context   = "{query}"
  expected_output = "t1_out"
}

template "t2" {
  text            = "Refine {t1_out} and {query}"
  input_context   = ["{t1_out}", "{query}"]
  expected_output = "t2_out"
  instructions    = ["Be concise"]

  metadata = {
    author = "someone"
  }
}
`

func TestLoad(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader()

	t.Run("parses a valid configuration pair", func(t *testing.T) {
		dir := t.TempDir()
		layerPath := testutil.WriteFile(t, dir, "layer.hcl", validLayerHCL)
		templatePath := testutil.WriteFile(t, dir, "template.hcl", validTemplateHCL)

		model, err := loader.Load(ctx, layerPath, templatePath)
		require.NoError(t, err)

		require.Len(t, model.Pipeline.Layers, 2)
		first := model.Pipeline.Layers[0]
		assert.Equal(t, "first", first.ID)
		assert.Equal(t, config.ModeParallel, first.Mode, "execution_mode defaults to parallel")
		require.Len(t, first.Nodes, 1)
		assert.Equal(t, "n1", first.Nodes[0].ID)
		assert.Equal(t, "t1", first.Nodes[0].TemplateID)
		assert.InDelta(t, 0.7, first.Nodes[0].LLM.Temperature, 1e-9)
		assert.Equal(t, config.ModeSequential, model.Pipeline.Layers[1].Mode)

		require.Len(t, model.Templates, 2)
		assert.Equal(t, []string{"{query}"}, model.Templates["t1"].InputContext)
		assert.Equal(t, []string{"{t1_out}", "{query}"}, model.Templates["t2"].InputContext)
		assert.Equal(t, []string{"Be concise"}, model.Templates["t2"].Instructions)
		assert.Equal(t, "someone", model.Templates["t2"].Metadata["author"])
	})

	t.Run("missing layer file", func(t *testing.T) {
		dir := t.TempDir()
		templatePath := testutil.WriteFile(t, dir, "template.hcl", validTemplateHCL)

		_, err := loader.Load(ctx, dir+"/absent.hcl", templatePath)
		var notFound *pggerr.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("malformed HCL", func(t *testing.T) {
		dir := t.TempDir()
		layerPath := testutil.WriteFile(t, dir, "layer.hcl", `layer "x" {`)
		templatePath := testutil.WriteFile(t, dir, "template.hcl", validTemplateHCL)

		_, err := loader.Load(ctx, layerPath, templatePath)
		var syntax *pggerr.SyntaxError
		require.ErrorAs(t, err, &syntax)
		assert.Equal(t, layerPath, syntax.Path)
	})

	t.Run("missing required attribute is a syntax error", func(t *testing.T) {
		dir := t.TempDir()
		content := `
layer "x" {
  description = "missing name"

  node "n" {
    name        = "N"
    description = "d"
    type        = "worker"
    template_id = "t1"

    llm_config {
      model            = "m"
      temperature      = 0.5
      reasoning_effort = "low"
      max_tokens       = 1
    }
  }
}
`
		layerPath := testutil.WriteFile(t, dir, "layer.hcl", content)
		templatePath := testutil.WriteFile(t, dir, "template.hcl", validTemplateHCL)

		_, err := loader.Load(ctx, layerPath, templatePath)
		var syntax *pggerr.SyntaxError
		require.ErrorAs(t, err, &syntax)
	})

	t.Run("layer without nodes names the layer", func(t *testing.T) {
		dir := t.TempDir()
		content := `
layer "bare" {
  name        = "Bare"
  description = "No nodes."
}
`
		layerPath := testutil.WriteFile(t, dir, "layer.hcl", content)
		templatePath := testutil.WriteFile(t, dir, "template.hcl", validTemplateHCL)

		_, err := loader.Load(ctx, layerPath, templatePath)
		var missing *pggerr.MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, `layer "bare"`, missing.Object)
	})

	t.Run("duplicate template blocks are rejected", func(t *testing.T) {
		dir := t.TempDir()
		content := `
template "t1" {
  text            = "a {query}"
  input_context   = "{query}"
  expected_output = "o"
}

template "t1" {
  text            = "b {query}"
  input_context   = "{query}"
  expected_output = "o"
}
`
		layerPath := testutil.WriteFile(t, dir, "layer.hcl", validLayerHCL)
		templatePath := testutil.WriteFile(t, dir, "template.hcl", content)

		_, err := loader.Load(ctx, layerPath, templatePath)
		var syntax *pggerr.SyntaxError
		require.ErrorAs(t, err, &syntax)
		assert.ErrorContains(t, err, `duplicate template block "t1"`)
	})

	t.Run("input_context rejects non-string elements", func(t *testing.T) {
		dir := t.TempDir()
		content := `
template "t1" {
  text            = "a {query}"
  input_context   = [1, 2]
  expected_output = "o"
}
`
		layerPath := testutil.WriteFile(t, dir, "layer.hcl", validLayerHCL)
		templatePath := testutil.WriteFile(t, dir, "template.hcl", content)

		_, err := loader.Load(ctx, layerPath, templatePath)
		var syntax *pggerr.SyntaxError
		require.ErrorAs(t, err, &syntax)
		assert.ErrorContains(t, err, `template "t1": input_context`)
	})
}
