// Package config holds the format-agnostic data model for a pipeline:
// nodes, layers, templates and their LLM parameter sets. It is structure
// only; parsing lives in the format adapters and all behavior lives in the
// engine packages.
package config

// Reserved placeholder names understood by the data-flow resolver.
const (
	// ReservedQuery always binds to the original query text captured at the
	// start of a Pipeline.Process call.
	ReservedQuery = "query"
	// ReservedQuestion binds to the raw input text on a first-layer node.
	ReservedQuestion = "question"
	// ReservedInput binds to the entire upstream layer output, flattened to
	// text, for nodes that want unstructured access to everything.
	ReservedInput = "input"
)

// Reasoning effort levels accepted by LLMConfig.
const (
	EffortLow    = "low"
	EffortMedium = "medium"
	EffortHigh   = "high"
)

// LLMConfig is the per-node parameter set for the generation client.
type LLMConfig struct {
	Model           string
	Temperature     float64
	ReasoningEffort string
	MaxTokens       int
}

// NodeConfig describes a single unit of work. Immutable after load.
type NodeConfig struct {
	ID          string
	Name        string
	Description string
	Type        string
	TemplateID  string
	LLM         LLMConfig
}

// Execution modes for a layer.
const (
	// ModeParallel runs every node concurrently on an identical copy of the
	// layer input. The default.
	ModeParallel = "parallel"
	// ModeSequential chains nodes: node i receives the raw output of node
	// i-1; node 0 receives the layer input.
	ModeSequential = "sequential"
)

// LayerConfig describes an ordered group of nodes executed together.
// Immutable after load. Mode is optional on the wire and defaults to
// parallel.
type LayerConfig struct {
	ID          string
	Name        string
	Description string
	Mode        string
	Nodes       []NodeConfig
}

// PipelineConfig is the ordered list of layers driving one pipeline. It is
// the sole artifact a Loader produces for the layer side and the sole input
// the validator and pipeline builder consume.
type PipelineConfig struct {
	Layers []LayerConfig
}

// Template is a parameterized prompt specification. InputContext declares
// the variables a node requires from upstream; ExpectedOutput is the name by
// which the node's result is addressed downstream.
type Template struct {
	Text           string
	InputContext   []string
	ExpectedOutput string
	Instructions   []string
	Metadata       map[string]any
}

// Model aggregates everything a single load produces.
type Model struct {
	Pipeline  *PipelineConfig
	Templates map[string]*Template
}
