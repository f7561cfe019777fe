// Package pggerr defines the error taxonomy shared across the engine.
//
// Load-time problems surface as NotFoundError, SyntaxError or
// MissingFieldError (configuration class) or as a batched ValidationError.
// Run-time problems surface as DataflowError (unresolvable placeholder) or
// NodeError (the generation client failed for one node).
package pggerr

import (
	"fmt"
	"strings"
)

// NotFoundError reports a configuration file that does not exist.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("config file not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// SyntaxError reports a configuration file that could not be parsed.
type SyntaxError struct {
	Path string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed config file %s: %v", e.Path, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// MissingFieldError names a required field absent from a config object.
type MissingFieldError struct {
	Object string // e.g. layers[1].nodes[0] or templates["reformulate"]
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %q", e.Object, e.Field)
}

// ValidationError is the batched report produced by one validator phase. It
// carries every violation detected in that phase, not just the first.
type ValidationError struct {
	Phase      string
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed:\n- %s", e.Phase, strings.Join(e.Violations, "\n- "))
}

// DataflowError reports a placeholder that could not be resolved against the
// upstream layer's outputs or the reserved names. It carries enough context
// to fix the configuration without reading any source.
type DataflowError struct {
	Placeholder   string
	NodeID        string
	LayerID       string
	UpstreamLayer string
	Available     []string
}

func (e *DataflowError) Error() string {
	return fmt.Sprintf(
		"placeholder '{%s}' required by node %q in layer %q is not produced by layer %q; available outputs: [%s]",
		e.Placeholder, e.NodeID, e.LayerID, e.UpstreamLayer, strings.Join(e.Available, ", "))
}

// NodeError wraps a failure of the external generation client with the id of
// the node whose call failed.
type NodeError struct {
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q: %v", e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// TemplateNotFoundError reports a reference to a template id absent from the
// store.
type TemplateNotFoundError struct {
	TemplateID string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template %q not found", e.TemplateID)
}

// MissingVariableError reports template variables that were declared by a
// template but absent from the rendering input. Rendering never substitutes
// silent blanks.
type MissingVariableError struct {
	TemplateID string
	Missing    []string
	Available  []string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("template %q: missing variables [%s]; available: [%s]",
		e.TemplateID, strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "))
}
