package layer

import (
	"fmt"
	"strings"
)

// Output is the result of one layer run: one text per node, addressable by
// node id and by the node's output key, ordered by configuration order
// regardless of completion order.
type Output struct {
	ids   []string
	keys  []string
	byID  map[string]string
	byKey map[string]string
}

func newOutput(size int) *Output {
	return &Output{
		ids:   make([]string, 0, size),
		keys:  make([]string, 0, size),
		byID:  make(map[string]string, size),
		byKey: make(map[string]string, size),
	}
}

func (o *Output) add(id, key, text string) {
	o.ids = append(o.ids, id)
	o.keys = append(o.keys, key)
	o.byID[id] = text
	o.byKey[key] = text
}

// IDs returns the node ids in configuration order.
func (o *Output) IDs() []string {
	out := make([]string, len(o.ids))
	copy(out, o.ids)
	return out
}

// Keys returns the output keys (expected-output tokens) in configuration
// order.
func (o *Output) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of entries.
func (o *Output) Len() int { return len(o.ids) }

// Get returns the text produced by the node with the given id.
func (o *Output) Get(id string) (string, bool) {
	text, ok := o.byID[id]
	return text, ok
}

// Resolve looks a name up first among output keys, then among node ids.
// This is the lookup the data-flow inference uses.
func (o *Output) Resolve(name string) (string, bool) {
	if text, ok := o.byKey[name]; ok {
		return text, true
	}
	text, ok := o.byID[name]
	return text, ok
}

// Flatten renders the whole output as labeled text sections, the shape the
// reserved `input` placeholder binds to.
func (o *Output) Flatten() string {
	parts := make([]string, 0, len(o.ids))
	for i, id := range o.ids {
		parts = append(parts, fmt.Sprintf("[%s]\n%s", o.keys[i], o.byID[id]))
	}
	return strings.Join(parts, "\n\n")
}
