// Package template holds the in-memory prompt template store: bulk loading
// in replace or merge mode, deterministic rendering, self-consistency
// validation and placeholder extraction. It makes no network calls.
package template

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/vk/promptgridgo/internal/config"
	"github.com/vk/promptgridgo/internal/pggerr"
)

// LoadMode controls how Load treats templates already in the store.
type LoadMode int

const (
	// Merge overlays the given entries onto existing ones, keeping
	// unconflicting prior entries.
	Merge LoadMode = iota
	// Replace discards prior content and installs the given set.
	Replace
)

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Placeholders extracts the ordered, deduplicated placeholder names from the
// given input-context entries.
func Placeholders(items ...string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, item := range items {
		for _, m := range placeholderPattern.FindAllStringSubmatch(item, -1) {
			if _, ok := seen[m[1]]; ok {
				continue
			}
			seen[m[1]] = struct{}{}
			names = append(names, m[1])
		}
	}
	return names
}

// Store holds named prompt templates. It belongs to exactly one pipeline and
// is read-only once loading completes.
type Store struct {
	templates map[string]*config.Template
}

// NewStore creates an empty template store.
func NewStore() *Store {
	return &Store{templates: make(map[string]*config.Template)}
}

// Load installs the given templates. Replace discards prior content first;
// Merge overwrites conflicting ids and keeps the rest.
func (s *Store) Load(templates map[string]*config.Template, mode LoadMode) {
	if mode == Replace {
		s.templates = make(map[string]*config.Template, len(templates))
	}
	for id, tpl := range templates {
		s.templates[id] = tpl
	}
}

// Has reports whether a template with the given id exists.
func (s *Store) Has(id string) bool {
	_, ok := s.templates[id]
	return ok
}

// Get returns the template with the given id.
func (s *Store) Get(id string) (*config.Template, error) {
	tpl, ok := s.templates[id]
	if !ok {
		return nil, &pggerr.TemplateNotFoundError{TemplateID: id}
	}
	return tpl, nil
}

// IDs returns all stored template ids, sorted.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.templates))
	for id := range s.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of stored templates.
func (s *Store) Len() int { return len(s.templates) }

// RequiredVariables returns the placeholder names the given template
// declares in its input context.
func (s *Store) RequiredVariables(id string) ([]string, error) {
	tpl, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return Placeholders(tpl.InputContext...), nil
}

// Render substitutes every {name} occurrence in the template text using the
// keys present in vars. Any declared placeholder absent from vars is an
// immediate, named failure; rendering never emits silent blanks.
func (s *Store) Render(id string, vars map[string]string) (string, error) {
	tpl, err := s.Get(id)
	if err != nil {
		return "", err
	}
	if err := s.checkVariables(id, tpl, vars); err != nil {
		return "", err
	}
	return substitute(tpl.Text, vars), nil
}

// BuildPrompt assembles the full prompt a node sends to the generation
// client: the rendered template text, the rendered input context, the
// expected-output token and any free-text instructions, as labeled sections.
func (s *Store) BuildPrompt(id string, vars map[string]string) (string, error) {
	tpl, err := s.Get(id)
	if err != nil {
		return "", err
	}
	if err := s.checkVariables(id, tpl, vars); err != nil {
		return "", err
	}

	parts := []string{"[TASK] " + substitute(tpl.Text, vars)}

	contextParts := make([]string, 0, len(tpl.InputContext))
	for _, item := range tpl.InputContext {
		contextParts = append(contextParts, substitute(item, vars))
	}
	parts = append(parts, "[CONTEXT] "+strings.Join(contextParts, "\n\n"))
	parts = append(parts, "[EXPECTED OUTPUT] "+tpl.ExpectedOutput)

	if len(tpl.Instructions) > 0 {
		parts = append(parts, "[INSTRUCTIONS] "+strings.Join(tpl.Instructions, "; "))
	}

	return strings.Join(parts, "\n\n"), nil
}

func (s *Store) checkVariables(id string, tpl *config.Template, vars map[string]string) error {
	var missing []string
	for _, name := range Placeholders(tpl.InputContext...) {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		available := make([]string, 0, len(vars))
		for name := range vars {
			available = append(available, name)
		}
		sort.Strings(available)
		return &pggerr.MissingVariableError{TemplateID: id, Missing: missing, Available: available}
	}
	return nil
}

func substitute(text string, vars map[string]string) string {
	for name, value := range vars {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}

// Validate walks every stored template and verifies self-consistency: each
// placeholder declared in the input context must literally occur as {name}
// in the template text, and the template text must not be empty. Every
// violation is collected into one report.
func (s *Store) Validate() error {
	var violations []string
	for _, id := range s.IDs() {
		tpl := s.templates[id]
		if strings.TrimSpace(tpl.Text) == "" {
			violations = append(violations, fmt.Sprintf("template %q: empty template text", id))
		}
		if tpl.ExpectedOutput == "" {
			violations = append(violations, fmt.Sprintf("template %q: empty expected_output", id))
		}
		for _, name := range Placeholders(tpl.InputContext...) {
			if !strings.Contains(tpl.Text, "{"+name+"}") {
				violations = append(violations,
					fmt.Sprintf("template %q: declared placeholder %q not found in template text", id, name))
			}
		}
	}
	if len(violations) > 0 {
		return &pggerr.ValidationError{Phase: "template", Violations: violations}
	}
	return nil
}
