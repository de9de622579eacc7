// Package roster loads combatant templates and builds encounter-ready
// combatants from them.
package roster

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/brave/internal/game/combat"
	"github.com/cory-johannsen/brave/internal/game/stats"
)

// Template defines a reusable combatant archetype loaded from YAML.
type Template struct {
	ID           string           `yaml:"id"`
	Name         string           `yaml:"name"`
	Description  string           `yaml:"description"`
	Alignment    combat.Alignment `yaml:"alignment"`
	MaxHP        int              `yaml:"max_hp"`
	MaxBrave     int              `yaml:"max_brave"`
	InitialBrave int              `yaml:"initial_brave"`
	Stats        stats.StatBlock  `yaml:"stats"`
	Equipment    []string         `yaml:"equipment"`
	Skills       []string         `yaml:"skills"`
	AIDomain     string           `yaml:"ai_domain"` // HTN domain ID; empty = heuristic fallback
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Alignment is set,
// MaxHP >= 1, MaxBrave >= 0, 0 <= InitialBrave <= MaxBrave, and every base
// stat is >= 1; returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("roster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("roster template %q: name must not be empty", t.ID)
	}
	if t.Alignment == combat.AlignNone {
		return fmt.Errorf("roster template %q: alignment must be player or enemy", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("roster template %q: max_hp must be >= 1", t.ID)
	}
	if t.MaxBrave < 0 {
		return fmt.Errorf("roster template %q: max_brave must be >= 0", t.ID)
	}
	if t.InitialBrave < 0 || t.InitialBrave > t.MaxBrave {
		return fmt.Errorf("roster template %q: initial_brave must be in [0, %d]", t.ID, t.MaxBrave)
	}
	for _, s := range stats.AllStats {
		if t.Stats.Get(s) < 1 {
			return fmt.Errorf("roster template %q: stats.%s must be >= 1", t.ID, s)
		}
	}
	return nil
}

// LoadTemplateFromBytes parses a single template from raw YAML bytes.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// Roster indexes templates by ID.
type Roster struct {
	templates map[string]*Template
}

// New returns a Roster holding the given templates.
//
// Postcondition: Returns an error if two templates share an ID.
func New(templates ...*Template) (*Roster, error) {
	r := &Roster{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if _, dup := r.templates[t.ID]; dup {
			return nil, fmt.Errorf("roster: duplicate template id %q", t.ID)
		}
		r.templates[t.ID] = t
	}
	return r, nil
}

// Get returns the template with the given id.
func (r *Roster) Get(id string) (*Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// IDs returns every template ID in sorted order.
func (r *Roster) IDs() []string {
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Load reads all *.yaml files in dir into a Roster.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure.
func Load(dir string) (*Roster, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading roster dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return New(templates...)
}
