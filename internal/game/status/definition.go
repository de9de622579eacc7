// Package status implements timed status effects: damage and heal over time,
// stat buffs and debuffs, action-blocking ailments, and control overrides.
package status

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/brave/internal/game/stats"
)

// Kind is the tagged-variant discriminator of a status effect.
type Kind string

const (
	KindDamageOverTime  Kind = "damage_over_time"
	KindHealOverTime    Kind = "heal_over_time"
	KindStatModifier    Kind = "stat_modifier"
	KindActionBlock     Kind = "action_block"
	KindControlOverride Kind = "control_override"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDamageOverTime, KindHealOverTime, KindStatModifier, KindActionBlock, KindControlOverride:
		return true
	}
	return false
}

// StackPolicy decides what happens when an effect is applied to a combatant
// that already carries an effect of the same definition.
type StackPolicy string

const (
	// StackRefresh keeps one instance and extends its duration to max(old, new).
	StackRefresh StackPolicy = "refresh"
	// StackIndependent adds a stack, capped at MaxStacks.
	StackIndependent StackPolicy = "stack"
)

// Def is the static definition of a status effect, loaded from YAML.
type Def struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Kind        Kind        `yaml:"kind"`
	Stat        stats.Stat  `yaml:"stat"`         // stat_modifier only
	StackPolicy StackPolicy `yaml:"stack_policy"` // empty = refresh
	MaxStacks   int         `yaml:"max_stacks"`   // stack policy only; 0 = 1
	// CanKill lets a damage-over-time tick reduce HP to 0. When false the
	// tick leaves the target at 1 HP at worst.
	CanKill bool `yaml:"can_kill"`
	// Fraction overrides the balance default share of max HP per tick for
	// damage/heal over time. 0 = use the default.
	Fraction float64 `yaml:"fraction"`
}

// Policy returns the effective stacking policy.
func (d *Def) Policy() StackPolicy {
	if d.StackPolicy == "" {
		return StackRefresh
	}
	return d.StackPolicy
}

// StackCap returns the maximum number of stacks, never less than 1.
func (d *Def) StackCap() int {
	if d.Policy() != StackIndependent || d.MaxStacks < 1 {
		return 1
	}
	return d.MaxStacks
}

// Validate checks that the definition satisfies basic invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty, Kind is known,
// stat_modifier defs name a stat, the stack policy is known, and numeric
// fields are non-negative.
func (d *Def) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("status def: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("status def %q: name must not be empty", d.ID)
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("status def %q: unknown kind %q", d.ID, d.Kind)
	}
	if d.Kind == KindStatModifier && d.Stat == stats.StatUnknown {
		return fmt.Errorf("status def %q: stat_modifier requires a stat", d.ID)
	}
	switch d.StackPolicy {
	case "", StackRefresh, StackIndependent:
	default:
		return fmt.Errorf("status def %q: unknown stack_policy %q", d.ID, d.StackPolicy)
	}
	if d.MaxStacks < 0 {
		return fmt.Errorf("status def %q: max_stacks must be >= 0", d.ID)
	}
	if d.Fraction < 0 {
		return fmt.Errorf("status def %q: fraction must be >= 0", d.ID)
	}
	return nil
}

// Registry holds all known Defs keyed by ID. It is read-only after loading and
// may be shared between encounters.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
//
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *Def) {
	r.defs[def.ID] = def
}

// Get returns the Def for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered Defs sorted by ID.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Def,
// validates it, and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading status dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}
