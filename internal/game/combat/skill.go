package combat

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/brave/internal/game/status"
)

// Built-in skill IDs used by the basic attack actions.
const (
	BasicBraveID = "basic_brave"
	BasicHPID    = "basic_hp"
)

// Category selects which resolver path a skill takes.
type Category string

const (
	CategoryBrave   Category = "brave"
	CategoryHP      Category = "hp"
	CategorySupport Category = "support"
)

// Element selects the attack and defense stats used by a skill.
type Element string

const (
	ElementPhysical Element = "physical"
	ElementMagical  Element = "magical"
)

// TargetSide restricts which combatants a skill may target.
type TargetSide string

const (
	TargetEnemy TargetSide = "enemy"
	TargetAlly  TargetSide = "ally"
	TargetSelf  TargetSide = "self"
)

// BraveMode selects what a Brave skill does with its damage.
type BraveMode string

const (
	// BraveSteal drains the defender and grants the same amount to the attacker.
	BraveSteal BraveMode = "steal"
	// BraveGain only raises the attacker's Brave.
	BraveGain BraveMode = "gain"
	// BraveDrain only lowers the defender's Brave.
	BraveDrain BraveMode = "drain"
)

// EffectApplication is one status effect a skill applies on resolution.
type EffectApplication struct {
	Effect    string  `yaml:"effect"`
	Intensity float64 `yaml:"intensity"`
	Duration  int     `yaml:"duration"`
	// On is "target" (default) or "self".
	On string `yaml:"on"`
	// Chance is the application probability; zero means always.
	Chance float64 `yaml:"chance"`
}

// SkillDef defines one skill loaded from YAML.
type SkillDef struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Category    Category   `yaml:"category"`
	Element     Element    `yaml:"element"`
	Target      TargetSide `yaml:"target"`
	// MaxTargets bounds the number of targets; zero means one.
	MaxTargets int `yaml:"max_targets"`
	// Power is the skill_power factor of Brave damage.
	Power float64 `yaml:"power"`
	// HPMultiplier scales HP damage; zero means 1.
	HPMultiplier float64   `yaml:"hp_multiplier"`
	BraveMode    BraveMode `yaml:"brave_mode"`
	// CastTicks delays resolution by this many scheduler ticks.
	CastTicks int `yaml:"cast_ticks"`
	// HealFraction is the share of the target's max HP restored by support skills.
	HealFraction float64             `yaml:"heal_fraction"`
	Effects      []EffectApplication `yaml:"effects"`
}

// Mode returns the Brave mode, defaulting to steal.
func (s *SkillDef) Mode() BraveMode {
	if s.BraveMode == "" {
		return BraveSteal
	}
	return s.BraveMode
}

// TargetCap returns the maximum number of targets, at least 1.
func (s *SkillDef) TargetCap() int {
	if s.MaxTargets < 1 {
		return 1
	}
	return s.MaxTargets
}

// HPScale returns HPMultiplier, defaulting to 1.
func (s *SkillDef) HPScale() float64 {
	if s.HPMultiplier <= 0 {
		return 1
	}
	return s.HPMultiplier
}

// Validate checks the definition, resolving effect references against effects
// when effects is non-nil.
//
// Postcondition: Returns nil if valid, or an error naming the first violation.
func (s *SkillDef) Validate(effects *status.Registry) error {
	if s.ID == "" {
		return fmt.Errorf("skill: id must not be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("skill %q: name must not be empty", s.ID)
	}
	switch s.Category {
	case CategoryBrave:
		if s.Power <= 0 {
			return fmt.Errorf("skill %q: brave skills need power > 0", s.ID)
		}
	case CategoryHP:
	case CategorySupport:
		if s.HealFraction < 0 || s.HealFraction > 1 {
			return fmt.Errorf("skill %q: heal_fraction must be in [0, 1]", s.ID)
		}
	default:
		return fmt.Errorf("skill %q: unknown category %q", s.ID, s.Category)
	}
	switch s.Element {
	case "", ElementPhysical, ElementMagical:
	default:
		return fmt.Errorf("skill %q: unknown element %q", s.ID, s.Element)
	}
	switch s.Target {
	case TargetEnemy, TargetAlly, TargetSelf:
	default:
		return fmt.Errorf("skill %q: unknown target %q", s.ID, s.Target)
	}
	if s.Category != CategorySupport && s.Target != TargetEnemy {
		return fmt.Errorf("skill %q: %s skills must target enemies", s.ID, s.Category)
	}
	if s.Category == CategoryHP && s.MaxTargets > 1 {
		return fmt.Errorf("skill %q: hp skills are single target", s.ID)
	}
	switch s.BraveMode {
	case "", BraveSteal, BraveGain, BraveDrain:
	default:
		return fmt.Errorf("skill %q: unknown brave_mode %q", s.ID, s.BraveMode)
	}
	if s.CastTicks < 0 || s.MaxTargets < 0 {
		return fmt.Errorf("skill %q: cast_ticks and max_targets must be >= 0", s.ID)
	}
	for i, app := range s.Effects {
		if app.Effect == "" || app.Duration < 1 {
			return fmt.Errorf("skill %q: effect %d needs an id and duration >= 1", s.ID, i)
		}
		if app.On != "" && app.On != "target" && app.On != "self" {
			return fmt.Errorf("skill %q: effect %q has unknown on %q", s.ID, app.Effect, app.On)
		}
		if app.Chance < 0 || app.Chance > 1 {
			return fmt.Errorf("skill %q: effect %q chance must be in [0, 1]", s.ID, app.Effect)
		}
		if effects != nil {
			if _, ok := effects.Get(app.Effect); !ok {
				return fmt.Errorf("skill %q: unknown effect %q", s.ID, app.Effect)
			}
		}
	}
	return nil
}

// BasicBraveSkill returns the built-in Brave attack.
func BasicBraveSkill(power float64) *SkillDef {
	return &SkillDef{
		ID:       BasicBraveID,
		Name:     "Brave Attack",
		Category: CategoryBrave,
		Element:  ElementPhysical,
		Target:   TargetEnemy,
		Power:    power,
	}
}

// BasicHPSkill returns the built-in HP attack.
func BasicHPSkill() *SkillDef {
	return &SkillDef{
		ID:           BasicHPID,
		Name:         "HP Attack",
		Category:     CategoryHP,
		Element:      ElementPhysical,
		Target:       TargetEnemy,
		HPMultiplier: 1,
	}
}

// SkillRegistry holds all loaded skill definitions keyed by ID. It is
// read-only after loading and safe to share between encounters.
type SkillRegistry struct {
	defs map[string]*SkillDef
}

// NewSkillRegistry creates a registry holding the built-in basic skills.
//
// Postcondition: Get(BasicBraveID) and Get(BasicHPID) succeed.
func NewSkillRegistry(bal Balance) *SkillRegistry {
	r := &SkillRegistry{defs: make(map[string]*SkillDef)}
	r.Register(BasicBraveSkill(bal.BasicBravePower))
	r.Register(BasicHPSkill())
	return r
}

// Register adds or replaces a definition.
func (r *SkillRegistry) Register(def *SkillDef) {
	r.defs[def.ID] = def
}

// Get returns the definition for id.
func (r *SkillRegistry) Get(id string) (*SkillDef, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns every definition sorted by ID.
func (r *SkillRegistry) All() []*SkillDef {
	out := make([]*SkillDef, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadSkills reads every .yaml file in dir into a registry seeded with the
// built-in skills. A file may override a built-in by reusing its ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil registry, or an error naming the failing file.
func LoadSkills(dir string, bal Balance, effects *status.Registry) (*SkillRegistry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading skill dir %q: %w", dir, err)
	}
	reg := NewSkillRegistry(bal)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def SkillDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(effects); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}
