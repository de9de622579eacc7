// Package combat implements the Brave/HP turn-based combat core.
package combat

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/brave/internal/game/stats"
	"github.com/cory-johannsen/brave/internal/game/status"
)

// Alignment identifies which side a combatant fights for.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignPlayer
	AlignEnemy
)

// String returns a human-readable alignment label.
func (a Alignment) String() string {
	switch a {
	case AlignPlayer:
		return "player"
	case AlignEnemy:
		return "enemy"
	default:
		return "none"
	}
}

// Opponent returns the opposing side. AlignNone has no opponent.
func (a Alignment) Opponent() Alignment {
	switch a {
	case AlignPlayer:
		return AlignEnemy
	case AlignEnemy:
		return AlignPlayer
	default:
		return AlignNone
	}
}

// ParseAlignment parses "player" or "enemy".
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "player":
		return AlignPlayer, nil
	case "enemy":
		return AlignEnemy, nil
	default:
		return AlignNone, fmt.Errorf("unknown alignment %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Alignment) UnmarshalText(text []byte) error {
	v, err := ParseAlignment(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Alignment) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Combatant is one participant in an encounter.
//
// Invariants: 0 <= CurrentHP <= MaxHP; 0 <= Brave.Current <= Brave.Max;
// 0 <= Gauge <= GaugeMax.
type Combatant struct {
	ID        string
	Name      string
	Alignment Alignment
	// Base is the unmodified stat block; Equipment is the flat bonus summed
	// from equipped items when the encounter was built.
	Base      stats.StatBlock
	Equipment stats.StatBlock
	MaxHP     int
	CurrentHP int
	Brave     BravePool
	// Gauge is the ATB gauge in [0, GaugeMax].
	Gauge   float64
	Effects *status.ActiveSet
	// Skills lists the skill IDs this combatant may use beyond the basic attacks.
	Skills []string
	// Domain names the AI domain that drives this combatant, if any.
	Domain string
	// Removed is true once the combatant has been taken out of the encounter.
	Removed bool

	order int
	cast  *PendingCast
}

// NewCombatant creates a combatant at full HP with an empty effect set.
//
// Precondition: id must be non-empty; maxHP >= 1; maxBrave >= 0.
// Postcondition: CurrentHP == MaxHP; Brave.Current == min(initialBrave, maxBrave).
func NewCombatant(id, name string, align Alignment, base stats.StatBlock, maxHP, maxBrave, initialBrave int) *Combatant {
	c := &Combatant{
		ID:        id,
		Name:      name,
		Alignment: align,
		Base:      base,
		MaxHP:     maxHP,
		CurrentHP: maxHP,
		Brave:     BravePool{Max: maxBrave},
		Effects:   status.NewActiveSet(),
	}
	c.Brave.Gain(initialBrave)
	return c
}

// IsDead reports whether the combatant has no HP left.
func (c *Combatant) IsDead() bool { return c.CurrentHP <= 0 }

// Active reports whether the combatant is alive and still in the encounter.
func (c *Combatant) Active() bool { return !c.Removed && !c.IsDead() }

// Casting reports whether a cast-time skill is pending.
func (c *Combatant) Casting() bool { return c.cast != nil }

// Cast returns the pending cast, or nil.
func (c *Combatant) Cast() *PendingCast { return c.cast }

// Order returns the insertion order assigned by the encounter.
func (c *Combatant) Order() int { return c.order }

// KnowsSkill reports whether id is in the combatant's skill list.
func (c *Combatant) KnowsSkill(id string) bool {
	for _, s := range c.Skills {
		if s == id {
			return true
		}
	}
	return false
}

// EffectiveStats returns base stats plus equipment with active stat modifiers
// applied.
//
// Postcondition: Every stat of the result is >= 1.
func (c *Combatant) EffectiveStats() stats.StatBlock {
	return stats.Effective(c.Base, c.Equipment, c.Effects.Modifiers())
}

// ApplyDamage reduces CurrentHP by amount, flooring at zero.
//
// Precondition: amount must be >= 0.
// Postcondition: CurrentHP >= 0. Returns the HP actually removed.
func (c *Combatant) ApplyDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	before := c.CurrentHP
	c.CurrentHP -= amount
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
	return before - c.CurrentHP
}

// Heal increases CurrentHP by amount, capping at MaxHP. Dead combatants are
// not healed.
//
// Postcondition: CurrentHP <= MaxHP. Returns the HP actually restored.
func (c *Combatant) Heal(amount int) int {
	if amount <= 0 || c.IsDead() {
		return 0
	}
	before := c.CurrentHP
	c.CurrentHP += amount
	if c.CurrentHP > c.MaxHP {
		c.CurrentHP = c.MaxHP
	}
	return c.CurrentHP - before
}

// ApplyEffect applies a status effect to a living combatant.
//
// Postcondition: Returns (nil, nil) without change when the combatant is dead
// or removed.
func (c *Combatant) ApplyEffect(def *status.Def, intensity float64, duration int) (*status.Effect, error) {
	if !c.Active() {
		return nil, nil
	}
	return c.Effects.Apply(def, intensity, duration)
}

// remove takes the combatant out of the encounter.
func (c *Combatant) remove() {
	c.Removed = true
	c.Gauge = 0
	c.cast = nil
	c.Effects.Clear()
}
