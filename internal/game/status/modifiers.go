package status

import (
	"math"

	"github.com/cory-johannsen/brave/internal/game/stats"
)

// Tick is the result of one start-of-turn damage or heal over time.
type Tick struct {
	EffectID string
	Kind     Kind
	Amount   int
	CanKill  bool
}

// CanAct reports whether no action-blocking effect is active.
func (s *ActiveSet) CanAct() bool {
	for _, e := range s.effects {
		if e.Def.Kind == KindActionBlock {
			return false
		}
	}
	return true
}

// IsControlled reports whether a control-override effect is active. The
// combatant may act, but its action source is substituted.
func (s *ActiveSet) IsControlled() bool {
	for _, e := range s.effects {
		if e.Def.Kind == KindControlOverride {
			return true
		}
	}
	return false
}

// Blocking returns the Def ID of the first action-blocking effect, or "".
func (s *ActiveSet) Blocking() string {
	for _, e := range s.effects {
		if e.Def.Kind == KindActionBlock {
			return e.Def.ID
		}
	}
	return ""
}

// Modifiers returns the stat multipliers of all stat_modifier effects.
// A stacked effect contributes its intensity once per stack.
//
// Postcondition: Every returned Multiplier is > 0.
func (s *ActiveSet) Modifiers() []stats.Modifier {
	var out []stats.Modifier
	for _, e := range s.effects {
		if e.Def.Kind != KindStatModifier || e.Intensity <= 0 {
			continue
		}
		for i := 0; i < e.Stacks; i++ {
			out = append(out, stats.Modifier{
				Stat:       e.Def.Stat,
				Multiplier: e.Intensity,
				Order:      e.Order,
				Source:     e.Def.ID,
			})
		}
	}
	return out
}

// StartOfTurn computes the damage and heal over time ticks for this turn.
// Each tick is proportional to the target's maximum HP:
// maxHP × fraction × intensity × stacks, floored at 1. The per-def Fraction
// overrides dotFraction/hotFraction when set.
//
// Precondition: maxHP >= 0.
// Postcondition: Every returned Tick has Amount >= 1. The set is not mutated.
func (s *ActiveSet) StartOfTurn(maxHP int, dotFraction, hotFraction float64) []Tick {
	var ticks []Tick
	for _, e := range s.effects {
		var fraction float64
		switch e.Def.Kind {
		case KindDamageOverTime:
			fraction = dotFraction
		case KindHealOverTime:
			fraction = hotFraction
		default:
			continue
		}
		if e.Def.Fraction > 0 {
			fraction = e.Def.Fraction
		}
		amount := int(math.Floor(float64(maxHP) * fraction * e.Intensity * float64(e.Stacks)))
		if amount < 1 {
			amount = 1
		}
		ticks = append(ticks, Tick{
			EffectID: e.Def.ID,
			Kind:     e.Def.Kind,
			Amount:   amount,
			CanKill:  e.Def.CanKill,
		})
	}
	return ticks
}
