package combat

import (
	"fmt"

	"github.com/cory-johannsen/brave/internal/game/stats"
	"github.com/cory-johannsen/brave/internal/game/status"
)

// EffectRecord is the persisted form of one active status effect.
type EffectRecord struct {
	EffectID  string  `json:"effect_id"`
	Intensity float64 `json:"intensity"`
	Remaining int     `json:"remaining"`
	Stacks    int     `json:"stacks"`
}

// CastRecord is the persisted form of a pending cast.
type CastRecord struct {
	SkillID        string   `json:"skill_id"`
	Targets        []string `json:"targets"`
	TicksRemaining int      `json:"ticks_remaining"`
	BraveSpent     int      `json:"brave_spent"`
}

// Record is a point-in-time snapshot of a combatant, sufficient to resume an
// encounter: gauge, Brave, Break, HP and active effects are all preserved.
type Record struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Alignment  Alignment       `json:"alignment"`
	Base       stats.StatBlock `json:"base"`
	Equipment  stats.StatBlock `json:"equipment"`
	MaxHP      int             `json:"max_hp"`
	CurrentHP  int             `json:"current_hp"`
	Brave      int             `json:"brave"`
	MaxBrave   int             `json:"max_brave"`
	Broken     bool            `json:"broken"`
	BreakTurns int             `json:"break_turns"`
	Gauge      float64         `json:"gauge"`
	Skills     []string        `json:"skills"`
	Domain     string          `json:"domain"`
	Removed    bool            `json:"removed"`
	Effects    []EffectRecord  `json:"effects"`
	Cast       *CastRecord     `json:"cast,omitempty"`
}

// Snapshot captures c as a Record.
//
// Postcondition: Effects are listed in application order.
func Snapshot(c *Combatant) Record {
	rec := Record{
		ID:         c.ID,
		Name:       c.Name,
		Alignment:  c.Alignment,
		Base:       c.Base,
		Equipment:  c.Equipment,
		MaxHP:      c.MaxHP,
		CurrentHP:  c.CurrentHP,
		Brave:      c.Brave.Current,
		MaxBrave:   c.Brave.Max,
		Broken:     c.Brave.Broken,
		BreakTurns: c.Brave.BreakTurns,
		Gauge:      c.Gauge,
		Skills:     append([]string(nil), c.Skills...),
		Domain:     c.Domain,
		Removed:    c.Removed,
	}
	for _, e := range c.Effects.Effects() {
		rec.Effects = append(rec.Effects, EffectRecord{
			EffectID:  e.Def.ID,
			Intensity: e.Intensity,
			Remaining: e.Remaining,
			Stacks:    e.Stacks,
		})
	}
	if pc := c.cast; pc != nil {
		rec.Cast = &CastRecord{
			SkillID:        pc.Skill.ID,
			Targets:        append([]string(nil), pc.Targets...),
			TicksRemaining: pc.TicksRemaining,
			BraveSpent:     pc.BraveSpent,
		}
	}
	return rec
}

// Restore rebuilds a Combatant from rec, resolving effect and skill IDs.
// Out-of-range pools are clamped rather than rejected.
//
// Precondition: effects and skills must be non-nil.
// Postcondition: Returns an error if rec names an unknown effect or skill.
func Restore(rec Record, effects *status.Registry, skills *SkillRegistry) (*Combatant, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("restore: record id must not be empty")
	}
	maxHP := max(1, rec.MaxHP)
	maxBrave := max(0, rec.MaxBrave)
	c := &Combatant{
		ID:        rec.ID,
		Name:      rec.Name,
		Alignment: rec.Alignment,
		Base:      rec.Base,
		Equipment: rec.Equipment,
		MaxHP:     maxHP,
		CurrentHP: min(max(0, rec.CurrentHP), maxHP),
		Brave: BravePool{
			Current:    min(max(0, rec.Brave), maxBrave),
			Max:        maxBrave,
			Broken:     rec.Broken,
			BreakTurns: rec.BreakTurns,
		},
		Gauge:   min(max(0, rec.Gauge), GaugeMax),
		Effects: status.NewActiveSet(),
		Skills:  append([]string(nil), rec.Skills...),
		Domain:  rec.Domain,
		Removed: rec.Removed,
	}
	for _, er := range rec.Effects {
		def, ok := effects.Get(er.EffectID)
		if !ok {
			return nil, fmt.Errorf("restore %q: unknown effect %q", rec.ID, er.EffectID)
		}
		if _, err := c.Effects.Restore(def, er.Intensity, er.Remaining, er.Stacks); err != nil {
			return nil, fmt.Errorf("restore %q: %w", rec.ID, err)
		}
	}
	if rec.Cast != nil {
		skill, ok := skills.Get(rec.Cast.SkillID)
		if !ok {
			return nil, fmt.Errorf("restore %q: unknown skill %q", rec.ID, rec.Cast.SkillID)
		}
		c.cast = &PendingCast{
			Skill:          skill,
			Targets:        append([]string(nil), rec.Cast.Targets...),
			TicksRemaining: max(0, rec.Cast.TicksRemaining),
			BraveSpent:     max(0, rec.Cast.BraveSpent),
		}
	}
	return c, nil
}
