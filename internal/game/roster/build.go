package roster

import (
	"fmt"

	"github.com/cory-johannsen/brave/internal/game/combat"
	"github.com/cory-johannsen/brave/internal/game/stats"
)

// EquipmentSource resolves a list of item IDs into a flat stat bonus.
type EquipmentSource interface {
	Bonuses(ids []string) (stats.StatBlock, error)
}

// Build creates a combatant from tmpl at full HP with the template's initial
// Brave and an empty gauge.
//
// Precondition: tmpl must pass Validate; id must be non-empty.
// Postcondition: Returns an error if any equipment item or skill is unknown.
// A nil equip or skills skips the corresponding check.
func Build(tmpl *Template, id string, equip EquipmentSource, skills *combat.SkillRegistry) (*combat.Combatant, error) {
	c := combat.NewCombatant(id, tmpl.Name, tmpl.Alignment, tmpl.Stats, tmpl.MaxHP, tmpl.MaxBrave, tmpl.InitialBrave)
	if equip != nil && len(tmpl.Equipment) > 0 {
		bonus, err := equip.Bonuses(tmpl.Equipment)
		if err != nil {
			return nil, fmt.Errorf("building %q: %w", tmpl.ID, err)
		}
		c.Equipment = bonus
	}
	for _, sid := range tmpl.Skills {
		if skills == nil {
			break
		}
		if _, ok := skills.Get(sid); !ok {
			return nil, fmt.Errorf("building %q: %w: %s", tmpl.ID, combat.ErrUnknownSkill, sid)
		}
	}
	c.Skills = append([]string(nil), tmpl.Skills...)
	c.Domain = tmpl.AIDomain
	return c, nil
}

// Side builds one combatant per template ID, all forced to align. Repeated
// template IDs get numbered instance IDs ("goblin", "goblin#2", ...).
//
// Postcondition: Returns an error for an unknown template ID or a build failure.
func (r *Roster) Side(align combat.Alignment, ids []string, equip EquipmentSource, skills *combat.SkillRegistry) ([]*combat.Combatant, error) {
	seen := make(map[string]int, len(ids))
	out := make([]*combat.Combatant, 0, len(ids))
	for _, tid := range ids {
		tmpl, ok := r.Get(tid)
		if !ok {
			return nil, fmt.Errorf("roster: unknown template %q", tid)
		}
		seen[tid]++
		id := tid
		if n := seen[tid]; n > 1 {
			id = fmt.Sprintf("%s#%d", tid, n)
		}
		c, err := Build(tmpl, id, equip, skills)
		if err != nil {
			return nil, err
		}
		c.Alignment = align
		out = append(out, c)
	}
	return out, nil
}
