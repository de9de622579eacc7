package combat

// PendingCast is a skill waiting for its cast time to elapse. Brave for HP
// skills is spent when the cast begins and is not refunded on cancel.
type PendingCast struct {
	Skill          *SkillDef
	Targets        []string
	TicksRemaining int
	BraveSpent     int
}

// beginCast starts a cast of skill on targets.
//
// Postcondition: c.Casting() is true; for HP skills c.Brave.Current == 0.
func (c *Combatant) beginCast(skill *SkillDef, targets []string) *PendingCast {
	pc := &PendingCast{
		Skill:          skill,
		Targets:        append([]string(nil), targets...),
		TicksRemaining: skill.CastTicks,
	}
	if skill.Category == CategoryHP {
		pc.BraveSpent = c.Brave.Spend()
	}
	c.cast = pc
	return pc
}

// cancelCast drops the pending cast and returns it, or nil.
func (c *Combatant) cancelCast() *PendingCast {
	pc := c.cast
	c.cast = nil
	return pc
}
