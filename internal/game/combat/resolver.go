package combat

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/dice"
	"github.com/cory-johannsen/brave/internal/game/stats"
)

// Resolver computes Brave damage, HP damage and heals. It mutates only the
// combatants passed to it.
type Resolver struct {
	bal    Balance
	roll   *dice.Roller
	logger *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: roll and logger must be non-nil; bal must be valid.
func NewResolver(bal Balance, roll *dice.Roller, logger *zap.Logger) *Resolver {
	return &Resolver{bal: bal, roll: roll, logger: logger}
}

// CanUseHPAttack reports whether attacker holds enough Brave for an HP attack.
//
// Postcondition: Returns false when Brave is 0, regardless of the threshold.
func (r *Resolver) CanUseHPAttack(attacker *Combatant) bool {
	if attacker.Brave.Current <= 0 {
		return false
	}
	return float64(attacker.Brave.Current) >= r.bal.HPAttackMinBraveFraction*float64(attacker.Brave.Max)
}

// BraveAttack resolves a Brave skill from attacker against defender.
//
// Damage = attack / max(1, defense) × base_multiplier × power × variance,
// times the crit multiplier on a critical hit, floored at 1. In steal mode
// the defender loses and the attacker gains the damage; gain and drain apply
// only one side. A defender driven to zero Brave enters Break.
//
// Precondition: both combatants are active; skill.Category is CategoryBrave.
// Postcondition: Brave of both combatants stays within [0, Max].
func (r *Resolver) BraveAttack(attacker, defender *Combatant, skill *SkillDef) DamageEvent {
	atk, def := attackDefense(attacker.EffectiveStats(), defender.EffectiveStats(), skill.Element)
	variance := r.roll.Between("brave variance", r.bal.VarianceMin, r.bal.VarianceMax)
	raw := float64(atk) / float64(max(1, def)) * r.bal.BaseMultiplier(attacker.Alignment) * skill.Power * variance
	crit := r.roll.Chance("brave crit", r.bal.CritChance)
	if crit {
		raw *= r.bal.CritMultiplier
	}
	dmg := floorDamage(raw)

	ev := DamageEvent{
		SourceID: attacker.ID,
		TargetID: defender.ID,
		SkillID:  skill.ID,
		Resource: ResourceBrave,
		Amount:   dmg,
		Critical: crit,
	}
	mode := skill.Mode()
	if mode == BraveSteal || mode == BraveDrain {
		defender.Brave.Drain(dmg)
		if defender.Brave.Current <= 0 && !defender.Brave.Broken {
			defender.Brave.EnterBreak(r.bal.BreakDurationTurns)
			ev.Break = true
		}
	}
	if mode == BraveSteal || mode == BraveGain {
		ev.Gained = attacker.Brave.Gain(dmg)
	}
	r.logger.Debug("brave attack",
		zap.String("attacker", attacker.ID),
		zap.String("defender", defender.ID),
		zap.String("mode", string(mode)),
		zap.Int("damage", dmg),
		zap.Bool("break", ev.Break),
	)
	return ev
}

// HPAttack resolves an HP skill, spending all of the attacker's Brave.
//
// Precondition: both combatants are active.
// Postcondition: Returns ErrInsufficientBrave without change when
// CanUseHPAttack is false; otherwise attacker Brave is 0.
func (r *Resolver) HPAttack(attacker, defender *Combatant, skill *SkillDef) (DamageEvent, error) {
	if !r.CanUseHPAttack(attacker) {
		return DamageEvent{}, fmt.Errorf("%s has %d/%d brave: %w",
			attacker.ID, attacker.Brave.Current, attacker.Brave.Max, ErrInsufficientBrave)
	}
	return r.SpentHPAttack(attacker, defender, skill, attacker.Brave.Spend()), nil
}

// SpentHPAttack resolves an HP skill using Brave already spent, as when a
// cast started earlier completes.
//
// Damage = spent × hp_damage_ratio × skill hp multiplier, times break_bonus
// when the defender is in Break, floored at 1.
//
// Postcondition: defender HP >= 0.
func (r *Resolver) SpentHPAttack(attacker, defender *Combatant, skill *SkillDef, spent int) DamageEvent {
	raw := float64(spent) * r.bal.HPDamageRatio * skill.HPScale()
	if defender.Brave.Broken {
		raw *= r.bal.BreakBonus
	}
	dmg := floorDamage(raw)
	defender.ApplyDamage(dmg)
	r.logger.Debug("hp attack",
		zap.String("attacker", attacker.ID),
		zap.String("defender", defender.ID),
		zap.Int("spent", spent),
		zap.Int("damage", dmg),
		zap.Bool("broken", defender.Brave.Broken),
	)
	return DamageEvent{
		SourceID: attacker.ID,
		TargetID: defender.ID,
		SkillID:  skill.ID,
		Resource: ResourceHP,
		Amount:   dmg,
	}
}

// Heal restores skill.HealFraction × target max HP.
//
// Postcondition: target HP <= MaxHP; the event Amount is the HP restored.
func (r *Resolver) Heal(caster, target *Combatant, skill *SkillDef) DamageEvent {
	amount := int(math.Floor(float64(target.MaxHP) * skill.HealFraction))
	healed := target.Heal(amount)
	return DamageEvent{
		SourceID: caster.ID,
		TargetID: target.ID,
		SkillID:  skill.ID,
		Resource: ResourceHP,
		Amount:   healed,
		Heal:     true,
	}
}

func attackDefense(a, d stats.StatBlock, el Element) (int, int) {
	if el == ElementMagical {
		return a.MagicalAttack, d.MagicalDefense
	}
	return a.PhysicalAttack, d.PhysicalDefense
}

func floorDamage(raw float64) int {
	if math.IsNaN(raw) || raw < 1 {
		return 1
	}
	if raw > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(raw))
}
