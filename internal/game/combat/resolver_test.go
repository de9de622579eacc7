package combat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/brave/internal/game/combat"
	"github.com/cory-johannsen/brave/internal/game/dice"
)

func unitSkill() *combat.SkillDef {
	return &combat.SkillDef{ID: "unit", Name: "Unit", Category: combat.CategoryBrave, Target: combat.TargetEnemy, Power: 1}
}

// TestBraveAttack_FixedMultiplierDamage verifies atk 100 vs def 50 at multiplier 1.0 deals
// a fixed damage and transfers it under steal.
func TestBraveAttack_FixedMultiplierDamage(t *testing.T) {
	r := newResolver(exactBalance())
	p := fighter("p", combat.AlignPlayer, 100, 10, 10, 100)
	e := fighter("e", combat.AlignEnemy, 10, 50, 10, 100)
	e.Brave.Current = 50

	ev := r.BraveAttack(p, e, unitSkill())
	assert.Equal(t, 2, ev.Amount)
	assert.Equal(t, combat.ResourceBrave, ev.Resource)
	assert.Equal(t, 2, ev.Gained)
	assert.Equal(t, 48, e.Brave.Current)
	assert.Equal(t, 2, p.Brave.Current)
	assert.False(t, ev.Break)
}

func TestBraveAttack_FixedSeedDamageIsReproducible(t *testing.T) {
	run := func() int {
		bal := combat.DefaultBalance()
		r := combat.NewResolver(bal, dice.NewLoggedRoller(dice.NewSeededSource(7), zap.NewNop()), zap.NewNop())
		p := fighter("p", combat.AlignPlayer, 100, 10, 10, 100)
		e := fighter("e", combat.AlignEnemy, 10, 50, 10, 100)
		e.Brave.Current = 100
		return r.BraveAttack(p, e, unitSkill()).Amount
	}
	first := run()
	assert.Positive(t, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, run())
	}
}

func TestBraveAttack_EnemyMultiplierIsConfigurable(t *testing.T) {
	bal := exactBalance()
	bal.EnemyBraveMultiplier = 0.5
	r := newResolver(bal)
	e := fighter("e", combat.AlignEnemy, 100, 10, 10, 100)
	p := fighter("p", combat.AlignPlayer, 10, 10, 10, 100)
	p.Brave.Current = 100
	skill := unitSkill()
	skill.Power = 10

	assert.Equal(t, 50, r.BraveAttack(e, p, skill).Amount)
}

func TestBraveAttack_ZeroDefenseClampedToOne(t *testing.T) {
	r := newResolver(exactBalance())
	p := fighter("p", combat.AlignPlayer, 30, 10, 10, 100)
	e := fighter("e", combat.AlignEnemy, 10, 0, 10, 100)
	e.Base.PhysicalDefense = 0
	e.Brave.Current = 100
	ev := r.BraveAttack(p, e, unitSkill())
	// effective stats clamp defense to 1
	assert.Equal(t, 30, ev.Amount)
}

func TestBraveAttack_FloorsAtOne(t *testing.T) {
	r := newResolver(exactBalance())
	p := fighter("p", combat.AlignPlayer, 1, 10, 10, 100)
	e := fighter("e", combat.AlignEnemy, 10, 1000, 10, 100)
	e.Brave.Current = 100
	assert.Equal(t, 1, r.BraveAttack(p, e, unitSkill()).Amount)
}

func TestBraveAttack_DrivenToZeroEntersBreak(t *testing.T) {
	bal := exactBalance()
	r := newResolver(bal)
	p := fighter("p", combat.AlignPlayer, 100, 10, 10, 100)
	e := fighter("e", combat.AlignEnemy, 10, 10, 10, 100)
	e.Brave.Current = 5
	skill := unitSkill()
	skill.Power = 3

	ev := r.BraveAttack(p, e, skill)
	assert.Equal(t, 30, ev.Amount)
	assert.True(t, ev.Break)
	assert.True(t, e.Brave.Broken)
	assert.Equal(t, bal.BreakDurationTurns, e.Brave.BreakTurns)
	assert.Equal(t, 0, e.Brave.Current)
	assert.Equal(t, 30, p.Brave.Current, "attacker gains the full damage")
}

func TestBraveAttack_AlreadyBroken_NoSecondBreak(t *testing.T) {
	r := newResolver(exactBalance())
	p := fighter("p", combat.AlignPlayer, 100, 10, 10, 100)
	e := fighter("e", combat.AlignEnemy, 10, 10, 10, 100)
	e.Brave.EnterBreak(3)
	ev := r.BraveAttack(p, e, unitSkill())
	assert.False(t, ev.Break)
	assert.True(t, e.Brave.Broken)
}

func TestBraveAttack_Modes(t *testing.T) {
	cases := []struct {
		mode         combat.BraveMode
		wantDefender int
		wantAttacker int
	}{
		{combat.BraveSteal, 40, 10},
		{combat.BraveDrain, 40, 0},
		{combat.BraveGain, 50, 10},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			r := newResolver(exactBalance())
			p := fighter("p", combat.AlignPlayer, 100, 10, 10, 100)
			e := fighter("e", combat.AlignEnemy, 10, 100, 10, 100)
			e.Brave.Current = 50
			skill := unitSkill()
			skill.Power = 10
			skill.BraveMode = tc.mode
			r.BraveAttack(p, e, skill)
			assert.Equal(t, tc.wantDefender, e.Brave.Current)
			assert.Equal(t, tc.wantAttacker, p.Brave.Current)
		})
	}
}

func TestBraveAttack_CriticalScalesDamage(t *testing.T) {
	bal := exactBalance()
	bal.CritChance = 1
	bal.CritMultiplier = 2
	r := newResolver(bal)
	p := fighter("p", combat.AlignPlayer, 100, 10, 10, 100)
	e := fighter("e", combat.AlignEnemy, 10, 50, 10, 100)
	e.Brave.Current = 100
	ev := r.BraveAttack(p, e, unitSkill())
	assert.True(t, ev.Critical)
	assert.Equal(t, 4, ev.Amount)
}

func TestBraveAttack_GainCappedAtMax(t *testing.T) {
	r := newResolver(exactBalance())
	p := fighter("p", combat.AlignPlayer, 100, 10, 10, 100)
	p.Brave.Current = 95
	e := fighter("e", combat.AlignEnemy, 10, 10, 10, 100)
	e.Brave.Current = 100
	ev := r.BraveAttack(p, e, unitSkill())
	assert.Equal(t, 10, ev.Amount)
	assert.Equal(t, 5, ev.Gained)
	assert.Equal(t, 100, p.Brave.Current)
}

// TestCanUseHPAttack_ZeroBraveRefused verifies a zero-Brave attacker cannot HP attack.
func TestCanUseHPAttack_ZeroBraveRefused(t *testing.T) {
	bal := exactBalance()
	bal.HPAttackMinBraveFraction = 0
	r := newResolver(bal)
	p := fighter("p", combat.AlignPlayer, 10, 10, 10, 100)
	assert.False(t, r.CanUseHPAttack(p))

	e := fighter("e", combat.AlignEnemy, 10, 10, 10, 100)
	_, err := r.HPAttack(p, e, combat.BasicHPSkill())
	require.Error(t, err)
	assert.True(t, errors.Is(err, combat.ErrInsufficientBrave))
	assert.Equal(t, 100, e.CurrentHP)
}

func TestCanUseHPAttack_Threshold(t *testing.T) {
	r := newResolver(exactBalance())
	p := fighter("p", combat.AlignPlayer, 10, 10, 10, 100)
	p.Brave.Current = 9
	assert.False(t, r.CanUseHPAttack(p))
	p.Brave.Current = 10
	assert.True(t, r.CanUseHPAttack(p))
}

func TestHPAttack_SpendsBraveAndDamages(t *testing.T) {
	r := newResolver(exactBalance())
	p := fighter("p", combat.AlignPlayer, 10, 10, 10, 100)
	p.Brave.Current = 40
	e := fighter("e", combat.AlignEnemy, 10, 10, 10, 100)

	ev, err := r.HPAttack(p, e, combat.BasicHPSkill())
	require.NoError(t, err)
	assert.Equal(t, combat.ResourceHP, ev.Resource)
	assert.Equal(t, 40, ev.Amount)
	assert.Equal(t, 60, e.CurrentHP)
	assert.Equal(t, 0, p.Brave.Current)
}

// TestHPAttack_BrokenDefenderTakesBreakBonus verifies identical HP attacks deal break_bonus times
// more damage to a defender in Break.
func TestHPAttack_BrokenDefenderTakesBreakBonus(t *testing.T) {
	bal := exactBalance()
	r := newResolver(bal)
	hit := func(broken bool) int {
		p := fighter("p", combat.AlignPlayer, 10, 10, 10, 1000)
		p.Brave.Current = 100
		e := fighter("e", combat.AlignEnemy, 10, 10, 10, 1000)
		if broken {
			e.Brave.EnterBreak(3)
		}
		ev, err := r.HPAttack(p, e, combat.BasicHPSkill())
		require.NoError(t, err)
		return ev.Amount
	}
	normal := hit(false)
	broken := hit(true)
	assert.Equal(t, 100, normal)
	assert.Equal(t, 150, broken)
	assert.InDelta(t, bal.BreakBonus, float64(broken)/float64(normal), 1e-9)
}

func TestHPAttack_ClampsHPAtZero(t *testing.T) {
	r := newResolver(exactBalance())
	p := fighter("p", combat.AlignPlayer, 10, 10, 10, 100)
	p.Brave.Current = 100
	e := fighter("e", combat.AlignEnemy, 10, 10, 10, 30)
	ev, err := r.HPAttack(p, e, combat.BasicHPSkill())
	require.NoError(t, err)
	assert.Equal(t, 100, ev.Amount)
	assert.Equal(t, 0, e.CurrentHP)
	assert.True(t, e.IsDead())
}

func TestHPAttack_SkillMultiplier(t *testing.T) {
	r := newResolver(exactBalance())
	p := fighter("p", combat.AlignPlayer, 10, 10, 10, 100)
	e := fighter("e", combat.AlignEnemy, 10, 10, 10, 1000)
	skill := combat.BasicHPSkill()
	skill.HPMultiplier = 1.5
	ev := r.SpentHPAttack(p, e, skill, 40)
	assert.Equal(t, 60, ev.Amount)
}

func TestHeal_CappedAtMaxHP(t *testing.T) {
	r := newResolver(exactBalance())
	p := fighter("p", combat.AlignPlayer, 10, 10, 10, 100)
	p.CurrentHP = 90
	skill := &combat.SkillDef{ID: "cure", Name: "Cure", Category: combat.CategorySupport, Target: combat.TargetAlly, HealFraction: 0.3}
	ev := r.Heal(p, p, skill)
	assert.True(t, ev.Heal)
	assert.Equal(t, 10, ev.Amount)
	assert.Equal(t, 100, p.CurrentHP)
}

func TestPropertyBraveAttack_PoolsStayInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		r := combat.NewResolver(combat.DefaultBalance(), dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop()), zap.NewNop())
		maxBrave := rapid.IntRange(1, 5000).Draw(rt, "max_brave")
		p := combat.NewCombatant("p", "p", combat.AlignPlayer,
			block(rapid.IntRange(1, 999).Draw(rt, "atk"), 10, 10), 100, maxBrave, rapid.IntRange(0, maxBrave).Draw(rt, "p_brave"))
		e := combat.NewCombatant("e", "e", combat.AlignEnemy,
			block(10, rapid.IntRange(-10, 999).Draw(rt, "def"), 10), 100, maxBrave, rapid.IntRange(0, maxBrave).Draw(rt, "e_brave"))
		skill := unitSkill()
		skill.Power = rapid.Float64Range(0.1, 50).Draw(rt, "power")

		ev := r.BraveAttack(p, e, skill)
		assert.GreaterOrEqual(rt, ev.Amount, 1)
		for _, c := range []*combat.Combatant{p, e} {
			assert.GreaterOrEqual(rt, c.Brave.Current, 0)
			assert.LessOrEqual(rt, c.Brave.Current, c.Brave.Max)
		}
		if e.Brave.Current == 0 {
			assert.True(rt, e.Brave.Broken)
		}
	})
}

func TestPropertyHPAttack_HPStaysInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := newResolver(combat.DefaultBalance())
		maxHP := rapid.IntRange(1, 10000).Draw(rt, "max_hp")
		p := combat.NewCombatant("p", "p", combat.AlignPlayer, block(10, 10, 10), 100, 9999, rapid.IntRange(1, 9999).Draw(rt, "brave"))
		e := combat.NewCombatant("e", "e", combat.AlignEnemy, block(10, 10, 10), maxHP, 100, 0)
		if rapid.Bool().Draw(rt, "broken") {
			e.Brave.EnterBreak(3)
		}
		if !r.CanUseHPAttack(p) {
			return
		}
		ev, err := r.HPAttack(p, e, combat.BasicHPSkill())
		require.NoError(rt, err)
		assert.GreaterOrEqual(rt, ev.Amount, 1)
		assert.GreaterOrEqual(rt, e.CurrentHP, 0)
		assert.LessOrEqual(rt, e.CurrentHP, e.MaxHP)
		assert.Equal(rt, 0, p.Brave.Current)
	})
}
