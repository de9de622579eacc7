package combat_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/combat"
	"github.com/cory-johannsen/brave/internal/game/dice"
	"github.com/cory-johannsen/brave/internal/game/stats"
	"github.com/cory-johannsen/brave/internal/game/status"
)

// fixedSrc always returns the same draws.
type fixedSrc struct {
	i int
	f float64
}

func (f fixedSrc) Intn(_ int) int    { return f.i }
func (f fixedSrc) Float64() float64 { return f.f }

// exactBalance removes variance and crits so damage is exact.
func exactBalance() combat.Balance {
	b := combat.DefaultBalance()
	b.VarianceMin, b.VarianceMax = 1, 1
	b.CritChance = 0
	return b
}

func fixedRoller() *dice.Roller {
	return dice.NewLoggedRoller(fixedSrc{f: 0.5}, zap.NewNop())
}

func newResolver(bal combat.Balance) *combat.Resolver {
	return combat.NewResolver(bal, fixedRoller(), zap.NewNop())
}

func block(atk, def, speed int) stats.StatBlock {
	return stats.StatBlock{
		PhysicalAttack:  atk,
		MagicalAttack:   atk,
		PhysicalDefense: def,
		MagicalDefense:  def,
		Speed:           speed,
	}
}

func fighter(id string, align combat.Alignment, atk, def, speed, hp int) *combat.Combatant {
	return combat.NewCombatant(id, id, align, block(atk, def, speed), hp, 100, 0)
}

func stunDef() *status.Def {
	return &status.Def{ID: "stun", Name: "Stun", Kind: status.KindActionBlock}
}

func charmDef() *status.Def {
	return &status.Def{ID: "charm", Name: "Charm", Kind: status.KindControlOverride}
}

func effectRegistry() *status.Registry {
	reg := status.NewRegistry()
	reg.Register(stunDef())
	reg.Register(charmDef())
	reg.Register(&status.Def{ID: "poison", Name: "Poison", Kind: status.KindDamageOverTime, StackPolicy: status.StackIndependent, MaxStacks: 3})
	reg.Register(&status.Def{ID: "burn", Name: "Burn", Kind: status.KindDamageOverTime, CanKill: true})
	reg.Register(&status.Def{ID: "regen", Name: "Regen", Kind: status.KindHealOverTime})
	reg.Register(&status.Def{ID: "slow", Name: "Slow", Kind: status.KindStatModifier, Stat: stats.StatSpeed})
	return reg
}

// defender always defends.
var defender = combat.DecisionFunc(func(_ context.Context, _ combat.DecisionRequest) (combat.Action, error) {
	return combat.Defend(), nil
})

// bruiser attacks the first enemy, spending Brave once at least half full.
var bruiser = combat.DecisionFunc(func(_ context.Context, req combat.DecisionRequest) (combat.Action, error) {
	if len(req.Enemies) == 0 {
		return combat.Defend(), nil
	}
	target := req.Enemies[0].ID
	if req.Actor.Brave.Fraction() >= 0.5 {
		return combat.HPAttack(target), nil
	}
	return combat.BraveAttack(target), nil
})

func sources(player, enemy combat.DecisionSource) map[combat.Alignment]combat.DecisionSource {
	return map[combat.Alignment]combat.DecisionSource{
		combat.AlignPlayer: player,
		combat.AlignEnemy:  enemy,
	}
}

func newEncounter(t testing.TB, cs []*combat.Combatant, deps combat.Deps) *combat.Encounter {
	t.Helper()
	if deps.Roller == nil {
		deps.Roller = fixedRoller()
	}
	if deps.Balance == (combat.Balance{}) {
		deps.Balance = exactBalance()
	}
	enc, err := combat.NewEncounter(uuid.New(), cs, deps)
	if err != nil {
		t.Fatalf("NewEncounter: %v", err)
	}
	return enc
}
