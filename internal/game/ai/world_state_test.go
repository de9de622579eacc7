package ai_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/cory-johannsen/brave/internal/game/ai"
	"github.com/cory-johannsen/brave/internal/game/combat"
	"github.com/cory-johannsen/brave/internal/game/stats"
	"github.com/cory-johannsen/brave/internal/game/status"
	"github.com/cory-johannsen/brave/internal/scripting"
)

func unit(id string, align combat.Alignment, hp, brave int) *combat.Combatant {
	c := combat.NewCombatant(id, id, align, stats.StatBlock{PhysicalAttack: 10, MagicalAttack: 10, PhysicalDefense: 10, MagicalDefense: 10, Speed: 10}, 100, 999, brave)
	c.CurrentHP = hp
	return c
}

func TestBuildWorldState_CopiesRequest(t *testing.T) {
	me := unit("n1", combat.AlignEnemy, 50, 120)
	ally := unit("n2", combat.AlignEnemy, 100, 0)
	dead := unit("p0", combat.AlignPlayer, 0, 0)
	foe := unit("p1", combat.AlignPlayer, 70, 30)
	foe.Brave.EnterBreak(3)
	if _, err := me.ApplyEffect(&status.Def{ID: "poison", Name: "Poison", Kind: status.KindDamageOverTime}, 1, 2); err != nil {
		t.Fatalf("ApplyEffect: %v", err)
	}

	ws := ai.BuildWorldState(combat.DecisionRequest{
		Turn: 4, Actor: me, Allies: []*combat.Combatant{ally}, Enemies: []*combat.Combatant{dead, foe},
	})
	if ws.Turn != 4 || ws.Self.UID != "n1" || ws.Self.Brave != 120 || ws.Self.Side != "enemy" {
		t.Fatalf("unexpected self: %+v", ws.Self)
	}
	if len(ws.Self.Effects) != 1 || ws.Self.Effects[0] != "poison" {
		t.Fatalf("expected poison on self, got %v", ws.Self.Effects)
	}
	if len(ws.Enemies) != 1 || ws.Enemies[0].UID != "p1" || !ws.Enemies[0].Broken {
		t.Fatalf("expected only living broken p1 as enemy, got %+v", ws.Enemies)
	}
	if len(ws.Allies) != 1 || ws.Allies[0].UID != "n2" {
		t.Fatalf("expected n2 as ally, got %+v", ws.Allies)
	}
}

func TestWorldState_Lookup_Perspectives(t *testing.T) {
	ws := sampleState()
	ws.Allies = []*scripting.CombatantInfo{{UID: "n2", HP: 10, MaxHP: 100}}

	if got := ws.Enemies("n1"); len(got) != 2 {
		t.Fatalf("Enemies(self) = %d, want 2", len(got))
	}
	if got := ws.Enemies("n2"); len(got) != 2 {
		t.Fatalf("Enemies(ally) = %d, want 2", len(got))
	}
	if got := ws.Enemies("p1"); len(got) != 2 || got[0].UID != "n1" {
		t.Fatalf("Enemies(p1) should be self and ally, got %+v", got)
	}
	if got := ws.Allies("n1"); len(got) != 1 || got[0].UID != "n2" {
		t.Fatalf("Allies(self) = %+v, want [n2]", got)
	}
	if got := ws.Allies("p1"); len(got) != 1 || got[0].UID != "p2" {
		t.Fatalf("Allies(p1) = %+v, want [p2]", got)
	}
	if ws.Combatant("p2") == nil || ws.Combatant("zz") != nil {
		t.Fatal("Combatant lookup mismatch")
	}
	if ws.Enemies("zz") != nil || ws.Allies("zz") != nil {
		t.Fatal("unknown uid must have no enemies or allies")
	}
}

func TestWorldState_ResolveTargets(t *testing.T) {
	ws := sampleState()
	ws.Allies = []*scripting.CombatantInfo{{UID: "n2", HP: 10, MaxHP: 100}}
	cases := map[string][]string{
		"nearest_enemy":       {"p1"},
		"weakest_enemy":       {"p2"},
		"broken_enemy":        {"p2"},
		"highest_brave_enemy": {"p2"},
		"all_enemies":         {"p1", "p2"},
		"weakest_ally":        {"n2"},
		"self":                {"n1"},
	}
	for token, want := range cases {
		got := ws.ResolveTargets(token)
		if len(got) != len(want) {
			t.Fatalf("%s: got %v, want %v", token, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: got %v, want %v", token, got, want)
			}
		}
	}
	if got := ws.ResolveTargets("bogus"); got != nil {
		t.Fatalf("unknown token resolved to %v", got)
	}
}

func TestWorldState_ResolveTargets_NoEnemies(t *testing.T) {
	ws := &ai.WorldState{Self: &scripting.CombatantInfo{UID: "n1", HP: 5, MaxHP: 10}}
	for _, token := range []string{"nearest_enemy", "weakest_enemy", "broken_enemy", "highest_brave_enemy", "all_enemies"} {
		if got := ws.ResolveTargets(token); got != nil {
			t.Fatalf("%s resolved to %v with no enemies", token, got)
		}
	}
	if got := ws.ResolveTargets("weakest_ally"); len(got) != 1 || got[0] != "n1" {
		t.Fatalf("weakest_ally with no allies must be self, got %v", got)
	}
}

func TestProperty_WeakestEnemy_HasMinimumHPPercent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(rt, "n")
		ws := &ai.WorldState{Self: &scripting.CombatantInfo{UID: "self"}}
		for i := 0; i < n; i++ {
			ws.Enemies = append(ws.Enemies, &scripting.CombatantInfo{
				UID:   string(rune('a' + i)),
				HP:    rapid.IntRange(1, 500).Draw(rt, "hp"),
				MaxHP: rapid.IntRange(500, 1000).Draw(rt, "max"),
			})
		}
		w := ws.WeakestEnemy()
		for _, e := range ws.Enemies {
			if e.HPPercent() < w.HPPercent() {
				rt.Fatalf("enemy %s at %.2f%% is weaker than chosen %s at %.2f%%", e.UID, e.HPPercent(), w.UID, w.HPPercent())
			}
		}
	})
}
