package ai_test

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/brave/internal/game/ai"
	"github.com/cory-johannsen/brave/internal/scripting"
)

// mockScriptCaller answers each hook from a fixed table; unknown hooks return nil.
type mockScriptCaller struct {
	hooks map[string]lua.LValue
	calls []string
}

func (m *mockScriptCaller) CallHook(vm, hook string, lookup scripting.Lookup, args ...lua.LValue) (lua.LValue, error) {
	m.calls = append(m.calls, hook)
	if v, ok := m.hooks[hook]; ok {
		return v, nil
	}
	return lua.LNil, nil
}

func fighterDomain() *ai.Domain {
	return &ai.Domain{
		ID: "fighter",
		Tasks: []*ai.Task{
			{ID: "behave"},
			{ID: "fight"},
		},
		Methods: []*ai.Method{
			{TaskID: "behave", ID: "punish", Precondition: "enemy_broken", Subtasks: []string{"hp_broken", "fight"}},
			{TaskID: "behave", ID: "default", Subtasks: []string{"fight"}},
			{TaskID: "fight", ID: "slam", Subtasks: []string{"slam_rich", "brave_near"}},
		},
		Operators: []*ai.Operator{
			{ID: "hp_broken", Action: "hp_attack", Target: "broken_enemy"},
			{ID: "slam_rich", Action: "skill", Skill: "thunder_slam", Target: "highest_brave_enemy"},
			{ID: "brave_near", Action: "brave_attack", Target: "nearest_enemy"},
		},
	}
}

func sampleState() *ai.WorldState {
	return &ai.WorldState{
		Self: &scripting.CombatantInfo{UID: "n1", Side: "enemy", HP: 50, MaxHP: 100, Brave: 80},
		Enemies: []*scripting.CombatantInfo{
			{UID: "p1", Side: "player", HP: 90, MaxHP: 100, Brave: 10},
			{UID: "p2", Side: "player", HP: 40, MaxHP: 100, Brave: 300, Broken: true},
		},
	}
}

func TestPlanner_Plan_PreconditionTrueSelectsMethod(t *testing.T) {
	caller := &mockScriptCaller{hooks: map[string]lua.LValue{"enemy_broken": lua.LTrue}}
	planner := ai.NewPlanner(fighterDomain(), caller, scripting.GlobalVM)

	actions, err := planner.Plan(sampleState())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(actions) != 3 {
		t.Fatalf("expected 3 planned actions, got %d: %+v", len(actions), actions)
	}
	if actions[0].Action != "hp_attack" || actions[0].Targets[0] != "p2" {
		t.Fatalf("expected hp_attack on p2 first, got %+v", actions[0])
	}
	if actions[1].Skill != "thunder_slam" || actions[1].Targets[0] != "p2" {
		t.Fatalf("expected thunder_slam on highest brave p2, got %+v", actions[1])
	}
	if actions[2].Action != "brave_attack" || actions[2].Targets[0] != "p1" {
		t.Fatalf("expected brave_attack on nearest p1, got %+v", actions[2])
	}
}

func TestPlanner_Plan_PreconditionFalseFallsThrough(t *testing.T) {
	caller := &mockScriptCaller{hooks: map[string]lua.LValue{"enemy_broken": lua.LFalse}}
	planner := ai.NewPlanner(fighterDomain(), caller, scripting.GlobalVM)

	actions, err := planner.Plan(sampleState())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(actions) != 2 || actions[0].OperatorID != "slam_rich" {
		t.Fatalf("expected default decomposition [slam_rich brave_near], got %+v", actions)
	}
}

func TestPlanner_Plan_NilReturnIsFalse(t *testing.T) {
	caller := &mockScriptCaller{}
	planner := ai.NewPlanner(fighterDomain(), caller, scripting.GlobalVM)
	actions, err := planner.Plan(sampleState())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if actions[0].OperatorID == "hp_broken" {
		t.Fatal("nil precondition result must not select the method")
	}
	if len(caller.calls) != 1 || caller.calls[0] != "enemy_broken" {
		t.Fatalf("expected one precondition call, got %v", caller.calls)
	}
}

func TestPlanner_Plan_DropsUnresolvableTargets(t *testing.T) {
	caller := &mockScriptCaller{hooks: map[string]lua.LValue{"enemy_broken": lua.LTrue}}
	planner := ai.NewPlanner(fighterDomain(), caller, scripting.GlobalVM)
	ws := sampleState()
	ws.Enemies[1].Broken = false

	actions, err := planner.Plan(ws)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for _, a := range actions {
		if a.OperatorID == "hp_broken" {
			t.Fatal("hp_broken has no broken target and must be dropped")
		}
	}
}

func TestPlanner_Plan_NilStateErrors(t *testing.T) {
	planner := ai.NewPlanner(fighterDomain(), &mockScriptCaller{}, scripting.GlobalVM)
	if _, err := planner.Plan(nil); err == nil {
		t.Fatal("expected error for nil state")
	}
	if _, err := planner.Plan(&ai.WorldState{}); err == nil {
		t.Fatal("expected error for nil Self")
	}
}

func TestPlanner_Plan_NoEnemiesYieldsEmpty(t *testing.T) {
	planner := ai.NewPlanner(fighterDomain(), &mockScriptCaller{}, scripting.GlobalVM)
	actions, err := planner.Plan(&ai.WorldState{Self: &scripting.CombatantInfo{UID: "n1"}})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if actions == nil || len(actions) != 0 {
		t.Fatalf("expected empty non-nil plan, got %#v", actions)
	}
}

func TestNewPlanner_PanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil domain")
		}
	}()
	ai.NewPlanner(nil, &mockScriptCaller{}, "")
}

func TestPlanner_Plan_RecursiveDomainTerminates(t *testing.T) {
	d := &ai.Domain{
		ID:      "loop",
		Tasks:   []*ai.Task{{ID: "behave"}},
		Methods: []*ai.Method{{TaskID: "behave", ID: "again", Subtasks: []string{"behave"}}},
	}
	planner := ai.NewPlanner(d, &mockScriptCaller{}, "")
	actions, err := planner.Plan(sampleState())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(actions) != 0 {
		t.Fatalf("expected empty plan, got %+v", actions)
	}
}

func TestProperty_Planner_TargetsAreLivingEnemies(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 5).Draw(rt, "enemies")
		ws := &ai.WorldState{Self: &scripting.CombatantInfo{UID: "self", HP: 10, MaxHP: 10}}
		valid := map[string]bool{}
		for i := 0; i < n; i++ {
			uid := string(rune('a' + i))
			valid[uid] = true
			ws.Enemies = append(ws.Enemies, &scripting.CombatantInfo{
				UID:    uid,
				HP:     rapid.IntRange(1, 100).Draw(rt, "hp"),
				MaxHP:  100,
				Brave:  rapid.IntRange(0, 999).Draw(rt, "brave"),
				Broken: rapid.Bool().Draw(rt, "broken"),
			})
		}
		broken := rapid.SampledFrom([]lua.LValue{lua.LTrue, lua.LFalse}).Draw(rt, "precondition")
		planner := ai.NewPlanner(fighterDomain(), &mockScriptCaller{hooks: map[string]lua.LValue{"enemy_broken": broken}}, "")
		actions, err := planner.Plan(ws)
		if err != nil {
			rt.Fatalf("Plan: %v", err)
		}
		for _, a := range actions {
			for _, id := range a.Targets {
				if !valid[id] {
					rt.Fatalf("planned target %q is not an enemy", id)
				}
			}
		}
	})
}
