package ai

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/brave/internal/scripting"
)

// ScriptCaller is the interface required by the Planner to evaluate Lua preconditions.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the given VM with lookup bound
	// for engine.* queries. Returns (LNil, nil) if the function is not defined.
	CallHook(vm, hook string, lookup scripting.Lookup, args ...lua.LValue) (lua.LValue, error)
}

// PlannedAction is one primitive action produced by the planner.
type PlannedAction struct {
	OperatorID string
	Action     string   // "brave_attack", "hp_attack", "skill", "defend"
	Skill      string   // set when Action is "skill"
	Targets    []string // resolved combatant IDs; empty for defend or self skills
}

// Planner evaluates an HTN domain for a single actor and produces an ordered
// list of candidate actions for the current turn, best first.
//
// Invariant: domain and caller must not be nil.
type Planner struct {
	domain *Domain
	caller ScriptCaller
	vm     string
}

// NewPlanner constructs a Planner whose preconditions run in the named VM.
//
// Precondition: domain and caller must not be nil.
func NewPlanner(domain *Domain, caller ScriptCaller, vm string) *Planner {
	if domain == nil {
		panic("ai.NewPlanner: domain must not be nil")
	}
	if caller == nil {
		panic("ai.NewPlanner: caller must not be nil")
	}
	return &Planner{domain: domain, caller: caller, vm: vm}
}

// Domain returns the planner's domain.
func (p *Planner) Domain() *Domain { return p.domain }

// Plan evaluates the HTN domain against state and returns an ordered plan.
//
// Precondition: state and state.Self must not be nil.
// Postcondition: returns non-nil slice (may be empty); never returns error for Lua failures
// (they are treated as precondition-false). Operators whose target token
// resolves to nobody are dropped.
func (p *Planner) Plan(state *WorldState) ([]PlannedAction, error) {
	if state == nil || state.Self == nil {
		return nil, fmt.Errorf("ai.Planner.Plan: state and state.Self must not be nil")
	}

	taskQueue := []string{RootTask}
	var result []PlannedAction

	const maxDepth = 32 // guard against infinite loops
	steps := 0

	for len(taskQueue) > 0 && steps < maxDepth {
		steps++
		current := taskQueue[0]
		taskQueue = taskQueue[1:]

		if op, ok := p.domain.OperatorByID(current); ok {
			pa := PlannedAction{OperatorID: op.ID, Action: op.Action, Skill: op.Skill}
			if op.Action != ActionDefend {
				pa.Targets = state.ResolveTargets(op.Target)
				if len(pa.Targets) == 0 {
					continue
				}
			}
			result = append(result, pa)
			continue
		}

		method := p.findApplicableMethod(current, state)
		if method == nil {
			continue
		}

		// Prepend subtasks (preserves ordered decomposition).
		next := make([]string, 0, len(method.Subtasks)+len(taskQueue))
		next = append(next, method.Subtasks...)
		taskQueue = append(next, taskQueue...)
	}

	if result == nil {
		result = []PlannedAction{}
	}
	return result, nil
}

// findApplicableMethod returns the first Method for taskID whose precondition passes,
// or nil if none applies.
//
// Methods are tried in declaration order. An empty Precondition always passes.
func (p *Planner) findApplicableMethod(taskID string, state *WorldState) *Method {
	for _, m := range p.domain.MethodsForTask(taskID) {
		if m.Precondition == "" {
			return m
		}
		val, _ := p.caller.CallHook(p.vm, m.Precondition, state, lua.LString(state.Self.UID))
		if val == lua.LTrue {
			return m
		}
	}
	return nil
}
