package ai

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/combat"
)

// Source is a combat.DecisionSource driven by HTN planners.
//
// Each request is answered from a candidate list: the actor's domain plan
// first, then a fixed heuristic. Attempt n of a request returns candidate n,
// so a rejected choice falls through to the next one. A Source holds no
// per-encounter state and may serve concurrent encounters.
type Source struct {
	planners *Registry
	skills   *combat.SkillRegistry
	logger   *zap.Logger
}

// NewSource builds a Source.
//
// Precondition: planners and skills must not be nil.
// Postcondition: A nil logger is replaced with zap.NewNop().
func NewSource(planners *Registry, skills *combat.SkillRegistry, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{planners: planners, skills: skills, logger: logger}
}

// ChooseAction implements combat.DecisionSource.
//
// Postcondition: returns ctx's error if it is done; otherwise always returns
// an action, defending once candidates run out.
func (s *Source) ChooseAction(ctx context.Context, req combat.DecisionRequest) (combat.Action, error) {
	if err := ctx.Err(); err != nil {
		return combat.Action{}, err
	}
	ws := BuildWorldState(req)
	candidates := s.candidates(req.Actor, ws)
	if req.Attempt < len(candidates) {
		return candidates[req.Attempt], nil
	}
	return combat.Defend(), nil
}

func (s *Source) candidates(actor *combat.Combatant, ws *WorldState) []combat.Action {
	var out []combat.Action
	if p, ok := s.planners.PlannerFor(actor.Domain); ok {
		plan, err := p.Plan(ws)
		if err != nil {
			s.logger.Warn("ai plan failed", zap.String("actor", actor.ID), zap.Error(err))
		}
		for _, pa := range plan {
			if a, ok := s.convert(actor, pa); ok {
				out = append(out, a)
			}
		}
	} else if actor.Domain != "" {
		s.logger.Debug("no planner for domain", zap.String("actor", actor.ID), zap.String("domain", actor.Domain))
	}
	return append(out, heuristic(ws)...)
}

// convert maps a planned action to a combat action, dropping skills the
// actor cannot use and trimming target lists to the skill's cap.
func (s *Source) convert(actor *combat.Combatant, pa PlannedAction) (combat.Action, bool) {
	switch pa.Action {
	case ActionDefend:
		return combat.Defend(), true
	case ActionBraveAttack:
		return combat.BraveAttack(pa.Targets[0]), true
	case ActionHPAttack:
		return combat.HPAttack(pa.Targets[0]), true
	case ActionSkill:
		if !actor.KnowsSkill(pa.Skill) {
			return combat.Action{}, false
		}
		def, ok := s.skills.Get(pa.Skill)
		if !ok {
			return combat.Action{}, false
		}
		targets := pa.Targets
		if n := def.TargetCap(); len(targets) > n {
			targets = targets[:n]
		}
		return combat.UseSkill(pa.Skill, targets...), true
	}
	return combat.Action{}, false
}

// heuristic is the domain-free fallback: punish a Break, cash in Brave that
// already exceeds a target's HP, otherwise build Brave off the richest enemy.
func heuristic(ws *WorldState) []combat.Action {
	var out []combat.Action
	if b := ws.BrokenEnemy(); b != nil && ws.Self.Brave > 0 {
		out = append(out, combat.HPAttack(b.UID))
	}
	if w := ws.WeakestEnemy(); w != nil && ws.Self.Brave >= w.HP {
		out = append(out, combat.HPAttack(w.UID))
	}
	if h := ws.HighestBraveEnemy(); h != nil {
		out = append(out, combat.BraveAttack(h.UID))
	}
	if n := ws.NearestEnemy(); n != nil {
		out = append(out, combat.BraveAttack(n.UID))
	}
	return out
}
