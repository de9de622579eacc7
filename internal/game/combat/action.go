package combat

import (
	"errors"
	"strings"
)

var (
	// ErrInsufficientBrave is returned when an HP attack is chosen without
	// enough Brave.
	ErrInsufficientBrave = errors.New("insufficient brave")
	// ErrInvalidTarget is returned when a target is missing, dead, or on the
	// wrong side.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrInvalidAction is returned for an unknown or malformed action.
	ErrInvalidAction = errors.New("invalid action")
	// ErrUnknownSkill is returned when a skill is unregistered or not known by the actor.
	ErrUnknownSkill = errors.New("unknown skill")
	// ErrEncounterOver is returned by Step once the encounter has ended.
	ErrEncounterOver = errors.New("encounter over")
)

// ActionKind identifies what a combatant does on its turn.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionKind int

const (
	ActionUnknown ActionKind = iota // zero value; intentionally invalid
	ActionDefend
	ActionBraveAttack
	ActionHPAttack
	ActionSkill
)

// String returns the human-readable name of the ActionKind.
func (k ActionKind) String() string {
	switch k {
	case ActionDefend:
		return "defend"
	case ActionBraveAttack:
		return "brave_attack"
	case ActionHPAttack:
		return "hp_attack"
	case ActionSkill:
		return "skill"
	default:
		return "unknown"
	}
}

// ParseActionKind parses the String form of an ActionKind.
func ParseActionKind(s string) ActionKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "defend":
		return ActionDefend
	case "brave_attack":
		return ActionBraveAttack
	case "hp_attack":
		return ActionHPAttack
	case "skill":
		return ActionSkill
	default:
		return ActionUnknown
	}
}

// Action is one choice returned by a DecisionSource.
type Action struct {
	Kind ActionKind
	// SkillID is required for ActionSkill and optional for the basic attacks,
	// where it selects a skill of the matching category.
	SkillID string
	// Targets holds combatant IDs.
	Targets []string
}

// Defend returns the no-op action.
func Defend() Action { return Action{Kind: ActionDefend} }

// BraveAttack returns a basic Brave attack on target.
func BraveAttack(target string) Action {
	return Action{Kind: ActionBraveAttack, Targets: []string{target}}
}

// HPAttack returns a basic HP attack on target.
func HPAttack(target string) Action {
	return Action{Kind: ActionHPAttack, Targets: []string{target}}
}

// UseSkill returns a skill action on targets.
func UseSkill(id string, targets ...string) Action {
	return Action{Kind: ActionSkill, SkillID: id, Targets: targets}
}
