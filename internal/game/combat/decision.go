package combat

import "context"

// DecisionRequest is what a DecisionSource sees when asked to act.
//
// Allies and Enemies are from the point of view of the side making the
// choice: for a controlled actor they are swapped, so Enemies holds the
// actor's own teammates.
type DecisionRequest struct {
	Turn    int
	Actor   *Combatant
	Allies  []*Combatant
	Enemies []*Combatant
	// Controlled is true when a control-override effect routed this request
	// to the opposing side's source.
	Controlled bool
	// Attempt counts from 0; Rejected holds why the previous choice was refused.
	Attempt  int
	Rejected error
}

// DecisionSource chooses an action for the actor of a turn. It is the only
// blocking point of an encounter; implementations must honour ctx.
type DecisionSource interface {
	ChooseAction(ctx context.Context, req DecisionRequest) (Action, error)
}

// DecisionFunc adapts a function to DecisionSource.
type DecisionFunc func(ctx context.Context, req DecisionRequest) (Action, error)

// ChooseAction calls f.
func (f DecisionFunc) ChooseAction(ctx context.Context, req DecisionRequest) (Action, error) {
	return f(ctx, req)
}
