package status

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// State is the lifecycle state of one applied effect.
type State int

const (
	StateActive State = iota
	// StateExpiring marks an effect on its final turn (Remaining == 1).
	StateExpiring
	StateRemoved
)

// String returns a human-readable state label.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpiring:
		return "expiring"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Effect tracks one applied status effect on a combatant.
type Effect struct {
	ID        uuid.UUID
	Def       *Def
	Intensity float64
	Remaining int // turns; decremented once per owner turn boundary
	Stacks    int
	State     State
	// Order is the application sequence within the owning set.
	Order uint64
}

// ActiveSet tracks all status effects currently applied to one combatant.
// It is not safe for concurrent use; the owning encounter serialises access.
type ActiveSet struct {
	effects []*Effect
	seq     uint64
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{}
}

// Apply adds or updates an effect on this combatant.
//
// If an effect with the same Def ID is present, the Def's stacking policy
// decides the outcome: refresh sets Remaining to max(old, new) and Intensity
// to max(old, new); stack adds one stack (capped at StackCap) and extends
// Remaining to max(old, new). Otherwise a new Effect is inserted.
//
// Precondition: def must not be nil; duration must be >= 1.
// Postcondition: Has(def.ID) is true on success; returns the affected Effect.
func (s *ActiveSet) Apply(def *Def, intensity float64, duration int) (*Effect, error) {
	if def == nil {
		return nil, fmt.Errorf("Apply: def must not be nil")
	}
	if duration < 1 {
		return nil, fmt.Errorf("Apply %q: duration must be >= 1, got %d", def.ID, duration)
	}
	if intensity <= 0 || math.IsNaN(intensity) {
		intensity = 1
	}

	if existing := s.find(def.ID); existing != nil {
		if duration > existing.Remaining {
			existing.Remaining = duration
		}
		switch def.Policy() {
		case StackIndependent:
			if existing.Stacks < def.StackCap() {
				existing.Stacks++
			}
		default:
			if intensity > existing.Intensity {
				existing.Intensity = intensity
			}
		}
		existing.State = stateFor(existing.Remaining)
		return existing, nil
	}

	s.seq++
	e := &Effect{
		ID:        uuid.New(),
		Def:       def,
		Intensity: intensity,
		Remaining: duration,
		Stacks:    1,
		State:     stateFor(duration),
		Order:     s.seq,
	}
	s.effects = append(s.effects, e)
	return e, nil
}

// Restore inserts a previously snapshotted effect verbatim.
//
// Precondition: def must not be nil; remaining >= 1; stacks >= 1.
// Postcondition: Has(def.ID) is true; any existing effect with the same Def ID is replaced.
func (s *ActiveSet) Restore(def *Def, intensity float64, remaining, stacks int) (*Effect, error) {
	if def == nil {
		return nil, fmt.Errorf("Restore: def must not be nil")
	}
	if remaining < 1 || stacks < 1 {
		return nil, fmt.Errorf("Restore %q: remaining and stacks must be >= 1", def.ID)
	}
	s.Remove(def.ID)
	s.seq++
	e := &Effect{
		ID:        uuid.New(),
		Def:       def,
		Intensity: intensity,
		Remaining: remaining,
		Stacks:    min(stacks, def.StackCap()),
		State:     stateFor(remaining),
		Order:     s.seq,
	}
	s.effects = append(s.effects, e)
	return e, nil
}

// Remove deletes the effect with the given Def ID. Not present is a no-op.
//
// Postcondition: Has(id) is false.
func (s *ActiveSet) Remove(id string) {
	for i, e := range s.effects {
		if e.Def.ID == id {
			e.State = StateRemoved
			s.effects = append(s.effects[:i], s.effects[i+1:]...)
			return
		}
	}
}

// Clear removes every effect, as on death.
//
// Postcondition: Len() == 0.
func (s *ActiveSet) Clear() {
	for _, e := range s.effects {
		e.State = StateRemoved
	}
	s.effects = nil
}

// Has reports whether an effect with Def ID id is currently active.
func (s *ActiveSet) Has(id string) bool {
	return s.find(id) != nil
}

// Get returns the effect with Def ID id.
func (s *ActiveSet) Get(id string) (*Effect, bool) {
	e := s.find(id)
	return e, e != nil
}

// Len returns the number of active effects.
func (s *ActiveSet) Len() int { return len(s.effects) }

// Effects returns the active effects in application order.
// The slice is a new allocation; the pointed-to Effects are shared and must
// not be modified by callers.
func (s *ActiveSet) Effects() []*Effect {
	out := make([]*Effect, len(s.effects))
	copy(out, s.effects)
	return out
}

// EndOfTurn decrements every effect's Remaining by 1 and removes those that
// reach 0, returning them in application order.
//
// Postcondition: Every returned effect has Remaining == 0 and State == StateRemoved;
// every surviving effect has Remaining >= 1.
func (s *ActiveSet) EndOfTurn() []*Effect {
	var expired []*Effect
	kept := s.effects[:0]
	for _, e := range s.effects {
		e.Remaining--
		if e.Remaining <= 0 {
			e.Remaining = 0
			e.State = StateRemoved
			expired = append(expired, e)
			continue
		}
		e.State = stateFor(e.Remaining)
		kept = append(kept, e)
	}
	// Nil out the tail so removed effects are not retained by the backing array.
	for i := len(kept); i < len(s.effects); i++ {
		s.effects[i] = nil
	}
	s.effects = kept
	return expired
}

func (s *ActiveSet) find(id string) *Effect {
	for _, e := range s.effects {
		if e.Def.ID == id {
			return e
		}
	}
	return nil
}

func stateFor(remaining int) State {
	switch {
	case remaining <= 0:
		return StateRemoved
	case remaining == 1:
		return StateExpiring
	default:
		return StateActive
	}
}
