package combat

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Engine manages all active encounters, keyed by encounter ID.
// All methods are safe for concurrent use; each Encounter itself is driven
// by one goroutine.
type Engine struct {
	mu         sync.RWMutex
	encounters map[uuid.UUID]*Encounter
}

// NewEngine creates an empty combat Engine.
//
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine() *Engine {
	return &Engine{encounters: make(map[uuid.UUID]*Encounter)}
}

// Start creates and registers a new encounter with a fresh ID.
//
// Precondition: see NewEncounter.
// Postcondition: Returns the new Encounter, or an error if it could not be built.
func (e *Engine) Start(combatants []*Combatant, deps Deps) (*Encounter, error) {
	return e.StartWithID(uuid.New(), combatants, deps)
}

// StartWithID creates and registers an encounter under id, as when resuming
// a persisted encounter.
//
// Postcondition: Returns an error if an encounter with id is already active.
func (e *Engine) StartWithID(id uuid.UUID, combatants []*Combatant, deps Deps) (*Encounter, error) {
	enc, err := NewEncounter(id, combatants, deps)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.encounters[id]; exists {
		return nil, fmt.Errorf("encounter %s already active", id)
	}
	e.encounters[id] = enc
	return enc, nil
}

// Get returns the active encounter with id.
//
// Postcondition: Returns (encounter, true) if found, or (nil, false) otherwise.
func (e *Engine) Get(id uuid.UUID) (*Encounter, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	enc, ok := e.encounters[id]
	return enc, ok
}

// End removes the encounter record for id.
func (e *Engine) End(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.encounters, id)
}

// Active returns the IDs of all registered encounters, sorted.
func (e *Engine) Active() []uuid.UUID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(e.encounters))
	for id := range e.encounters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
