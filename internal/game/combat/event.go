package combat

import (
	"sync"

	"go.uber.org/zap"
)

// Resource names the pool a DamageEvent changed.
type Resource int

const (
	ResourceBrave Resource = iota
	ResourceHP
)

// String returns "brave" or "hp".
func (r Resource) String() string {
	if r == ResourceHP {
		return "hp"
	}
	return "brave"
}

// DamageEvent records one change to a combatant's Brave or HP.
type DamageEvent struct {
	Turn     int
	SourceID string
	TargetID string
	SkillID  string
	Resource Resource
	// Amount is the computed damage or heal, floored at 1 for damage.
	Amount int
	// Gained is the Brave the source received from a steal or gain attack.
	Gained   int
	Heal     bool
	Critical bool
	// Break is true when this event put the target into Break.
	Break bool
	// Effect names the status effect that produced a tick, if any.
	Effect string
}

// Outcome is the result of a finished encounter.
type Outcome struct {
	// Winner is AlignNone for a draw.
	Winner Alignment
	Turns  int
	Ticks  int
	// Survivors holds the IDs of combatants still standing, in insertion order.
	Survivors []string
}

// EventSink receives combat events. Implementations are called from the
// goroutine driving the encounter.
type EventSink interface {
	Damage(ev DamageEvent)
	CastCanceled(casterID, skillID string)
	EncounterOver(out Outcome)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Damage(DamageEvent)          {}
func (NopSink) CastCanceled(string, string) {}
func (NopSink) EncounterOver(Outcome)       {}

// Recorder keeps every event in memory. It is safe for concurrent reads while
// an encounter writes to it.
type Recorder struct {
	mu       sync.Mutex
	events   []DamageEvent
	canceled []string
	outcome  *Outcome
}

// Damage records ev.
func (r *Recorder) Damage(ev DamageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// CastCanceled records the canceled skill ID.
func (r *Recorder) CastCanceled(_ string, skillID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canceled = append(r.canceled, skillID)
}

// EncounterOver records out.
func (r *Recorder) EncounterOver(out Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcome = &out
}

// Events returns a copy of the recorded damage events.
func (r *Recorder) Events() []DamageEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DamageEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Canceled returns the skill IDs of canceled casts.
func (r *Recorder) Canceled() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.canceled))
	copy(out, r.canceled)
	return out
}

// Outcome returns the recorded outcome, if the encounter has ended.
func (r *Recorder) Outcome() (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcome == nil {
		return Outcome{}, false
	}
	return *r.outcome, true
}

// LogSink writes events to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
//
// Precondition: logger must be non-nil.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Damage(ev DamageEvent) {
	s.logger.Debug("combat event",
		zap.Int("turn", ev.Turn),
		zap.String("source", ev.SourceID),
		zap.String("target", ev.TargetID),
		zap.String("skill", ev.SkillID),
		zap.Stringer("resource", ev.Resource),
		zap.Int("amount", ev.Amount),
		zap.Int("gained", ev.Gained),
		zap.Bool("heal", ev.Heal),
		zap.Bool("critical", ev.Critical),
		zap.Bool("break", ev.Break),
		zap.String("effect", ev.Effect),
	)
}

func (s *LogSink) CastCanceled(casterID, skillID string) {
	s.logger.Debug("cast canceled", zap.String("caster", casterID), zap.String("skill", skillID))
}

func (s *LogSink) EncounterOver(out Outcome) {
	s.logger.Info("encounter over",
		zap.Stringer("winner", out.Winner),
		zap.Int("turns", out.Turns),
		zap.Int("ticks", out.Ticks),
		zap.Strings("survivors", out.Survivors),
	)
}

// MultiSink fans events out to several sinks in order.
type MultiSink []EventSink

func (m MultiSink) Damage(ev DamageEvent) {
	for _, s := range m {
		s.Damage(ev)
	}
}

func (m MultiSink) CastCanceled(casterID, skillID string) {
	for _, s := range m {
		s.CastCanceled(casterID, skillID)
	}
}

func (m MultiSink) EncounterOver(out Outcome) {
	for _, s := range m {
		s.EncounterOver(out)
	}
}
