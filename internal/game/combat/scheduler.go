package combat

import (
	"fmt"
	"math"
)

// GaugeMax is the gauge value at which a combatant becomes ready.
const GaugeMax = 100.0

// maxIdleTicks bounds Advance when no combatant can make progress.
const maxIdleTicks = 1_000_000

// Scheduler advances ATB gauges in discrete ticks. It holds no per-encounter
// state beyond the scale factor; gauges live on the combatants.
type Scheduler struct {
	scale float64
}

// NewScheduler creates a scheduler that adds effective speed × scale per tick.
//
// Precondition: scale > 0.
func NewScheduler(scale float64) *Scheduler {
	return &Scheduler{scale: scale}
}

// Tick advances every active combatant by one tick. Casting combatants hold
// their gauge and count their cast down instead.
//
// Postcondition: Every gauge stays within [0, GaugeMax].
func (s *Scheduler) Tick(cs []*Combatant) {
	for _, c := range cs {
		if !c.Active() {
			continue
		}
		if c.cast != nil {
			if c.cast.TicksRemaining > 0 {
				c.cast.TicksRemaining--
			}
			continue
		}
		speed := float64(c.EffectiveStats().Speed)
		c.Gauge = math.Min(GaugeMax, c.Gauge+speed*s.scale)
	}
}

// NextReady returns the combatant whose gauge is full, resetting its gauge to
// zero. Ties are broken by higher raw base speed, then by insertion order.
//
// Postcondition: Returns nil when no active, non-casting combatant is ready.
func (s *Scheduler) NextReady(cs []*Combatant) *Combatant {
	var best *Combatant
	for _, c := range cs {
		if !c.Active() || c.cast != nil || c.Gauge < GaugeMax {
			continue
		}
		if best == nil || readyBefore(c, best) {
			best = c
		}
	}
	if best != nil {
		best.Gauge = 0
	}
	return best
}

// CompletedCast returns the first combatant, by insertion order, whose cast
// countdown has finished.
func (s *Scheduler) CompletedCast(cs []*Combatant) *Combatant {
	var best *Combatant
	for _, c := range cs {
		if !c.Active() || c.cast == nil || c.cast.TicksRemaining > 0 {
			continue
		}
		if best == nil || c.order < best.order {
			best = c
		}
	}
	return best
}

// Advance ticks until a combatant is ready and returns it with the number of
// ticks elapsed.
//
// Postcondition: Returns an error only when no active combatant exists.
func (s *Scheduler) Advance(cs []*Combatant) (*Combatant, int, error) {
	for ticks := 0; ticks <= maxIdleTicks; ticks++ {
		if c := s.NextReady(cs); c != nil {
			return c, ticks, nil
		}
		s.Tick(cs)
	}
	return nil, maxIdleTicks, fmt.Errorf("no combatant became ready within %d ticks", maxIdleTicks)
}

func readyBefore(a, b *Combatant) bool {
	if a.Base.Speed != b.Base.Speed {
		return a.Base.Speed > b.Base.Speed
	}
	return a.order < b.order
}
