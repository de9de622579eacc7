package combat

import "math"

// BravePool is the offensive resource built by Brave attacks and spent by HP
// attacks, together with the Break state it drives.
//
// Invariant: 0 <= Current <= Max.
type BravePool struct {
	Current int
	Max     int
	// Broken is true while the holder is in Break.
	Broken bool
	// BreakTurns counts the encounter turns left before Break clears on its own.
	BreakTurns int
}

// Gain adds n Brave, capping at Max.
//
// Postcondition: Returns the Brave actually added.
func (b *BravePool) Gain(n int) int {
	if n <= 0 {
		return 0
	}
	before := b.Current
	b.Current += n
	if b.Current > b.Max {
		b.Current = b.Max
	}
	return b.Current - before
}

// Drain removes n Brave, flooring at zero.
//
// Postcondition: Returns the Brave actually removed.
func (b *BravePool) Drain(n int) int {
	if n <= 0 {
		return 0
	}
	before := b.Current
	b.Current -= n
	if b.Current < 0 {
		b.Current = 0
	}
	return before - b.Current
}

// Spend consumes all current Brave.
//
// Postcondition: Current == 0. Returns the amount spent.
func (b *BravePool) Spend() int {
	spent := b.Current
	b.Current = 0
	return spent
}

// Fraction returns Current / Max, or 0 when Max is 0.
func (b *BravePool) Fraction() float64 {
	if b.Max <= 0 {
		return 0
	}
	return float64(b.Current) / float64(b.Max)
}

// EnterBreak puts the holder in Break for at most turns encounter turns.
//
// Postcondition: Broken is true; Current == 0.
func (b *BravePool) EnterBreak(turns int) {
	b.Broken = true
	b.BreakTurns = turns
	b.Current = 0
}

// ClearBreak ends Break and restores Brave to fraction × Max. Brave earned
// while broken is kept when it already exceeds that floor.
//
// Postcondition: Broken is false; Current >= min(Max, floor(fraction × Max)).
func (b *BravePool) ClearBreak(fraction float64) {
	b.Broken = false
	b.BreakTurns = 0
	floor := int(math.Floor(fraction * float64(b.Max)))
	if b.Current < floor {
		b.Current = min(floor, b.Max)
	}
}
