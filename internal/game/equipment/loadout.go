package equipment

import "github.com/cory-johannsen/brave/internal/game/stats"

// Loadout tracks the items a combatant wears.
// Invariant: each Slot holds at most one Item.
type Loadout struct {
	slots map[Slot]*Item
}

// NewLoadout returns an empty Loadout.
func NewLoadout() *Loadout {
	return &Loadout{slots: make(map[Slot]*Item)}
}

// Equip places item in its slot, replacing whatever was there.
//
// Precondition: item must not be nil.
// Postcondition: Equipped(item.Slot) == item.
func (l *Loadout) Equip(item *Item) {
	l.slots[item.Slot] = item
}

// Unequip empties slot.
func (l *Loadout) Unequip(slot Slot) {
	delete(l.slots, slot)
}

// Equipped returns the item in slot, or nil.
func (l *Loadout) Equipped(slot Slot) *Item {
	return l.slots[slot]
}

// Bonuses sums the flat bonuses of every equipped item. Negative totals are
// kept; the stat aggregator clamps the final effective value.
func (l *Loadout) Bonuses() stats.StatBlock {
	var sum stats.StatBlock
	for _, it := range l.slots {
		sum = sum.Add(it.Bonuses)
	}
	return sum
}
