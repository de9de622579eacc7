// Package equipment defines gear whose only combat contribution is a flat
// stat bonus, and the loadouts that sum those bonuses for a combatant.
package equipment

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/brave/internal/game/stats"
)

// Slot identifies where an item is worn.
type Slot string

const (
	SlotWeapon    Slot = "weapon"
	SlotHead      Slot = "head"
	SlotBody      Slot = "body"
	SlotAccessory Slot = "accessory"
)

var validSlots = map[Slot]struct{}{
	SlotWeapon:    {},
	SlotHead:      {},
	SlotBody:      {},
	SlotAccessory: {},
}

// Item is a static equipment definition loaded from YAML.
type Item struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Slot        Slot            `yaml:"slot"`
	Bonuses     stats.StatBlock `yaml:"bonuses"`
}

// Validate reports an error if the Item is missing required fields or names
// an unknown slot. Bonuses may be negative.
//
// Postcondition: Returns nil iff the item is well-formed.
func (i *Item) Validate() error {
	var errs []error
	if i.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if i.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if _, ok := validSlots[i.Slot]; !ok {
		errs = append(errs, fmt.Errorf("slot %q is not a valid equipment slot", i.Slot))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// Catalog indexes items by ID. It is read-only once loaded.
type Catalog struct {
	items map[string]*Item
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{items: make(map[string]*Item)}
}

// Register adds item to the catalog.
//
// Precondition: item must not be nil and must pass Validate.
// Postcondition: Item(item.ID) returns item; duplicate IDs are an error.
func (c *Catalog) Register(item *Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if _, exists := c.items[item.ID]; exists {
		return fmt.Errorf("equipment: item ID %q already registered", item.ID)
	}
	c.items[item.ID] = item
	return nil
}

// Item returns the item with the given id.
func (c *Catalog) Item(id string) (*Item, bool) {
	it, ok := c.items[id]
	return it, ok
}

// All returns every item sorted by ID.
func (c *Catalog) All() []*Item {
	out := make([]*Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Loadout equips each listed item into a fresh Loadout.
//
// Postcondition: Returns an error naming the first unknown item or the first
// slot claimed twice.
func (c *Catalog) Loadout(ids []string) (*Loadout, error) {
	l := NewLoadout()
	for _, id := range ids {
		it, ok := c.items[id]
		if !ok {
			return nil, fmt.Errorf("equipment: unknown item %q", id)
		}
		if prev := l.Equipped(it.Slot); prev != nil {
			return nil, fmt.Errorf("equipment: %q and %q both occupy slot %s", prev.ID, it.ID, it.Slot)
		}
		l.Equip(it)
	}
	return l, nil
}

// Bonuses returns the summed flat stat contribution of the listed items.
func (c *Catalog) Bonuses(ids []string) (stats.StatBlock, error) {
	l, err := c.Loadout(ids)
	if err != nil {
		return stats.StatBlock{}, err
	}
	return l.Bonuses(), nil
}

// LoadCatalog reads every .yaml file in dir into a Catalog.
//
// Precondition: dir must be a readable directory.
// Postcondition: Every registered item passes Validate.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadCatalog: cannot read directory %q: %w", dir, err)
	}
	c := NewCatalog()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadCatalog: cannot read file %q: %w", path, err)
		}
		var it Item
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&it); err != nil {
			return nil, fmt.Errorf("LoadCatalog: cannot parse file %q: %w", path, err)
		}
		if err := c.Register(&it); err != nil {
			return nil, fmt.Errorf("LoadCatalog: invalid item in %q: %w", path, err)
		}
	}
	return c, nil
}
