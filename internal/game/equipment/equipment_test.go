package equipment_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/brave/internal/game/equipment"
	"github.com/cory-johannsen/brave/internal/game/stats"
)

func catalog(t *testing.T) *equipment.Catalog {
	t.Helper()
	c := equipment.NewCatalog()
	require.NoError(t, c.Register(&equipment.Item{ID: "sword", Name: "Sword", Slot: equipment.SlotWeapon,
		Bonuses: stats.StatBlock{PhysicalAttack: 8}}))
	require.NoError(t, c.Register(&equipment.Item{ID: "dagger", Name: "Dagger", Slot: equipment.SlotWeapon,
		Bonuses: stats.StatBlock{PhysicalAttack: 4, Speed: 2}}))
	require.NoError(t, c.Register(&equipment.Item{ID: "mail", Name: "Mail", Slot: equipment.SlotBody,
		Bonuses: stats.StatBlock{PhysicalDefense: 10, Speed: -2}}))
	return c
}

func TestItem_Validate(t *testing.T) {
	assert.NoError(t, (&equipment.Item{ID: "x", Name: "X", Slot: equipment.SlotHead}).Validate())
	assert.ErrorContains(t, (&equipment.Item{Name: "X", Slot: equipment.SlotHead}).Validate(), "id")
	assert.ErrorContains(t, (&equipment.Item{ID: "x", Slot: equipment.SlotHead}).Validate(), "name")
	assert.ErrorContains(t, (&equipment.Item{ID: "x", Name: "X", Slot: "feet"}).Validate(), "slot")
}

func TestCatalog_Register_Duplicate(t *testing.T) {
	c := catalog(t)
	err := c.Register(&equipment.Item{ID: "sword", Name: "Other", Slot: equipment.SlotWeapon})
	assert.ErrorContains(t, err, "already registered")
}

func TestCatalog_Bonuses_SumsSlots(t *testing.T) {
	got, err := catalog(t).Bonuses([]string{"sword", "mail"})
	require.NoError(t, err)
	assert.Equal(t, stats.StatBlock{PhysicalAttack: 8, PhysicalDefense: 10, Speed: -2}, got)
}

func TestCatalog_Bonuses_Empty(t *testing.T) {
	got, err := catalog(t).Bonuses(nil)
	require.NoError(t, err)
	assert.Equal(t, stats.StatBlock{}, got)
}

func TestCatalog_Loadout_UnknownItem(t *testing.T) {
	_, err := catalog(t).Loadout([]string{"sword", "halberd"})
	assert.ErrorContains(t, err, "halberd")
}

func TestCatalog_Loadout_SlotConflict(t *testing.T) {
	_, err := catalog(t).Loadout([]string{"sword", "dagger"})
	assert.ErrorContains(t, err, "slot weapon")
}

func TestLoadout_EquipReplaces(t *testing.T) {
	c := catalog(t)
	sword, _ := c.Item("sword")
	dagger, _ := c.Item("dagger")
	l := equipment.NewLoadout()
	l.Equip(sword)
	l.Equip(dagger)
	assert.Equal(t, dagger, l.Equipped(equipment.SlotWeapon))
	l.Unequip(equipment.SlotWeapon)
	assert.Nil(t, l.Equipped(equipment.SlotWeapon))
	assert.Equal(t, stats.StatBlock{}, l.Bonuses())
}

func TestLoadCatalog_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cap.yaml"), []byte(`
id: cap
name: Cap
slot: head
bonuses:
  physical_defense: 3
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0644))

	c, err := equipment.LoadCatalog(dir)
	require.NoError(t, err)
	require.Len(t, c.All(), 1)
	it, ok := c.Item("cap")
	require.True(t, ok)
	assert.Equal(t, 3, it.Bonuses.PhysicalDefense)
}

func TestLoadCatalog_UnknownField(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.yaml"), []byte("id: x\nname: X\nslot: head\nweight: 3\n"), 0644))
	_, err := equipment.LoadCatalog(dir)
	assert.Error(t, err)
}

func TestLoadCatalog_MissingDir(t *testing.T) {
	_, err := equipment.LoadCatalog("/nonexistent/equipment")
	assert.Error(t, err)
}

func TestLoadCatalog_ShippedContent(t *testing.T) {
	c, err := equipment.LoadCatalog("../../../content/equipment")
	require.NoError(t, err)
	for _, id := range []string{"iron_sword", "oak_staff", "chain_mail", "swift_ring"} {
		_, ok := c.Item(id)
		assert.True(t, ok, "item %q must be present", id)
	}
}

func TestPropertyLoadout_BonusesAreFieldwiseSum(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		gen := rapid.IntRange(-20, 20)
		a := stats.StatBlock{PhysicalAttack: gen.Draw(rt, "a_patk"), Speed: gen.Draw(rt, "a_spd")}
		b := stats.StatBlock{MagicalDefense: gen.Draw(rt, "b_mdef"), Speed: gen.Draw(rt, "b_spd")}
		l := equipment.NewLoadout()
		l.Equip(&equipment.Item{ID: "a", Name: "A", Slot: equipment.SlotWeapon, Bonuses: a})
		l.Equip(&equipment.Item{ID: "b", Name: "B", Slot: equipment.SlotAccessory, Bonuses: b})
		if got, want := l.Bonuses(), a.Add(b); got != want {
			rt.Fatalf("Bonuses() = %+v, want %+v", got, want)
		}
	})
}
