package combat_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/brave/internal/game/combat"
	"github.com/cory-johannsen/brave/internal/game/stats"
)

func TestSnapshotRestore_PreservesCombatState(t *testing.T) {
	reg := effectRegistry()
	poison, _ := reg.Get("poison")
	slow, _ := reg.Get("slow")

	c := fighter("p", combat.AlignPlayer, 40, 20, 30, 300)
	c.Equipment = stats.StatBlock{PhysicalAttack: 5}
	c.CurrentHP = 123
	c.Brave.Current = 0
	c.Brave.EnterBreak(2)
	c.Gauge = 42.5
	c.Skills = []string{"venom"}
	c.Domain = "skirmisher"
	_, err := c.ApplyEffect(poison, 1, 3)
	require.NoError(t, err)
	_, err = c.ApplyEffect(poison, 1, 2)
	require.NoError(t, err)
	_, err = c.ApplyEffect(slow, 0.5, 1)
	require.NoError(t, err)

	rec := combat.Snapshot(c)
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var decoded combat.Record
	require.NoError(t, json.Unmarshal(data, &decoded))

	got, err := combat.Restore(decoded, reg, skillRegistry())
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, combat.AlignPlayer, got.Alignment)
	assert.Equal(t, 123, got.CurrentHP)
	assert.Equal(t, 300, got.MaxHP)
	assert.True(t, got.Brave.Broken)
	assert.Equal(t, 2, got.Brave.BreakTurns)
	assert.Equal(t, 42.5, got.Gauge)
	assert.Equal(t, c.EffectiveStats(), got.EffectiveStats())
	assert.Equal(t, []string{"venom"}, got.Skills)
	assert.Equal(t, "skirmisher", got.Domain)

	effects := got.Effects.Effects()
	require.Len(t, effects, 2)
	assert.Equal(t, "poison", effects[0].Def.ID)
	assert.Equal(t, 2, effects[0].Stacks)
	assert.Equal(t, 3, effects[0].Remaining)
	assert.Equal(t, "slow", effects[1].Def.ID)
}

func TestSnapshotRestore_PendingCast(t *testing.T) {
	p, e := fastAndSlow()
	p.Skills = []string{"meteor"}
	p.Brave.Current = 80
	enc := newEncounter(t, []*combat.Combatant{p, e}, combat.Deps{Sources: sources(skillUser("meteor", "e"), defender), Skills: skillRegistry()})
	_, err := enc.Step(context.Background())
	require.NoError(t, err)
	require.True(t, p.Casting())

	rec := combat.Snapshot(p)
	require.NotNil(t, rec.Cast)
	assert.Equal(t, "meteor", rec.Cast.SkillID)
	assert.Equal(t, 80, rec.Cast.BraveSpent)

	got, err := combat.Restore(rec, effectRegistry(), skillRegistry())
	require.NoError(t, err)
	require.True(t, got.Casting())
	assert.Equal(t, 80, got.Cast().BraveSpent)
	assert.Equal(t, []string{"e"}, got.Cast().Targets)
}

func TestRestore_ClampsPools(t *testing.T) {
	got, err := combat.Restore(combat.Record{
		ID: "x", Alignment: combat.AlignEnemy, MaxHP: 50, CurrentHP: 90, MaxBrave: 10, Brave: -3, Gauge: 250,
	}, effectRegistry(), skillRegistry())
	require.NoError(t, err)
	assert.Equal(t, 50, got.CurrentHP)
	assert.Equal(t, 0, got.Brave.Current)
	assert.Equal(t, combat.GaugeMax, got.Gauge)
}

func TestRestore_UnknownEffect(t *testing.T) {
	_, err := combat.Restore(combat.Record{
		ID: "x", MaxHP: 10, CurrentHP: 10,
		Effects: []combat.EffectRecord{{EffectID: "petrify", Intensity: 1, Remaining: 1, Stacks: 1}},
	}, effectRegistry(), skillRegistry())
	assert.Error(t, err)
}

func TestRestore_UnknownCastSkill(t *testing.T) {
	_, err := combat.Restore(combat.Record{
		ID: "x", MaxHP: 10, CurrentHP: 10,
		Cast: &combat.CastRecord{SkillID: "armageddon"},
	}, effectRegistry(), skillRegistry())
	assert.Error(t, err)
}

func TestRecord_AlignmentEncodesAsText(t *testing.T) {
	data, err := json.Marshal(combat.Snapshot(fighter("e", combat.AlignEnemy, 1, 1, 1, 1)))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"alignment":"enemy"`)
}
