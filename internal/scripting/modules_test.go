package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/brave/internal/scripting"
)

func board() *fakeLookup {
	return &fakeLookup{all: []*scripting.CombatantInfo{
		{UID: "p1", Name: "Knight", Side: "player", HP: 40, MaxHP: 80, Brave: 120, MaxBrave: 999, Effects: []string{"bravery"}},
		{UID: "p2", Name: "Mage", Side: "player", HP: 0, MaxHP: 60, Dead: true},
		{UID: "e1", Name: "Goblin", Side: "enemy", HP: 30, MaxHP: 30, Broken: true},
		{UID: "e2", Name: "Wolf", Side: "enemy", HP: 50, MaxHP: 50, Casting: true},
	}}
}

func callWith(t *testing.T, src, hook string, lookup scripting.Lookup, args ...lua.LValue) lua.LValue {
	t.Helper()
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadGlobal(writeTempLua(t, "m.lua", src)))
	ret, err := mgr.CallHook(scripting.GlobalVM, hook, lookup, args...)
	require.NoError(t, err)
	return ret
}

func TestEngineCombatant_Fields(t *testing.T) {
	ret := callWith(t, `
		function probe(uid)
			local c = engine.combatant(uid)
			return c.name .. "|" .. c.side .. "|" .. c.hp .. "/" .. c.max_hp .. "|" .. c.hp_pct .. "|" .. c.brave .. "|" .. tostring(c.effects["bravery"])
		end
	`, "probe", board(), lua.LString("p1"))
	assert.Equal(t, lua.LString("Knight|player|40/80|50|120|true"), ret)
}

func TestEngineCombatant_Flags(t *testing.T) {
	ret := callWith(t, `
		function flags(uid)
			local c = engine.combatant(uid)
			return tostring(c.broken) .. tostring(c.casting) .. tostring(c.dead)
		end
	`, "flags", board(), lua.LString("e1"))
	assert.Equal(t, lua.LString("truefalsefalse"), ret)
}

func TestEngineCombatant_Unknown(t *testing.T) {
	ret := callWith(t, `function probe(uid) return engine.combatant(uid) == nil end`, "probe", board(), lua.LString("ghost"))
	assert.Equal(t, lua.LTrue, ret)
}

func TestEngineCombatant_NoLookup(t *testing.T) {
	ret := callWith(t, `function probe(uid) return engine.combatant(uid) == nil end`, "probe", nil, lua.LString("p1"))
	assert.Equal(t, lua.LTrue, ret)
}

func TestEngineEnemies_SkipsDead(t *testing.T) {
	src := `
		function names(uid)
			local out = ""
			for _, e in ipairs(engine.enemies(uid)) do out = out .. e.uid .. "," end
			return out
		end
	`
	assert.Equal(t, lua.LString("e1,e2,"), callWith(t, src, "names", board(), lua.LString("p1")))
	assert.Equal(t, lua.LString("p1,"), callWith(t, src, "names", board(), lua.LString("e1")))
}

func TestEngineAllies_ExcludesSelf(t *testing.T) {
	ret := callWith(t, `
		function count(uid) return #engine.allies(uid) end
	`, "count", board(), lua.LString("e1"))
	assert.Equal(t, lua.LNumber(1), ret)
}

func TestEngineLists_NoLookupEmpty(t *testing.T) {
	ret := callWith(t, `
		function count(uid) return #engine.enemies(uid) + #engine.allies(uid) end
	`, "count", nil, lua.LString("p1"))
	assert.Equal(t, lua.LNumber(0), ret)
}

func TestEngineLog_WritesDebug(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadGlobal(writeTempLua(t, "log.lua", `function say() engine.log("hello") end`)))
	_, err := mgr.CallHook(scripting.GlobalVM, "say", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("scripting: lua").Len())
}

func TestEngine_LookupNotRetainedAcrossCalls(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadGlobal(writeTempLua(t, "m.lua", `
		function has(uid) return engine.combatant(uid) ~= nil end
	`)))
	ret, err := mgr.CallHook(scripting.GlobalVM, "has", board(), lua.LString("p1"))
	require.NoError(t, err)
	assert.Equal(t, lua.LTrue, ret)
	ret, err = mgr.CallHook(scripting.GlobalVM, "has", nil, lua.LString("p1"))
	require.NoError(t, err)
	assert.Equal(t, lua.LFalse, ret)
}
