package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// registerModules installs the engine table into v's LState:
//
//	engine.combatant(uid)  -> table or nil
//	engine.enemies(uid)    -> array of living enemy tables
//	engine.allies(uid)     -> array of living ally tables, excluding uid
//	engine.log(msg)        -> debug log line
//
// Queries return nil or an empty array when no lookup is bound.
func (m *Manager) registerModules(v *vm) {
	L := v.L
	engine := L.NewTable()
	L.SetGlobal("engine", engine)

	L.SetField(engine, "combatant", L.NewFunction(func(L *lua.LState) int {
		uid := L.CheckString(1)
		if v.lookup == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := v.lookup.Combatant(uid)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(combatantTable(L, info))
		return 1
	}))

	list := func(pick func(Lookup, string) []*CombatantInfo) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			uid := L.CheckString(1)
			out := L.NewTable()
			if v.lookup != nil {
				for _, info := range pick(v.lookup, uid) {
					out.Append(combatantTable(L, info))
				}
			}
			L.Push(out)
			return 1
		})
	}
	L.SetField(engine, "enemies", list(func(l Lookup, uid string) []*CombatantInfo { return l.Enemies(uid) }))
	L.SetField(engine, "allies", list(func(l Lookup, uid string) []*CombatantInfo { return l.Allies(uid) }))

	L.SetField(engine, "log", L.NewFunction(func(L *lua.LState) int {
		m.logger.Debug("scripting: lua", zap.String("msg", L.CheckString(1)))
		return 0
	}))
}

func combatantTable(L *lua.LState, c *CombatantInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("uid", lua.LString(c.UID))
	t.RawSetString("name", lua.LString(c.Name))
	t.RawSetString("side", lua.LString(c.Side))
	t.RawSetString("hp", lua.LNumber(c.HP))
	t.RawSetString("max_hp", lua.LNumber(c.MaxHP))
	t.RawSetString("hp_pct", lua.LNumber(c.HPPercent()))
	t.RawSetString("brave", lua.LNumber(c.Brave))
	t.RawSetString("max_brave", lua.LNumber(c.MaxBrave))
	t.RawSetString("broken", lua.LBool(c.Broken))
	t.RawSetString("casting", lua.LBool(c.Casting))
	t.RawSetString("dead", lua.LBool(c.Dead))
	effects := L.NewTable()
	for _, e := range c.Effects {
		effects.RawSetString(e, lua.LTrue)
	}
	t.RawSetString("effects", effects)
	return t
}
