package ai

import (
	"github.com/cory-johannsen/brave/internal/game/combat"
	"github.com/cory-johannsen/brave/internal/scripting"
)

// Target tokens accepted by operators.
const (
	TargetNearestEnemy      = "nearest_enemy"
	TargetWeakestEnemy      = "weakest_enemy"
	TargetBrokenEnemy       = "broken_enemy"
	TargetHighestBraveEnemy = "highest_brave_enemy"
	TargetAllEnemies        = "all_enemies"
	TargetWeakestAlly       = "weakest_ally"
	TargetSelf              = "self"
)

// ValidTargetToken reports whether token is a known target token.
func ValidTargetToken(token string) bool {
	switch token {
	case TargetNearestEnemy, TargetWeakestEnemy, TargetBrokenEnemy, TargetHighestBraveEnemy,
		TargetAllEnemies, TargetWeakestAlly, TargetSelf:
		return true
	}
	return false
}

// WorldState is the snapshot passed to the HTN planner for one actor.
//
// Allies and Enemies follow the perspective of the deciding side, so a
// controlled actor sees its own teammates as Enemies.
//
// Invariant: Self must not be nil; Allies excludes Self; neither list holds
// dead combatants.
type WorldState struct {
	Turn       int
	Controlled bool
	Self       *scripting.CombatantInfo
	Allies     []*scripting.CombatantInfo
	Enemies    []*scripting.CombatantInfo
}

// Info converts a combatant into the script-facing snapshot.
//
// Precondition: c must not be nil.
func Info(c *combat.Combatant) *scripting.CombatantInfo {
	info := &scripting.CombatantInfo{
		UID:      c.ID,
		Name:     c.Name,
		Side:     c.Alignment.String(),
		HP:       c.CurrentHP,
		MaxHP:    c.MaxHP,
		Brave:    c.Brave.Current,
		MaxBrave: c.Brave.Max,
		Broken:   c.Brave.Broken,
		Casting:  c.Casting(),
		Dead:     !c.Active(),
	}
	for _, e := range c.Effects.Effects() {
		info.Effects = append(info.Effects, e.Def.ID)
	}
	return info
}

// BuildWorldState constructs a WorldState snapshot from a decision request.
//
// Precondition: req.Actor must not be nil.
// Postcondition: ws.Self.UID == req.Actor.ID; inactive combatants are dropped.
func BuildWorldState(req combat.DecisionRequest) *WorldState {
	ws := &WorldState{
		Turn:       req.Turn,
		Controlled: req.Controlled,
		Self:       Info(req.Actor),
	}
	for _, c := range req.Allies {
		if c.Active() {
			ws.Allies = append(ws.Allies, Info(c))
		}
	}
	for _, c := range req.Enemies {
		if c.Active() {
			ws.Enemies = append(ws.Enemies, Info(c))
		}
	}
	return ws
}

// Combatant implements scripting.Lookup.
func (ws *WorldState) Combatant(uid string) *scripting.CombatantInfo {
	if ws.Self.UID == uid {
		return ws.Self
	}
	for _, list := range [][]*scripting.CombatantInfo{ws.Allies, ws.Enemies} {
		for _, c := range list {
			if c.UID == uid {
				return c
			}
		}
	}
	return nil
}

// team returns the deciding side (Self plus Allies).
func (ws *WorldState) team() []*scripting.CombatantInfo {
	return append([]*scripting.CombatantInfo{ws.Self}, ws.Allies...)
}

func contains(list []*scripting.CombatantInfo, uid string) bool {
	for _, c := range list {
		if c.UID == uid {
			return true
		}
	}
	return false
}

func without(list []*scripting.CombatantInfo, uid string) []*scripting.CombatantInfo {
	out := make([]*scripting.CombatantInfo, 0, len(list))
	for _, c := range list {
		if c.UID != uid {
			out = append(out, c)
		}
	}
	return out
}

// Enemies implements scripting.Lookup: the living opponents of uid.
//
// Postcondition: empty for an unknown uid.
func (ws *WorldState) Enemies(uid string) []*scripting.CombatantInfo {
	switch {
	case contains(ws.team(), uid):
		return ws.Enemies
	case contains(ws.Enemies, uid):
		return ws.team()
	default:
		return nil
	}
}

// Allies implements scripting.Lookup: the living teammates of uid, excluding uid.
//
// Postcondition: empty for an unknown uid.
func (ws *WorldState) Allies(uid string) []*scripting.CombatantInfo {
	switch {
	case contains(ws.team(), uid):
		return without(ws.team(), uid)
	case contains(ws.Enemies, uid):
		return without(ws.Enemies, uid)
	default:
		return nil
	}
}

// NearestEnemy returns the first living enemy in encounter order, or nil.
func (ws *WorldState) NearestEnemy() *scripting.CombatantInfo {
	if len(ws.Enemies) == 0 {
		return nil
	}
	return ws.Enemies[0]
}

// WeakestEnemy returns the living enemy with the lowest HP percentage, or nil.
//
// Postcondition: ties broken by encounter order.
func (ws *WorldState) WeakestEnemy() *scripting.CombatantInfo {
	return lowestHP(ws.Enemies)
}

// WeakestAlly returns the deciding side's member (Self included) with the
// lowest HP percentage.
func (ws *WorldState) WeakestAlly() *scripting.CombatantInfo {
	return lowestHP(ws.team())
}

// BrokenEnemy returns the first enemy in Break, or nil.
func (ws *WorldState) BrokenEnemy() *scripting.CombatantInfo {
	for _, e := range ws.Enemies {
		if e.Broken {
			return e
		}
	}
	return nil
}

// HighestBraveEnemy returns the enemy holding the most Brave, or nil.
//
// Postcondition: ties broken by encounter order.
func (ws *WorldState) HighestBraveEnemy() *scripting.CombatantInfo {
	var best *scripting.CombatantInfo
	for _, e := range ws.Enemies {
		if best == nil || e.Brave > best.Brave {
			best = e
		}
	}
	return best
}

func lowestHP(list []*scripting.CombatantInfo) *scripting.CombatantInfo {
	var best *scripting.CombatantInfo
	for _, c := range list {
		if best == nil || c.HPPercent() < best.HPPercent() {
			best = c
		}
	}
	return best
}

// ResolveTargets maps a target token to combatant IDs.
//
// Postcondition: returns nil when the token resolves to nobody or is unknown;
// TargetAllEnemies returns every living enemy in encounter order.
func (ws *WorldState) ResolveTargets(token string) []string {
	var pick *scripting.CombatantInfo
	switch token {
	case TargetNearestEnemy:
		pick = ws.NearestEnemy()
	case TargetWeakestEnemy:
		pick = ws.WeakestEnemy()
	case TargetBrokenEnemy:
		pick = ws.BrokenEnemy()
	case TargetHighestBraveEnemy:
		pick = ws.HighestBraveEnemy()
	case TargetWeakestAlly:
		pick = ws.WeakestAlly()
	case TargetSelf:
		pick = ws.Self
	case TargetAllEnemies:
		ids := make([]string, 0, len(ws.Enemies))
		for _, e := range ws.Enemies {
			ids = append(ids, e.UID)
		}
		if len(ids) == 0 {
			return nil
		}
		return ids
	}
	if pick == nil {
		return nil
	}
	return []string{pick.UID}
}
