package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// GlobalVM is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no VM is registered under the
// requested key.
const GlobalVM = "__global__"

// CombatantInfo is a snapshot of a combatant's state passed to Lua callbacks.
type CombatantInfo struct {
	UID      string
	Name     string
	Side     string // "player" or "enemy"
	HP       int
	MaxHP    int
	Brave    int
	MaxBrave int
	Broken   bool
	Casting  bool
	Dead     bool
	Effects  []string
}

// HPPercent returns current HP as a percentage of MaxHP; 0 if MaxHP == 0.
func (c *CombatantInfo) HPPercent() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return float64(c.HP) / float64(c.MaxHP) * 100
}

// Lookup answers engine.* queries for the duration of one hook call.
type Lookup interface {
	Combatant(uid string) *CombatantInfo
	Enemies(uid string) []*CombatantInfo
	Allies(uid string) []*CombatantInfo
}

// vm is one sandboxed LState plus the lookup bound for the call in flight.
// An LState is single-threaded, so mu is held across every use of L.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	lookup Lookup
}

// Manager owns a set of named sandboxed VMs and exposes hook dispatch.
//
// Manager is safe for concurrent CallHook after all Load calls complete.
// Calls into the same VM are serialized; different VMs run concurrently.
type Manager struct {
	mu        sync.RWMutex
	vms       map[string]*vm
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager whose hooks each run under an instLimit
// opcode budget (0 uses DefaultInstructionLimit).
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VMs.
func NewManager(logger *zap.Logger, instLimit int) *Manager {
	return &Manager{
		vms:       make(map[string]*vm),
		instLimit: instLimit,
		logger:    logger,
	}
}

// Load creates a sandboxed VM under key, registers the engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
// A VM already registered under key is closed and replaced.
//
// Precondition: key must be non-empty; scriptDir must be a readable directory.
// Postcondition: The VM is registered; returns error on Lua load failure.
func (m *Manager) Load(key, scriptDir string) error {
	v := &vm{L: NewSandboxedState(m.instLimit)}
	m.registerModules(v)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		v.L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		release := budget(v.L, m.instLimit)
		err := v.L.DoFile(path)
		release()
		if err != nil {
			v.L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.vms[key]; ok {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.vms[key] = v
	m.mu.Unlock()
	m.logger.Debug("scripting: loaded VM", zap.String("vm", key), zap.Int("files", len(luaFiles)))
	return nil
}

// LoadGlobal loads scriptDir into the GlobalVM.
func (m *Manager) LoadGlobal(scriptDir string) error {
	return m.Load(GlobalVM, scriptDir)
}

// CallHook calls the named Lua global function in key's VM, falling back to
// GlobalVM when key has none. lookup backs the engine.* queries made during
// the call and may be nil. Returns (LNil, nil) if the hook is not defined or
// no VM exists. Lua runtime errors, including an exhausted instruction
// budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(key, hook string, lookup Lookup, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.vms[key]
	if !ok {
		v = m.vms[GlobalVM]
	}
	m.mu.RUnlock()

	if v == nil {
		m.logger.Info("scripting: no VM",
			zap.String("vm", key),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	v.lookup = lookup
	release := budget(v.L, m.instLimit)
	err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...)
	release()
	v.lookup = nil
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("vm", key),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.vms {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
		delete(m.vms, key)
	}
}
