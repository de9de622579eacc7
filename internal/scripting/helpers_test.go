package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/brave/internal/scripting"
)

// fakeLookup is a two-sided board keyed by Side.
type fakeLookup struct {
	all []*scripting.CombatantInfo
}

func (f *fakeLookup) Combatant(uid string) *scripting.CombatantInfo {
	for _, c := range f.all {
		if c.UID == uid {
			return c
		}
	}
	return nil
}

func (f *fakeLookup) Enemies(uid string) []*scripting.CombatantInfo {
	me := f.Combatant(uid)
	if me == nil {
		return nil
	}
	var out []*scripting.CombatantInfo
	for _, c := range f.all {
		if c.Side != me.Side && !c.Dead {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeLookup) Allies(uid string) []*scripting.CombatantInfo {
	me := f.Combatant(uid)
	if me == nil {
		return nil
	}
	var out []*scripting.CombatantInfo
	for _, c := range f.all {
		if c.Side == me.Side && c.UID != uid && !c.Dead {
			out = append(out, c)
		}
	}
	return out
}

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(zap.New(core), 0)
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func writeFile(dir, name, src string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(src), 0644)
}
