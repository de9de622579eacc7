// Package simulation runs batches of seeded encounters built from content.
package simulation

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/config"
	"github.com/cory-johannsen/brave/internal/game/ai"
	"github.com/cory-johannsen/brave/internal/game/combat"
	"github.com/cory-johannsen/brave/internal/game/equipment"
	"github.com/cory-johannsen/brave/internal/game/roster"
	"github.com/cory-johannsen/brave/internal/game/status"
	"github.com/cory-johannsen/brave/internal/scripting"
)

// Content holds every read-only registry an encounter is built from.
// It is shared by all concurrent runs.
type Content struct {
	Effects  *status.Registry
	Skills   *combat.SkillRegistry
	Catalog  *equipment.Catalog
	Roster   *roster.Roster
	Planners *ai.Registry
	Scripts  *scripting.Manager
}

// LoadContent reads each content directory named by cfg.
//
// Precondition: cfg has passed config validation; logger must be non-nil.
// Postcondition: Returns fully wired Content or the first load error. The
// caller must Close the returned Content.
func LoadContent(cfg config.ContentConfig, bal combat.Balance, logger *zap.Logger) (*Content, error) {
	start := time.Now()

	effects, err := status.LoadDirectory(cfg.Effects)
	if err != nil {
		return nil, fmt.Errorf("loading effects: %w", err)
	}
	skills, err := combat.LoadSkills(cfg.Skills, bal, effects)
	if err != nil {
		return nil, fmt.Errorf("loading skills: %w", err)
	}
	catalog, err := equipment.LoadCatalog(cfg.Equipment)
	if err != nil {
		return nil, fmt.Errorf("loading equipment: %w", err)
	}
	r, err := roster.Load(cfg.Roster)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	domains, err := ai.LoadDomains(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("loading ai domains: %w", err)
	}

	scripts := scripting.NewManager(logger, 0)
	if err := scripts.LoadGlobal(cfg.Scripts); err != nil {
		scripts.Close()
		return nil, fmt.Errorf("loading scripts: %w", err)
	}
	planners := ai.NewRegistry()
	for _, d := range domains {
		if err := planners.Register(d, scripts, scripting.GlobalVM); err != nil {
			scripts.Close()
			return nil, fmt.Errorf("registering domain %q: %w", d.ID, err)
		}
	}

	logger.Info("content loaded",
		zap.Int("effects", len(effects.All())),
		zap.Int("skills", len(skills.All())),
		zap.Int("items", len(catalog.All())),
		zap.Int("templates", len(r.IDs())),
		zap.Int("domains", len(domains)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Content{
		Effects:  effects,
		Skills:   skills,
		Catalog:  catalog,
		Roster:   r,
		Planners: planners,
		Scripts:  scripts,
	}, nil
}

// Close releases the script VMs.
func (c *Content) Close() {
	c.Scripts.Close()
}

// Sides builds fresh combatants for one encounter.
func (c *Content) Sides(players, enemies []string) ([]*combat.Combatant, error) {
	ps, err := c.Roster.Side(combat.AlignPlayer, players, c.Catalog, c.Skills)
	if err != nil {
		return nil, fmt.Errorf("building players: %w", err)
	}
	es, err := c.Roster.Side(combat.AlignEnemy, enemies, c.Catalog, c.Skills)
	if err != nil {
		return nil, fmt.Errorf("building enemies: %w", err)
	}
	return append(ps, es...), nil
}
