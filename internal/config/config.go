// Package config provides Viper-based configuration loading for the combat simulator.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/brave/internal/game/combat"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output lists zap sink URLs or paths; empty means stderr.
	Output []string `mapstructure:"output"`
}

// ContentConfig names the directories holding YAML content and Lua scripts.
type ContentConfig struct {
	Effects   string `mapstructure:"effects"`
	Skills    string `mapstructure:"skills"`
	Equipment string `mapstructure:"equipment"`
	Roster    string `mapstructure:"roster"`
	AI        string `mapstructure:"ai"`
	Scripts   string `mapstructure:"scripts"`
}

// SimulationConfig controls batch encounter runs.
type SimulationConfig struct {
	// Seed makes runs reproducible; zero draws from crypto/rand.
	Seed uint64 `mapstructure:"seed"`
	// Runs is the number of encounters to simulate.
	Runs int `mapstructure:"runs"`
	// Parallelism bounds how many encounters run at once.
	Parallelism int `mapstructure:"parallelism"`
	// Timeout bounds each encounter's wall-clock time; zero disables it.
	Timeout time.Duration `mapstructure:"timeout"`
	// Players and Enemies list roster template IDs for each side.
	Players []string `mapstructure:"players"`
	Enemies []string `mapstructure:"enemies"`
	// Save persists final snapshots to the database.
	Save bool `mapstructure:"save"`
}

// Config is the top-level application configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Content    ContentConfig    `mapstructure:"content"`
	Combat     combat.Balance   `mapstructure:"combat"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.Combat.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	dirs := []struct{ key, dir string }{
		{"effects", c.Effects},
		{"skills", c.Skills},
		{"equipment", c.Equipment},
		{"roster", c.Roster},
		{"ai", c.AI},
		{"scripts", c.Scripts},
	}
	for _, d := range dirs {
		if d.dir == "" {
			errs = append(errs, fmt.Sprintf("content.%s must not be empty", d.key))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.Runs < 1 {
		errs = append(errs, fmt.Sprintf("simulation.runs must be >= 1, got %d", s.Runs))
	}
	if s.Parallelism < 1 {
		errs = append(errs, fmt.Sprintf("simulation.parallelism must be >= 1, got %d", s.Parallelism))
	}
	if s.Timeout < 0 {
		errs = append(errs, "simulation.timeout must not be negative")
	}
	if len(s.Players) == 0 || len(s.Enemies) == 0 {
		errs = append(errs, "simulation.players and simulation.enemies must each name at least one roster entry")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with BRAVE_ prefix
	v.SetEnvPrefix("BRAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "brave")
	v.SetDefault("database.password", "brave")
	v.SetDefault("database.name", "brave")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", []string{})

	v.SetDefault("content.effects", "content/effects")
	v.SetDefault("content.skills", "content/skills")
	v.SetDefault("content.equipment", "content/equipment")
	v.SetDefault("content.roster", "content/roster")
	v.SetDefault("content.ai", "content/ai")
	v.SetDefault("content.scripts", "content/scripts")

	b := combat.DefaultBalance()
	v.SetDefault("combat.gauge_scale", b.GaugeScale)
	v.SetDefault("combat.variance_min", b.VarianceMin)
	v.SetDefault("combat.variance_max", b.VarianceMax)
	v.SetDefault("combat.player_brave_multiplier", b.PlayerBraveMultiplier)
	v.SetDefault("combat.enemy_brave_multiplier", b.EnemyBraveMultiplier)
	v.SetDefault("combat.basic_brave_power", b.BasicBravePower)
	v.SetDefault("combat.crit_chance", b.CritChance)
	v.SetDefault("combat.crit_multiplier", b.CritMultiplier)
	v.SetDefault("combat.hp_attack_min_brave_fraction", b.HPAttackMinBraveFraction)
	v.SetDefault("combat.hp_damage_ratio", b.HPDamageRatio)
	v.SetDefault("combat.break_bonus", b.BreakBonus)
	v.SetDefault("combat.break_duration_turns", b.BreakDurationTurns)
	v.SetDefault("combat.break_recovery_fraction", b.BreakRecoveryFraction)
	v.SetDefault("combat.dot_fraction", b.DoTFraction)
	v.SetDefault("combat.hot_fraction", b.HoTFraction)
	v.SetDefault("combat.max_turns", b.MaxTurns)
	v.SetDefault("combat.max_reselect", b.MaxReselect)

	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.runs", 1)
	v.SetDefault("simulation.parallelism", 4)
	v.SetDefault("simulation.timeout", "30s")
	v.SetDefault("simulation.players", []string{"knight", "mage"})
	v.SetDefault("simulation.enemies", []string{"goblin", "wolf"})
	v.SetDefault("simulation.save", false)
}
