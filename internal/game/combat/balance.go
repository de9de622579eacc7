package combat

import (
	"fmt"
	"strings"
)

// Balance holds every tunable constant of the combat math. It is an immutable
// value injected into each Encounter; two encounters with different Balance
// values never share state.
type Balance struct {
	// GaugeScale converts effective speed into gauge points per tick.
	GaugeScale float64 `mapstructure:"gauge_scale"`
	// VarianceMin and VarianceMax bound the Brave damage variance band.
	VarianceMin float64 `mapstructure:"variance_min"`
	VarianceMax float64 `mapstructure:"variance_max"`
	// PlayerBraveMultiplier and EnemyBraveMultiplier are the base_multiplier
	// of Brave attacks, chosen by attacker alignment. The difference is a
	// deliberate balance choice favouring the player side.
	PlayerBraveMultiplier float64 `mapstructure:"player_brave_multiplier"`
	EnemyBraveMultiplier  float64 `mapstructure:"enemy_brave_multiplier"`
	// BasicBravePower is the skill power of the built-in Brave attack.
	BasicBravePower float64 `mapstructure:"basic_brave_power"`
	// CritChance is the probability that a Brave attack is critical;
	// CritMultiplier scales critical Brave damage.
	CritChance     float64 `mapstructure:"crit_chance"`
	CritMultiplier float64 `mapstructure:"crit_multiplier"`
	// HPAttackMinBraveFraction is the share of max Brave an attacker must
	// hold before an HP attack is allowed.
	HPAttackMinBraveFraction float64 `mapstructure:"hp_attack_min_brave_fraction"`
	// HPDamageRatio converts spent Brave into HP damage.
	HPDamageRatio float64 `mapstructure:"hp_damage_ratio"`
	// BreakBonus multiplies HP damage taken by a combatant in Break.
	BreakBonus float64 `mapstructure:"break_bonus"`
	// BreakDurationTurns is the number of encounter turns after which Break
	// clears even if the holder has not acted.
	BreakDurationTurns int `mapstructure:"break_duration_turns"`
	// BreakRecoveryFraction is the share of max Brave restored when Break clears.
	BreakRecoveryFraction float64 `mapstructure:"break_recovery_fraction"`
	// DoTFraction and HoTFraction are the default shares of max HP dealt or
	// healed per tick at intensity 1.
	DoTFraction float64 `mapstructure:"dot_fraction"`
	HoTFraction float64 `mapstructure:"hot_fraction"`
	// MaxTurns ends the encounter as a draw.
	MaxTurns int `mapstructure:"max_turns"`
	// MaxReselect is how many replacement actions are requested after an
	// invalid choice before the turn becomes a defend.
	MaxReselect int `mapstructure:"max_reselect"`
}

// DefaultBalance returns the shipped balance.
func DefaultBalance() Balance {
	return Balance{
		GaugeScale:               0.2,
		VarianceMin:              0.9,
		VarianceMax:              1.1,
		PlayerBraveMultiplier:    1.0,
		EnemyBraveMultiplier:     0.8,
		BasicBravePower:          40,
		CritChance:               0.05,
		CritMultiplier:           1.5,
		HPAttackMinBraveFraction: 0.1,
		HPDamageRatio:            1.0,
		BreakBonus:               1.5,
		BreakDurationTurns:       3,
		BreakRecoveryFraction:    0.2,
		DoTFraction:              0.05,
		HoTFraction:              0.05,
		MaxTurns:                 500,
		MaxReselect:              3,
	}
}

// BaseMultiplier returns the Brave base_multiplier for an attacker of the
// given alignment.
func (b Balance) BaseMultiplier(a Alignment) float64 {
	if a == AlignPlayer {
		return b.PlayerBraveMultiplier
	}
	return b.EnemyBraveMultiplier
}

// Validate checks every balance invariant.
//
// Postcondition: Returns nil if valid, or one error listing all violations.
func (b Balance) Validate() error {
	var errs []string
	if b.GaugeScale <= 0 {
		errs = append(errs, fmt.Sprintf("combat.gauge_scale must be > 0, got %v", b.GaugeScale))
	}
	if b.VarianceMin <= 0 || b.VarianceMax < b.VarianceMin {
		errs = append(errs, fmt.Sprintf("combat.variance band must satisfy 0 < min <= max, got [%v, %v]", b.VarianceMin, b.VarianceMax))
	}
	if b.PlayerBraveMultiplier <= 0 || b.EnemyBraveMultiplier <= 0 {
		errs = append(errs, "combat brave multipliers must be > 0")
	}
	if b.BasicBravePower <= 0 {
		errs = append(errs, "combat.basic_brave_power must be > 0")
	}
	if b.CritChance < 0 || b.CritChance > 1 {
		errs = append(errs, fmt.Sprintf("combat.crit_chance must be in [0, 1], got %v", b.CritChance))
	}
	if b.CritMultiplier < 1 {
		errs = append(errs, "combat.crit_multiplier must be >= 1")
	}
	if b.HPAttackMinBraveFraction < 0 || b.HPAttackMinBraveFraction > 1 {
		errs = append(errs, "combat.hp_attack_min_brave_fraction must be in [0, 1]")
	}
	if b.HPDamageRatio <= 0 {
		errs = append(errs, "combat.hp_damage_ratio must be > 0")
	}
	if b.BreakBonus < 1 {
		errs = append(errs, "combat.break_bonus must be >= 1")
	}
	if b.BreakDurationTurns < 1 {
		errs = append(errs, "combat.break_duration_turns must be >= 1")
	}
	if b.BreakRecoveryFraction < 0 || b.BreakRecoveryFraction > 1 {
		errs = append(errs, "combat.break_recovery_fraction must be in [0, 1]")
	}
	if b.DoTFraction < 0 || b.HoTFraction < 0 {
		errs = append(errs, "combat dot/hot fractions must be >= 0")
	}
	if b.MaxTurns < 1 {
		errs = append(errs, "combat.max_turns must be >= 1")
	}
	if b.MaxReselect < 0 {
		errs = append(errs, "combat.max_reselect must be >= 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
