// Package stats defines combat stat blocks and the aggregation of base stats,
// flat equipment bonuses, and multiplicative status modifiers into an
// effective stat snapshot.
package stats

import (
	"fmt"
	"math"
	"sort"
)

// Stat names one field of a StatBlock.
// The zero value (StatUnknown) is intentionally invalid.
type Stat int

const (
	StatUnknown Stat = iota
	StatPhysicalAttack
	StatMagicalAttack
	StatPhysicalDefense
	StatMagicalDefense
	StatSpeed
)

// AllStats lists every valid Stat in canonical order.
var AllStats = []Stat{StatPhysicalAttack, StatMagicalAttack, StatPhysicalDefense, StatMagicalDefense, StatSpeed}

// String returns the YAML/config name of the stat.
func (s Stat) String() string {
	switch s {
	case StatPhysicalAttack:
		return "physical_attack"
	case StatMagicalAttack:
		return "magical_attack"
	case StatPhysicalDefense:
		return "physical_defense"
	case StatMagicalDefense:
		return "magical_defense"
	case StatSpeed:
		return "speed"
	default:
		return "unknown"
	}
}

// ParseStat maps a stat name to its Stat value.
//
// Postcondition: Returns an error for unknown names; never returns StatUnknown with a nil error.
func ParseStat(name string) (Stat, error) {
	for _, s := range AllStats {
		if s.String() == name {
			return s, nil
		}
	}
	return StatUnknown, fmt.Errorf("unknown stat %q", name)
}

// UnmarshalText lets a Stat be decoded from YAML or config strings.
func (s *Stat) UnmarshalText(text []byte) error {
	v, err := ParseStat(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalText encodes the stat by name.
func (s Stat) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StatBlock holds the five combat stats.
type StatBlock struct {
	PhysicalAttack  int `yaml:"physical_attack" json:"physical_attack"`
	MagicalAttack   int `yaml:"magical_attack" json:"magical_attack"`
	PhysicalDefense int `yaml:"physical_defense" json:"physical_defense"`
	MagicalDefense  int `yaml:"magical_defense" json:"magical_defense"`
	Speed           int `yaml:"speed" json:"speed"`
}

// Get returns the value of stat s; 0 for StatUnknown.
func (b StatBlock) Get(s Stat) int {
	switch s {
	case StatPhysicalAttack:
		return b.PhysicalAttack
	case StatMagicalAttack:
		return b.MagicalAttack
	case StatPhysicalDefense:
		return b.PhysicalDefense
	case StatMagicalDefense:
		return b.MagicalDefense
	case StatSpeed:
		return b.Speed
	default:
		return 0
	}
}

// With returns a copy of b with stat s set to v. StatUnknown returns b unchanged.
func (b StatBlock) With(s Stat, v int) StatBlock {
	switch s {
	case StatPhysicalAttack:
		b.PhysicalAttack = v
	case StatMagicalAttack:
		b.MagicalAttack = v
	case StatPhysicalDefense:
		b.PhysicalDefense = v
	case StatMagicalDefense:
		b.MagicalDefense = v
	case StatSpeed:
		b.Speed = v
	}
	return b
}

// Add returns the field-wise sum of b and o.
func (b StatBlock) Add(o StatBlock) StatBlock {
	return StatBlock{
		PhysicalAttack:  b.PhysicalAttack + o.PhysicalAttack,
		MagicalAttack:   b.MagicalAttack + o.MagicalAttack,
		PhysicalDefense: b.PhysicalDefense + o.PhysicalDefense,
		MagicalDefense:  b.MagicalDefense + o.MagicalDefense,
		Speed:           b.Speed + o.Speed,
	}
}

// Modifier scales one stat multiplicatively. Multiplier > 1 is a buff,
// < 1 a debuff.
type Modifier struct {
	Stat       Stat
	Multiplier float64
	// Order is the application sequence of the owning effect; lower first.
	Order uint64
	// Source identifies the owning effect definition, used as a final tiebreak.
	Source string
}

// Bounds on the composed multiplier for a single stat.
const (
	MinMultiplier = 0.1
	MaxMultiplier = 5.0
)

// Effective computes the effective stat snapshot.
//
// Algorithm: base + equipment, then every modifier for the same stat is
// multiplied together in (Stat, Order, Source, Multiplier) order, the product is bounded
// to [MinMultiplier, MaxMultiplier], the scaled value is floored, and each
// stat is clamped to a minimum of 1.
//
// Postcondition: Every field of the result is >= 1. The function is pure and
// mods is not modified.
func Effective(base, equipment StatBlock, mods []Modifier) StatBlock {
	out := base.Add(equipment)

	sorted := make([]Modifier, len(mods))
	copy(sorted, mods)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Stat != sorted[j].Stat {
			return sorted[i].Stat < sorted[j].Stat
		}
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		if sorted[i].Source != sorted[j].Source {
			return sorted[i].Source < sorted[j].Source
		}
		return sorted[i].Multiplier < sorted[j].Multiplier
	})

	product := make(map[Stat]float64, len(AllStats))
	for _, m := range sorted {
		if m.Stat == StatUnknown || m.Multiplier <= 0 {
			continue
		}
		p, ok := product[m.Stat]
		if !ok {
			p = 1
		}
		product[m.Stat] = p * m.Multiplier
	}

	for _, s := range AllStats {
		v := float64(out.Get(s))
		if p, ok := product[s]; ok {
			v *= clampFloat(p, MinMultiplier, MaxMultiplier)
		}
		iv := int(math.Floor(v))
		if iv < 1 {
			iv = 1
		}
		out = out.With(s, iv)
	}
	return out
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
