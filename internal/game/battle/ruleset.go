package battle

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Debuff identifies one entry of the critical-hit debuff table.
type Debuff string

const (
	DebuffStun        Debuff = "stun"
	DebuffAttackDown  Debuff = "attack_down"
	DebuffDefenseDown Debuff = "defense_down"
	DebuffBleed       Debuff = "bleed"
	DebuffPoison      Debuff = "poison"
)

// Ruleset holds every tunable constant of the simulation. Percentages are
// whole numbers compared against a uniform roll in [0, 100).
type Ruleset struct {
	// HitBonus is the flat bonus added to the speed-ratio hit chance.
	HitBonus int `yaml:"hit_bonus"`
	// MissRecoveryPerLuck converts attacker luck into a percent chance to turn a miss into a hit.
	MissRecoveryPerLuck int `yaml:"miss_recovery_per_luck"`
	// CritLuckFactor is how much each point of luck adds to the skill-based crit chance.
	CritLuckFactor int     `yaml:"crit_luck_factor"`
	CritMultiplier float64 `yaml:"crit_multiplier"`
	// DefenseFactor scales defender defense before subtracting it from damage.
	DefenseFactor float64 `yaml:"defense_factor"`
	// BlockDivisor turns effective defense into a block percent (defense / divisor).
	BlockDivisor int `yaml:"block_divisor"`

	// DebuffChance is the percent chance a critical hit inflicts a debuff.
	DebuffChance int `yaml:"debuff_chance"`
	// DebuffTable lists the debuffs a critical hit picks from with equal odds.
	DebuffTable      []Debuff `yaml:"debuff_table"`
	StunDuration     int      `yaml:"stun_duration"`
	StatDebuff       int      `yaml:"stat_debuff"`
	BleedDuration    int      `yaml:"bleed_duration"`
	BleedPercent     int      `yaml:"bleed_percent"`
	PoisonDuration   int      `yaml:"poison_duration"`
	PoisonPercent    int      `yaml:"poison_percent"`
	ComboSkillDivide int      `yaml:"combo_skill_divisor"`

	SpecialChance   int `yaml:"special_chance"`
	SpecialCooldown int `yaml:"special_cooldown"`

	PowerMultiplier  float64 `yaml:"power_multiplier"`
	ShieldBonus      int     `yaml:"shield_bonus"`
	ShieldDuration   int     `yaml:"shield_duration"`
	EvasiveHealPct   int     `yaml:"evasive_heal_percent"`
	RegenPercent     int     `yaml:"regen_percent"`
	RegenDuration    int     `yaml:"regen_duration"`
	GambitMultiplier float64 `yaml:"gambit_multiplier"`
	BackfirePercent  int     `yaml:"backfire_percent"`

	// EnrageThreshold is the HP percent below which a fighter becomes enraged.
	EnrageThreshold int `yaml:"enrage_threshold"`
	EnrageBonus     int `yaml:"enrage_bonus"`
	// FocusBonus is added to the hit chance of the attack after a miss.
	FocusBonus int `yaml:"focus_bonus"`

	// MaxTurns ends a battle that has not produced a knockout by then.
	MaxTurns int `yaml:"max_turns"`
}

// DefaultRuleset returns the reference constants.
func DefaultRuleset() Ruleset {
	return Ruleset{
		HitBonus:            20,
		MissRecoveryPerLuck: 1,
		CritLuckFactor:      1,
		CritMultiplier:      1.5,
		DefenseFactor:       0.5,
		BlockDivisor:        2,

		DebuffChance:     25,
		DebuffTable:      []Debuff{DebuffStun, DebuffAttackDown, DebuffDefenseDown, DebuffBleed},
		StunDuration:     1,
		StatDebuff:       5,
		BleedDuration:    3,
		BleedPercent:     4,
		PoisonDuration:   3,
		PoisonPercent:    5,
		ComboSkillDivide: 2,

		SpecialChance:   40,
		SpecialCooldown: 5,

		PowerMultiplier:  2.0,
		ShieldBonus:      10,
		ShieldDuration:   2,
		EvasiveHealPct:   15,
		RegenPercent:     7,
		RegenDuration:    3,
		GambitMultiplier: 2.5,
		BackfirePercent:  10,

		EnrageThreshold: 30,
		EnrageBonus:     5,
		FocusBonus:      10,

		MaxTurns: 500,
	}
}

// ClassicRuleset returns the earliest rules: no special moves and a critical
// hit can only stun.
func ClassicRuleset() Ruleset {
	r := DefaultRuleset()
	r.SpecialChance = 0
	r.DebuffTable = []Debuff{DebuffStun}
	r.MissRecoveryPerLuck = 0
	r.CritLuckFactor = 0
	r.ComboSkillDivide = 0
	r.EnrageBonus = 0
	r.FocusBonus = 0
	return r
}

// Validate checks all ruleset invariants.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (r Ruleset) Validate() error {
	var errs []string
	percent := func(name string, v int) {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Sprintf("%s must be 0-100, got %d", name, v))
		}
	}
	percent("debuff_chance", r.DebuffChance)
	percent("special_chance", r.SpecialChance)
	percent("bleed_percent", r.BleedPercent)
	percent("poison_percent", r.PoisonPercent)
	percent("regen_percent", r.RegenPercent)
	percent("evasive_heal_percent", r.EvasiveHealPct)
	percent("backfire_percent", r.BackfirePercent)
	percent("enrage_threshold", r.EnrageThreshold)

	if r.BlockDivisor < 1 {
		errs = append(errs, fmt.Sprintf("block_divisor must be >= 1, got %d", r.BlockDivisor))
	}
	if r.CritMultiplier < 1 {
		errs = append(errs, fmt.Sprintf("crit_multiplier must be >= 1, got %g", r.CritMultiplier))
	}
	if r.DefenseFactor < 0 {
		errs = append(errs, "defense_factor must not be negative")
	}
	if r.ComboSkillDivide < 0 {
		errs = append(errs, "combo_skill_divisor must not be negative")
	}
	if r.SpecialCooldown < 0 {
		errs = append(errs, "special_cooldown must not be negative")
	}
	for _, d := range r.DebuffTable {
		switch d {
		case DebuffStun, DebuffAttackDown, DebuffDefenseDown, DebuffBleed, DebuffPoison:
		default:
			errs = append(errs, fmt.Sprintf("unknown debuff %q", d))
		}
	}
	if r.DebuffChance > 0 && len(r.DebuffTable) == 0 {
		errs = append(errs, "debuff_table must not be empty when debuff_chance > 0")
	}
	if r.MaxTurns < 2 {
		errs = append(errs, fmt.Sprintf("max_turns must be >= 2, got %d", r.MaxTurns))
	}
	if len(errs) > 0 {
		return fmt.Errorf("ruleset validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ParseRuleset decodes YAML over the default ruleset; keys absent from data
// keep their default value.
//
// Postcondition: Returns a validated Ruleset or a non-nil error.
func ParseRuleset(data []byte) (Ruleset, error) {
	r := DefaultRuleset()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return Ruleset{}, fmt.Errorf("decoding ruleset: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Ruleset{}, err
	}
	return r, nil
}

// LoadRuleset reads a YAML ruleset file. An empty path returns the defaults.
//
// Postcondition: Returns a validated Ruleset or a non-nil error.
func LoadRuleset(path string) (Ruleset, error) {
	if path == "" {
		return DefaultRuleset(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Ruleset{}, fmt.Errorf("reading ruleset %q: %w", path, err)
	}
	r, err := ParseRuleset(data)
	if err != nil {
		return Ruleset{}, fmt.Errorf("ruleset %q: %w", path, err)
	}
	return r, nil
}
