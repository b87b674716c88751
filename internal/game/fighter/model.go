// Package fighter defines the fighter domain model and the pure, barcode-seeded
// generation of fighter stats and signatures.
package fighter

import (
	"fmt"
	"time"
)

// SpecialMoveType names the signature move a fighter performs on a special turn.
type SpecialMoveType string

const (
	PowerAttack   SpecialMoveType = "power_attack"
	ShieldUp      SpecialMoveType = "shield_up"
	ComboStrike   SpecialMoveType = "combo_strike"
	EvasiveStance SpecialMoveType = "evasive_stance"
	Regeneration  SpecialMoveType = "regeneration"
	LuckyGambit   SpecialMoveType = "lucky_gambit"
)

// SpecialMoves lists every special move in generation order. The generator
// indexes into this slice, so the order is part of the determinism contract.
var SpecialMoves = []SpecialMoveType{
	PowerAttack,
	ShieldUp,
	ComboStrike,
	EvasiveStance,
	Regeneration,
	LuckyGambit,
}

// ParseSpecialMove converts a stored string into a SpecialMoveType.
//
// Postcondition: Returns the matching move or an error for unknown names.
func ParseSpecialMove(s string) (SpecialMoveType, error) {
	for _, m := range SpecialMoves {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown special move %q", s)
}

// DisplayName returns a human-readable label for the move.
func (m SpecialMoveType) DisplayName() string {
	switch m {
	case PowerAttack:
		return "Power Attack"
	case ShieldUp:
		return "Shield Up"
	case ComboStrike:
		return "Combo Strike"
	case EvasiveStance:
		return "Evasive Stance"
	case Regeneration:
		return "Regeneration"
	case LuckyGambit:
		return "Lucky Gambit"
	default:
		return string(m)
	}
}

// Stats holds the six base attributes. They are fixed at creation and never
// changed by battle.
type Stats struct {
	Health  int
	Attack  int
	Defense int
	Speed   int
	Luck    int
	Skill   int
}

// Fighter is a persisted, barcode-generated combatant.
//
// ID is set by the persistence layer; zero indicates an unsaved fighter.
// Wins and Losses are the only fields mutated after creation.
type Fighter struct {
	ID      int64
	Name    string
	Barcode string

	Stats
	SpecialMove SpecialMoveType

	Wins   int
	Losses int

	CreatedAt time.Time
}

// Battles returns the total number of completed battles.
func (f Fighter) Battles() int { return f.Wins + f.Losses }

// WinRate returns wins / battles, or 0 for a fighter that has never fought.
//
// Postcondition: 0 <= result <= 1.
func (f Fighter) WinRate() float64 {
	n := f.Battles()
	if n == 0 {
		return 0
	}
	return float64(f.Wins) / float64(n)
}
