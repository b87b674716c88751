package battle

import (
	"github.com/cory-johannsen/scanfighter/internal/game/dice"
	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
)

// SpecialMove is the closed set of special move behaviours. Each variant
// resolves itself against the current turn.
type SpecialMove interface {
	Type() fighter.SpecialMoveType
	perform(t *turn)
}

// PowerAttackMove lands a guaranteed heavy blow.
type PowerAttackMove struct{}

// ShieldUpMove raises defense for a few rounds.
type ShieldUpMove struct{}

// ComboStrikeMove performs two normal attacks in a row.
type ComboStrikeMove struct{}

// EvasiveStanceMove heals immediately and focuses the next attack.
type EvasiveStanceMove struct{}

// RegenerationMove starts a heal-over-time effect.
type RegenerationMove struct{}

// LuckyGambitMove picks one of four swing outcomes at random.
type LuckyGambitMove struct{}

// Gambit outcomes, in roll order.
const (
	GambitBigHit = iota
	GambitFullHeal
	GambitStun
	GambitBackfire
	gambitOutcomes
)

// MoveFor returns the behaviour for a special move type.
//
// Postcondition: ok is false for unknown or empty types.
func MoveFor(m fighter.SpecialMoveType) (SpecialMove, bool) {
	switch m {
	case fighter.PowerAttack:
		return PowerAttackMove{}, true
	case fighter.ShieldUp:
		return ShieldUpMove{}, true
	case fighter.ComboStrike:
		return ComboStrikeMove{}, true
	case fighter.EvasiveStance:
		return EvasiveStanceMove{}, true
	case fighter.Regeneration:
		return RegenerationMove{}, true
	case fighter.LuckyGambit:
		return LuckyGambitMove{}, true
	default:
		return nil, false
	}
}

func (PowerAttackMove) Type() fighter.SpecialMoveType   { return fighter.PowerAttack }
func (ShieldUpMove) Type() fighter.SpecialMoveType      { return fighter.ShieldUp }
func (ComboStrikeMove) Type() fighter.SpecialMoveType   { return fighter.ComboStrike }
func (EvasiveStanceMove) Type() fighter.SpecialMoveType { return fighter.EvasiveStance }
func (RegenerationMove) Type() fighter.SpecialMoveType  { return fighter.Regeneration }
func (LuckyGambitMove) Type() fighter.SpecialMoveType   { return fighter.LuckyGambit }

func (PowerAttackMove) perform(t *turn) {
	dmg := t.damage(float64(t.a.EffectiveAttack()) * t.rules.PowerMultiplier)
	t.log(t.aSide, EmphasisCritical, SoundCritical, "%s slams %s with a power attack for %d damage!", t.a.Name(), t.d.Name(), dmg)
	t.hurt(&t.d, t.dSide(), dmg)
}

func (ShieldUpMove) perform(t *turn) {
	// Refreshing an active shield extends it without stacking the bonus.
	if t.a.ShieldRounds == 0 {
		t.a.DefenseMod += t.rules.ShieldBonus
	}
	t.a.ShieldRounds = t.rules.ShieldDuration
	t.log(t.aSide, EmphasisStatus, SoundBlock, "%s raises a shield, gaining %d defense.", t.a.Name(), t.rules.ShieldBonus)
}

func (ComboStrikeMove) perform(t *turn) {
	t.strike(false)
	if !t.d.IsDown() {
		t.strike(false)
	}
}

func (EvasiveStanceMove) perform(t *turn) {
	healed := t.a.heal(percentOf(t.a.MaxHP(), t.rules.EvasiveHealPct))
	t.a.Focused = true
	t.log(t.aSide, EmphasisHeal, SoundHeal, "%s slips into an evasive stance and recovers %d HP.", t.a.Name(), healed)
}

func (RegenerationMove) perform(t *turn) {
	t.a.RegenRounds = t.rules.RegenDuration
	t.log(t.aSide, EmphasisHeal, SoundHeal, "%s begins to regenerate.", t.a.Name())
}

func (LuckyGambitMove) perform(t *turn) {
	switch dice.Pick(t.src, gambitOutcomes) {
	case GambitBigHit:
		dmg := t.damage(float64(t.a.EffectiveAttack()) * t.rules.GambitMultiplier)
		t.log(t.aSide, EmphasisCritical, SoundCritical, "The gamble pays off! %s hits %s for %d damage!", t.a.Name(), t.d.Name(), dmg)
		t.hurt(&t.d, t.dSide(), dmg)
	case GambitFullHeal:
		healed := t.a.heal(t.a.MaxHP())
		t.log(t.aSide, EmphasisHeal, SoundHeal, "Fortune smiles on %s, restoring %d HP!", t.a.Name(), healed)
	case GambitStun:
		t.applyDebuff(&t.d, t.dSide(), DebuffStun)
	default:
		dmg := percentOf(t.a.MaxHP(), t.rules.BackfirePercent)
		t.log(t.aSide, EmphasisMiss, SoundMiss, "The gamble backfires! %s takes %d damage.", t.a.Name(), dmg)
		t.hurt(&t.a, t.aSide, dmg)
	}
}
