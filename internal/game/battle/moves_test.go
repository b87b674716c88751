package battle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/scanfighter/internal/game/battle"
	"github.com/cory-johannsen/scanfighter/internal/game/dice"
	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
)

// specialState builds a battle where a fast attacker with the given move
// opens against a slow 100 HP target with no defense.
func specialState(move fighter.SpecialMoveType) battle.State {
	a := newFighter(1, "Caster", fighter.Stats{Health: 100, Attack: 20, Defense: 0, Speed: 20, Luck: 1, Skill: 0})
	a.SpecialMove = move
	d := newFighter(2, "Target", fighter.Stats{Health: 100, Attack: 1, Defense: 0, Speed: 1, Luck: 1, Skill: 0})
	return battle.Begin(a, d)
}

func TestMoveFor_CoversEveryMove(t *testing.T) {
	for _, m := range fighter.SpecialMoves {
		move, ok := battle.MoveFor(m)
		require.True(t, ok, "move %q", m)
		assert.Equal(t, m, move.Type())
	}
	_, ok := battle.MoveFor("")
	assert.False(t, ok)
}

func TestPowerAttack(t *testing.T) {
	src := dice.NewSequenceSource(0)
	next := battle.Resolve(specialState(fighter.PowerAttack), src, battle.DefaultRuleset())

	assert.Equal(t, 60, next.Second.CurrentHP)
	assert.Equal(t, 5, next.First.Cooldown)
	assert.Equal(t, 1, src.Draws())
}

func TestShieldUp_AppliesAndExpires(t *testing.T) {
	rules := battle.DefaultRuleset()
	s := battle.Resolve(specialState(fighter.ShieldUp), dice.NewSequenceSource(0), rules)
	assert.Equal(t, 10, s.First.DefenseMod)
	assert.Equal(t, 2, s.First.ShieldRounds)

	// Skip the target's turns so only the caster's upkeep matters.
	s.Second.StunRounds = 10
	high := dice.NewSequenceSource(99)
	for range 4 {
		s = battle.Resolve(s, high, rules)
	}
	assert.Equal(t, 0, s.First.ShieldRounds)
	assert.Equal(t, 0, s.First.DefenseMod)
}

func TestShieldUp_RefreshDoesNotStack(t *testing.T) {
	s := specialState(fighter.ShieldUp)
	s.First.ShieldRounds = 1
	s.First.DefenseMod = 10
	s.First.Cooldown = 0

	// Upkeep expires the old shield first, then the move raises a fresh one.
	next := battle.Resolve(s, dice.NewSequenceSource(0), battle.DefaultRuleset())
	assert.Equal(t, 10, next.First.DefenseMod)
	assert.Equal(t, 2, next.First.ShieldRounds)

	s.First.ShieldRounds = 2
	next = battle.Resolve(s, dice.NewSequenceSource(0), battle.DefaultRuleset())
	assert.Equal(t, 10, next.First.DefenseMod)
	assert.Equal(t, 2, next.First.ShieldRounds)
}

func TestComboStrike_AttacksTwice(t *testing.T) {
	// special, then hit/no-crit/no-block twice
	src := dice.NewSequenceSource(0, 0, 99, 99, 0, 99, 99)
	next := battle.Resolve(specialState(fighter.ComboStrike), src, battle.DefaultRuleset())

	assert.Equal(t, 60, next.Second.CurrentHP)
	assert.Equal(t, 7, src.Draws())
}

func TestEvasiveStance_HealsAndFocuses(t *testing.T) {
	s := specialState(fighter.EvasiveStance)
	s.First.CurrentHP = 50
	next := battle.Resolve(s, dice.NewSequenceSource(0), battle.DefaultRuleset())

	assert.Equal(t, 65, next.First.CurrentHP)
	assert.True(t, next.First.Focused)
}

func TestRegeneration_StartsHealOverTime(t *testing.T) {
	next := battle.Resolve(specialState(fighter.Regeneration), dice.NewSequenceSource(0), battle.DefaultRuleset())
	assert.Equal(t, 3, next.First.RegenRounds)
	assert.Equal(t, battle.EmphasisHeal, next.Log[len(next.Log)-1].Emphasis)
}

func TestLuckyGambit_Outcomes(t *testing.T) {
	rules := battle.DefaultRuleset()

	t.Run("big hit", func(t *testing.T) {
		next := battle.Resolve(specialState(fighter.LuckyGambit), dice.NewSequenceSource(0, battle.GambitBigHit), rules)
		assert.Equal(t, 50, next.Second.CurrentHP)
	})
	t.Run("full heal", func(t *testing.T) {
		s := specialState(fighter.LuckyGambit)
		s.First.CurrentHP = 10
		next := battle.Resolve(s, dice.NewSequenceSource(0, battle.GambitFullHeal), rules)
		assert.Equal(t, 100, next.First.CurrentHP)
	})
	t.Run("stun", func(t *testing.T) {
		next := battle.Resolve(specialState(fighter.LuckyGambit), dice.NewSequenceSource(0, battle.GambitStun), rules)
		assert.Equal(t, 1, next.Second.StunRounds)
		assert.Equal(t, 100, next.Second.CurrentHP)
	})
	t.Run("backfire", func(t *testing.T) {
		next := battle.Resolve(specialState(fighter.LuckyGambit), dice.NewSequenceSource(0, battle.GambitBackfire), rules)
		assert.Equal(t, 90, next.First.CurrentHP)
		assert.False(t, next.Over())
	})
	t.Run("lethal backfire", func(t *testing.T) {
		s := specialState(fighter.LuckyGambit)
		s.First.CurrentHP = 5
		next := battle.Resolve(s, dice.NewSequenceSource(0, battle.GambitBackfire, 99), rules)
		assert.True(t, next.Over())
		assert.Equal(t, battle.SideSecond, next.Winner)
	})
}

func TestSpecial_OnCooldownFallsBackToStrike(t *testing.T) {
	s := specialState(fighter.PowerAttack)
	s.First.Cooldown = 2

	// hit, no crit, no block, no combo
	src := dice.NewSequenceSource(0, 99, 99, 99)
	next := battle.Resolve(s, src, battle.DefaultRuleset())

	assert.Equal(t, 80, next.Second.CurrentHP)
	assert.Equal(t, 1, next.First.Cooldown)
	assert.Equal(t, 4, src.Draws())
}

func TestSpecial_FailedRollFallsBackToStrike(t *testing.T) {
	src := dice.NewSequenceSource(99, 0, 99, 99, 99)
	next := battle.Resolve(specialState(fighter.PowerAttack), src, battle.DefaultRuleset())

	assert.Equal(t, 80, next.Second.CurrentHP)
	assert.Equal(t, 0, next.First.Cooldown)
}
