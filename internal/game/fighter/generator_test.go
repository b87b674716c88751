package fighter_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
)

func TestGenerate_KnownBarcode(t *testing.T) {
	f := fighter.Generate("Tester", "012345678905")
	assert.Equal(t, fighter.Stats{Health: 51, Attack: 32, Defense: 17, Speed: 5, Luck: 4, Skill: 24}, f.Stats)
	assert.Equal(t, fighter.Regeneration, f.SpecialMove)
	assert.Equal(t, "Tester", f.Name)
	assert.Equal(t, "012345678905", f.Barcode)
	assert.Zero(t, f.ID)
	assert.Zero(t, f.Wins)
	assert.Zero(t, f.Losses)
}

func TestGenerate_OtherKnownBarcodes(t *testing.T) {
	tests := []struct {
		barcode string
		stats   fighter.Stats
		move    fighter.SpecialMoveType
	}{
		{"", fighter.Stats{Health: 56, Attack: 21, Defense: 29, Speed: 5, Luck: 7, Skill: 15}, fighter.PowerAttack},
		{"4006381333931", fighter.Stats{Health: 76, Attack: 33, Defense: 30, Speed: 19, Luck: 10, Skill: 14}, fighter.Regeneration},
		{"hello", fighter.Stats{Health: 78, Attack: 23, Defense: 21, Speed: 20, Luck: 5, Skill: 26}, fighter.Regeneration},
	}
	for _, tc := range tests {
		f := fighter.Generate("x", tc.barcode)
		assert.Equal(t, tc.stats, f.Stats, "barcode %q", tc.barcode)
		assert.Equal(t, tc.move, f.SpecialMove, "barcode %q", tc.barcode)
	}
}

func TestSeed_KnownValue(t *testing.T) {
	assert.Equal(t, int64(1186908730541256760), fighter.Seed("012345678905"))
	assert.Equal(t, int64(-2039914840885289964), fighter.Seed(""))
}

func TestStatsFor_DegenerateSeeds(t *testing.T) {
	for _, seed := range []int64{0, -1, 1, math.MinInt64, math.MaxInt64} {
		s := fighter.StatsFor(seed)
		assertInRange(t, s)
	}
	zero := fighter.StatsFor(0)
	assert.Equal(t, fighter.Stats{Health: 50, Attack: 10, Defense: 5, Speed: 1, Luck: 1, Skill: 5}, zero)
}

func TestStatsFor_MinInt64UsesExactMagnitude(t *testing.T) {
	// |MinInt64| is 2^63, one more than MaxInt64, so health differs by one.
	assert.Equal(t,
		fighter.Stats{Health: 76, Attack: 19, Defense: 37, Speed: 9, Luck: 9, Skill: 25},
		fighter.StatsFor(math.MinInt64))
	assert.Equal(t, 75, fighter.StatsFor(math.MaxInt64).Health)
}

func assertInRange(t assert.TestingT, s fighter.Stats) {
	assert.GreaterOrEqual(t, s.Health, 50)
	assert.LessOrEqual(t, s.Health, 100)
	assert.GreaterOrEqual(t, s.Attack, 10)
	assert.LessOrEqual(t, s.Attack, 50)
	assert.GreaterOrEqual(t, s.Defense, 5)
	assert.LessOrEqual(t, s.Defense, 40)
	assert.GreaterOrEqual(t, s.Speed, 1)
	assert.LessOrEqual(t, s.Speed, 20)
	assert.GreaterOrEqual(t, s.Luck, 1)
	assert.LessOrEqual(t, s.Luck, 10)
	assert.GreaterOrEqual(t, s.Skill, 5)
	assert.LessOrEqual(t, s.Skill, 30)
}

func TestGenerate_Property_Deterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		barcode := rapid.String().Draw(rt, "barcode")
		a := fighter.Generate("a", barcode)
		b := fighter.Generate("b", barcode)
		assert.Equal(rt, a.Stats, b.Stats)
		assert.Equal(rt, a.SpecialMove, b.SpecialMove)
	})
}

func TestGenerate_Property_InRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		barcode := rapid.StringMatching(`[0-9]{0,14}`).Draw(rt, "barcode")
		f := fighter.Generate("n", barcode)
		assertInRange(rt, f.Stats)
		assert.Contains(rt, fighter.SpecialMoves, f.SpecialMove)
	})
}

func TestStatsFor_Property_AnySeedInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		assertInRange(rt, fighter.StatsFor(seed))
	})
}

func TestParseSpecialMove(t *testing.T) {
	for _, m := range fighter.SpecialMoves {
		got, err := fighter.ParseSpecialMove(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
		assert.NotEmpty(t, m.DisplayName())
	}
	_, err := fighter.ParseSpecialMove("fireball")
	assert.Error(t, err)
}

func TestNormalizeName(t *testing.T) {
	name, err := fighter.NormalizeName("  Barcode Bob ")
	require.NoError(t, err)
	assert.Equal(t, "Barcode Bob", name)

	_, err = fighter.NormalizeName("   ")
	assert.ErrorIs(t, err, fighter.ErrInvalidName)

	_, err = fighter.NormalizeName(strings.Repeat("x", fighter.MaxNameLength+1))
	assert.ErrorIs(t, err, fighter.ErrInvalidName)

	name, err = fighter.NormalizeName(strings.Repeat("é", fighter.MaxNameLength))
	require.NoError(t, err, "length is counted in runes")
	assert.Len(t, []rune(name), fighter.MaxNameLength)
}

func TestWinRate(t *testing.T) {
	assert.Zero(t, fighter.Fighter{}.WinRate())
	f := fighter.Fighter{Wins: 3, Losses: 1}
	assert.Equal(t, 4, f.Battles())
	assert.InDelta(t, 0.75, f.WinRate(), 1e-9)
}
