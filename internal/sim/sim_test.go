package sim_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/scanfighter/internal/game/battle"
	"github.com/cory-johannsen/scanfighter/internal/sim"
)

func matchup() sim.Matchup {
	return sim.Pairs([]string{"012345678905", "4006381333931"})[0]
}

func TestPairs(t *testing.T) {
	ms := sim.Pairs([]string{"a", "b", "c", "d"})
	assert.Len(t, ms, 6)
	assert.Equal(t, "a", ms[0].First.Name)
	assert.Equal(t, "b", ms[0].Second.Name)
	assert.Empty(t, sim.Pairs([]string{"solo"}))
}

func TestRun_TalliesEveryBattle(t *testing.T) {
	rep, err := sim.Run(context.Background(), matchup(), sim.Options{
		Battles: 50, Seed: 1, Rules: battle.DefaultRuleset(),
	})
	require.NoError(t, err)
	assert.Equal(t, 50, rep.Battles)
	assert.Equal(t, 50, rep.FirstWins+rep.SecondWins)
	assert.InDelta(t, float64(rep.FirstWins)/50, rep.FirstWinRate, 1e-9)
	assert.GreaterOrEqual(t, rep.MeanTurns, 1.0)
	assert.GreaterOrEqual(t, rep.StdDevTurns, 0.0)
	require.Len(t, rep.Records, 50)
	for i, r := range rep.Records {
		assert.Equal(t, i+1, r.Battle)
		assert.Positive(t, r.WinnerHP)
	}
}

func TestRun_DeterministicAcrossWorkerCounts(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		workers := rapid.IntRange(1, 8).Draw(rt, "workers")
		opts := sim.Options{Battles: 12, Seed: seed, Rules: battle.DefaultRuleset(), Workers: 1}

		serial, err := sim.Run(context.Background(), matchup(), opts)
		require.NoError(rt, err)
		opts.Workers = workers
		parallel, err := sim.Run(context.Background(), matchup(), opts)
		require.NoError(rt, err)
		assert.Equal(rt, serial.Records, parallel.Records)
	})
}

func TestRun_SingleBattleHasNoSpread(t *testing.T) {
	rep, err := sim.Run(context.Background(), matchup(), sim.Options{Battles: 1, Rules: battle.ClassicRuleset()})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rep.StdDevTurns)
	assert.Equal(t, rep.MeanTurns, rep.MedianTurns)
}

func TestRun_RejectsBadInput(t *testing.T) {
	_, err := sim.Run(context.Background(), matchup(), sim.Options{Rules: battle.DefaultRuleset()})
	assert.ErrorIs(t, err, sim.ErrNoBattles)

	bad := battle.DefaultRuleset()
	bad.SpecialChance = 200
	_, err = sim.Run(context.Background(), matchup(), sim.Options{Battles: 1, Rules: bad})
	assert.Error(t, err)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sim.Run(ctx, matchup(), sim.Options{Battles: 1000, Rules: battle.DefaultRuleset(), Workers: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteCSV(t *testing.T) {
	rep, err := sim.Run(context.Background(), matchup(), sim.Options{Battles: 3, Seed: 5, Rules: battle.DefaultRuleset()})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, sim.WriteCSV(&buf, rep, rep))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "battle,seed,first,second,opener,winner,turns,winner_hp", lines[0])
}
