// Package storagetest holds the behaviour every FighterStore backend must share.
package storagetest

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
	"github.com/cory-johannsen/scanfighter/internal/storage"
)

// Run exercises a FighterStore. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.FighterStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		in := fighter.Generate("Soup Can", "012345678905")
		created, err := s.Create(ctx, &in)
		require.NoError(t, err)
		assert.Greater(t, created.ID, int64(0))
		assert.False(t, created.CreatedAt.IsZero())

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Soup Can", got.Name)
		assert.Equal(t, "012345678905", got.Barcode)
		assert.Equal(t, in.Stats, got.Stats)
		assert.Equal(t, in.SpecialMove, got.SpecialMove)
		assert.Zero(t, got.Wins)
		assert.Zero(t, got.Losses)
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, 424242)
		assert.ErrorIs(t, err, storage.ErrFighterNotFound)
	})

	t.Run("duplicate barcodes allowed", func(t *testing.T) {
		s := newStore(t)
		a := fighter.Generate("One", "4006381333931")
		b := fighter.Generate("Two", "4006381333931")
		ca, err := s.Create(ctx, &a)
		require.NoError(t, err)
		cb, err := s.Create(ctx, &b)
		require.NoError(t, err)
		assert.NotEqual(t, ca.ID, cb.ID)
	})

	t.Run("update record", func(t *testing.T) {
		s := newStore(t)
		in := fighter.Generate("Mug", "hello")
		created, err := s.Create(ctx, &in)
		require.NoError(t, err)

		created.Wins = 3
		created.Losses = 1
		require.NoError(t, s.Update(ctx, created))

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Wins)
		assert.Equal(t, 1, got.Losses)
		assert.Equal(t, in.Stats, got.Stats)

		missing := *created
		missing.ID = 999999
		assert.ErrorIs(t, s.Update(ctx, &missing), storage.ErrFighterNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		in := fighter.Generate("Box", "box")
		created, err := s.Create(ctx, &in)
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, created.ID))
		_, err = s.Get(ctx, created.ID)
		assert.ErrorIs(t, err, storage.ErrFighterNotFound)
		assert.ErrorIs(t, s.Delete(ctx, created.ID), storage.ErrFighterNotFound)
	})

	t.Run("list by wins", func(t *testing.T) {
		s := newStore(t)
		wins := []int{2, 5, 2, 0}
		ids := make([]int64, len(wins))
		for i, w := range wins {
			f := fighter.Generate("F", string(rune('a'+i)))
			created, err := s.Create(ctx, &f)
			require.NoError(t, err)
			created.Wins = w
			require.NoError(t, s.Update(ctx, created))
			ids[i] = created.ID
		}

		list, err := s.ListByWins(ctx)
		require.NoError(t, err)
		require.Len(t, list, 4)
		got := []int64{list[0].ID, list[1].ID, list[2].ID, list[3].ID}
		assert.Equal(t, []int64{ids[1], ids[0], ids[2], ids[3]}, got)
	})

	t.Run("list empty", func(t *testing.T) {
		s := newStore(t)
		list, err := s.ListByWins(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("apply result once", func(t *testing.T) {
		s := newStore(t)
		a := fighter.Generate("Winner", "w")
		b := fighter.Generate("Loser", "l")
		ca, err := s.Create(ctx, &a)
		require.NoError(t, err)
		cb, err := s.Create(ctx, &b)
		require.NoError(t, err)

		battleID := uuid.New()
		applied, err := s.ApplyResult(ctx, battleID, ca.ID, cb.ID)
		require.NoError(t, err)
		assert.True(t, applied)
		applied, err = s.ApplyResult(ctx, battleID, ca.ID, cb.ID)
		require.NoError(t, err)
		assert.False(t, applied)

		w, err := s.Get(ctx, ca.ID)
		require.NoError(t, err)
		l, err := s.Get(ctx, cb.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, w.Wins)
		assert.Equal(t, 0, w.Losses)
		assert.Equal(t, 0, l.Wins)
		assert.Equal(t, 1, l.Losses)
	})

	t.Run("apply result after delete", func(t *testing.T) {
		s := newStore(t)
		a := fighter.Generate("Winner", "w")
		b := fighter.Generate("Gone", "g")
		ca, err := s.Create(ctx, &a)
		require.NoError(t, err)
		cb, err := s.Create(ctx, &b)
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, cb.ID))

		applied, err := s.ApplyResult(ctx, uuid.New(), ca.ID, cb.ID)
		require.NoError(t, err)
		assert.True(t, applied)
		w, err := s.Get(ctx, ca.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, w.Wins)
	})

	t.Run("concurrent apply result", func(t *testing.T) {
		s := newStore(t)
		a := fighter.Generate("Winner", "w")
		b := fighter.Generate("Loser", "l")
		ca, err := s.Create(ctx, &a)
		require.NoError(t, err)
		cb, err := s.Create(ctx, &b)
		require.NoError(t, err)

		battleID := uuid.New()
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.ApplyResult(ctx, battleID, ca.ID, cb.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		w, err := s.Get(ctx, ca.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, w.Wins)
	})

	t.Run("concurrent updates", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				f := fighter.Generate("Racer", string(rune('A'+i)))
				_, err := s.Create(ctx, &f)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		list, err := s.ListByWins(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 10)
	})
}
