// Package storage defines the fighter persistence port shared by every backend.
package storage

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"

	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
)

// ErrFighterNotFound is returned when a fighter lookup yields no results.
var ErrFighterNotFound = errors.New("fighter not found")

// FighterStore persists fighters.
//
// Implementations MUST be safe for concurrent use.
type FighterStore interface {
	// Create inserts f and returns the stored copy with ID and CreatedAt set.
	Create(ctx context.Context, f *fighter.Fighter) (*fighter.Fighter, error)
	// Get returns the fighter with id or ErrFighterNotFound.
	Get(ctx context.Context, id int64) (*fighter.Fighter, error)
	// Update overwrites the mutable fields (name, wins, losses) of f.ID.
	Update(ctx context.Context, f *fighter.Fighter) error
	// Delete removes the fighter with id, or returns ErrFighterNotFound.
	Delete(ctx context.Context, id int64) error
	// ListByWins returns every fighter ordered by wins descending, then ID.
	ListByWins(ctx context.Context) ([]*fighter.Fighter, error)
	// ApplyResult credits winnerID with a win and loserID with a loss, once
	// per battleID. It reports false when battleID was already applied.
	// A participant deleted since the battle is skipped.
	ApplyResult(ctx context.Context, battleID uuid.UUID, winnerID, loserID int64) (bool, error)
}

// SortByWins orders fighters the way ListByWins must: wins descending,
// ties broken by ascending ID.
func SortByWins(fs []*fighter.Fighter) {
	slices.SortStableFunc(fs, func(a, b *fighter.Fighter) int {
		if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
