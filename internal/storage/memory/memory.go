// Package memory provides a map-backed FighterStore for tests and ephemeral runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
	"github.com/cory-johannsen/scanfighter/internal/storage"
)

// Store keeps fighters in memory. The zero value is not usable; call New.
type Store struct {
	mu      sync.RWMutex
	nextID  int64
	rows    map[int64]fighter.Fighter
	applied map[uuid.UUID]struct{}
	now     func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		nextID:  1,
		rows:    make(map[int64]fighter.Fighter),
		applied: make(map[uuid.UUID]struct{}),
		now:     time.Now,
	}
}

// Create stores a copy of f under a fresh ID.
//
// Precondition: f must be non-nil.
// Postcondition: Returns a copy with ID > 0 and CreatedAt set.
func (s *Store) Create(ctx context.Context, f *fighter.Fighter) (*fighter.Fighter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row := *f
	row.ID = s.nextID
	row.CreatedAt = s.now().UTC()
	s.nextID++
	s.rows[row.ID] = row
	return &row, nil
}

// Get returns a copy of the fighter with id.
func (s *Store) Get(ctx context.Context, id int64) (*fighter.Fighter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, storage.ErrFighterNotFound
	}
	return &row, nil
}

// Update overwrites the name and record of an existing fighter.
func (s *Store) Update(ctx context.Context, f *fighter.Fighter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[f.ID]
	if !ok {
		return storage.ErrFighterNotFound
	}
	row.Name = f.Name
	row.Wins = f.Wins
	row.Losses = f.Losses
	s.rows[f.ID] = row
	return nil
}

// Delete removes the fighter with id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return storage.ErrFighterNotFound
	}
	delete(s.rows, id)
	return nil
}

// ListByWins returns copies of all fighters, most wins first.
func (s *Store) ListByWins(ctx context.Context) ([]*fighter.Fighter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]*fighter.Fighter, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, &row)
	}
	s.mu.RUnlock()
	storage.SortByWins(out)
	return out, nil
}

// ApplyResult records the battle outcome at most once per battleID.
func (s *Store) ApplyResult(ctx context.Context, battleID uuid.UUID, winnerID, loserID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, done := s.applied[battleID]; done {
		return false, nil
	}
	s.applied[battleID] = struct{}{}
	if row, ok := s.rows[winnerID]; ok {
		row.Wins++
		s.rows[winnerID] = row
	}
	if row, ok := s.rows[loserID]; ok {
		row.Losses++
		s.rows[loserID] = row
	}
	return true, nil
}
