// Package roster is the application service for managing fighters: creating
// them from scans, listing the leaderboard and recording battle outcomes.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
	"github.com/cory-johannsen/scanfighter/internal/storage"
)

// ErrEmptyBarcode is returned when a fighter is created without a scanned code.
var ErrEmptyBarcode = errors.New("barcode must not be empty")

// Service manages the fighter roster on top of a FighterStore.
type Service struct {
	store  *storage.Live
	logger *zap.Logger
}

// New wraps store so that every mutation is visible to Watch subscribers.
//
// Precondition: store and logger must be non-nil.
func New(store storage.FighterStore, logger *zap.Logger) *Service {
	return &Service{store: storage.NewLive(store, logger), logger: logger}
}

// Create validates the inputs, generates the fighter from barcode and stores it.
//
// Postcondition: Returns the stored fighter, or fighter.ErrInvalidName /
// ErrEmptyBarcode on bad input.
func (s *Service) Create(ctx context.Context, name, barcode string) (*fighter.Fighter, error) {
	clean, err := fighter.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, ErrEmptyBarcode
	}

	f := fighter.Generate(clean, barcode)
	created, err := s.store.Create(ctx, &f)
	if err != nil {
		return nil, fmt.Errorf("creating fighter: %w", err)
	}
	s.logger.Info("fighter created",
		zap.Int64("id", created.ID),
		zap.String("name", created.Name),
		zap.String("special_move", string(created.SpecialMove)),
	)
	return created, nil
}

// Get returns the fighter with id. It also satisfies battle.Loader.
func (s *Service) Get(ctx context.Context, id int64) (*fighter.Fighter, error) {
	return s.store.Get(ctx, id)
}

// Delete removes the fighter with id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting fighter %d: %w", id, err)
	}
	s.logger.Info("fighter deleted", zap.Int64("id", id))
	return nil
}

// Leaderboard returns every fighter, most wins first.
func (s *Service) Leaderboard(ctx context.Context) ([]*fighter.Fighter, error) {
	return s.store.ListByWins(ctx)
}

// Watch streams the leaderboard after every change until ctx is done.
func (s *Service) Watch(ctx context.Context) (<-chan []*fighter.Fighter, error) {
	return s.store.Subscribe(ctx)
}

// RecordResult credits the winner and loser of battleID. Repeated calls for
// the same battle are ignored, so each fighter's record changes at most once
// per battle. It satisfies battle.ResultRecorder.
func (s *Service) RecordResult(ctx context.Context, battleID uuid.UUID, winnerID, loserID int64) error {
	applied, err := s.store.ApplyResult(ctx, battleID, winnerID, loserID)
	if err != nil {
		return fmt.Errorf("recording battle %s: %w", battleID, err)
	}
	if !applied {
		s.logger.Debug("battle result already recorded", zap.String("battle", battleID.String()))
		return nil
	}
	s.logger.Info("battle result recorded",
		zap.String("battle", battleID.String()),
		zap.Int64("winner_id", winnerID),
		zap.Int64("loser_id", loserID),
	)
	return nil
}
