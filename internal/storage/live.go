package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
)

// Live decorates a FighterStore so that every successful mutation publishes
// the full leaderboard (ListByWins order) to subscribers.
type Live struct {
	FighterStore
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[int]chan []*fighter.Fighter
	nextID int
}

// NewLive wraps inner.
//
// Precondition: inner and logger must be non-nil.
func NewLive(inner FighterStore, logger *zap.Logger) *Live {
	return &Live{
		FighterStore: inner,
		logger:       logger,
		subs:         make(map[int]chan []*fighter.Fighter),
	}
}

// Create stores f and publishes the new leaderboard.
func (l *Live) Create(ctx context.Context, f *fighter.Fighter) (*fighter.Fighter, error) {
	out, err := l.FighterStore.Create(ctx, f)
	if err != nil {
		return nil, err
	}
	l.publish(ctx)
	return out, nil
}

// Update stores f and publishes the new leaderboard.
func (l *Live) Update(ctx context.Context, f *fighter.Fighter) error {
	if err := l.FighterStore.Update(ctx, f); err != nil {
		return err
	}
	l.publish(ctx)
	return nil
}

// Delete removes the fighter and publishes the new leaderboard.
func (l *Live) Delete(ctx context.Context, id int64) error {
	if err := l.FighterStore.Delete(ctx, id); err != nil {
		return err
	}
	l.publish(ctx)
	return nil
}

// ApplyResult records the outcome and publishes the new leaderboard if it
// changed anything.
func (l *Live) ApplyResult(ctx context.Context, battleID uuid.UUID, winnerID, loserID int64) (bool, error) {
	applied, err := l.FighterStore.ApplyResult(ctx, battleID, winnerID, loserID)
	if err != nil || !applied {
		return applied, err
	}
	l.publish(ctx)
	return true, nil
}

// Subscribe returns a channel that immediately receives the current
// leaderboard and then every later one. A slow reader only ever sees the
// newest list. The channel is closed when ctx is done.
//
// Postcondition: Returns a non-nil channel, or an error if the initial list fails.
func (l *Live) Subscribe(ctx context.Context) (<-chan []*fighter.Fighter, error) {
	// Listing and registering under l.mu orders this subscription against
	// publish: any mutation either shows in the initial list or is published
	// to ch afterwards.
	l.mu.Lock()
	initial, err := l.FighterStore.ListByWins(ctx)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	ch := make(chan []*fighter.Fighter, 1)
	ch <- initial
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
		close(ch)
	}()
	return ch, nil
}

func (l *Live) publish(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.subs) == 0 {
		return
	}
	list, err := l.FighterStore.ListByWins(context.WithoutCancel(ctx))
	if err != nil {
		l.logger.Warn("refreshing leaderboard", zap.Error(err))
		return
	}
	for _, ch := range l.subs {
		select {
		case ch <- list:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- list
		}
	}
}
