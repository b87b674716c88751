package battle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/scanfighter/internal/game/dice"
	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
)

// ErrEngineClosed is returned by Engine operations after Close.
var ErrEngineClosed = errors.New("battle engine closed")

// recordTimeout bounds a single win/loss persistence call.
const recordTimeout = 10 * time.Second

// Loader fetches fighters for a battle.
type Loader interface {
	Get(ctx context.Context, id int64) (*fighter.Fighter, error)
}

// ResultRecorder persists the outcome of a finished battle.
type ResultRecorder interface {
	RecordResult(ctx context.Context, battleID uuid.UUID, winnerID, loserID int64) error
}

// SoundSink plays battle sound cues. Implementations must not block.
type SoundSink interface {
	Play(s Sound)
	PlaySignature(notes []float64)
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource sets the randomness source. The default is a crypto source.
func WithSource(src dice.Source) Option { return func(e *Engine) { e.src = src } }

// WithRuleset sets the battle rules. The default is DefaultRuleset.
func WithRuleset(r Ruleset) Option { return func(e *Engine) { e.rules = r } }

// WithLogger sets the engine logger. The default discards output.
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithRecorder sets the recorder notified when the battle ends.
func WithRecorder(r ResultRecorder) Option { return func(e *Engine) { e.recorder = r } }

// WithSound sets the sound sink for cues and the victory signature.
func WithSound(s SoundSink) Option { return func(e *Engine) { e.sound = s } }

// WithSignatureLength sets how many notes of the winner's signature are played.
func WithSignatureLength(n int) Option { return func(e *Engine) { e.signatureLen = n } }

// WithID overrides the generated battle ID.
func WithID(id uuid.UUID) Option { return func(e *Engine) { e.id = id } }

// Engine drives one battle between two stored fighters.
//
// mu serialises turns: no two turns of the same battle ever run
// concurrently, and Close waits for an in-flight turn to finish.
type Engine struct {
	id           uuid.UUID
	loader       Loader
	firstID      int64
	secondID     int64
	src          dice.Source
	rules        Ruleset
	logger       *zap.Logger
	recorder     ResultRecorder
	sound        SoundSink
	signatureLen int

	mu     sync.Mutex
	state  State
	closed bool
	done   chan struct{}

	subsMu sync.Mutex
	subs   map[int]chan State
	nextID int

	recordOnce sync.Once
	pending    sync.WaitGroup
}

// NewEngine creates an Engine in the Loading phase for the two fighter IDs.
//
// Precondition: loader must be non-nil.
// Postcondition: Snapshot().Phase == PhaseLoading.
func NewEngine(loader Loader, firstID, secondID int64, opts ...Option) *Engine {
	e := &Engine{
		id:           uuid.New(),
		loader:       loader,
		firstID:      firstID,
		secondID:     secondID,
		src:          dice.NewCryptoSource(),
		rules:        DefaultRuleset(),
		logger:       zap.NewNop(),
		signatureLen: fighter.DefaultSignatureLength,
		state:        State{Phase: PhaseLoading},
		done:         make(chan struct{}),
		subs:         make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ID returns the battle identifier used to deduplicate result writes.
func (e *Engine) ID() uuid.UUID { return e.id }

// Load fetches both fighters and moves the battle to Ready. If either fighter
// cannot be loaded the engine stays in Loading; the error is returned for
// diagnostics and no retry is attempted. The store is queried without holding
// the engine lock, so Snapshot, Subscribe and Close never wait on it.
//
// Postcondition: on nil error, Snapshot().Phase == PhaseReady.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	closed, loading := e.closed, e.state.Phase == PhaseLoading
	e.mu.Unlock()
	if closed {
		return ErrEngineClosed
	}
	if !loading {
		return nil
	}

	first, err := e.fetch(ctx, e.firstID)
	if err != nil {
		return err
	}
	second, err := e.fetch(ctx, e.secondID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	if e.state.Phase != PhaseLoading {
		return nil
	}
	e.state = Begin(*first, *second)
	e.logger.Info("battle ready",
		zap.String("battle", e.id.String()),
		zap.String("first", first.Name),
		zap.String("second", second.Name),
		zap.Stringer("opener", e.state.Attacker),
	)
	e.publishLocked()
	return nil
}

func (e *Engine) fetch(ctx context.Context, id int64) (*fighter.Fighter, error) {
	f, err := e.loader.Get(ctx, id)
	if err != nil {
		e.logger.Warn("battle stalled loading fighter",
			zap.String("battle", e.id.String()),
			zap.Int64("fighter_id", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("loading fighter %d: %w", id, err)
	}
	return f, nil
}

// Advance resolves exactly one turn. It is a no-op while loading or after
// the battle is over.
//
// Postcondition: Returns the state after the turn, or ErrEngineClosed.
func (e *Engine) Advance(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return e.Snapshot(), err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return e.state, ErrEngineClosed
	}
	if e.state.Phase != PhaseReady && e.state.Phase != PhaseInProgress {
		return e.state, nil
	}

	prev := len(e.state.Log)
	e.state = Resolve(e.state, e.src, e.rules)
	fresh := e.state.Log[prev:]

	if ce := e.logger.Check(zap.DebugLevel, "turn resolved"); ce != nil {
		ce.Write(
			zap.String("battle", e.id.String()),
			zap.Int("turn", e.state.Turn),
			zap.Int("first_hp", e.state.First.CurrentHP),
			zap.Int("second_hp", e.state.Second.CurrentHP),
			zap.Int("entries", len(fresh)),
		)
	}
	e.playCues(fresh)

	if e.state.Over() {
		e.finishLocked()
	}
	e.publishLocked()
	return e.state, nil
}

// AutoRun advances turns until the battle is over, pausing delay between
// turns. The delay only paces presentation; zero runs the battle at once.
// AutoRun stops early when ctx is cancelled or the engine is closed.
//
// Postcondition: Returns the last state reached and the reason it stopped, if any.
func (e *Engine) AutoRun(ctx context.Context, delay time.Duration) (State, error) {
	var timer *time.Timer
	if delay > 0 {
		timer = time.NewTimer(delay)
		timer.Stop()
		defer timer.Stop()
	}
	for {
		st, err := e.Advance(ctx)
		if err != nil {
			return st, err
		}
		if st.Over() || st.Loading() {
			return st, nil
		}
		if timer == nil {
			continue
		}
		timer.Reset(delay)
		select {
		case <-ctx.Done():
			return e.Snapshot(), ctx.Err()
		case <-e.done:
			return e.Snapshot(), ErrEngineClosed
		case <-timer.C:
		}
	}
}

// Close tears the engine down. After Close returns no further turns are
// resolved, no log entries are appended and no result is recorded. Results
// of a battle that had already ended before Close are still delivered.
// Close is idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.done)
	e.mu.Unlock()

	e.subsMu.Lock()
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
	e.subsMu.Unlock()
}

// Wait blocks until any in-flight result recording has completed.
func (e *Engine) Wait() {
	e.pending.Wait()
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Subscribe returns a channel that receives the latest state after every
// load and turn. Slow readers only miss intermediate snapshots; the most
// recent one is always delivered. The returned function unsubscribes.
// Subscribing to a closed engine yields the final snapshot on an already
// closed channel.
func (e *Engine) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	// Same lock order as publishLocked: the snapshot is buffered before any
	// publish can reach ch, so the initial send never blocks.
	e.mu.Lock()
	e.subsMu.Lock()
	ch <- e.state
	id := e.nextID
	e.nextID++
	if e.closed {
		close(ch)
	} else {
		e.subs[id] = ch
	}
	e.subsMu.Unlock()
	e.mu.Unlock()

	return ch, func() {
		e.subsMu.Lock()
		defer e.subsMu.Unlock()
		if c, ok := e.subs[id]; ok {
			close(c)
			delete(e.subs, id)
		}
	}
}

// publishLocked sends the current state to every subscriber, replacing any
// unread snapshot.
//
// Precondition: e.mu is held.
func (e *Engine) publishLocked() {
	st := e.state
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- st
		}
	}
}

func (e *Engine) playCues(entries []LogEntry) {
	if e.sound == nil {
		return
	}
	for _, entry := range entries {
		if entry.Sound != SoundNone {
			e.sound.Play(entry.Sound)
		}
	}
}

// finishLocked reports the outcome exactly once: the winner's signature is
// played and the result is handed to the recorder on its own goroutine so
// persistence never holds up the battle loop.
//
// Precondition: e.mu is held and e.state is over.
func (e *Engine) finishLocked() {
	e.recordOnce.Do(func() {
		winner := e.state.WinnerFighter()
		loser := e.state.LoserFighter()
		e.logger.Info("battle over",
			zap.String("battle", e.id.String()),
			zap.String("winner", winner.Name),
			zap.String("loser", loser.Name),
			zap.Int("turns", e.state.Turn),
		)

		if e.sound != nil {
			_, notes := fighter.SignatureN(winner.Barcode, e.signatureLen)
			e.sound.PlaySignature(notes)
		}

		if e.recorder == nil {
			return
		}
		battleID, winnerID, loserID := e.id, winner.ID, loser.ID
		e.pending.Add(1)
		go func() {
			defer e.pending.Done()
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			if err := e.recorder.RecordResult(ctx, battleID, winnerID, loserID); err != nil {
				e.logger.Error("recording battle result",
					zap.String("battle", battleID.String()),
					zap.Int64("winner_id", winnerID),
					zap.Int64("loser_id", loserID),
					zap.Error(err),
				)
			}
		}()
	})
}
