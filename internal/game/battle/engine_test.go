package battle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/scanfighter/internal/game/battle"
	"github.com/cory-johannsen/scanfighter/internal/game/dice"
	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
)

var errMissing = errors.New("no such fighter")

type mapLoader map[int64]fighter.Fighter

func (m mapLoader) Get(_ context.Context, id int64) (*fighter.Fighter, error) {
	f, ok := m[id]
	if !ok {
		return nil, errMissing
	}
	return &f, nil
}

type result struct {
	battleID      uuid.UUID
	winner, loser int64
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []result
}

func (r *fakeRecorder) RecordResult(_ context.Context, battleID uuid.UUID, winnerID, loserID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result{battleID, winnerID, loserID})
	return nil
}

func (r *fakeRecorder) calls() []result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]result(nil), r.results...)
}

type fakeSound struct {
	mu        sync.Mutex
	cues      []battle.Sound
	signature []float64
}

func (s *fakeSound) Play(cue battle.Sound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cues = append(s.cues, cue)
}

func (s *fakeSound) PlaySignature(notes []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signature = notes
}

// gatedLoader blocks Get until release is closed, signalling entered first.
type gatedLoader struct {
	mapLoader
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedLoader(inner mapLoader) *gatedLoader {
	return &gatedLoader{mapLoader: inner, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedLoader) Get(ctx context.Context, id int64) (*fighter.Fighter, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.mapLoader.Get(ctx, id)
}

// within fails the test if f does not return within a second.
func within(t *testing.T, what string, f func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("%s did not return", what)
	}
}

func roster() mapLoader {
	a := fighter.Generate("Alpha", "012345678905")
	a.ID = 1
	b := fighter.Generate("Beta", "4006381333931")
	b.ID = 2
	return mapLoader{1: a, 2: b}
}

// tanks never finish a battle within a couple of turns.
func tanks() mapLoader {
	stats := fighter.Stats{Health: 1000, Attack: 10, Defense: 10, Speed: 5, Luck: 1, Skill: 5}
	return mapLoader{
		1: newFighter(1, "Tank A", stats),
		2: newFighter(2, "Tank B", stats),
	}
}

func TestEngine_StartsLoading(t *testing.T) {
	e := battle.NewEngine(roster(), 1, 2)
	assert.True(t, e.Snapshot().Loading())
	st, err := e.Advance(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Loading())
	assert.Empty(t, st.Log)
}

func TestEngine_MissingFighterStaysLoading(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := battle.NewEngine(roster(), 1, 99, battle.WithLogger(zap.New(core)))

	err := e.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errMissing)
	assert.True(t, e.Snapshot().Loading())
	assert.Equal(t, 1, logs.FilterMessage("battle stalled loading fighter").Len())

	st, err := e.AutoRun(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, st.Loading())
}

func TestEngine_AutoRunRecordsResultOnce(t *testing.T) {
	rec := &fakeRecorder{}
	snd := &fakeSound{}
	id := uuid.New()
	e := battle.NewEngine(roster(), 1, 2,
		battle.WithSource(dice.NewSeededSource(7)),
		battle.WithRecorder(rec),
		battle.WithSound(snd),
		battle.WithID(id),
	)
	require.NoError(t, e.Load(context.Background()))
	assert.Equal(t, battle.PhaseReady, e.Snapshot().Phase)

	st, err := e.AutoRun(context.Background(), 0)
	require.NoError(t, err)
	require.True(t, st.Over())

	// Further advances are no-ops.
	again, err := e.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(st.Log), len(again.Log))

	e.Wait()
	calls := rec.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, id, calls[0].battleID)
	assert.Equal(t, st.WinnerFighter().ID, calls[0].winner)
	assert.Equal(t, st.LoserFighter().ID, calls[0].loser)

	_, notes := fighter.SignatureN(st.WinnerFighter().Barcode, fighter.DefaultSignatureLength)
	snd.mu.Lock()
	defer snd.mu.Unlock()
	assert.Equal(t, notes, snd.signature)
	assert.NotEmpty(t, snd.cues)
}

func TestEngine_CloseStopsTurnsAndPersistence(t *testing.T) {
	rec := &fakeRecorder{}
	e := battle.NewEngine(tanks(), 1, 2,
		battle.WithSource(dice.NewSeededSource(3)),
		battle.WithRecorder(rec),
	)
	require.NoError(t, e.Load(context.Background()))
	_, err := e.Advance(context.Background())
	require.NoError(t, err)

	e.Close()
	e.Close()
	before := e.Snapshot()

	_, err = e.Advance(context.Background())
	assert.ErrorIs(t, err, battle.ErrEngineClosed)
	_, err = e.AutoRun(context.Background(), 0)
	assert.ErrorIs(t, err, battle.ErrEngineClosed)
	assert.ErrorIs(t, e.Load(context.Background()), battle.ErrEngineClosed)

	assert.Equal(t, len(before.Log), len(e.Snapshot().Log))
	e.Wait()
	assert.Empty(t, rec.calls())
}

func TestEngine_AutoRunHonoursCancellation(t *testing.T) {
	e := battle.NewEngine(tanks(), 1, 2, battle.WithSource(dice.NewSeededSource(1)))
	require.NoError(t, e.Load(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	st, err := e.AutoRun(ctx, time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, st.Turn)
}

func TestEngine_CloseInterruptsAutoRunDelay(t *testing.T) {
	e := battle.NewEngine(tanks(), 1, 2, battle.WithSource(dice.NewSeededSource(1)))
	require.NoError(t, e.Load(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := e.AutoRun(context.Background(), time.Hour)
		done <- err
	}()

	require.Eventually(t, func() bool { return e.Snapshot().Turn == 1 }, time.Second, time.Millisecond)
	e.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, battle.ErrEngineClosed)
	case <-time.After(time.Second):
		t.Fatal("AutoRun did not stop after Close")
	}
}

func TestEngine_SubscribeReceivesLatestState(t *testing.T) {
	e := battle.NewEngine(roster(), 1, 2, battle.WithSource(dice.NewSeededSource(9)))
	ch, unsubscribe := e.Subscribe()
	defer unsubscribe()

	initial := <-ch
	assert.True(t, initial.Loading())

	require.NoError(t, e.Load(context.Background()))
	for range 3 {
		_, err := e.Advance(context.Background())
		require.NoError(t, err)
	}

	// Only the newest snapshot is buffered.
	latest := <-ch
	assert.Equal(t, e.Snapshot().Turn, latest.Turn)
}

func TestEngine_CloseClosesSubscriptions(t *testing.T) {
	e := battle.NewEngine(roster(), 1, 2)
	ch, unsubscribe := e.Subscribe()
	<-ch
	e.Close()
	_, ok := <-ch
	assert.False(t, ok)
	unsubscribe()
}

func TestEngine_SubscribeWhileLoading(t *testing.T) {
	loader := newGatedLoader(roster())
	e := battle.NewEngine(loader, 1, 2, battle.WithSource(dice.NewSeededSource(4)))

	loaded := make(chan error, 1)
	go func() { loaded <- e.Load(context.Background()) }()
	<-loader.entered

	var ch <-chan battle.State
	within(t, "Subscribe", func() { ch, _ = e.Subscribe() })
	within(t, "Snapshot", func() { assert.True(t, e.Snapshot().Loading()) })

	close(loader.release)
	require.NoError(t, <-loaded)

	// The Ready snapshot replaced the buffered Loading one.
	st := <-ch
	assert.Equal(t, battle.PhaseReady, st.Phase)

	_, err := e.Advance(context.Background())
	require.NoError(t, err)
	within(t, "receiving after a turn", func() {
		next := <-ch
		assert.Equal(t, 1, next.Turn)
	})
}

func TestEngine_CloseDuringLoad(t *testing.T) {
	loader := newGatedLoader(roster())
	e := battle.NewEngine(loader, 1, 2)

	loaded := make(chan error, 1)
	go func() { loaded <- e.Load(context.Background()) }()
	<-loader.entered

	within(t, "Close", e.Close)
	close(loader.release)

	assert.ErrorIs(t, <-loaded, battle.ErrEngineClosed)
	assert.True(t, e.Snapshot().Loading())
}

func TestEngine_SubscribeAfterClose(t *testing.T) {
	e := battle.NewEngine(roster(), 1, 2)
	e.Close()

	ch, unsubscribe := e.Subscribe()
	st, ok := <-ch
	require.True(t, ok)
	assert.True(t, st.Loading())
	_, ok = <-ch
	assert.False(t, ok)
	unsubscribe()
}

func TestEngine_ConcurrentAdvanceNeverOverlaps(t *testing.T) {
	e := battle.NewEngine(roster(), 1, 2, battle.WithSource(dice.NewSeededSource(11)))
	require.NoError(t, e.Load(context.Background()))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				if _, err := e.Advance(context.Background()); err != nil {
					return
				}
			}
		}()
	}
	wg.Wait()

	st := e.Snapshot()
	turns := 0
	for _, entry := range st.Log {
		if entry.Emphasis == battle.EmphasisTurn && entry.Turn > 0 {
			turns++
		}
	}
	assert.Equal(t, st.Turn, turns)
}
