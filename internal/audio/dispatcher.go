package audio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/scanfighter/internal/game/battle"
)

// DefaultQueueSize is the number of pending cues a Dispatcher buffers.
const DefaultQueueSize = 16

// Dispatcher plays cues on a Player from one background goroutine. When the
// queue is full new cues are dropped: sound is best-effort and must never
// hold up a battle. Dispatcher implements battle.SoundSink.
type Dispatcher struct {
	player Player
	logger *zap.Logger
	queue  chan []Step

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// pending counts cues queued or playing.
	pending atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts a Dispatcher buffering up to size cues.
//
// Precondition: player and logger must be non-nil; size > 0.
// Postcondition: The worker goroutine runs until Close.
func NewDispatcher(player Player, logger *zap.Logger, size int) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		player: player,
		logger: logger,
		queue:  make(chan []Step, size),
		ctx:    ctx,
		cancel: cancel,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Play queues the tones for s. Unknown and empty sounds are ignored.
func (d *Dispatcher) Play(s battle.Sound) {
	steps, ok := Cues[s]
	if !ok {
		return
	}
	d.enqueue(string(s), steps)
}

// PlaySignature queues notes as a victory fanfare.
func (d *Dispatcher) PlaySignature(notes []float64) {
	if len(notes) == 0 {
		return
	}
	d.enqueue("signature", VictorySignature(notes))
}

func (d *Dispatcher) enqueue(name string, steps []Step) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	d.pending.Add(1)
	select {
	case d.queue <- steps:
	default:
		d.pending.Add(-1)
		d.logger.Debug("sound cue dropped", zap.String("cue", name))
	}
}

// Drain waits until every queued cue has finished playing or ctx is done.
func (d *Dispatcher) Drain(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for d.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Close stops the worker, abandoning queued cues, and waits for it to exit.
// Close is idempotent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for steps := range d.queue {
		if d.ctx.Err() == nil {
			d.playSteps(steps)
		}
		d.pending.Add(-1)
	}
}

func (d *Dispatcher) playSteps(steps []Step) {
	timer := time.NewTimer(0)
	<-timer.C
	defer timer.Stop()
	for i, st := range steps {
		if err := d.player.PlayTone(d.ctx, st.Hz, st.Duration); err != nil {
			d.logger.Warn("playing tone", zap.Float64("hz", st.Hz), zap.Error(err))
		}
		wait := st.Pause
		if i == len(steps)-1 {
			// Let the final tone ring out before the next cue.
			wait = st.Duration
		}
		timer.Reset(wait)
		select {
		case <-d.ctx.Done():
			return
		case <-timer.C:
		}
	}
}
