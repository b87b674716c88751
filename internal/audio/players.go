package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LogPlayer reports each tone through a logger instead of a speaker.
type LogPlayer struct {
	logger *zap.Logger
}

// NewLogPlayer returns a LogPlayer writing at info level.
func NewLogPlayer(logger *zap.Logger) *LogPlayer {
	return &LogPlayer{logger: logger}
}

// PlayTone logs the tone.
func (p *LogPlayer) PlayTone(_ context.Context, hz float64, d time.Duration) error {
	p.logger.Info("tone", zap.Float64("hz", hz), zap.Duration("duration", d))
	return nil
}

// SampleRate is the PCM output rate in Hz.
const SampleRate = 44100

// Synthesize renders a sine tone as signed 16-bit samples with a short
// linear fade-in (5%) and a longer fade-out (20%) to avoid clicks.
//
// Postcondition: len(result) == d * rate / 1s.
func Synthesize(hz float64, d time.Duration, rate int) []int16 {
	n := int(d.Milliseconds()) * rate / 1000
	if n <= 0 {
		return nil
	}
	fadeIn := max(1, n*5/100)
	fadeOut := max(2, n*20/100)
	sustain := n - fadeIn - fadeOut

	out := make([]int16, n)
	for i := range out {
		env := 1.0
		switch {
		case i < fadeIn:
			env = float64(i) / float64(fadeIn)
		case i >= fadeIn+sustain:
			into := i - fadeIn - sustain
			env = max(0, 1-float64(into)/float64(fadeOut-1))
		}
		v := math.Sin(2*math.Pi*hz*float64(i)/float64(rate)) * env * math.MaxInt16
		out[i] = int16(max(math.MinInt16, min(math.MaxInt16, v)))
	}
	return out
}

// PCMPlayer writes each tone as raw mono 16-bit little-endian PCM at
// SampleRate, suitable for piping into a command line audio player.
type PCMPlayer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPCMPlayer returns a PCMPlayer writing to w.
func NewPCMPlayer(w io.Writer) *PCMPlayer {
	return &PCMPlayer{w: w}
}

// PlayTone renders and writes the tone.
func (p *PCMPlayer) PlayTone(ctx context.Context, hz float64, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	samples := Synthesize(hz, d, SampleRate)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := binary.Write(p.w, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("writing pcm: %w", err)
	}
	return nil
}
