// Package audio turns battle sound cues and fighter signatures into tones.
//
// The Player port emits single tones; Dispatcher sequences cues onto a
// Player from a background goroutine so battle resolution never waits on
// sound.
package audio

import (
	"context"
	"time"

	"github.com/cory-johannsen/scanfighter/internal/game/battle"
)

// Player emits one tone. Implementations may return before the tone has
// finished sounding; Dispatcher paces successive tones itself.
type Player interface {
	PlayTone(ctx context.Context, hz float64, d time.Duration) error
}

// Step is one tone of a cue. Pause is the time from the start of this tone
// to the start of the next one.
type Step struct {
	Hz       float64
	Duration time.Duration
	Pause    time.Duration
}

func tone(hz float64, ms int) Step {
	d := time.Duration(ms) * time.Millisecond
	return Step{Hz: hz, Duration: d, Pause: d}
}

// Cues maps every battle sound to its tone sequence.
var Cues = map[battle.Sound][]Step{
	battle.SoundHit:      {tone(180, 150)},
	battle.SoundCritical: {tone(300, 250)},
	battle.SoundBlock:    {tone(120, 200)},
	battle.SoundStun:     {tone(450, 100), tone(250, 200)},
	battle.SoundEnrage:   {tone(100, 500)},
	battle.SoundFocus:    {tone(1200, 300)},
	battle.SoundHeal:     {tone(800, 400)},
	battle.SoundDebuff:   {tone(400, 150), tone(300, 250)},
	battle.SoundMiss:     {tone(220, 120)},
}

// Victory signature timing: overlapping notes started at a fixed interval.
const (
	SignatureNote     = 300 * time.Millisecond
	SignatureInterval = 200 * time.Millisecond
)

// VictorySignature returns the steps that play notes as a victory fanfare.
func VictorySignature(notes []float64) []Step {
	steps := make([]Step, len(notes))
	for i, hz := range notes {
		steps[i] = Step{Hz: hz, Duration: SignatureNote, Pause: SignatureInterval}
	}
	return steps
}

// Nop discards every tone.
type Nop struct{}

// PlayTone does nothing.
func (Nop) PlayTone(context.Context, float64, time.Duration) error { return nil }
