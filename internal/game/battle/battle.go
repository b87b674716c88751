// Package battle implements the Scan Fighter turn-based battle engine.
//
// The simulation core is functional: Resolve takes a State snapshot and
// returns the next one without mutating its input. Engine wraps that core
// with loading, pacing, teardown, persistence and sound side effects.
package battle

import "github.com/cory-johannsen/scanfighter/internal/game/fighter"

// Phase is the battle lifecycle state.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseInProgress
	PhaseOver
)

// String returns a human-readable phase label.
func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseInProgress:
		return "in progress"
	case PhaseOver:
		return "over"
	default:
		return "unknown"
	}
}

// Side identifies who a log entry or a win belongs to.
type Side int

const (
	SideNone Side = iota
	SideFirst
	SideSecond
	SideSystem
)

// Opponent returns the other fighter's side.
//
// Precondition: s is SideFirst or SideSecond.
func (s Side) Opponent() Side {
	if s == SideFirst {
		return SideSecond
	}
	return SideFirst
}

// String returns a short label for the side.
func (s Side) String() string {
	switch s {
	case SideFirst:
		return "fighter1"
	case SideSecond:
		return "fighter2"
	case SideSystem:
		return "system"
	default:
		return "none"
	}
}

// Emphasis tells the presentation layer how to style a log line.
type Emphasis int

const (
	EmphasisNormal Emphasis = iota
	EmphasisTurn
	EmphasisCritical
	EmphasisMiss
	EmphasisHeal
	EmphasisStatus
	EmphasisSpecial
	EmphasisVictory
)

// Sound names a battle sound cue. The audio layer maps cues to tones.
type Sound string

const (
	SoundNone     Sound = ""
	SoundHit      Sound = "hit"
	SoundCritical Sound = "critical"
	SoundBlock    Sound = "block"
	SoundMiss     Sound = "miss"
	SoundStun     Sound = "stun"
	SoundEnrage   Sound = "enrage"
	SoundFocus    Sound = "focus"
	SoundHeal     Sound = "heal"
	SoundDebuff   Sound = "debuff"
)

// LogEntry is one narrated line of the battle log.
type LogEntry struct {
	Turn     int
	Source   Side
	Emphasis Emphasis
	Sound    Sound
	Message  string
}

// Combatant is the battle-scoped view of a fighter: current HP plus every
// transient status. It is a value type; resolution code works on copies.
type Combatant struct {
	Fighter   fighter.Fighter
	CurrentHP int

	StunRounds   int
	Poisoned     bool
	PoisonRounds int
	BleedRounds  int
	RegenRounds  int
	ShieldRounds int

	// AttackMod and DefenseMod are additive and may be negative.
	AttackMod  int
	DefenseMod int

	// Cooldown is the number of the fighter's own turns until its special move is usable.
	Cooldown int

	Enraged bool
	Focused bool
}

// NewCombatant wraps f at full health with no statuses.
//
// Postcondition: CurrentHP == f.Health.
func NewCombatant(f fighter.Fighter) Combatant {
	return Combatant{Fighter: f, CurrentHP: f.Health}
}

// Name returns the fighter's display name.
func (c Combatant) Name() string { return c.Fighter.Name }

// MaxHP returns the fighter's base health.
func (c Combatant) MaxHP() int { return c.Fighter.Health }

// IsDown reports whether the combatant has no HP left.
func (c Combatant) IsDown() bool { return c.CurrentHP <= 0 }

// EffectiveAttack returns base attack plus modifiers, never below zero.
func (c Combatant) EffectiveAttack() int {
	return max(0, c.Fighter.Attack+c.AttackMod)
}

// EffectiveDefense returns base defense plus modifiers, never below zero.
func (c Combatant) EffectiveDefense() int {
	return max(0, c.Fighter.Defense+c.DefenseMod)
}

// HPPercent returns current HP as a whole percentage of max HP.
func (c Combatant) HPPercent() int {
	if c.Fighter.Health <= 0 {
		return 0
	}
	return c.CurrentHP * 100 / c.Fighter.Health
}

// setHP stores hp clamped to [0, MaxHP].
func (c *Combatant) setHP(hp int) {
	c.CurrentHP = min(max(hp, 0), c.Fighter.Health)
}

// heal restores up to amount HP and returns how much was actually restored.
func (c *Combatant) heal(amount int) int {
	before := c.CurrentHP
	c.setHP(c.CurrentHP + amount)
	return c.CurrentHP - before
}

// State is an immutable snapshot of a battle.
type State struct {
	Phase  Phase
	First  Combatant
	Second Combatant
	// Attacker is the side that acts on the next turn.
	Attacker Side
	// Turn counts resolved turns.
	Turn int
	// Log is append-only; Resolve never rewrites existing entries.
	Log []LogEntry
	// Winner is SideNone until Phase is PhaseOver.
	Winner Side
}

// Loading reports whether fighters have not been loaded yet.
func (s State) Loading() bool { return s.Phase == PhaseLoading }

// Over reports whether the battle has finished.
func (s State) Over() bool { return s.Phase == PhaseOver }

// Combatant returns the combatant on side.
//
// Precondition: side is SideFirst or SideSecond.
func (s State) Combatant(side Side) Combatant {
	if side == SideSecond {
		return s.Second
	}
	return s.First
}

// WinnerFighter returns the winning fighter, or nil while the battle runs.
func (s State) WinnerFighter() *fighter.Fighter {
	switch s.Winner {
	case SideFirst:
		f := s.First.Fighter
		return &f
	case SideSecond:
		f := s.Second.Fighter
		return &f
	default:
		return nil
	}
}

// LoserFighter returns the losing fighter, or nil while the battle runs.
func (s State) LoserFighter() *fighter.Fighter {
	if s.Winner != SideFirst && s.Winner != SideSecond {
		return nil
	}
	f := s.Combatant(s.Winner.Opponent()).Fighter
	return &f
}

func (s *State) put(side Side, c Combatant) {
	if side == SideSecond {
		s.Second = c
		return
	}
	s.First = c
}
