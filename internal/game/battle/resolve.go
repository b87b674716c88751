package battle

import (
	"fmt"
	"slices"

	"github.com/cory-johannsen/scanfighter/internal/game/dice"
	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
)

// Begin builds the Ready state for a battle between first and second.
// The faster fighter attacks first; ties go to first.
//
// Postcondition: Phase == PhaseReady; both combatants are at full health.
func Begin(first, second fighter.Fighter) State {
	s := State{
		Phase:    PhaseReady,
		First:    NewCombatant(first),
		Second:   NewCombatant(second),
		Attacker: SideFirst,
	}
	if second.Speed > first.Speed {
		s.Attacker = SideSecond
	}
	opener := s.Combatant(s.Attacker)
	openLine := fmt.Sprintf("%s is quicker and moves first.", opener.Name())
	if first.Speed == second.Speed {
		openLine = fmt.Sprintf("Speeds are even; %s wins the tie and moves first.", opener.Name())
	}
	s.Log = []LogEntry{
		{
			Source:   SideSystem,
			Emphasis: EmphasisTurn,
			Message:  fmt.Sprintf("The battle between %s and %s begins!", first.Name, second.Name),
		},
		{
			Source:   s.Attacker,
			Emphasis: EmphasisNormal,
			Message:  openLine,
		},
	}
	return s
}

// Resolve plays one turn for s.Attacker and returns the resulting snapshot.
// The input state is never modified. States that are loading or over are
// returned unchanged.
//
// Precondition: src must be non-nil; rules should pass Validate.
// Postcondition: the returned state's Log has s.Log as a prefix; HP of both
// combatants stays within [0, max]; Attacker alternates unless the battle ended.
func Resolve(s State, src dice.Source, rules Ruleset) State {
	if s.Phase != PhaseReady && s.Phase != PhaseInProgress {
		return s
	}

	t := &turn{
		rules:  rules,
		src:    src,
		number: s.Turn + 1,
		aSide:  s.Attacker,
		a:      s.Combatant(s.Attacker),
		d:      s.Combatant(s.Attacker.Opponent()),
	}
	t.log(SideSystem, EmphasisTurn, SoundNone, "--- Turn %d ---", t.number)
	winner := t.run()

	next := s
	next.Phase = PhaseInProgress
	next.Turn = t.number
	next.put(t.aSide, t.a)
	next.put(t.aSide.Opponent(), t.d)
	next.Attacker = t.aSide.Opponent()

	if winner == SideNone && next.Turn >= rules.MaxTurns {
		winner = decideOnPoints(next)
		t.log(SideSystem, EmphasisStatus, SoundNone,
			"The fight drags on too long! The judges score it for %s.", next.Combatant(winner).Name())
	}
	if winner != SideNone {
		next.Phase = PhaseOver
		next.Winner = winner
		t.log(winner, EmphasisVictory, SoundNone, "%s is victorious!", next.Combatant(winner).Name())
	}

	// Clip forces append to copy, so s.Log's backing array is never shared for writing.
	next.Log = append(slices.Clip(s.Log), t.entries...)
	return next
}

// decideOnPoints picks the winner of a battle stopped by the turn limit:
// higher HP percentage, then higher HP, then the first fighter.
func decideOnPoints(s State) Side {
	first, second := s.First, s.Second
	switch {
	case first.HPPercent() != second.HPPercent():
		if second.HPPercent() > first.HPPercent() {
			return SideSecond
		}
		return SideFirst
	case second.CurrentHP > first.CurrentHP:
		return SideSecond
	default:
		return SideFirst
	}
}

// turn holds the working copies for a single resolution.
type turn struct {
	rules   Ruleset
	src     dice.Source
	number  int
	aSide   Side
	a, d    Combatant
	entries []LogEntry
}

func (t *turn) dSide() Side { return t.aSide.Opponent() }

func (t *turn) log(source Side, em Emphasis, snd Sound, format string, args ...any) {
	t.entries = append(t.entries, LogEntry{
		Turn:     t.number,
		Source:   source,
		Emphasis: em,
		Sound:    snd,
		Message:  fmt.Sprintf(format, args...),
	})
}

// run executes upkeep, the stun check and the action phase, and returns the
// winning side if the turn ended the battle.
func (t *turn) run() Side {
	if t.upkeep() {
		return t.dSide()
	}

	if t.a.StunRounds > 0 {
		t.a.StunRounds--
		t.log(t.aSide, EmphasisStatus, SoundStun, "%s is stunned and can't move!", t.a.Name())
	} else {
		t.act()
	}

	t.checkEnrage(&t.a, t.aSide)
	t.checkEnrage(&t.d, t.dSide())

	switch {
	case t.d.IsDown():
		return t.aSide
	case t.a.IsDown():
		return t.dSide()
	}
	return SideNone
}

// percentOf returns pct percent of base, at least 1.
func percentOf(base, pct int) int {
	return max(1, base*pct/100)
}

// upkeep ticks the attacker's cooldown and lingering effects. It reports
// whether the attacker was knocked out by them.
func (t *turn) upkeep() bool {
	a := &t.a
	if a.Cooldown > 0 {
		a.Cooldown--
	}

	if a.Poisoned {
		if a.PoisonRounds > 0 {
			dmg := percentOf(a.MaxHP(), t.rules.PoisonPercent)
			a.setHP(a.CurrentHP - dmg)
			a.PoisonRounds--
			t.log(t.aSide, EmphasisStatus, SoundDebuff, "%s takes %d poison damage.", a.Name(), dmg)
		}
		if a.PoisonRounds == 0 {
			a.Poisoned = false
			t.log(t.aSide, EmphasisStatus, SoundNone, "The poison in %s wears off.", a.Name())
		}
	}

	if a.BleedRounds > 0 {
		dmg := percentOf(a.MaxHP(), t.rules.BleedPercent)
		a.setHP(a.CurrentHP - dmg)
		a.BleedRounds--
		t.log(t.aSide, EmphasisStatus, SoundDebuff, "%s bleeds for %d damage.", a.Name(), dmg)
	}

	if a.RegenRounds > 0 {
		healed := a.heal(percentOf(a.MaxHP(), t.rules.RegenPercent))
		a.RegenRounds--
		t.log(t.aSide, EmphasisHeal, SoundHeal, "%s regenerates %d HP.", a.Name(), healed)
	}

	if a.ShieldRounds > 0 {
		a.ShieldRounds--
		if a.ShieldRounds == 0 {
			a.DefenseMod -= t.rules.ShieldBonus
			t.log(t.aSide, EmphasisStatus, SoundNone, "%s lowers their shield.", a.Name())
		}
	}

	if a.IsDown() {
		t.log(t.aSide, EmphasisStatus, SoundNone, "%s succumbs to their wounds!", a.Name())
		return true
	}
	return false
}

// act chooses between the special move and a normal attack.
func (t *turn) act() {
	move, ok := MoveFor(t.a.Fighter.SpecialMove)
	if ok && t.a.Cooldown == 0 && t.rules.SpecialChance > 0 && dice.Chance(t.src, t.rules.SpecialChance) {
		t.log(t.aSide, EmphasisSpecial, SoundNone, "%s uses %s!", t.a.Name(), move.Type().DisplayName())
		move.perform(t)
		t.a.Cooldown = t.rules.SpecialCooldown
		return
	}
	t.strike(true)
}

// hitThreshold returns the percent a hit roll must stay below.
func (t *turn) hitThreshold() float64 {
	as, ds := t.a.Fighter.Speed, t.d.Fighter.Speed
	ratio := 0.5
	if as+ds > 0 {
		ratio = float64(as) / float64(as+ds)
	}
	return ratio*100 + float64(t.rules.HitBonus)
}

// damage converts raw attack power into damage against the defender.
//
// Postcondition: Returns >= 1.
func (t *turn) damage(raw float64) int {
	return max(1, int(raw-t.rules.DefenseFactor*float64(t.d.EffectiveDefense())))
}

// strike resolves one normal attack and reports whether it landed. Only a
// primary strike may trigger the skill-based combo follow-up.
func (t *turn) strike(primary bool) bool {
	a, d := &t.a, &t.d

	threshold := t.hitThreshold()
	if a.Focused {
		threshold += float64(t.rules.FocusBonus)
		a.Focused = false
	}
	if float64(dice.Percent(t.src)) >= threshold {
		if t.rules.MissRecoveryPerLuck > 0 && dice.Chance(t.src, a.Fighter.Luck*t.rules.MissRecoveryPerLuck) {
			t.log(t.aSide, EmphasisNormal, SoundNone, "%s stumbles, but luck carries the blow home!", a.Name())
		} else {
			t.log(t.aSide, EmphasisMiss, SoundMiss, "%s attacks, but %s dodges!", a.Name(), d.Name())
			if t.rules.FocusBonus > 0 {
				a.Focused = true
				t.log(t.aSide, EmphasisStatus, SoundFocus, "%s narrows their focus.", a.Name())
			}
			return false
		}
	}

	crit := dice.Chance(t.src, a.Fighter.Skill+a.Fighter.Luck*t.rules.CritLuckFactor)
	mult := 1.0
	if crit {
		mult = t.rules.CritMultiplier
		t.log(t.aSide, EmphasisCritical, SoundCritical, "CRITICAL HIT! %s attacks with fury!", a.Name())
	}
	dmg := t.damage(float64(a.EffectiveAttack()) * mult)

	if dice.Chance(t.src, d.EffectiveDefense()/t.rules.BlockDivisor) {
		dmg = max(1, dmg/2)
		t.log(t.dSide(), EmphasisNormal, SoundBlock, "%s blocks part of the attack!", d.Name())
	}

	snd := SoundHit
	if crit {
		snd = SoundNone
	}
	t.log(t.aSide, EmphasisNormal, snd, "%s hits %s for %d damage.", a.Name(), d.Name(), dmg)
	t.hurt(d, t.dSide(), dmg)

	if crit && !d.IsDown() {
		t.criticalDebuff()
	}

	if primary && !d.IsDown() && t.rules.ComboSkillDivide > 0 &&
		dice.Chance(t.src, a.Fighter.Skill/t.rules.ComboSkillDivide) {
		bonus := max(1, a.EffectiveAttack()/2)
		t.log(t.aSide, EmphasisNormal, SoundHit, "%s follows up with a combo for %d damage!", a.Name(), bonus)
		t.hurt(d, t.dSide(), bonus)
	}
	return true
}

// hurt applies dmg to c, giving c a luck roll to survive a lethal blow on 1 HP.
func (t *turn) hurt(c *Combatant, side Side, dmg int) {
	if c.IsDown() {
		return
	}
	if c.CurrentHP-dmg <= 0 && dice.Chance(t.src, c.Fighter.Luck) {
		c.setHP(1)
		t.log(side, EmphasisStatus, SoundNone, "%s refuses to fall, hanging on with 1 HP!", c.Name())
		return
	}
	c.setHP(c.CurrentHP - dmg)
	if c.IsDown() {
		t.log(side, EmphasisStatus, SoundNone, "%s is knocked out!", c.Name())
	}
}

// criticalDebuff rolls the critical-hit debuff chance and applies one entry
// of the debuff table to the defender.
func (t *turn) criticalDebuff() {
	table := t.rules.DebuffTable
	if len(table) == 0 || !dice.Chance(t.src, t.rules.DebuffChance) {
		return
	}
	pick := table[0]
	if len(table) > 1 {
		pick = table[dice.Pick(t.src, len(table))]
	}
	t.applyDebuff(&t.d, t.dSide(), pick)
}

func (t *turn) applyDebuff(c *Combatant, side Side, deb Debuff) {
	switch deb {
	case DebuffStun:
		c.StunRounds = max(c.StunRounds, t.rules.StunDuration)
		t.log(side, EmphasisStatus, SoundStun, "%s is stunned by the powerful blow!", c.Name())
	case DebuffAttackDown:
		c.AttackMod -= t.rules.StatDebuff
		t.log(side, EmphasisStatus, SoundDebuff, "%s's attack is weakened!", c.Name())
	case DebuffDefenseDown:
		c.DefenseMod -= t.rules.StatDebuff
		t.log(side, EmphasisStatus, SoundDebuff, "%s's guard is broken!", c.Name())
	case DebuffBleed:
		c.BleedRounds = max(c.BleedRounds, t.rules.BleedDuration)
		t.log(side, EmphasisStatus, SoundDebuff, "%s starts bleeding!", c.Name())
	case DebuffPoison:
		c.Poisoned = true
		c.PoisonRounds = max(c.PoisonRounds, t.rules.PoisonDuration)
		t.log(side, EmphasisStatus, SoundDebuff, "%s is poisoned!", c.Name())
	}
}

// checkEnrage enrages c the first time it drops below the enrage threshold.
func (t *turn) checkEnrage(c *Combatant, side Side) {
	if t.rules.EnrageBonus <= 0 || c.Enraged || c.IsDown() {
		return
	}
	if c.CurrentHP*100 < c.MaxHP()*t.rules.EnrageThreshold {
		c.Enraged = true
		c.AttackMod += t.rules.EnrageBonus
		t.log(side, EmphasisStatus, SoundEnrage, "%s becomes enraged!", c.Name())
	}
}
