package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/scanfighter/internal/audio"
	"github.com/cory-johannsen/scanfighter/internal/game/battle"
	"github.com/cory-johannsen/scanfighter/internal/game/dice"
)

// soundDrainTimeout bounds how long the victory signature may keep the
// process alive after the battle ends.
const soundDrainTimeout = 5 * time.Second

func runBattle(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("battle", flag.ExitOnError)
	first := fs.Int64("first", 0, "ID of fighter 1 (required)")
	second := fs.Int64("second", 0, "ID of fighter 2 (required)")
	step := fs.Bool("step", false, "press Enter to resolve each turn")
	delay := fs.Duration("delay", a.cfg.Battle.TurnDelay, "pause between turns in auto play")
	seed := fs.Uint64("seed", 0, "deterministic dice seed; 0 uses crypto randomness")
	classic := fs.Bool("classic", false, "use the classic ruleset instead of the configured one")
	pcmOut := fs.String("pcm", "", "write sound as raw s16le 44.1kHz mono PCM to this file instead of logging tones")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *first <= 0 || *second <= 0 {
		return errors.New("battle: -first and -second are required")
	}
	if *first == *second {
		return errors.New("battle: a fighter cannot fight itself")
	}

	rules := battle.ClassicRuleset()
	if !*classic {
		var err error
		if rules, err = battle.LoadRuleset(a.cfg.Battle.RulesetPath); err != nil {
			return err
		}
	}

	var src dice.Source = dice.NewCryptoSource()
	if *seed != 0 {
		src = dice.NewSeededSource(*seed)
	}

	opts := []battle.Option{
		battle.WithSource(dice.NewLoggedRoller(src, a.logger)),
		battle.WithRuleset(rules),
		battle.WithLogger(a.logger),
		battle.WithRecorder(a.roster),
		battle.WithSignatureLength(a.cfg.Battle.SignatureLength),
	}

	var disp *audio.Dispatcher
	if a.cfg.Battle.Sound {
		player, closePlayer, err := newPlayer(a, *pcmOut)
		if err != nil {
			return err
		}
		defer closePlayer()
		disp = audio.NewDispatcher(player, a.logger, audio.DefaultQueueSize)
		opts = append(opts, battle.WithSound(disp))
	}

	e := battle.NewEngine(a.roster, *first, *second, opts...)
	if err := e.Load(ctx); err != nil {
		e.Close()
		return err
	}

	printer := newLogPrinter(os.Stdout)
	var wg sync.WaitGroup
	var err error
	if *step {
		printer.print(e.Snapshot())
		err = stepBattle(ctx, e, os.Stdin, printer)
	} else {
		updates, unsubscribe := e.Subscribe()
		defer unsubscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for st := range updates {
				printer.print(st)
			}
		}()
		_, err = e.AutoRun(ctx, *delay)
	}
	final := e.Snapshot()
	e.Close()
	wg.Wait()
	e.Wait()

	if disp != nil {
		drainCtx, cancel := context.WithTimeout(context.Background(), soundDrainTimeout)
		disp.Drain(drainCtx)
		cancel()
		disp.Close()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if !final.Over() {
		fmt.Println("battle abandoned; no result recorded")
		return nil
	}
	w := final.WinnerFighter()
	fmt.Printf("\n%s wins after %d turns\n", w.Name, final.Turn)
	return nil
}

// stepBattle resolves one turn per line read from in.
func stepBattle(ctx context.Context, e *battle.Engine, in io.Reader, printer *logPrinter) error {
	lines := bufio.NewScanner(in)
	for {
		fmt.Print("[Enter] next turn ")
		if !lines.Scan() {
			return lines.Err()
		}
		st, err := e.Advance(ctx)
		if err != nil {
			return err
		}
		printer.print(st)
		if st.Over() {
			return nil
		}
	}
}

func newPlayer(a *app, pcmPath string) (audio.Player, func(), error) {
	if pcmPath == "" {
		return audio.NewLogPlayer(a.logger), func() {}, nil
	}
	f, err := os.Create(pcmPath)
	if err != nil {
		return nil, nil, fmt.Errorf("creating pcm output: %w", err)
	}
	a.logger.Info("writing battle audio", zap.String("path", pcmPath), zap.Int("sample_rate", audio.SampleRate))
	return audio.NewPCMPlayer(f), func() { f.Close() }, nil
}

// logPrinter writes log entries it has not printed yet. Snapshots may be
// skipped by the subscription; the log is append-only so nothing is lost.
type logPrinter struct {
	w       io.Writer
	started bool
	printed int
}

func newLogPrinter(w io.Writer) *logPrinter { return &logPrinter{w: w} }

func (p *logPrinter) print(st battle.State) {
	if st.Loading() {
		return
	}
	if !p.started {
		p.started = true
		fmt.Fprintf(p.w, "%s (%d HP) vs %s (%d HP)\n",
			st.First.Name(), st.First.MaxHP(), st.Second.Name(), st.Second.MaxHP())
	}
	for _, entry := range st.Log[p.printed:] {
		fmt.Fprintln(p.w, formatEntry(entry))
	}
	if len(st.Log) > p.printed && !st.Over() {
		fmt.Fprintf(p.w, "   %s %d/%d   %s %d/%d\n",
			st.First.Name(), st.First.CurrentHP, st.First.MaxHP(),
			st.Second.Name(), st.Second.CurrentHP, st.Second.MaxHP())
	}
	p.printed = len(st.Log)
}

func formatEntry(e battle.LogEntry) string {
	switch e.Emphasis {
	case battle.EmphasisTurn:
		return "\n== " + e.Message + " =="
	case battle.EmphasisCritical:
		return "!! " + e.Message
	case battle.EmphasisMiss:
		return " . " + e.Message
	case battle.EmphasisHeal:
		return " + " + e.Message
	case battle.EmphasisStatus:
		return " ~ " + e.Message
	case battle.EmphasisSpecial:
		return " * " + e.Message
	case battle.EmphasisVictory:
		return "\n>> " + e.Message
	default:
		return "   " + e.Message
	}
}
