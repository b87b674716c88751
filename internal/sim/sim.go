// Package sim runs batches of headless battles for balance tuning.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"
	"sync"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"github.com/cory-johannsen/scanfighter/internal/game/battle"
	"github.com/cory-johannsen/scanfighter/internal/game/dice"
	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
)

// ErrNoBattles is returned when a batch is asked to run zero battles.
var ErrNoBattles = errors.New("battle count must be positive")

// Matchup pairs the two fighters of a batch. First is always fighter1.
type Matchup struct {
	First  fighter.Fighter
	Second fighter.Fighter
}

// Pairs builds every unordered matchup between the generated fighters for
// barcodes. Each fighter is named after its barcode.
//
// Postcondition: len(result) == n*(n-1)/2 for n barcodes.
func Pairs(barcodes []string) []Matchup {
	fs := make([]fighter.Fighter, len(barcodes))
	for i, b := range barcodes {
		fs[i] = fighter.Generate(b, b)
		fs[i].ID = int64(i + 1)
	}
	var out []Matchup
	for i := range fs {
		for j := i + 1; j < len(fs); j++ {
			out = append(out, Matchup{First: fs[i], Second: fs[j]})
		}
	}
	return out
}

// Record is the outcome of one simulated battle.
type Record struct {
	Battle   int    `csv:"battle"`
	Seed     uint64 `csv:"seed"`
	First    string `csv:"first"`
	Second   string `csv:"second"`
	Opener   string `csv:"opener"`
	Winner   string `csv:"winner"`
	Turns    int    `csv:"turns"`
	WinnerHP int    `csv:"winner_hp"`
	FirstWon bool   `csv:"-"`
}

// Report summarises a batch.
type Report struct {
	Matchup      Matchup
	Battles      int
	FirstWins    int
	SecondWins   int
	FirstWinRate float64
	MeanTurns    float64
	StdDevTurns  float64
	MedianTurns  float64
	Records      []Record
}

// Options configures a batch.
type Options struct {
	Battles int
	// Seed of the first battle; battle i uses Seed+i.
	Seed    uint64
	Rules   battle.Ruleset
	Workers int
}

// Run simulates opts.Battles battles of m. Results are deterministic for a
// given seed regardless of the number of workers.
//
// Precondition: opts.Rules must be valid.
// Postcondition: FirstWins+SecondWins == Battles on nil error.
func Run(ctx context.Context, m Matchup, opts Options) (Report, error) {
	if opts.Battles <= 0 {
		return Report{}, ErrNoBattles
	}
	if err := opts.Rules.Validate(); err != nil {
		return Report{}, fmt.Errorf("simulation rules: %w", err)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, opts.Battles)

	records := make([]Record, opts.Battles)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				records[i] = fight(m, i, opts.Seed+uint64(i), opts.Rules)
			}
		}()
	}

	var err error
feed:
	for i := range opts.Battles {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if err != nil {
		return Report{}, err
	}
	return summarise(m, records), nil
}

func fight(m Matchup, n int, seed uint64, rules battle.Ruleset) Record {
	src := dice.NewSeededSource(seed)
	s := battle.Begin(m.First, m.Second)
	opener := s.Attacker
	for !s.Over() {
		s = battle.Resolve(s, src, rules)
	}
	winner := s.Combatant(s.Winner)
	return Record{
		Battle:   n + 1,
		Seed:     seed,
		First:    m.First.Name,
		Second:   m.Second.Name,
		Opener:   opener.String(),
		Winner:   s.Winner.String(),
		Turns:    s.Turn,
		WinnerHP: winner.CurrentHP,
		FirstWon: s.Winner == battle.SideFirst,
	}
}

func summarise(m Matchup, records []Record) Report {
	r := Report{Matchup: m, Battles: len(records), Records: records}
	turns := make([]float64, len(records))
	for i, rec := range records {
		if rec.FirstWon {
			r.FirstWins++
		} else {
			r.SecondWins++
		}
		turns[i] = float64(rec.Turns)
	}
	r.FirstWinRate = float64(r.FirstWins) / float64(r.Battles)
	r.MeanTurns = stat.Mean(turns, nil)
	if len(turns) > 1 {
		r.StdDevTurns = stat.StdDev(turns, nil)
	}
	sorted := append([]float64(nil), turns...)
	slices.Sort(sorted)
	r.MedianTurns = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return r
}

// WriteCSV writes the per-battle records of every report, with one header line.
func WriteCSV(w io.Writer, reports ...Report) error {
	var all []Record
	for _, r := range reports {
		all = append(all, r.Records...)
	}
	if err := gocsv.Marshal(all, w); err != nil {
		return fmt.Errorf("writing simulation csv: %w", err)
	}
	return nil
}
