// Package main provides a headless battle simulator for balance tuning.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/scanfighter/internal/config"
	"github.com/cory-johannsen/scanfighter/internal/game/battle"
	"github.com/cory-johannsen/scanfighter/internal/observability"
	"github.com/cory-johannsen/scanfighter/internal/sim"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and environment")
	barcodes := flag.String("barcodes", "012345678905,4006381333931", "comma-separated barcodes; every pair is simulated")
	battles := flag.Int("n", 1000, "battles per pair")
	seed := flag.Uint64("seed", 1, "seed of the first battle")
	workers := flag.Int("workers", 0, "parallel workers; 0 uses GOMAXPROCS")
	classic := flag.Bool("classic", false, "use the classic ruleset instead of the configured one")
	csvOut := flag.String("csv", "", "write per-battle records to this CSV file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("loading .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging, "simulate")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	rules := battle.ClassicRuleset()
	if !*classic {
		if rules, err = battle.LoadRuleset(cfg.Battle.RulesetPath); err != nil {
			logger.Fatal("loading ruleset", zap.Error(err))
		}
	}

	var codes []string
	for _, b := range strings.Split(*barcodes, ",") {
		if b = strings.TrimSpace(b); b != "" {
			codes = append(codes, b)
		}
	}
	matchups := sim.Pairs(codes)
	if len(matchups) == 0 {
		logger.Fatal("at least two barcodes are required", zap.Strings("barcodes", codes))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports := make([]sim.Report, 0, len(matchups))
	for _, m := range matchups {
		rep, err := sim.Run(ctx, m, sim.Options{
			Battles: *battles,
			Seed:    *seed,
			Rules:   rules,
			Workers: *workers,
		})
		if err != nil {
			logger.Fatal("simulating matchup", zap.String("first", m.First.Name), zap.String("second", m.Second.Name), zap.Error(err))
		}
		logger.Debug("matchup simulated",
			zap.String("first", m.First.Name),
			zap.String("second", m.Second.Name),
			zap.Float64("first_win_rate", rep.FirstWinRate),
		)
		reports = append(reports, rep)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIGHTER 1\tFIGHTER 2\tBATTLES\tF1 WIN%\tMEAN TURNS\tSTDDEV\tMEDIAN")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s (%s)\t%s (%s)\t%d\t%.1f\t%.2f\t%.2f\t%.0f\n",
			r.Matchup.First.Name, r.Matchup.First.SpecialMove.DisplayName(),
			r.Matchup.Second.Name, r.Matchup.Second.SpecialMove.DisplayName(),
			r.Battles, r.FirstWinRate*100, r.MeanTurns, r.StdDevTurns, r.MedianTurns)
	}
	tw.Flush()

	if *csvOut != "" {
		f, err := os.Create(*csvOut)
		if err != nil {
			logger.Fatal("creating csv output", zap.Error(err))
		}
		if err := sim.WriteCSV(f, reports...); err != nil {
			f.Close()
			logger.Fatal("writing csv", zap.Error(err))
		}
		if err := f.Close(); err != nil {
			logger.Fatal("closing csv", zap.Error(err))
		}
	}

	logger.Info("simulation complete",
		zap.Int("matchups", len(reports)),
		zap.Int("battles_per_matchup", *battles),
		zap.Duration("elapsed", time.Since(start)),
	)
}
