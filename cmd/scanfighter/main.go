// Package main provides the scanfighter command line client: create fighters
// from scanned barcodes, browse the leaderboard and run battles.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/scanfighter/internal/config"
	"github.com/cory-johannsen/scanfighter/internal/observability"
	"github.com/cory-johannsen/scanfighter/internal/roster"
)

const usage = `usage: scanfighter [-config path] <command> [flags]

commands:
  create     generate a fighter from a barcode argument or a scan on stdin
  list       print the leaderboard
  show       print one fighter with its colour and note signature
  delete     remove a fighter
  battle     fight two stored fighters
  watch      reprint the leaderboard whenever it changes
  export     write the leaderboard as CSV
`

// app carries what every command needs.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	roster *roster.Service
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"create": runCreate,
	"list":   runList,
	"show":   runShow,
	"delete": runDelete,
	"battle": runBattle,
	"watch":  runWatch,
	"export": runExport,
}

func main() {
	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and environment")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("loading .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "scanfighter")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening fighter store", zap.Error(err))
	}
	defer closeStore()

	a := &app{cfg: cfg, logger: logger, roster: roster.New(store, logger)}
	if err := cmd(ctx, a, flag.Args()[1:]); err != nil {
		logger.Error("command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		closeStore()
		logger.Sync()
		os.Exit(1)
	}
}
