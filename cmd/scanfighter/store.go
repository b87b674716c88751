package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/scanfighter/internal/config"
	"github.com/cory-johannsen/scanfighter/internal/storage"
	"github.com/cory-johannsen/scanfighter/internal/storage/memory"
	"github.com/cory-johannsen/scanfighter/internal/storage/postgres"
	"github.com/cory-johannsen/scanfighter/internal/storage/sqlite"
)

// openStore connects the configured fighter store. The returned func
// releases it and is safe to call more than once.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.FighterStore, func(), error) {
	start := time.Now()
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(start)),
		)
		return s, sync.OnceFunc(s.Close), nil

	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sqlite store opened",
			zap.String("path", cfg.Storage.SQLitePath),
			zap.Duration("elapsed", time.Since(start)),
		)
		return s, sync.OnceFunc(func() {
			if err := s.Close(); err != nil {
				logger.Warn("closing sqlite store", zap.Error(err))
			}
		}), nil

	case config.DriverMemory:
		logger.Warn("using in-memory store; fighters are lost on exit")
		return memory.New(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
