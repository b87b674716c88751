// Package postgres is the PostgreSQL fighter store, built on a pgx v5 pool.
// The schema is owned by the golang-migrate files in migrations/ and applied
// with cmd/migrate; Open refuses to start against a database without it.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/scanfighter/internal/config"
)

// ErrSchemaMissing is returned by Open and CheckSchema when the fighter
// tables have not been migrated yet.
var ErrSchemaMissing = errors.New("fighter schema missing; run cmd/migrate")

// schemaTables lists the tables FighterRepository reads and writes.
var schemaTables = []string{"fighters", "battle_results"}

// connectTimeout bounds the initial ping when the caller's ctx has no deadline.
const connectTimeout = 10 * time.Second

// Pool is a pgx connection pool sized from DatabaseConfig.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the database described by cfg. It does not inspect the
// schema, so it can be used before migrations run.
//
// Precondition: cfg must pass config validation.
// Postcondition: Returns a pinged Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	p := &Pool{pool: pool}
	if err := p.Health(ctx, connectTimeout); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}
	return p, nil
}

// CheckSchema reports ErrSchemaMissing, naming the absent tables, unless every
// table the fighter store needs exists.
func (p *Pool) CheckSchema(ctx context.Context) error {
	rows, err := p.pool.Query(ctx,
		`SELECT t FROM unnest($1::text[]) AS t WHERE to_regclass(t) IS NULL`,
		schemaTables,
	)
	if err != nil {
		return fmt.Errorf("inspecting schema: %w", err)
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return fmt.Errorf("inspecting schema: %w", err)
		}
		missing = append(missing, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspecting schema: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (tables: %s)", ErrSchemaMissing, strings.Join(missing, ", "))
	}
	return nil
}

// Health pings the database, giving up after timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases every connection. The pool is unusable afterwards.
func (p *Pool) Close() { p.pool.Close() }

// DB exposes the pgx pool for repositories and test helpers.
func (p *Pool) DB() *pgxpool.Pool { return p.pool }

// Store is a FighterRepository that owns its pool.
type Store struct {
	*FighterRepository
	pool *Pool
}

// Open connects with cfg and verifies the migrated schema.
//
// Postcondition: Returns a ready Store, or an error wrapping ErrSchemaMissing
// when migrations have not been applied.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.CheckSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{FighterRepository: NewFighterRepository(pool.DB()), pool: pool}, nil
}

// Health pings the underlying database.
func (s *Store) Health(ctx context.Context, timeout time.Duration) error {
	return s.pool.Health(ctx, timeout)
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }
