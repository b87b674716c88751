// Package sqlite provides a single-file FighterStore backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
	"github.com/cory-johannsen/scanfighter/internal/storage"
	"github.com/cory-johannsen/scanfighter/internal/storage/sqlite/migrations"
)

const fighterColumns = `id, name, barcode, health, attack, defense, speed, luck, skill,
	special_move, wins, losses, created_at`

// Store persists fighters in a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// embedded migrations.
//
// Precondition: path must be non-empty.
// Postcondition: Returns a ready Store or a non-nil error.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// SQLite allows one writer; a single connection serialises access.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}
	if err := applyMigrations(db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

type scanner interface {
	Scan(dest ...any) error
}

func scanFighter(row scanner) (*fighter.Fighter, error) {
	var (
		f       fighter.Fighter
		move    string
		created int64
	)
	if err := row.Scan(
		&f.ID, &f.Name, &f.Barcode,
		&f.Health, &f.Attack, &f.Defense, &f.Speed, &f.Luck, &f.Skill,
		&move, &f.Wins, &f.Losses, &created,
	); err != nil {
		return nil, err
	}
	f.SpecialMove = fighter.SpecialMoveType(move)
	f.CreatedAt = fromMillis(created)
	return &f, nil
}

// Create inserts f and returns the stored row.
func (s *Store) Create(ctx context.Context, f *fighter.Fighter) (*fighter.Fighter, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO fighters
			(name, barcode, health, attack, defense, speed, luck, skill,
			 special_move, wins, losses, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+fighterColumns,
		f.Name, f.Barcode, f.Health, f.Attack, f.Defense, f.Speed, f.Luck, f.Skill,
		string(f.SpecialMove), f.Wins, f.Losses, toMillis(time.Now()),
	)
	out, err := scanFighter(row)
	if err != nil {
		return nil, fmt.Errorf("inserting fighter: %w", err)
	}
	return out, nil
}

// Get returns the fighter with id or storage.ErrFighterNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*fighter.Fighter, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fighterColumns+` FROM fighters WHERE id = ?`, id)
	f, err := scanFighter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrFighterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying fighter %d: %w", id, err)
	}
	return f, nil
}

// Update stores the name and record of f.
func (s *Store) Update(ctx context.Context, f *fighter.Fighter) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE fighters SET name = ?, wins = ?, losses = ? WHERE id = ?`,
		f.Name, f.Wins, f.Losses, f.ID,
	)
	if err != nil {
		return fmt.Errorf("updating fighter %d: %w", f.ID, err)
	}
	return requireRow(res)
}

// Delete removes the fighter with id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fighters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting fighter %d: %w", id, err)
	}
	return requireRow(res)
}

// ListByWins returns all fighters, most wins first.
func (s *Store) ListByWins(ctx context.Context) ([]*fighter.Fighter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+fighterColumns+` FROM fighters ORDER BY wins DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing fighters: %w", err)
	}
	defer rows.Close()

	out := make([]*fighter.Fighter, 0)
	for rows.Next() {
		f, err := scanFighter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning fighter row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ApplyResult claims battleID and updates both records in one transaction.
func (s *Store) ApplyResult(ctx context.Context, battleID uuid.UUID, winnerID, loserID int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning result transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO battle_results (battle_id, winner_id, loser_id, recorded_at) VALUES (?, ?, ?, ?)`,
		battleID.String(), winnerID, loserID, toMillis(time.Now()),
	)
	if err != nil {
		return false, fmt.Errorf("claiming battle %s: %w", battleID, err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE fighters SET wins = wins + 1 WHERE id = ?`, winnerID); err != nil {
		return false, fmt.Errorf("crediting win: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE fighters SET losses = losses + 1 WHERE id = ?`, loserID); err != nil {
		return false, fmt.Errorf("crediting loss: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing result: %w", err)
	}
	return true, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrFighterNotFound
	}
	return nil
}
