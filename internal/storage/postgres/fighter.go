package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
	"github.com/cory-johannsen/scanfighter/internal/storage"
)

const fighterColumns = `id, name, barcode, health, attack, defense, speed, luck, skill,
	       special_move, wins, losses, created_at`

// FighterRepository provides fighter persistence operations.
type FighterRepository struct {
	db *pgxpool.Pool
}

// NewFighterRepository creates a FighterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewFighterRepository(db *pgxpool.Pool) *FighterRepository {
	return &FighterRepository{db: db}
}

func scanFighter(row pgx.Row) (*fighter.Fighter, error) {
	var f fighter.Fighter
	var move string
	if err := row.Scan(
		&f.ID, &f.Name, &f.Barcode,
		&f.Health, &f.Attack, &f.Defense, &f.Speed, &f.Luck, &f.Skill,
		&move, &f.Wins, &f.Losses, &f.CreatedAt,
	); err != nil {
		return nil, err
	}
	f.SpecialMove = fighter.SpecialMoveType(move)
	return &f, nil
}

// Create inserts a new fighter and returns it with ID and CreatedAt set.
//
// Precondition: f.Name must be non-empty.
// Postcondition: Returns the created fighter with ID set.
func (r *FighterRepository) Create(ctx context.Context, f *fighter.Fighter) (*fighter.Fighter, error) {
	out, err := scanFighter(r.db.QueryRow(ctx, `
		INSERT INTO fighters
			(name, barcode, health, attack, defense, speed, luck, skill,
			 special_move, wins, losses)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING `+fighterColumns,
		f.Name, f.Barcode, f.Health, f.Attack, f.Defense, f.Speed, f.Luck, f.Skill,
		string(f.SpecialMove), f.Wins, f.Losses,
	))
	if err != nil {
		return nil, fmt.Errorf("inserting fighter: %w", err)
	}
	return out, nil
}

// Get retrieves a fighter by its primary key.
//
// Postcondition: Returns the Fighter or storage.ErrFighterNotFound.
func (r *FighterRepository) Get(ctx context.Context, id int64) (*fighter.Fighter, error) {
	f, err := scanFighter(r.db.QueryRow(ctx,
		`SELECT `+fighterColumns+` FROM fighters WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrFighterNotFound
		}
		return nil, fmt.Errorf("querying fighter %d: %w", id, err)
	}
	return f, nil
}

// Update persists the name and win/loss record of f.
//
// Precondition: f.ID must be > 0.
// Postcondition: Returns storage.ErrFighterNotFound if no row matched.
func (r *FighterRepository) Update(ctx context.Context, f *fighter.Fighter) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE fighters SET name = $2, wins = $3, losses = $4 WHERE id = $1`,
		f.ID, f.Name, f.Wins, f.Losses,
	)
	if err != nil {
		return fmt.Errorf("updating fighter %d: %w", f.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrFighterNotFound
	}
	return nil
}

// Delete removes the fighter with id.
//
// Postcondition: Returns storage.ErrFighterNotFound if no row matched.
func (r *FighterRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM fighters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting fighter %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrFighterNotFound
	}
	return nil
}

// ListByWins returns all fighters ordered by wins descending, then id.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *FighterRepository) ListByWins(ctx context.Context) ([]*fighter.Fighter, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+fighterColumns+` FROM fighters ORDER BY wins DESC, id ASC`)
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

// ApplyResult records battleID in battle_results and credits both fighters
// in the same transaction. A repeated battleID changes nothing.
//
// Postcondition: Returns true only for the first call with battleID.
func (r *FighterRepository) ApplyResult(ctx context.Context, battleID uuid.UUID, winnerID, loserID int64) (bool, error) {
	applied := false
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO battle_results (battle_id, winner_id, loser_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (battle_id) DO NOTHING`,
			battleID.String(), winnerID, loserID,
		)
		if err != nil {
			return fmt.Errorf("claiming battle %s: %w", battleID, err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `UPDATE fighters SET wins = wins + 1 WHERE id = $1`, winnerID); err != nil {
			return fmt.Errorf("crediting win: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE fighters SET losses = losses + 1 WHERE id = $1`, loserID); err != nil {
			return fmt.Errorf("crediting loss: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
