// Package leaderboard ranks fighters and exports the standings as CSV.
package leaderboard

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
)

// Row is one line of the exported leaderboard.
type Row struct {
	Rank        int     `csv:"rank"`
	ID          int64   `csv:"id"`
	Name        string  `csv:"name"`
	Barcode     string  `csv:"barcode"`
	SpecialMove string  `csv:"special_move"`
	Wins        int     `csv:"wins"`
	Losses      int     `csv:"losses"`
	WinRate     float64 `csv:"win_rate"`
}

// Rank builds rows from fighters already in leaderboard order (wins
// descending). Fighters with equal wins share a rank and the next rank skips
// accordingly (1, 2, 2, 4).
func Rank(fs []*fighter.Fighter) []Row {
	rows := make([]Row, len(fs))
	for i, f := range fs {
		rank := i + 1
		if i > 0 && f.Wins == fs[i-1].Wins {
			rank = rows[i-1].Rank
		}
		rows[i] = Row{
			Rank:        rank,
			ID:          f.ID,
			Name:        f.Name,
			Barcode:     f.Barcode,
			SpecialMove: f.SpecialMove.DisplayName(),
			Wins:        f.Wins,
			Losses:      f.Losses,
			WinRate:     f.WinRate(),
		}
	}
	return rows
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing leaderboard csv: %w", err)
	}
	return nil
}
