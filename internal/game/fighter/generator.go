package fighter

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the longest display name accepted, in runes.
const MaxNameLength = 24

// ErrInvalidName is returned when a display name is empty or too long.
var ErrInvalidName = errors.New("fighter name must be 1-24 characters")

// attribute describes how one stat is carved out of the seed.
type attribute struct {
	shift uint
	span  int64
	floor int
}

var (
	healthAttr  = attribute{shift: 0, span: 51, floor: 50}
	attackAttr  = attribute{shift: 8, span: 41, floor: 10}
	defenseAttr = attribute{shift: 16, span: 36, floor: 5}
	speedAttr   = attribute{shift: 24, span: 20, floor: 1}
	luckAttr    = attribute{shift: 32, span: 10, floor: 1}
	skillAttr   = attribute{shift: 40, span: 26, floor: 5}
	moveShift   = uint(48)
)

// Seed hashes barcode with SHA-256 and returns the first eight digest bytes as
// a big-endian signed integer. The empty string hashes like any other input.
func Seed(barcode string) int64 {
	sum := sha256.Sum256([]byte(barcode))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// absMod returns |x| mod m computed on the unsigned magnitude, so that
// math.MinInt64 still yields a value in [0, m).
func absMod(x, m int64) int64 {
	var mag uint64
	if x < 0 {
		mag = uint64(-(x + 1)) + 1
	} else {
		mag = uint64(x)
	}
	return int64(mag % uint64(m))
}

func (a attribute) derive(seed int64) int {
	return a.floor + int(absMod(seed>>a.shift, a.span))
}

// StatsFor derives the six base attributes from seed.
//
// Postcondition: every attribute lies in its documented inclusive range.
func StatsFor(seed int64) Stats {
	return Stats{
		Health:  healthAttr.derive(seed),
		Attack:  attackAttr.derive(seed),
		Defense: defenseAttr.derive(seed),
		Speed:   speedAttr.derive(seed),
		Luck:    luckAttr.derive(seed),
		Skill:   skillAttr.derive(seed),
	}
}

// SpecialMoveFor picks the special move for seed.
func SpecialMoveFor(seed int64) SpecialMoveType {
	return SpecialMoves[absMod(seed>>moveShift, int64(len(SpecialMoves)))]
}

// Generate builds an unsaved Fighter from a display name and a scanned barcode.
// Identical barcodes always produce identical stats and special moves.
//
// Postcondition: ID == 0, Wins == 0, Losses == 0.
func Generate(name, barcode string) Fighter {
	seed := Seed(barcode)
	return Fighter{
		Name:        name,
		Barcode:     barcode,
		Stats:       StatsFor(seed),
		SpecialMove: SpecialMoveFor(seed),
	}
}

// NormalizeName trims name and checks its length.
//
// Postcondition: Returns the trimmed name, or ErrInvalidName.
func NormalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)
	if n == 0 || n > MaxNameLength {
		return "", ErrInvalidName
	}
	return trimmed, nil
}
