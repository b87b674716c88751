// Package scan provides barcode acquisition: the Scanner port, a one-shot
// scan Session, and helpers for cleaning and checking decoded codes.
package scan

import (
	"context"
	"strings"
	"unicode"
)

// Scanner yields one decoded barcode per call.
type Scanner interface {
	// Scan blocks until a code is decoded, ctx is done, or the source is exhausted.
	Scan(ctx context.Context) (string, error)
}

// Normalize trims surrounding whitespace and drops control characters that
// some scanners append (carriage returns, group separators).
func Normalize(code string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, code))
}

// CheckDigitValid reports whether code is an all-digit EAN-8, UPC-A or EAN-13
// with a correct trailing check digit. Other codes report false; the result is
// informational and never blocks fighter creation.
func CheckDigitValid(code string) bool {
	switch len(code) {
	case 8, 12, 13:
	default:
		return false
	}
	sum := 0
	// Weights alternate 3,1 starting from the digit left of the check digit.
	for i := len(code) - 2; i >= 0; i-- {
		c := code[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if (len(code)-2-i)%2 == 0 {
			d *= 3
		}
		sum += d
	}
	last := code[len(code)-1]
	if last < '0' || last > '9' {
		return false
	}
	return (10-sum%10)%10 == int(last-'0')
}
