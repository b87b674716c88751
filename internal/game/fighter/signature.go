package fighter

import (
	"fmt"
	"math"
)

// DefaultSignatureLength is the number of bars and notes in a signature.
const DefaultSignatureLength = 5

// paletteSize is shared by the colour palette and the note scale; the two must
// stay the same length so a palette index always maps to a note.
const paletteSize = 12

// Color is an opaque 8-bit RGB colour.
type Color struct {
	R, G, B uint8
}

// Hex returns the colour as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Palette holds twelve hues evenly spaced 30 degrees apart at 90% saturation
// and value.
var Palette = func() [paletteSize]Color {
	var p [paletteSize]Color
	for i := range p {
		p[i] = hsv(float64(i)*30, 0.9, 0.9)
	}
	return p
}()

// ChromaticScale holds the twelve pitches C4..B4 in Hz, indexed like Palette.
var ChromaticScale = [paletteSize]float64{
	261.63, // C4
	277.18, // C#4
	293.66, // D4
	311.13, // D#4
	329.63, // E4
	349.23, // F4
	369.99, // F#4
	392.00, // G4
	415.30, // G#4
	440.00, // A4
	466.16, // A#4
	493.88, // B4
}

// SignatureIndices returns n palette indices derived from the barcode seed.
// Index i is |seed >> 3i| mod 12.
func SignatureIndices(barcode string, n int) []int {
	seed := Seed(barcode)
	out := make([]int, n)
	for i := range out {
		out[i] = int(absMod(seed>>uint(i*3), paletteSize))
	}
	return out
}

// Signature returns the default-length visual and musical signature.
func Signature(barcode string) ([]Color, []float64) {
	return SignatureN(barcode, DefaultSignatureLength)
}

// SignatureN returns n colours and n note frequencies for barcode. colors[i]
// and notes[i] always come from the same palette index.
//
// Precondition: n >= 0.
func SignatureN(barcode string, n int) ([]Color, []float64) {
	idx := SignatureIndices(barcode, n)
	colors := make([]Color, n)
	notes := make([]float64, n)
	for i, p := range idx {
		colors[i] = Palette[p]
		notes[i] = ChromaticScale[p]
	}
	return colors, notes
}

// hsv converts hue in degrees, saturation and value in [0,1] to RGB.
func hsv(h, s, v float64) Color {
	c := v * s
	hp := math.Mod(h/60, 6)
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := v - c
	to8 := func(f float64) uint8 { return uint8(math.Round((f + m) * 255)) }
	return Color{R: to8(r), G: to8(g), B: to8(b)}
}
