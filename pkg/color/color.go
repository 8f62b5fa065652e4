// Package color maps raw spool color bytes to the nearest named filament color.
package color

import (
	"errors"
	"math"
	"strings"
)

// Name is a palette color name or Unknown.
type Name string

// Unknown is returned when no palette entry can be chosen.
const Unknown Name = "Unknown"

// ErrEmptyPalette is returned by Classify on a palette with no entries.
var ErrEmptyPalette = errors.New("color: palette is empty")

// RGB is an 8-bit per channel color.
type RGB struct {
	R, G, B uint8
}

// NeutralGray is the display color for names that are not in the palette.
var NeutralGray = RGB{128, 128, 128}

// Entry is a named reference color.
type Entry struct {
	Name Name
	RGB  RGB
}

// Palette is an ordered list of reference colors. Order decides ties.
type Palette []Entry

var defaultPalette = Palette{
	{"Jade White", RGB{255, 255, 255}},
	{"Beige", RGB{247, 230, 222}},
	{"Gold", RGB{228, 189, 104}},
	{"Silver", RGB{166, 169, 170}},
	{"Gray", RGB{142, 144, 137}},
	{"Bronze", RGB{132, 125, 72}},
	{"Brown", RGB{157, 67, 44}},
	{"Red", RGB{193, 46, 31}},
	{"Magenta", RGB{236, 0, 140}},
	{"Pink", RGB{245, 90, 116}},
	{"Orange", RGB{255, 106, 19}},
	{"Yellow", RGB{244, 238, 42}},
	{"Bambu Green", RGB{0, 174, 66}},
	{"Mistletoe Green", RGB{63, 142, 67}},
	{"Cyan", RGB{0, 134, 214}},
	{"Blue", RGB{10, 41, 137}},
	{"Purple", RGB{94, 67, 183}},
	{"Blue Gray", RGB{91, 101, 121}},
	{"Light Gray", RGB{209, 211, 213}},
	{"Dark Gray", RGB{84, 84, 84}},
	{"Black", RGB{0, 0, 0}},
}

// DefaultPalette returns a copy of the filament palette.
func DefaultPalette() Palette {
	out := make(Palette, len(defaultPalette))
	copy(out, defaultPalette)
	return out
}

// Distance is the Euclidean distance between two colors in RGB space.
func Distance(a, b RGB) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Classify returns the name of the palette entry closest to (r, g, b).
// Equal distances resolve to the entry declared first.
func (p Palette) Classify(r, g, b uint8) (Name, error) {
	if len(p) == 0 {
		return Unknown, ErrEmptyPalette
	}
	in := RGB{r, g, b}
	best := 0
	bestDist := Distance(in, p[0].RGB)
	for i := 1; i < len(p); i++ {
		if d := Distance(in, p[i].RGB); d < bestDist {
			best, bestDist = i, d
		}
	}
	return p[best].Name, nil
}

// Lookup returns the reference color for name, ignoring case.
func (p Palette) Lookup(name string) (RGB, bool) {
	for _, e := range p {
		if strings.EqualFold(string(e.Name), name) {
			return e.RGB, true
		}
	}
	return RGB{}, false
}

// Classify uses the default palette.
func Classify(r, g, b uint8) (Name, error) {
	return defaultPalette.Classify(r, g, b)
}

// Swatch is the display color of a name. Fallback is set when the name was
// not found and RGB holds NeutralGray.
type Swatch struct {
	RGB      RGB
	Fallback bool
}

// SwatchFor returns the display color for name in the default palette.
// It is meant for display only and never parses a name back into a color.
func SwatchFor(name string) Swatch {
	if rgb, ok := defaultPalette.Lookup(name); ok {
		return Swatch{RGB: rgb}
	}
	return Swatch{RGB: NeutralGray, Fallback: true}
}
