package color

import (
	"errors"
	"testing"
)

func TestClassifyReferenceColorsExactly(t *testing.T) {
	for _, e := range DefaultPalette() {
		got, err := Classify(e.RGB.R, e.RGB.G, e.RGB.B)
		if err != nil {
			t.Fatalf("Classify(%v) returned error: %v", e.RGB, err)
		}
		if got != e.Name {
			t.Fatalf("Classify(%v) = %q, want %q", e.RGB, got, e.Name)
		}
	}
}

func TestClassifyNearest(t *testing.T) {
	got, err := Classify(2, 170, 70)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got != "Bambu Green" {
		t.Fatalf("expected Bambu Green, got %q", got)
	}

	got, _ = Classify(10, 10, 10)
	if got != "Black" {
		t.Fatalf("expected Black, got %q", got)
	}
}

func TestClassifyTiesBreakToFirstDeclared(t *testing.T) {
	p := Palette{
		{"Low", RGB{0, 0, 0}},
		{"High", RGB{20, 0, 0}},
		{"Low Again", RGB{0, 0, 0}},
	}
	got, err := p.Classify(10, 0, 0)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got != "Low" {
		t.Fatalf("expected first tied entry Low, got %q", got)
	}
	got, _ = p.Classify(0, 0, 0)
	if got != "Low" {
		t.Fatalf("expected Low for duplicate reference, got %q", got)
	}
}

func TestClassifyEmptyPalette(t *testing.T) {
	got, err := Palette{}.Classify(1, 2, 3)
	if !errors.Is(err, ErrEmptyPalette) {
		t.Fatalf("expected ErrEmptyPalette, got %v", err)
	}
	if got != Unknown {
		t.Fatalf("expected Unknown, got %q", got)
	}
}

func TestSwatchForIsCaseInsensitive(t *testing.T) {
	s := SwatchFor("bAMBU gREEN")
	if s.Fallback || s.RGB != (RGB{0, 174, 66}) {
		t.Fatalf("unexpected swatch %+v", s)
	}
}

func TestSwatchForUnknownNameFallsBackToGray(t *testing.T) {
	s := SwatchFor("Ultraviolet")
	if !s.Fallback || s.RGB != NeutralGray {
		t.Fatalf("expected gray fallback, got %+v", s)
	}

	// The classification sentinel is not a palette name either.
	if s := SwatchFor(string(Unknown)); !s.Fallback {
		t.Fatalf("Unknown should not resolve to a palette color")
	}
}

func TestDefaultPaletteIsCopied(t *testing.T) {
	p := DefaultPalette()
	if len(p) < 20 {
		t.Fatalf("expected at least 20 entries, got %d", len(p))
	}
	p[0].Name = "Changed"
	if DefaultPalette()[0].Name != "Jade White" {
		t.Fatalf("default palette was mutated")
	}
}
