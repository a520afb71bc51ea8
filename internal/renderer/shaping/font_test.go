package shaping

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/style"
)

func newCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func TestFontShaperBasicMetrics(t *testing.T) {
	s := NewFontShaper(nil)

	tests := []struct {
		name  string
		text  string
		d     style.Descriptor
		width int
	}{
		{"empty", "", style.Descriptor{}, 0},
		{"ascii", "abc", style.Descriptor{}, 21},
		{"letter spacing", "abc", style.Descriptor{Spacing: style.Spacing{Letter: 2}}, 27},
		{"tab", "\tA", style.Descriptor{}, 35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := s.Measure(tt.text, tt.d)
			if err != nil {
				t.Fatalf("Measure: %v", err)
			}
			defer m.Layout.Release()
			if m.Width != tt.width {
				t.Errorf("width = %d, want %d", m.Width, tt.width)
			}
			if m.Height != 13 {
				t.Errorf("height = %d, want 13", m.Height)
			}
		})
	}
}

func TestFontShaperLineSpacing(t *testing.T) {
	s := NewFontShaper(nil)
	m, err := s.Measure("x", style.Descriptor{Spacing: style.Spacing{Line: 3}})
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if m.Height != 16 {
		t.Errorf("height = %d, want 16", m.Height)
	}
}

func TestFontShaperGoFontScales(t *testing.T) {
	s := NewFontShaper(nil)
	defer s.Close()

	small, err := s.Measure("hello", style.Descriptor{Font: style.FontSpec{Family: FamilyGo, Size: 10}})
	if err != nil {
		t.Fatalf("Measure small: %v", err)
	}
	large, err := s.Measure("hello", style.Descriptor{Font: style.FontSpec{Family: FamilyGo, Size: 30}})
	if err != nil {
		t.Fatalf("Measure large: %v", err)
	}
	if large.Width <= small.Width || large.Height <= small.Height {
		t.Errorf("30pt %dx%d should exceed 10pt %dx%d", large.Width, large.Height, small.Width, small.Height)
	}

	bold, err := s.Measure("hello", style.Descriptor{
		Font:  style.FontSpec{Family: FamilyMono, Size: 12},
		Style: core.Style{Attributes: core.AttrBold},
	})
	if err != nil {
		t.Fatalf("Measure bold mono: %v", err)
	}
	if bold.Width == 0 {
		t.Error("bold mono width should be positive")
	}
	if len(s.faces) != 3 {
		t.Errorf("cached faces = %d, want 3", len(s.faces))
	}
}

func TestFontShaperUnknownFamily(t *testing.T) {
	s := NewFontShaper(nil)
	_, err := s.Measure("x", style.Descriptor{Font: style.FontSpec{Family: "comic"}})
	if !errors.Is(err, ErrUnknownFont) {
		t.Errorf("err = %v, want ErrUnknownFont", err)
	}
	if s.Live() != 0 {
		t.Error("failed measure should not leak a layout")
	}
}

func TestFontShaperInvalidText(t *testing.T) {
	s := NewFontShaper(nil)
	if _, err := s.Measure("\xfe", style.Descriptor{}); !errors.Is(err, ErrInvalidText) {
		t.Errorf("err = %v, want ErrInvalidText", err)
	}
}

func TestFontShaperPaint(t *testing.T) {
	img := newCanvas(40, 20)
	s := NewFontShaper(img)
	red := core.ColorFromRGB(255, 0, 0)

	m, err := s.Measure("MW", style.Descriptor{Style: core.Style{Foreground: red, Background: core.ColorDefault}})
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if err := s.Paint(m.Layout, 5, 2); err != nil {
		t.Fatalf("Paint: %v", err)
	}

	inside, outside := 0, 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, _, _ := img.At(x, y).RGBA()
			if r > 0x8000 && g < 0x8000 {
				if x >= 5 && x < 5+m.Width && y >= 2 && y < 2+m.Height {
					inside++
				} else {
					outside++
				}
			}
		}
	}
	if inside == 0 {
		t.Error("expected glyph pixels inside the layout box")
	}
	if outside != 0 {
		t.Errorf("found %d glyph pixels outside the layout box", outside)
	}
}

func TestFontShaperPaintBackground(t *testing.T) {
	img := newCanvas(30, 20)
	s := NewFontShaper(img)
	blue := core.ColorFromRGB(0, 0, 255)

	m, _ := s.Measure("  ", style.Descriptor{Style: core.Style{Foreground: core.ColorDefault, Background: blue}})
	if err := s.Paint(m.Layout, 0, 0); err != nil {
		t.Fatalf("Paint: %v", err)
	}

	if got := img.RGBAAt(1, 1); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("background pixel = %v", got)
	}
	if got := img.RGBAAt(m.Width+1, 1); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("pixel past layout = %v", got)
	}
}

func TestFontShaperFill(t *testing.T) {
	img := newCanvas(10, 10)
	s := NewFontShaper(img)

	s.Fill(core.Rect{X: 2, Y: 2, Width: 3, Height: 3}, core.Style{Background: core.ColorBlack})
	if got := img.RGBAAt(3, 3); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("filled pixel = %v", got)
	}
	if got := img.RGBAAt(6, 6); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("unfilled pixel = %v", got)
	}

	s.Fill(core.Rect{Width: 10, Height: 10}, core.DefaultStyle())
	if got := img.RGBAAt(6, 6); got != (color.RGBA{255, 255, 255, 255}) {
		t.Error("default background must not paint")
	}
}

func TestFontShaperReleaseAndForeign(t *testing.T) {
	a := NewFontShaper(newCanvas(10, 10))
	b := NewFontShaper(newCanvas(10, 10))

	m, _ := a.Measure("x", style.Descriptor{})
	if err := b.Paint(m.Layout, 0, 0); !errors.Is(err, ErrForeignLayout) {
		t.Errorf("foreign paint err = %v", err)
	}

	m.Layout.Release()
	m.Layout.Release()
	if a.Live() != 0 {
		t.Errorf("Live = %d, want 0", a.Live())
	}
	if err := a.Paint(m.Layout, 0, 0); !errors.Is(err, ErrReleased) {
		t.Errorf("released paint err = %v", err)
	}

	cm, _ := NewCellShaper(nil).Measure("x", style.Descriptor{})
	if err := a.Paint(cm.Layout, 0, 0); !errors.Is(err, ErrForeignLayout) {
		t.Errorf("cell layout on font shaper err = %v", err)
	}
}
