package shaping

import (
	"errors"
	"testing"

	"github.com/dshills/lineview/internal/renderer/backend"
	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/style"
)

func TestCellShaperMeasureWidth(t *testing.T) {
	s := NewCellShaper(nil)
	d := style.Descriptor{}

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"ascii", "hello", 5},
		{"wide", "世界", 4},
		{"combining", "e\u0301", 1},
		{"tab at start", "\tx", 5},
		{"tab mid stop", "ab\tx", 5},
		{"tab at stop", "abcd\tx", 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := s.Measure(tt.text, d)
			if err != nil {
				t.Fatalf("Measure: %v", err)
			}
			defer m.Layout.Release()
			if m.Width != tt.want {
				t.Errorf("width = %d, want %d", m.Width, tt.want)
			}
			if m.Height != 1 {
				t.Errorf("height = %d, want 1", m.Height)
			}
		})
	}
}

func TestCellShaperSpacing(t *testing.T) {
	s := NewCellShaper(nil)
	d := style.Descriptor{Spacing: style.Spacing{Line: 1, Letter: 1}}

	m, err := s.Measure("ab", d)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if m.Width != 4 || m.Height != 2 {
		t.Errorf("size = %dx%d, want 4x2", m.Width, m.Height)
	}
}

func TestCellShaperInvalidText(t *testing.T) {
	s := NewCellShaper(nil)
	_, err := s.Measure("bad\xff", style.Descriptor{})
	if !errors.Is(err, ErrInvalidText) {
		t.Errorf("err = %v, want ErrInvalidText", err)
	}
	if s.Live() != 0 {
		t.Errorf("failed measure should not leak a layout")
	}
}

func TestCellShaperPaint(t *testing.T) {
	nb := backend.NewNullBackend(10, 2)
	s := NewCellShaper(nb)
	st := core.Style{Foreground: core.ColorFromRGB(1, 2, 3)}

	m, err := s.Measure("a世b", style.Descriptor{Style: st})
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if err := s.Paint(m.Layout, 2, 1); err != nil {
		t.Fatalf("Paint: %v", err)
	}

	if got := nb.Row(1); got != "  a世b    " {
		t.Errorf("row = %q", got)
	}
	if c := nb.GetCell(3, 1); c.Rune != '世' || c.Width != 2 || !c.Style.Equals(st) {
		t.Errorf("wide cell = %+v", c)
	}
	if c := nb.GetCell(4, 1); !c.IsContinuation() {
		t.Errorf("expected continuation cell, got %+v", c)
	}
}

func TestCellShaperPaintCombining(t *testing.T) {
	nb := backend.NewNullBackend(4, 1)
	s := NewCellShaper(nb)

	m, _ := s.Measure("e\u0301x", style.Descriptor{})
	if err := s.Paint(m.Layout, 0, 0); err != nil {
		t.Fatalf("Paint: %v", err)
	}
	c := nb.GetCell(0, 0)
	if c.Rune != 'e' || len(c.Combining) != 1 || c.Combining[0] != '\u0301' {
		t.Errorf("cell = %+v", c)
	}
}

func TestCellShaperReleaseOnce(t *testing.T) {
	s := NewCellShaper(backend.NewNullBackend(4, 1))

	m, _ := s.Measure("x", style.Descriptor{})
	if s.Live() != 1 {
		t.Fatalf("Live = %d, want 1", s.Live())
	}
	m.Layout.Release()
	m.Layout.Release()
	if s.Live() != 0 {
		t.Errorf("Live = %d after double release, want 0", s.Live())
	}
	if err := s.Paint(m.Layout, 0, 0); !errors.Is(err, ErrReleased) {
		t.Errorf("paint after release err = %v", err)
	}
}

func TestCellShaperForeignLayout(t *testing.T) {
	a := NewCellShaper(nil)
	b := NewCellShaper(nil)

	m, _ := a.Measure("x", style.Descriptor{})
	if err := b.Paint(m.Layout, 0, 0); !errors.Is(err, ErrForeignLayout) {
		t.Errorf("err = %v, want ErrForeignLayout", err)
	}
}

func TestCellShaperFill(t *testing.T) {
	nb := backend.NewNullBackend(3, 2)
	nb.Fill(core.Rect{Width: 3, Height: 2}, core.NewCell('#'))
	s := NewCellShaper(nb)

	s.Fill(core.Rect{X: 1, Y: 0, Width: 2, Height: 1}, core.DefaultStyle())
	if nb.Row(0) != "#  " || nb.Row(1) != "###" {
		t.Errorf("rows = %q %q", nb.Row(0), nb.Row(1))
	}
}

func TestLineHeight(t *testing.T) {
	s := NewCellShaper(nil)
	h, err := LineHeight(s, style.Descriptor{Spacing: style.Spacing{Line: 2}})
	if err != nil {
		t.Fatalf("LineHeight: %v", err)
	}
	if h != 3 {
		t.Errorf("height = %d, want 3", h)
	}
	if s.Live() != 0 {
		t.Error("LineHeight should release its layout")
	}
}
