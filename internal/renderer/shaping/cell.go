package shaping

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/style"
)

// DefaultTabWidth is the tab stop interval used when none is configured.
const DefaultTabWidth = 4

// Surface is a grid of cells a CellShaper paints onto.
// backend.Backend satisfies it.
type Surface interface {
	SetCell(x, y int, cell core.Cell)
}

// CellShaper shapes text into terminal cells. Widths come from
// go-runewidth with uniseg as a fallback, one cell row per line plus any
// configured line spacing.
type CellShaper struct {
	surface  Surface
	tabWidth int
	live     int
}

// CellOption configures a CellShaper.
type CellOption func(*CellShaper)

// WithTabWidth sets the tab stop interval.
func WithTabWidth(n int) CellOption {
	return func(s *CellShaper) {
		if n > 0 {
			s.tabWidth = n
		}
	}
}

// NewCellShaper creates a shaper painting onto surface.
func NewCellShaper(surface Surface, opts ...CellOption) *CellShaper {
	s := &CellShaper{surface: surface, tabWidth: DefaultTabWidth}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSurface redirects painting to a new surface. Existing layouts stay valid.
func (s *CellShaper) SetSurface(surface Surface) {
	s.surface = surface
}

// TabWidth returns the tab stop interval.
func (s *CellShaper) TabWidth() int {
	return s.tabWidth
}

// Live returns the number of layouts produced and not yet released.
func (s *CellShaper) Live() int {
	return s.live
}

// cellLayout is the Layout produced by CellShaper.
type cellLayout struct {
	owner    *CellShaper
	cells    []core.Cell
	style    core.Style
	height   int
	released bool
}

func (l *cellLayout) Size() (int, int) {
	return len(l.cells), l.height
}

func (l *cellLayout) Release() {
	if l.released {
		return
	}
	l.released = true
	l.cells = nil
	l.owner.live--
}

// Measure shapes text into cells.
func (s *CellShaper) Measure(text string, d style.Descriptor) (Measurement, error) {
	if !utf8.ValidString(text) {
		return Measurement{}, ErrInvalidText
	}

	cells := s.shape(text, d)
	l := &cellLayout{
		owner:  s,
		cells:  cells,
		style:  d.Style,
		height: 1 + max(d.Spacing.Line, 0),
	}
	s.live++

	return Measurement{Width: len(cells), Height: l.height, Layout: l}, nil
}

// shape splits text into grapheme clusters and lays them out in cells.
func (s *CellShaper) shape(text string, d style.Descriptor) []core.Cell {
	cells := make([]core.Cell, 0, len(text))
	letter := max(d.Spacing.Letter, 0)

	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Runes()
		if len(cluster) == 1 && cluster[0] == '\t' {
			adv := s.tabWidth - len(cells)%s.tabWidth
			for range adv {
				cells = append(cells, core.Cell{Rune: ' ', Width: 1, Style: d.Style})
			}
			continue
		}

		w := clusterWidth(g.Str())
		if w == 0 {
			continue
		}

		cell := core.Cell{Rune: cluster[0], Width: w, Style: d.Style}
		if len(cluster) > 1 {
			cell.Combining = append([]rune(nil), cluster[1:]...)
		}
		cells = append(cells, cell)
		for i := 1; i < w; i++ {
			cells = append(cells, core.ContinuationCell(d.Style))
		}
		for range letter {
			cells = append(cells, core.Cell{Rune: ' ', Width: 1, Style: d.Style})
		}
	}
	return cells
}

// clusterWidth returns the cell width of one grapheme cluster.
func clusterWidth(cluster string) int {
	w := runewidth.StringWidth(cluster)
	if w <= 0 {
		w = uniseg.StringWidth(cluster)
	}
	return max(w, 0)
}

// Paint writes the layout's cells at (x, y). Spacing rows below the text
// row are filled with blanks in the layout's style.
func (s *CellShaper) Paint(l Layout, x, y int) error {
	cl, ok := l.(*cellLayout)
	if !ok || cl.owner != s {
		return ErrForeignLayout
	}
	if cl.released {
		return ErrReleased
	}
	if s.surface == nil {
		return nil
	}

	for i, c := range cl.cells {
		s.surface.SetCell(x+i, y, c)
	}
	blank := core.Cell{Rune: ' ', Width: 1, Style: cl.style}
	for row := 1; row < cl.height; row++ {
		for i := range cl.cells {
			s.surface.SetCell(x+i, y+row, blank)
		}
	}
	return nil
}

// Fill paints blank cells in style st over rect.
func (s *CellShaper) Fill(rect core.Rect, st core.Style) {
	if s.surface == nil || rect.IsEmpty() {
		return
	}
	blank := core.Cell{Rune: ' ', Width: 1, Style: st}
	for y := rect.Y; y < rect.Y+rect.Height; y++ {
		for x := rect.X; x < rect.X+rect.Width; x++ {
			s.surface.SetCell(x, y, blank)
		}
	}
}
