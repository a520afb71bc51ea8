// Package shaping provides the text measurement and painting service used by
// the line cache and the margins.
//
// A Shaper turns a line of text plus a resolved style into a Measurement: the
// line's extent and an opaque Layout handle that can later be painted without
// re-shaping. Layout handles hold shaper resources and must be released
// exactly once by whoever owns them (normally the line cache).
//
// Two implementations are provided: CellShaper for terminal cell grids and
// FontShaper for pixel images.
package shaping

import (
	"errors"

	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/style"
)

// Errors returned by shapers.
var (
	// ErrReleased is returned when painting a layout that was already released.
	ErrReleased = errors.New("layout already released")

	// ErrForeignLayout is returned when painting a layout produced by another shaper.
	ErrForeignLayout = errors.New("layout not produced by this shaper")

	// ErrInvalidText is returned when text is not valid UTF-8.
	ErrInvalidText = errors.New("text is not valid UTF-8")

	// ErrUnknownFont is returned when a descriptor names a font family the
	// shaper cannot provide.
	ErrUnknownFont = errors.New("unknown font family")
)

// Layout is an opaque shaped-text handle.
type Layout interface {
	// Size returns the painted extent of the layout in surface units.
	Size() (width, height int)

	// Release frees resources held by the layout. Calling Release more than
	// once has no further effect.
	Release()
}

// Measurement is the result of shaping one line.
type Measurement struct {
	Width  int
	Height int
	Layout Layout
}

// Shaper measures and paints text.
type Shaper interface {
	// Measure shapes text with the given style.
	Measure(text string, d style.Descriptor) (Measurement, error)

	// Paint draws a layout previously returned by Measure with its top-left
	// corner at (x, y).
	Paint(l Layout, x, y int) error
}

// Filler is implemented by shapers whose surface can clear rectangles.
// The render driver uses it to blank regions no layout covers.
type Filler interface {
	Fill(rect core.Rect, s core.Style)
}

// LineHeight returns the height a shaper assigns to an empty line in style d.
// It measures an empty line and releases the layout.
func LineHeight(s Shaper, d style.Descriptor) (int, error) {
	m, err := s.Measure("", d)
	if err != nil {
		return 0, err
	}
	if m.Layout != nil {
		m.Layout.Release()
	}
	return m.Height, nil
}
