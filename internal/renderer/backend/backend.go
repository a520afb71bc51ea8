// Package backend provides the cell-surface abstraction the cell shaper and
// margins paint onto.
package backend

import "github.com/dshills/lineview/internal/renderer/core"

// EventType identifies the type of surface event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventMouse
	EventResize
)

// Event represents a surface event.
type Event struct {
	Type EventType

	// Key event fields
	Key  Key
	Rune rune

	// Mouse event fields
	MouseX, MouseY int
	MouseButton    MouseButton

	// Resize event fields
	Width, Height int
}

// Key represents a keyboard key.
type Key int

// Key constants for the keys a viewer host reacts to.
const (
	KeyNone Key = iota
	KeyRune     // Regular character (use Rune field)
	KeyEscape
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyCtrlC
	KeyCtrlL
)

// MouseButton represents mouse button state.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseWheelUp
	MouseWheelDown
)

// Backend defines the interface for cell surfaces.
// Implementations handle actual drawing to the terminal or an in-memory grid.
type Backend interface {
	// Init initializes the backend for use.
	// Must be called before any other methods.
	Init() error

	// Shutdown releases backend resources and restores terminal state.
	Shutdown()

	// Size returns the current surface dimensions in cells.
	Size() (width, height int)

	// SetCell sets a single cell at the given position.
	// Positions outside the surface are silently ignored.
	SetCell(x, y int, cell core.Cell)

	// Fill fills a rectangular region with the given cell.
	Fill(rect core.Rect, cell core.Cell)

	// Clear clears the entire surface with the default style.
	Clear()

	// Show flushes pending changes to the display.
	Show()
}

var _ Backend = (*NullBackend)(nil)

// NullBackend is an in-memory backend for tests and offscreen rendering.
type NullBackend struct {
	width, height int
	cells         [][]core.Cell
	shows         int
}

// NewNullBackend creates a null backend with the given dimensions.
// The grid is allocated immediately; Init resets it.
func NewNullBackend(width, height int) *NullBackend {
	b := &NullBackend{
		width:  width,
		height: height,
	}
	b.allocate()
	return b
}

func (b *NullBackend) allocate() {
	b.cells = make([][]core.Cell, b.height)
	for i := range b.cells {
		b.cells[i] = make([]core.Cell, b.width)
		for j := range b.cells[i] {
			b.cells[i][j] = core.EmptyCell()
		}
	}
}

func (b *NullBackend) Init() error {
	b.allocate()
	return nil
}

func (b *NullBackend) Shutdown() {}

func (b *NullBackend) Size() (int, int) {
	return b.width, b.height
}

func (b *NullBackend) SetCell(x, y int, cell core.Cell) {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		b.cells[y][x] = cell
	}
}

// GetCell returns the cell at (x, y), or an empty cell outside the grid.
func (b *NullBackend) GetCell(x, y int) core.Cell {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		return b.cells[y][x]
	}
	return core.EmptyCell()
}

func (b *NullBackend) Fill(rect core.Rect, cell core.Cell) {
	for y := max(rect.Y, 0); y < rect.Y+rect.Height && y < b.height; y++ {
		for x := max(rect.X, 0); x < rect.X+rect.Width && x < b.width; x++ {
			b.cells[y][x] = cell
		}
	}
}

func (b *NullBackend) Clear() {
	empty := core.EmptyCell()
	for y := range b.cells {
		for x := range b.cells[y] {
			b.cells[y][x] = empty
		}
	}
}

func (b *NullBackend) Show() {
	b.shows++
}

// ShowCount returns how many times Show was called, for testing.
func (b *NullBackend) ShowCount() int {
	return b.shows
}

// Row returns the text of row y with continuation cells skipped, for testing.
func (b *NullBackend) Row(y int) string {
	if y < 0 || y >= b.height {
		return ""
	}
	return core.StringFromCells(b.cells[y])
}

// Resize simulates a resize for testing.
func (b *NullBackend) Resize(width, height int) {
	b.width = width
	b.height = height
	b.allocate()
}
