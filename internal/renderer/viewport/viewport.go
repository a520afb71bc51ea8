// Package viewport provides the scroll state of the text view and the
// per-line height index the render driver maps scroll offsets through.
//
// All values are in surface units: cells for terminal surfaces, pixels for
// image surfaces.
package viewport

// Viewport is the visible window onto the content.
//
// ScrollTo and ScrollBy record the requested offset as given; Clamp brings it
// back into [0, MaxScroll] once the content height is known. The render
// driver clamps at the start of every pass.
type Viewport struct {
	scrollY int
	width   int
	height  int

	contentHeight int

	// pageOverlap is kept visible when paging.
	pageOverlap int
}

// State is a snapshot of the viewport.
type State struct {
	ScrollY int
	Width   int
	Height  int
}

// New creates a viewport with the given size. Negative dimensions become 0.
func New(width, height int) *Viewport {
	return &Viewport{
		width:       max(width, 0),
		height:      max(height, 0),
		pageOverlap: 2,
	}
}

// Width returns the viewport width.
func (v *Viewport) Width() int {
	return v.width
}

// Height returns the viewport height.
func (v *Viewport) Height() int {
	return v.height
}

// ScrollY returns the scroll offset.
func (v *Viewport) ScrollY() int {
	return v.scrollY
}

// ContentHeight returns the last content height given to SetContentHeight.
func (v *Viewport) ContentHeight() int {
	return v.contentHeight
}

// State returns a snapshot of the viewport.
func (v *Viewport) State() State {
	return State{ScrollY: v.scrollY, Width: v.width, Height: v.height}
}

// Resize updates the viewport size. Negative dimensions are clamped to 0
// and reported through the return value.
func (v *Viewport) Resize(width, height int) (clamped bool) {
	if width < 0 {
		width, clamped = 0, true
	}
	if height < 0 {
		height, clamped = 0, true
	}
	v.width = width
	v.height = height
	return clamped
}

// SetPageOverlap sets how much of the previous page stays visible when paging.
func (v *Viewport) SetPageOverlap(overlap int) {
	v.pageOverlap = max(overlap, 0)
}

// SetContentHeight records the total content height.
func (v *Viewport) SetContentHeight(total int) {
	v.contentHeight = max(total, 0)
}

// MaxScroll returns the largest valid scroll offset.
func (v *Viewport) MaxScroll() int {
	return max(0, v.contentHeight-v.height)
}

// Clamp moves the scroll offset into [0, MaxScroll] and reports whether it
// changed.
func (v *Viewport) Clamp() bool {
	y := min(max(v.scrollY, 0), v.MaxScroll())
	if y == v.scrollY {
		return false
	}
	v.scrollY = y
	return true
}

// ScrollTo sets the scroll offset.
func (v *Viewport) ScrollTo(y int) {
	v.scrollY = y
}

// ScrollBy moves the scroll offset by dy from its clamped position.
func (v *Viewport) ScrollBy(dy int) {
	v.Clamp()
	v.scrollY += dy
}

// PageUp scrolls up by one page minus the overlap.
func (v *Viewport) PageUp() {
	v.ScrollBy(-v.pageSize())
}

// PageDown scrolls down by one page minus the overlap.
func (v *Viewport) PageDown() {
	v.ScrollBy(v.pageSize())
}

func (v *Viewport) pageSize() int {
	return max(v.height-v.pageOverlap, 1)
}

// ScrollToTop scrolls to the start of the content.
func (v *Viewport) ScrollToTop() {
	v.scrollY = 0
}

// ScrollToBottom scrolls so the last page is visible.
func (v *Viewport) ScrollToBottom() {
	v.scrollY = v.MaxScroll()
}

// EnsureVisible scrolls the minimum amount needed to show [top, top+height).
// Content taller than the viewport is aligned to its top. Returns true if
// the offset changed.
func (v *Viewport) EnsureVisible(top, height int) bool {
	old := v.scrollY
	switch {
	case top < v.scrollY || height > v.height:
		v.scrollY = top
	case top+height > v.scrollY+v.height:
		v.scrollY = top + height - v.height
	}
	return v.scrollY != old
}
