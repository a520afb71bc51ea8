package core

import "fmt"

// Range is a half-open range of buffer lines [Start, End).
type Range struct {
	Start int
	End   int
}

// NewRange creates a range, swapping the bounds if they are reversed.
func NewRange(start, end int) Range {
	if end < start {
		start, end = end, start
	}
	return Range{Start: start, End: end}
}

// LineSpan returns the range covering count lines starting at start.
func LineSpan(start, count int) Range {
	if count < 0 {
		count = 0
	}
	return Range{Start: start, End: start + count}
}

// Len returns the number of lines in the range.
func (r Range) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// IsEmpty returns true if the range covers no lines.
func (r Range) IsEmpty() bool {
	return r.End <= r.Start
}

// Contains returns true if line lies inside the range.
func (r Range) Contains(line int) bool {
	return line >= r.Start && line < r.End
}

// Clamp restricts the range to [0, count).
func (r Range) Clamp(count int) Range {
	if count < 0 {
		count = 0
	}
	start := min(max(r.Start, 0), count)
	end := min(max(r.End, start), count)
	return Range{Start: start, End: end}
}

// Last returns the last line in the range, or Start-1 when empty.
func (r Range) Last() int {
	return r.End - 1
}

// Union returns the smallest range covering both ranges.
func (r Range) Union(other Range) Range {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	return Range{Start: min(r.Start, other.Start), End: max(r.End, other.End)}
}

// String formats the range as "[start,end)".
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Rect represents a rectangular region in surface units (pixels or cells).
type Rect struct {
	X, Y          int
	Width, Height int
}

// IsEmpty returns true if the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains returns true if the point lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}
