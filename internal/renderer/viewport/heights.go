package viewport

// HeightIndex maps line indices to vertical offsets.
//
// Each line has either a measured height or the index's estimate. Offsets
// are prefix sums kept in a Fenwick tree, so Set, Offset and LineAt are
// O(log n). Structural edits (Splice) rebuild the tree in O(n).
type HeightIndex struct {
	estimate int
	heights  []int // -1 means not measured
	tree     []int
}

// NewHeightIndex creates an index of count unmeasured lines.
func NewHeightIndex(count, estimate int) *HeightIndex {
	h := &HeightIndex{estimate: max(estimate, 0)}
	h.heights = make([]int, max(count, 0))
	for i := range h.heights {
		h.heights[i] = -1
	}
	h.rebuild()
	return h
}

// Len returns the number of lines.
func (h *HeightIndex) Len() int {
	return len(h.heights)
}

// Estimate returns the height assumed for unmeasured lines.
func (h *HeightIndex) Estimate() int {
	return h.estimate
}

// SetEstimate changes the height assumed for unmeasured lines.
func (h *HeightIndex) SetEstimate(estimate int) {
	estimate = max(estimate, 0)
	if estimate == h.estimate {
		return
	}
	h.estimate = estimate
	h.rebuild()
}

// Known reports whether line has a measured height.
func (h *HeightIndex) Known(line int) bool {
	return line >= 0 && line < len(h.heights) && h.heights[line] >= 0
}

// Height returns the measured or estimated height of line.
func (h *HeightIndex) Height(line int) int {
	if line < 0 || line >= len(h.heights) {
		return 0
	}
	return h.effective(line)
}

// Set records the measured height of line and reports whether the line's
// effective height changed.
func (h *HeightIndex) Set(line, height int) bool {
	if line < 0 || line >= len(h.heights) {
		return false
	}
	height = max(height, 0)
	old := h.effective(line)
	h.heights[line] = height
	if height == old {
		return false
	}
	h.add(line, height-old)
	return true
}

// Forget marks line as unmeasured again.
func (h *HeightIndex) Forget(line int) {
	if !h.Known(line) {
		return
	}
	old := h.heights[line]
	h.heights[line] = -1
	if d := h.estimate - old; d != 0 {
		h.add(line, d)
	}
}

// Offset returns the top offset of line: the summed height of all lines
// before it. Offset(Len()) is Total().
func (h *HeightIndex) Offset(line int) int {
	line = min(max(line, 0), len(h.heights))
	sum := 0
	for i := line; i > 0; i -= i & -i {
		sum += h.tree[i]
	}
	return sum
}

// Total returns the summed height of all lines.
func (h *HeightIndex) Total() int {
	return h.Offset(len(h.heights))
}

// LineAt returns the line covering offset y. Offsets before the content map
// to line 0 and offsets past it to the last line. An empty index returns 0.
func (h *HeightIndex) LineAt(y int) int {
	n := len(h.heights)
	if n == 0 || y <= 0 {
		return 0
	}

	// Largest pos with Offset(pos) <= y.
	pos, rem := 0, y
	for step := highBit(n); step > 0; step >>= 1 {
		if next := pos + step; next <= n && h.tree[next] <= rem {
			pos = next
			rem -= h.tree[next]
		}
	}
	return min(pos, n-1)
}

// Splice replaces oldCount lines at start with newCount unmeasured lines.
// Arguments reaching past the end are clamped.
func (h *HeightIndex) Splice(start, oldCount, newCount int) {
	start = min(max(start, 0), len(h.heights))
	oldCount = min(max(oldCount, 0), len(h.heights)-start)
	newCount = max(newCount, 0)

	next := make([]int, 0, len(h.heights)-oldCount+newCount)
	next = append(next, h.heights[:start]...)
	for range newCount {
		next = append(next, -1)
	}
	next = append(next, h.heights[start+oldCount:]...)
	h.heights = next
	h.rebuild()
}

// Reset discards every measurement and resizes the index to count lines.
func (h *HeightIndex) Reset(count int) {
	h.heights = make([]int, max(count, 0))
	for i := range h.heights {
		h.heights[i] = -1
	}
	h.rebuild()
}

func (h *HeightIndex) effective(line int) int {
	if v := h.heights[line]; v >= 0 {
		return v
	}
	return h.estimate
}

// add adds d to line's entry in the tree.
func (h *HeightIndex) add(line, d int) {
	for i := line + 1; i < len(h.tree); i += i & -i {
		h.tree[i] += d
	}
}

func (h *HeightIndex) rebuild() {
	n := len(h.heights)
	h.tree = make([]int, n+1)
	for i := 1; i <= n; i++ {
		h.tree[i] += h.effective(i - 1)
		if j := i + (i & -i); j <= n {
			h.tree[j] += h.tree[i]
		}
	}
}

func highBit(n int) int {
	b := 1
	for b<<1 <= n {
		b <<= 1
	}
	return b
}
