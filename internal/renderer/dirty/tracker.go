package dirty

import (
	"slices"
	"sync"

	"github.com/dshills/lineview/internal/renderer/core"
)

// Cause describes why something became dirty.
type Cause uint8

const (
	// CauseContent means line text changed in place.
	CauseContent Cause = iota

	// CauseStructure means lines were inserted or deleted.
	CauseStructure

	// CauseStyle means the style table changed.
	CauseStyle

	// CauseScroll means the viewport scrolled.
	CauseScroll

	// CauseResize means the surface was resized.
	CauseResize

	// CauseMargin means margin content changed (markers, folds).
	CauseMargin
)

// String returns the string representation of the cause.
func (c Cause) String() string {
	switch c {
	case CauseContent:
		return "content"
	case CauseStructure:
		return "structure"
	case CauseStyle:
		return "style"
	case CauseScroll:
		return "scroll"
	case CauseResize:
		return "resize"
	case CauseMargin:
		return "margin"
	default:
		return "unknown"
	}
}

// DefaultMaxRegions is the number of disjoint regions kept before the
// tracker gives up and asks for a full redraw.
const DefaultMaxRegions = 32

// Tracker accumulates dirty regions between render passes.
//
// Mark methods return true when the tracker goes from clean to dirty, which
// is when a caller should ask its host for a redraw. Further marks before the
// next Take are folded into the pending state.
type Tracker struct {
	mu sync.Mutex

	regions    []Region
	fullRedraw bool
	maxRegions int

	marks    uint64
	requests uint64
}

// Snapshot is the dirty state handed to a render pass.
type Snapshot struct {
	FullRedraw bool
	Regions    []Region
}

// LineDirty reports whether line needs repainting.
func (s Snapshot) LineDirty(line int) bool {
	if s.FullRedraw {
		return true
	}
	for _, r := range s.Regions {
		if r.Contains(line) {
			return true
		}
	}
	return false
}

// Stats counts tracker activity.
type Stats struct {
	// Marks is the number of Mark calls.
	Marks uint64
	// Requests is the number of clean-to-dirty transitions.
	Requests uint64
	// Pending is the number of pending regions.
	Pending int
	// FullRedraw reports whether a full redraw is pending.
	FullRedraw bool
}

// NewTracker creates a clean tracker.
func NewTracker() *Tracker {
	return &Tracker{
		regions:    make([]Region, 0, 8),
		maxRegions: DefaultMaxRegions,
	}
}

// SetMaxRegions sets the region limit. Values less than 1 are clamped to 1.
func (t *Tracker) SetMaxRegions(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.maxRegions = max(n, 1)
}

// MarkFull requests a full redraw.
func (t *Tracker) MarkFull() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	was := t.dirty()
	t.marks++
	t.fullRedraw = true
	t.regions = t.regions[:0]
	return t.transition(was)
}

// MarkLine marks one content line dirty.
func (t *Tracker) MarkLine(line int) bool {
	return t.MarkLines(core.LineSpan(line, 1))
}

// MarkLines marks a range of content lines dirty. Empty ranges are ignored.
func (t *Tracker) MarkLines(r Region) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.marks++
	if r.IsEmpty() || t.fullRedraw {
		return false
	}

	was := t.dirty()
	t.regions = coalesce(append(t.regions, r))
	if len(t.regions) > t.maxRegions {
		t.fullRedraw = true
		t.regions = t.regions[:0]
	}
	return t.transition(was)
}

// Mark records a change with the given cause. Content and margin changes
// dirty only r; every other cause needs a full redraw since offsets below the
// change may move.
func (t *Tracker) Mark(cause Cause, r Region) bool {
	switch cause {
	case CauseContent, CauseMargin:
		return t.MarkLines(r)
	default:
		return t.MarkFull()
	}
}

// IsDirty reports whether anything is pending.
func (t *Tracker) IsDirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.dirty()
}

// NeedsFullRedraw reports whether a full redraw is pending.
func (t *Tracker) NeedsFullRedraw() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.fullRedraw
}

// Take returns the pending state and clears the tracker.
func (t *Tracker) Take() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{FullRedraw: t.fullRedraw}
	if len(t.regions) > 0 {
		s.Regions = slices.Clone(t.regions)
	}
	t.fullRedraw = false
	t.regions = t.regions[:0]
	return s
}

// Clear drops all pending state.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.fullRedraw = false
	t.regions = t.regions[:0]
}

// Stats returns tracker counters.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Stats{
		Marks:      t.marks,
		Requests:   t.requests,
		Pending:    len(t.regions),
		FullRedraw: t.fullRedraw,
	}
}

func (t *Tracker) dirty() bool {
	return t.fullRedraw || len(t.regions) > 0
}

func (t *Tracker) transition(was bool) bool {
	if was || !t.dirty() {
		return false
	}
	t.requests++
	return true
}
