package dirty

import (
	"sync"
	"testing"

	"github.com/dshills/lineview/internal/renderer/core"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()

	if tracker.IsDirty() {
		t.Error("new tracker should be clean")
	}
	if tracker.NeedsFullRedraw() {
		t.Error("new tracker should not need full redraw")
	}
}

func TestTrackerTransition(t *testing.T) {
	tracker := NewTracker()

	if !tracker.MarkLine(3) {
		t.Error("first mark should report a transition")
	}
	if tracker.MarkLine(10) {
		t.Error("second mark should not report a transition")
	}
	if tracker.MarkFull() {
		t.Error("full redraw on a dirty tracker is not a transition")
	}

	tracker.Take()
	if !tracker.MarkFull() {
		t.Error("mark after Take should report a transition")
	}

	stats := tracker.Stats()
	if stats.Requests != 2 || stats.Marks != 4 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestTrackerCoalesce(t *testing.T) {
	tests := []struct {
		name  string
		marks []Region
		want  []Region
	}{
		{
			name:  "disjoint",
			marks: []Region{{Start: 8, End: 9}, {Start: 1, End: 3}},
			want:  []Region{{Start: 1, End: 3}, {Start: 8, End: 9}},
		},
		{
			name:  "adjacent",
			marks: []Region{{Start: 1, End: 3}, {Start: 3, End: 5}},
			want:  []Region{{Start: 1, End: 5}},
		},
		{
			name:  "overlapping",
			marks: []Region{{Start: 2, End: 6}, {Start: 0, End: 3}, {Start: 5, End: 7}},
			want:  []Region{{Start: 0, End: 7}},
		},
		{
			name:  "empty ignored",
			marks: []Region{{Start: 4, End: 4}},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker()
			for _, r := range tt.marks {
				tracker.MarkLines(r)
			}
			got := tracker.Take().Regions
			if len(got) != len(tt.want) {
				t.Fatalf("Regions = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Regions[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTrackerMaxRegions(t *testing.T) {
	tracker := NewTracker()
	tracker.SetMaxRegions(2)

	tracker.MarkLine(0)
	tracker.MarkLine(5)
	if tracker.NeedsFullRedraw() {
		t.Fatal("two regions should fit")
	}
	tracker.MarkLine(10)
	if !tracker.NeedsFullRedraw() {
		t.Error("third disjoint region should force a full redraw")
	}
	if s := tracker.Take(); !s.FullRedraw || len(s.Regions) != 0 {
		t.Errorf("Take = %+v", s)
	}
}

func TestTrackerMarkCause(t *testing.T) {
	tests := []struct {
		cause Cause
		full  bool
	}{
		{CauseContent, false},
		{CauseMargin, false},
		{CauseStructure, true},
		{CauseStyle, true},
		{CauseScroll, true},
		{CauseResize, true},
	}

	for _, tt := range tests {
		t.Run(tt.cause.String(), func(t *testing.T) {
			tracker := NewTracker()
			tracker.Mark(tt.cause, core.LineSpan(4, 2))
			if tracker.NeedsFullRedraw() != tt.full {
				t.Errorf("NeedsFullRedraw = %v, want %v", tracker.NeedsFullRedraw(), tt.full)
			}
			if !tracker.Take().LineDirty(5) {
				t.Error("line 5 should be dirty")
			}
		})
	}
}

func TestSnapshotLineDirty(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkLines(core.LineSpan(10, 5))

	snap := tracker.Take()
	if snap.LineDirty(9) || !snap.LineDirty(10) || snap.LineDirty(15) {
		t.Error("LineDirty boundaries wrong")
	}
	if full := (Snapshot{FullRedraw: true}); !full.LineDirty(1000) {
		t.Error("full redraw snapshot should dirty every line")
	}

	tracker.MarkLine(3)
	tracker.Clear()
	if tracker.IsDirty() {
		t.Error("Clear should leave the tracker clean")
	}
}

func TestCauseString(t *testing.T) {
	if CauseStyle.String() != "style" {
		t.Errorf("CauseStyle = %q", CauseStyle.String())
	}
	if Cause(99).String() != "unknown" {
		t.Errorf("Cause(99) = %q", Cause(99).String())
	}
}

func TestTrackerConcurrentMarks(t *testing.T) {
	tracker := NewTracker()
	var wg sync.WaitGroup
	var mu sync.Mutex
	transitions := 0

	for i := range 16 {
		wg.Add(1)
		go func(line int) {
			defer wg.Done()
			if tracker.MarkLine(line * 3) {
				mu.Lock()
				transitions++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if transitions != 1 {
		t.Errorf("transitions = %d, want 1", transitions)
	}
}
