package margin

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/lineview/internal/renderer/backend"
	"github.com/dshills/lineview/internal/renderer/buffer"
	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/display"
	"github.com/dshills/lineview/internal/renderer/report"
	"github.com/dshills/lineview/internal/renderer/shaping"
	"github.com/dshills/lineview/internal/renderer/style"
)

// countingShaper counts Measure calls made through it.
type countingShaper struct {
	*shaping.CellShaper
	measures int
	fail     map[string]error
}

func (s *countingShaper) Measure(text string, d style.Descriptor) (shaping.Measurement, error) {
	s.measures++
	if err := s.fail[text]; err != nil {
		return shaping.Measurement{}, err
	}
	return s.CellShaper.Measure(text, d)
}

// Fill forwards to the cell shaper so the wrapper stays a shaping.Filler.
func (s *countingShaper) Fill(rect core.Rect, st core.Style) {
	s.CellShaper.Fill(rect, st)
}

type recordingReporter struct {
	conds []report.Condition
	ctxs  []report.Context
}

func (r *recordingReporter) Report(cond report.Condition, err error, ctx report.Context) {
	r.conds = append(r.conds, cond)
	r.ctxs = append(r.ctxs, ctx)
}

type fixture struct {
	buf      *buffer.Lines
	surface  *backend.NullBackend
	shaper   *countingShaper
	reporter *recordingReporter
	ctx      display.Context
}

func newFixture(width, height int, lines ...string) *fixture {
	f := &fixture{
		buf:      buffer.NewLines(lines...),
		surface:  backend.NewNullBackend(width, height),
		reporter: &recordingReporter{},
	}
	f.shaper = &countingShaper{CellShaper: shaping.NewCellShaper(f.surface)}
	f.ctx = display.Context{
		Buffer:   f.buf,
		Styles:   style.DefaultTable(),
		Shaper:   f.shaper,
		Reporter: f.reporter,
	}
	return f
}

// bufferText paints buffer lines through the shaper.
type bufferText struct {
	f     *fixture
	lines []int
}

func (b *bufferText) PaintText(req PaintRequest) error {
	b.lines = append(b.lines, req.Line)
	m, err := b.f.shaper.Measure(b.f.buf.LineText(req.Line), req.Style)
	if err != nil {
		return err
	}
	defer m.Layout.Release()
	return b.f.shaper.Paint(m.Layout, req.X, req.Y)
}

func numbered(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "x"
	}
	return lines
}

func TestLineNumbersWidthOfWidestLabel(t *testing.T) {
	f := newFixture(20, 3, "a", "bb", "ccc")
	n := NewLineNumbers(f.ctx, LineNumbersConfig{MinDigits: 1, Padding: 2})

	m, err := f.shaper.CellShaper.Measure("3", f.ctx.Styles.Resolve(style.NameLineNumber))
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	m.Layout.Release()

	if got, want := n.ComputeWidth(core.NewRange(0, 3)), m.Width+2; got != want {
		t.Errorf("ComputeWidth = %d, want %d", got, want)
	}
}

func TestLineNumbersWidthFollowsVisibleRange(t *testing.T) {
	f := newFixture(20, 3, numbered(1200)...)
	n := NewLineNumbers(f.ctx, LineNumbersConfig{MinDigits: 1, Padding: 1})

	if got := n.ComputeWidth(core.NewRange(0, 9)); got != 2 {
		t.Errorf("width for lines 1-9 = %d, want 2", got)
	}
	if got := n.ComputeWidth(core.NewRange(995, 1005)); got != 5 {
		t.Errorf("width for lines 996-1005 = %d, want 5", got)
	}

	fixed := NewLineNumbers(f.ctx, LineNumbersConfig{MinDigits: 1, Padding: 1, WidthFromLineCount: true})
	if got := fixed.ComputeWidth(core.NewRange(0, 9)); got != 5 {
		t.Errorf("width from line count = %d, want 5", got)
	}
}

func TestLineNumbersLabels(t *testing.T) {
	f := newFixture(20, 3, numbered(20)...)

	tests := []struct {
		mode NumberMode
		line int
		want string
	}{
		{NumberAbsolute, 2, "  3"},
		{NumberAbsolute, 5, "  6"},
		{NumberRelative, 2, "  3"},
		{NumberRelative, 5, "  0"},
		{NumberRelative, 9, "  4"},
		{NumberHybrid, 5, "  6"},
		{NumberHybrid, 9, "  4"},
	}

	for _, tt := range tests {
		n := NewLineNumbers(f.ctx, DefaultLineNumbersConfig())
		n.SetMode(tt.mode)
		n.SetCurrentLine(5)
		if got := n.Label(tt.line); got != tt.want {
			t.Errorf("%s Label(%d) = %q, want %q", tt.mode, tt.line, got, tt.want)
		}
	}
}

func TestLineNumbersCurrentLineStyle(t *testing.T) {
	f := newFixture(20, 3, numbered(5)...)
	n := NewLineNumbers(f.ctx, DefaultLineNumbersConfig())
	n.SetCurrentLine(2)

	if got := n.LineStyleName(2); got != style.NameLineNumberCurrent {
		t.Errorf("current line style = %q", got)
	}
	if got := n.LineStyleName(1); got != style.NameLineNumber {
		t.Errorf("other line style = %q", got)
	}
}

func TestLineNumbersLabelCache(t *testing.T) {
	f := newFixture(20, 3, "a", "bb", "ccc")
	n := NewLineNumbers(f.ctx, LineNumbersConfig{MinDigits: 1, Padding: 1, HighlightCurrent: true})
	visible := core.NewRange(0, 3)

	n.ComputeWidth(visible)
	if f.shaper.measures != 3 {
		t.Fatalf("measures = %d, want 3", f.shaper.measures)
	}
	n.ComputeWidth(visible)
	if f.shaper.measures != 3 {
		t.Errorf("labels should be cached, measures = %d", f.shaper.measures)
	}

	f.ctx.Styles.Set(style.NameLineNumber, style.Descriptor{Style: core.Style{Attributes: core.AttrBold}})
	n.ComputeWidth(visible)
	if f.shaper.measures != 6 {
		t.Errorf("fingerprint change should re-measure, measures = %d", f.shaper.measures)
	}
	if live := f.shaper.Live(); live != 3 {
		t.Errorf("live layouts = %d, want 3", live)
	}

	n.Close()
	if live := f.shaper.Live(); live != 0 {
		t.Errorf("live layouts after Close = %d, want 0", live)
	}
}

func TestLineNumbersLabelCacheBound(t *testing.T) {
	f := newFixture(20, 3, numbered(100)...)
	n := NewLineNumbers(f.ctx, LineNumbersConfig{MinDigits: 1, MaxLabels: 10})

	n.ComputeWidth(core.NewRange(0, 100))
	if got := n.labels.len(); got > 10 {
		t.Errorf("label cache holds %d entries, bound is 10", got)
	}
	if live := f.shaper.Live(); live != n.labels.len() {
		t.Errorf("live layouts = %d, cached = %d", live, n.labels.len())
	}
}

func TestLineNumbersMeasureFailure(t *testing.T) {
	f := newFixture(20, 3, "a", "bb", "ccc")
	f.shaper.fail = map[string]error{"2": errors.New("no glyphs")}
	n := NewLineNumbers(f.ctx, LineNumbersConfig{MinDigits: 1})

	if got := n.ComputeWidth(core.NewRange(0, 3)); got != 1 {
		t.Errorf("ComputeWidth = %d, want 1", got)
	}
	if len(f.reporter.conds) != 1 || f.reporter.conds[0] != report.ConditionMeasurementFailure {
		t.Errorf("reports = %v", f.reporter.conds)
	}
}

func TestLineNumbersPaint(t *testing.T) {
	f := newFixture(10, 3, "a", "bb", "ccc")
	n := NewLineNumbers(f.ctx, LineNumbersConfig{MinDigits: 2, Padding: 1})
	c := NewComposer(f.ctx, &bufferText{f: f}, n)
	c.SetWidth(10)

	if _, err := c.Layout(core.NewRange(0, 3)); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	for line := range 3 {
		if err := c.DispatchPaint(line, line, 1); err != nil {
			t.Fatalf("DispatchPaint(%d): %v", line, err)
		}
	}

	want := []string{" 1 a", " 2 bb", " 3 ccc"}
	for y, w := range want {
		if got := strings.TrimRight(f.surface.Row(y), " "); got != w {
			t.Errorf("row %d = %q, want %q", y, got, w)
		}
	}
}

func TestMarkerPriority(t *testing.T) {
	tests := []struct {
		kinds []MarkerKind
		want  MarkerKind
	}{
		{nil, MarkerNone},
		{[]MarkerKind{MarkerVCSAdded, MarkerError}, MarkerError},
		{[]MarkerKind{MarkerWarning, MarkerBreakpoint}, MarkerBreakpoint},
		{[]MarkerKind{MarkerVCSModified, MarkerBookmark, MarkerInfo}, MarkerInfo},
	}
	for _, tt := range tests {
		if got := Top(tt.kinds); got != tt.want {
			t.Errorf("Top(%v) = %s, want %s", tt.kinds, got, tt.want)
		}
	}
}

func TestMarkersWidth(t *testing.T) {
	f := newFixture(20, 5, numbered(10)...)
	set := NewMarkerSet()
	m := NewMarkers(f.ctx, set, MarkersConfig{Padding: 1, HideWhenEmpty: true})

	if got := m.ComputeWidth(core.NewRange(0, 5)); got != 0 {
		t.Errorf("empty width = %d, want 0 (hidden)", got)
	}

	set.Add(7, MarkerError)
	if got := m.ComputeWidth(core.NewRange(0, 5)); got != 0 {
		t.Errorf("marker outside the range should not show the margin, width = %d", got)
	}
	if got := m.ComputeWidth(core.NewRange(5, 10)); got != 2 {
		t.Errorf("width = %d, want 2", got)
	}

	shown := NewMarkers(f.ctx, NewMarkerSet(), MarkersConfig{Padding: 1})
	if got := shown.ComputeWidth(core.NewRange(0, 5)); got != 2 {
		t.Errorf("reserved width = %d, want 2", got)
	}
}

func TestMarkersPaint(t *testing.T) {
	f := newFixture(6, 2, "a", "b")
	set := NewMarkerSet()
	set.Add(1, MarkerVCSAdded)
	set.Add(1, MarkerWarning)
	m := NewMarkers(f.ctx, set, DefaultMarkersConfig())

	if got := m.LineStyleName(1); got != "margin.marker.warning" {
		t.Errorf("LineStyleName = %q", got)
	}

	c := NewComposer(f.ctx, &bufferText{f: f}, m)
	c.SetWidth(6)
	if _, err := c.Layout(core.NewRange(0, 2)); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	for line := range 2 {
		if err := c.DispatchPaint(line, line, 1); err != nil {
			t.Fatalf("DispatchPaint: %v", err)
		}
	}

	if got := strings.TrimRight(f.surface.Row(0), " "); got != "  a" {
		t.Errorf("row 0 = %q", got)
	}
	if got := strings.TrimRight(f.surface.Row(1), " "); got != "W b" {
		t.Errorf("row 1 = %q", got)
	}

	set.Remove(1, MarkerWarning)
	if Top(set.MarkersAt(1)) != MarkerVCSAdded {
		t.Error("Remove should leave the remaining marker")
	}
}

func TestFolding(t *testing.T) {
	f := newFixture(6, 3, "a", "b", "c")
	folds := FoldSet{1: FoldClosed}
	m := NewFolding(f.ctx, folds, FoldingConfig{Padding: 1, HideWhenEmpty: true})

	if got := m.ComputeWidth(core.NewRange(2, 3)); got != 0 {
		t.Errorf("width without folds = %d, want 0", got)
	}
	if got := m.ComputeWidth(core.NewRange(0, 3)); got != 2 {
		t.Errorf("width = %d, want 2", got)
	}

	c := NewComposer(f.ctx, &bufferText{f: f}, m)
	c.SetWidth(6)
	if _, err := c.Layout(core.NewRange(0, 3)); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if err := c.DispatchPaint(1, 0, 1); err != nil {
		t.Fatalf("DispatchPaint: %v", err)
	}
	if got := strings.TrimRight(f.surface.Row(0), " "); got != "▸ b" {
		t.Errorf("row = %q", got)
	}

	folds.Toggle(1)
	if folds.FoldAt(1) != FoldOpen {
		t.Error("Toggle should open a closed fold")
	}
}

func TestPadLeft(t *testing.T) {
	tests := []struct {
		s     string
		width int
		want  string
	}{
		{"7", 3, "  7"},
		{"123", 2, "123"},
		{"", 1, " "},
	}
	for _, tt := range tests {
		if got := PadLeft(tt.s, tt.width); got != tt.want {
			t.Errorf("PadLeft(%q, %d) = %q, want %q", tt.s, tt.width, got, tt.want)
		}
	}
}

func TestParseNumberMode(t *testing.T) {
	if m, ok := ParseNumberMode("Hybrid"); !ok || m != NumberHybrid {
		t.Errorf("ParseNumberMode(Hybrid) = %v, %v", m, ok)
	}
	if _, ok := ParseNumberMode("roman"); ok {
		t.Error("unknown mode should not parse")
	}
}
