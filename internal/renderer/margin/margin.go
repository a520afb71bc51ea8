// Package margin implements the fixed-width strips painted beside the text
// column (line numbers, markers, fold indicators) and the composer that
// orders them, sums their widths and dispatches per-line paints.
//
// Margins never touch the line layout cache. Any text they draw, such as
// formatted line numbers, is measured through the shaping service and kept
// in a small per-margin label cache.
package margin

import (
	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/display"
	"github.com/dshills/lineview/internal/renderer/report"
	"github.com/dshills/lineview/internal/renderer/shaping"
	"github.com/dshills/lineview/internal/renderer/style"
)

// Margin is one strip beside the text column.
type Margin interface {
	// Name identifies the margin in layouts and reports.
	Name() string

	// StyleName is the style the composer resolves for Paint.
	StyleName() string

	// ComputeWidth returns the strip width needed for the visible lines.
	// A width of 0 hides the margin for this frame.
	ComputeWidth(visible core.Range) int

	// Paint draws the margin for one line. The strip described by the
	// request belongs to the margin; nothing else about prior surface state
	// may be assumed.
	Paint(req PaintRequest) error
}

// LineStyler is implemented by margins whose style varies per line, such as
// a highlighted current line number. The composer prefers it over StyleName.
type LineStyler interface {
	LineStyleName(line int) string
}

// PaintRequest describes one strip to paint.
type PaintRequest struct {
	Line   int
	X, Y   int
	Width  int
	Height int
	Style  style.Descriptor
}

// Rect returns the strip covered by the request.
func (r PaintRequest) Rect() core.Rect {
	return core.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// DefaultMaxLabels bounds each margin's label cache.
const DefaultMaxLabels = 512

// labelKey identifies a measured label.
type labelKey struct {
	text  string
	style string
}

// labelCache keeps shaped labels for one margin. It is flushed when the style
// fingerprint moves or when it reaches its bound, releasing every layout.
type labelCache struct {
	shaper      shaping.Shaper
	styles      *style.Table
	max         int
	fingerprint uint64
	entries     map[labelKey]shaping.Measurement
}

func newLabelCache(ctx display.Context, maxEntries int) *labelCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxLabels
	}
	return &labelCache{
		shaper:  ctx.Shaper,
		styles:  ctx.Styles,
		max:     maxEntries,
		entries: make(map[labelKey]shaping.Measurement),
	}
}

// measure returns the shaped label, measuring it on a miss. The returned
// layout stays owned by the cache.
func (c *labelCache) measure(text string, d style.Descriptor) (shaping.Measurement, error) {
	if fp := c.styles.Fingerprint(); fp != c.fingerprint {
		c.flush()
		c.fingerprint = fp
	}

	key := labelKey{text: text, style: d.Name}
	if m, ok := c.entries[key]; ok {
		return m, nil
	}

	m, err := c.shaper.Measure(text, d)
	if err != nil {
		return shaping.Measurement{}, err
	}
	if len(c.entries) >= c.max {
		c.flush()
	}
	c.entries[key] = m
	return m, nil
}

func (c *labelCache) len() int {
	return len(c.entries)
}

func (c *labelCache) flush() {
	for k, m := range c.entries {
		if m.Layout != nil {
			m.Layout.Release()
		}
		delete(c.entries, k)
	}
}

// strip holds what every margin needs from the display context.
type strip struct {
	ctx    display.Context
	labels *labelCache
}

func newStrip(ctx display.Context, maxLabels int) strip {
	ctx = ctx.WithDefaults()
	return strip{ctx: ctx, labels: newLabelCache(ctx, maxLabels)}
}

// fill clears the strip to the request's background when the shaper can.
func (s *strip) fill(req PaintRequest) {
	if f, ok := s.ctx.Shaper.(shaping.Filler); ok {
		f.Fill(req.Rect(), req.Style.Style)
	}
}

// labelWidth measures text in the named style. A failed measurement is
// reported and falls back to one unit per rune.
func (s *strip) labelWidth(margin, text, styleName string) int {
	m, err := s.labels.measure(text, s.ctx.Styles.Resolve(styleName))
	if err != nil {
		s.ctx.Reporter.Report(report.ConditionMeasurementFailure, err, report.Context{
			"margin": margin,
			"label":  text,
		})
		return len([]rune(text))
	}
	return m.Width
}

// paintLabel paints text at (x, req.Y) using the request's style.
func (s *strip) paintLabel(req PaintRequest, text string, x int) error {
	m, err := s.labels.measure(text, req.Style)
	if err != nil {
		return err
	}
	return s.ctx.Shaper.Paint(m.Layout, x, req.Y)
}

// Close releases every cached label.
func (s *strip) Close() {
	s.labels.flush()
}
