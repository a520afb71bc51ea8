package margin

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/display"
	"github.com/dshills/lineview/internal/renderer/report"
	"github.com/dshills/lineview/internal/renderer/style"
)

var (
	// ErrNoLayout is returned by DispatchPaint before the first Layout.
	ErrNoLayout = errors.New("margin: no layout computed")

	// ErrNoTextColumn is returned by Layout when the composer has no text column.
	ErrNoTextColumn = errors.New("margin: no text column")
)

// Direction is the display order of the margins.
type Direction uint8

const (
	// DirectionLTR paints margins in the order they were added.
	DirectionLTR Direction = iota
	// DirectionRTL paints margins in reverse order.
	DirectionRTL
)

// String returns the direction's configuration name.
func (d Direction) String() string {
	if d == DirectionRTL {
		return "rtl"
	}
	return "ltr"
}

// ParseDirection parses "ltr" or "rtl". Unknown names return false.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(s) {
	case "ltr", "":
		return DirectionLTR, true
	case "rtl":
		return DirectionRTL, true
	}
	return DirectionLTR, false
}

// TextColumn paints line content at the text origin.
type TextColumn interface {
	PaintText(req PaintRequest) error
}

// TextStyler is implemented by text columns drawn in a style other than
// style.NameText.
type TextStyler interface {
	TextStyleName() string
}

// Slot is a margin's horizontal position in a layout.
type Slot struct {
	Name  string
	X     int
	Width int
}

// Layout is the horizontal arrangement for one frame.
type Layout struct {
	Visible     core.Range
	Slots       []Slot
	TextOriginX int
}

// Width returns the summed margin width.
func (l Layout) Width() int {
	return l.TextOriginX
}

// Equals reports whether two layouts place everything identically.
func (l Layout) Equals(other Layout) bool {
	return l.Visible == other.Visible &&
		l.TextOriginX == other.TextOriginX &&
		slices.Equal(l.Slots, other.Slots)
}

// Composer orders the margins, sums their widths and dispatches paints.
type Composer struct {
	ctx       display.Context
	margins   []Margin
	text      TextColumn
	direction Direction
	width     int

	layout    Layout
	placed    []Margin
	hasLayout bool
}

// NewComposer creates a composer painting text through text.
func NewComposer(ctx display.Context, text TextColumn, margins ...Margin) *Composer {
	return &Composer{
		ctx:     ctx.WithDefaults(),
		text:    text,
		margins: slices.Clone(margins),
	}
}

// Add appends a margin.
func (c *Composer) Add(m Margin) {
	c.margins = append(c.margins, m)
}

// Margins returns the margins in insertion order.
func (c *Composer) Margins() []Margin {
	return slices.Clone(c.margins)
}

// Margin returns the margin with the given name.
func (c *Composer) Margin(name string) (Margin, bool) {
	for _, m := range c.margins {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// SetDirection sets the display order.
func (c *Composer) SetDirection(d Direction) {
	c.direction = d
}

// Direction returns the display order.
func (c *Composer) Direction() Direction {
	return c.direction
}

// SetWidth sets the surface width the text column extends to.
func (c *Composer) SetWidth(width int) {
	c.width = max(width, 0)
}

// SetTextColumn replaces the text column.
func (c *Composer) SetTextColumn(text TextColumn) {
	c.text = text
}

// Layout computes the margin slots for the visible range. Margins reporting
// width 0 are left out. The result depends only on the margins' state and
// the range.
func (c *Composer) Layout(visible core.Range) (Layout, error) {
	if c.text == nil {
		return Layout{}, ErrNoTextColumn
	}

	ordered := slices.Clone(c.margins)
	if c.direction == DirectionRTL {
		slices.Reverse(ordered)
	}

	l := Layout{Visible: visible}
	placed := make([]Margin, 0, len(ordered))
	x := 0
	for _, m := range ordered {
		w := m.ComputeWidth(visible)
		if w <= 0 {
			continue
		}
		l.Slots = append(l.Slots, Slot{Name: m.Name(), X: x, Width: w})
		placed = append(placed, m)
		x += w
	}
	l.TextOriginX = x

	c.layout = l
	c.placed = placed
	c.hasLayout = true
	return l, nil
}

// Current returns the last computed layout.
func (c *Composer) Current() (Layout, bool) {
	return c.layout, c.hasLayout
}

// DispatchPaint paints every slot of the current layout for line, left to
// right, then the text column. A failing margin is reported and the rest
// still paint; the failures are returned joined.
func (c *Composer) DispatchPaint(line, y, height int) error {
	if !c.hasLayout {
		return ErrNoLayout
	}

	var errs []error
	for i, slot := range c.layout.Slots {
		m := c.placed[i]
		req := PaintRequest{
			Line:   line,
			X:      slot.X,
			Y:      y,
			Width:  slot.Width,
			Height: height,
			Style:  c.resolve(m, line),
		}
		if err := m.Paint(req); err != nil {
			c.ctx.Reporter.Report(report.ConditionPaintFailure, err, report.Context{
				"margin": slot.Name,
				"line":   line,
			})
			errs = append(errs, fmt.Errorf("margin %s: %w", slot.Name, err))
		}
	}

	req := PaintRequest{
		Line:   line,
		X:      c.layout.TextOriginX,
		Y:      y,
		Width:  max(c.width-c.layout.TextOriginX, 0),
		Height: height,
		Style:  c.ctx.Styles.Resolve(c.textStyleName()),
	}
	if err := c.text.PaintText(req); err != nil {
		c.ctx.Reporter.Report(report.ConditionPaintFailure, err, report.Context{
			"margin": "text",
			"line":   line,
		})
		errs = append(errs, fmt.Errorf("text: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Composer) textStyleName() string {
	if ts, ok := c.text.(TextStyler); ok {
		if name := ts.TextStyleName(); name != "" {
			return name
		}
	}
	return style.NameText
}

func (c *Composer) resolve(m Margin, line int) style.Descriptor {
	name := m.StyleName()
	if ls, ok := m.(LineStyler); ok {
		name = ls.LineStyleName(line)
	}
	return c.ctx.Styles.Resolve(name)
}

// Close releases every margin's label cache.
func (c *Composer) Close() {
	for _, m := range c.margins {
		if cl, ok := m.(interface{ Close() }); ok {
			cl.Close()
		}
	}
}
