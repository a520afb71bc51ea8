package margin

import (
	"strconv"
	"strings"

	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/display"
	"github.com/dshills/lineview/internal/renderer/style"
)

// NumberMode defines how line numbers are displayed.
type NumberMode uint8

const (
	// NumberAbsolute shows absolute line numbers (1, 2, 3, ...).
	NumberAbsolute NumberMode = iota

	// NumberRelative shows distances from the current line, 0 on it.
	NumberRelative

	// NumberHybrid shows the absolute number on the current line and
	// distances elsewhere.
	NumberHybrid
)

// String returns the mode's configuration name.
func (m NumberMode) String() string {
	switch m {
	case NumberAbsolute:
		return "absolute"
	case NumberRelative:
		return "relative"
	case NumberHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// ParseNumberMode parses a mode name. Unknown names return false.
func ParseNumberMode(s string) (NumberMode, bool) {
	switch strings.ToLower(s) {
	case "absolute", "":
		return NumberAbsolute, true
	case "relative":
		return NumberRelative, true
	case "hybrid":
		return NumberHybrid, true
	}
	return NumberAbsolute, false
}

// LineNumbersConfig holds line number margin configuration.
type LineNumbersConfig struct {
	Mode NumberMode

	// MinDigits left-pads labels with spaces to at least this many runes.
	MinDigits int

	// Padding is added after the widest label, between it and the next strip.
	Padding int

	// WidthFromLineCount sizes the margin for the whole buffer instead of
	// the visible lines so the width does not change while scrolling.
	WidthFromLineCount bool

	// HighlightCurrent paints the current line's number in its own style.
	HighlightCurrent bool

	// MaxLabels bounds the label cache.
	MaxLabels int
}

// DefaultLineNumbersConfig returns the default line number configuration.
func DefaultLineNumbersConfig() LineNumbersConfig {
	return LineNumbersConfig{
		Mode:             NumberAbsolute,
		MinDigits:        3,
		Padding:          1,
		HighlightCurrent: true,
		MaxLabels:        DefaultMaxLabels,
	}
}

// LineNumbers is the line number margin.
type LineNumbers struct {
	strip
	config  LineNumbersConfig
	current int
}

// NewLineNumbers creates a line number margin.
func NewLineNumbers(ctx display.Context, config LineNumbersConfig) *LineNumbers {
	config.MinDigits = max(config.MinDigits, 0)
	config.Padding = max(config.Padding, 0)
	return &LineNumbers{
		strip:  newStrip(ctx, config.MaxLabels),
		config: config,
	}
}

// Name implements Margin.
func (n *LineNumbers) Name() string { return "line_numbers" }

// StyleName implements Margin.
func (n *LineNumbers) StyleName() string { return style.NameLineNumber }

// LineStyleName implements LineStyler.
func (n *LineNumbers) LineStyleName(line int) string {
	if n.config.HighlightCurrent && line == n.current {
		return style.NameLineNumberCurrent
	}
	return style.NameLineNumber
}

// Config returns the margin configuration.
func (n *LineNumbers) Config() LineNumbersConfig {
	return n.config
}

// SetMode changes the numbering mode.
func (n *LineNumbers) SetMode(mode NumberMode) {
	n.config.Mode = mode
}

// SetCurrentLine sets the line relative numbers are counted from.
func (n *LineNumbers) SetCurrentLine(line int) {
	n.current = max(line, 0)
}

// CurrentLine returns the current line.
func (n *LineNumbers) CurrentLine() int {
	return n.current
}

// Label returns the formatted label for line.
func (n *LineNumbers) Label(line int) string {
	return PadLeft(strconv.Itoa(n.number(line)), n.config.MinDigits)
}

func (n *LineNumbers) number(line int) int {
	switch n.config.Mode {
	case NumberRelative:
		return absDiff(line, n.current)
	case NumberHybrid:
		if line == n.current {
			return line + 1
		}
		return absDiff(line, n.current)
	default:
		return line + 1
	}
}

// ComputeWidth implements Margin: the widest measured label in the visible
// range (or, with WidthFromLineCount, the widest possible label) plus
// padding.
func (n *LineNumbers) ComputeWidth(visible core.Range) int {
	count := n.ctx.Buffer.LineCount()

	if n.config.WidthFromLineCount {
		widest := strconv.Itoa(max(count, 1))
		label := PadLeft(widest, n.config.MinDigits)
		return n.labelWidth(n.Name(), label, style.NameLineNumber) + n.config.Padding
	}

	r := visible.Clamp(count)
	if r.IsEmpty() {
		r = core.LineSpan(0, 1)
	}

	widest := 0
	for line := r.Start; line < r.End; line++ {
		widest = max(widest, n.labelWidth(n.Name(), n.Label(line), n.LineStyleName(line)))
	}
	return widest + n.config.Padding
}

// Paint implements Margin. Labels are right-aligned against the padding.
func (n *LineNumbers) Paint(req PaintRequest) error {
	n.fill(req)

	label := n.Label(req.Line)
	m, err := n.labels.measure(label, req.Style)
	if err != nil {
		return err
	}
	x := max(req.X+req.Width-n.config.Padding-m.Width, req.X)
	return n.paintLabel(req, label, x)
}

// PadLeft pads s with spaces on the left to width runes.
func PadLeft(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
