package margin

import (
	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/display"
	"github.com/dshills/lineview/internal/renderer/style"
)

// FoldState is the fold state of a line.
type FoldState uint8

const (
	// FoldNone means no fold starts on the line.
	FoldNone FoldState = iota
	// FoldOpen means an expanded fold starts on the line.
	FoldOpen
	// FoldClosed means a collapsed fold starts on the line.
	FoldClosed
)

// Glyph returns the indicator painted for the state.
func (s FoldState) Glyph() string {
	switch s {
	case FoldOpen:
		return "▾"
	case FoldClosed:
		return "▸"
	default:
		return ""
	}
}

// FoldProvider supplies the fold state of lines.
type FoldProvider interface {
	FoldAt(line int) FoldState
}

// FoldSet is an in-memory FoldProvider.
type FoldSet map[int]FoldState

// FoldAt implements FoldProvider.
func (s FoldSet) FoldAt(line int) FoldState {
	return s[line]
}

// Toggle flips an existing fold between open and closed.
func (s FoldSet) Toggle(line int) {
	switch s[line] {
	case FoldOpen:
		s[line] = FoldClosed
	case FoldClosed:
		s[line] = FoldOpen
	}
}

// FoldingConfig holds fold margin configuration.
type FoldingConfig struct {
	Padding       int
	HideWhenEmpty bool
}

// DefaultFoldingConfig returns the default fold margin configuration.
func DefaultFoldingConfig() FoldingConfig {
	return FoldingConfig{Padding: 1, HideWhenEmpty: false}
}

// Folding is the fold indicator margin.
type Folding struct {
	strip
	config   FoldingConfig
	provider FoldProvider
}

// NewFolding creates a fold margin. A nil provider shows nothing.
func NewFolding(ctx display.Context, provider FoldProvider, config FoldingConfig) *Folding {
	config.Padding = max(config.Padding, 0)
	return &Folding{
		strip:    newStrip(ctx, 8),
		config:   config,
		provider: provider,
	}
}

// Name implements Margin.
func (f *Folding) Name() string { return "folding" }

// StyleName implements Margin.
func (f *Folding) StyleName() string { return style.NameFold }

// SetProvider replaces the fold provider.
func (f *Folding) SetProvider(p FoldProvider) {
	f.provider = p
}

func (f *Folding) state(line int) FoldState {
	if f.provider == nil {
		return FoldNone
	}
	return f.provider.FoldAt(line)
}

// ComputeWidth implements Margin.
func (f *Folding) ComputeWidth(visible core.Range) int {
	r := visible.Clamp(f.ctx.Buffer.LineCount())

	found := false
	for line := r.Start; line < r.End; line++ {
		if f.state(line) != FoldNone {
			found = true
			break
		}
	}
	if !found && f.config.HideWhenEmpty {
		return 0
	}

	widest := max(
		f.labelWidth(f.Name(), FoldOpen.Glyph(), style.NameFold),
		f.labelWidth(f.Name(), FoldClosed.Glyph(), style.NameFold),
	)
	return widest + f.config.Padding
}

// Paint implements Margin.
func (f *Folding) Paint(req PaintRequest) error {
	f.fill(req)

	s := f.state(req.Line)
	if s == FoldNone {
		return nil
	}
	return f.paintLabel(req, s.Glyph(), req.X)
}
