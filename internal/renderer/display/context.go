// Package display defines the shared context the renderer components are
// constructed with, and the host callbacks they use to ask for redraws and
// publish scroll extents.
package display

import (
	"go.uber.org/zap"

	"github.com/dshills/lineview/internal/renderer/buffer"
	"github.com/dshills/lineview/internal/renderer/report"
	"github.com/dshills/lineview/internal/renderer/shaping"
	"github.com/dshills/lineview/internal/renderer/style"
)

// RedrawSink is implemented by the host to schedule a render pass.
// Calls are coalescing requests; the host decides when to call Render.
type RedrawSink interface {
	RequestRedraw()
}

// RedrawFunc adapts a function to RedrawSink.
type RedrawFunc func()

// RequestRedraw calls f.
func (f RedrawFunc) RequestRedraw() { f() }

// ScrollRangeOwner is notified when the total content height changes so it
// can update scrollbars or scroll limits.
type ScrollRangeOwner interface {
	ContentHeightChanged(total int)
}

// Context aggregates the collaborators shared by the cache, margins and
// render driver. It is owned by the host and passed down explicitly.
type Context struct {
	Buffer   buffer.LineBuffer
	Styles   *style.Table
	Shaper   shaping.Shaper
	Redraw   RedrawSink
	Reporter report.Reporter
	Logger   *zap.Logger
}

// WithDefaults returns a copy of c with nil optional collaborators replaced:
// a default style table, a discarding reporter, a no-op redraw sink and a
// no-op logger. Buffer and Shaper are required and left untouched.
func (c Context) WithDefaults() Context {
	if c.Styles == nil {
		c.Styles = style.DefaultTable()
	}
	if c.Reporter == nil {
		c.Reporter = report.Discard
	}
	if c.Redraw == nil {
		c.Redraw = RedrawFunc(func() {})
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Validate reports missing required collaborators.
func (c Context) Validate() error {
	switch {
	case c.Buffer == nil:
		return ErrNoBuffer
	case c.Shaper == nil:
		return ErrNoShaper
	}
	return nil
}
