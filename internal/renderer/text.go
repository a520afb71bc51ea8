package renderer

import (
	"github.com/dshills/lineview/internal/renderer/margin"
	"github.com/dshills/lineview/internal/renderer/shaping"
)

// textColumn paints cached line layouts at the text origin.
type textColumn struct {
	r *Renderer
}

// TextStyleName implements margin.TextStyler. The column is filled in the
// style its lines are measured with.
func (t *textColumn) TextStyleName() string {
	return t.r.cache.Config().StyleName
}

// PaintText implements margin.TextColumn. Lines whose measurement failed in
// the current pass are painted blank.
func (t *textColumn) PaintText(req margin.PaintRequest) error {
	r := t.r
	if f, ok := r.ctx.Shaper.(shaping.Filler); ok {
		f.Fill(req.Rect(), req.Style.Style)
	}
	if _, failed := r.failed[req.Line]; failed {
		return nil
	}

	e, err := r.cache.Get(req.Line)
	if err != nil {
		return err
	}
	return r.ctx.Shaper.Paint(e.Layout, req.X, req.Y)
}
