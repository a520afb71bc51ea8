package renderer

import (
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/linecache"
	"github.com/dshills/lineview/internal/renderer/report"
	"github.com/dshills/lineview/internal/renderer/shaping"
	"github.com/dshills/lineview/internal/renderer/style"
)

// maxSettle bounds the clamp/measure iterations of one pass.
const maxSettle = 16

// Render runs one render pass: clamp the viewport, measure the visible lines,
// lay out the margins and paint every visible line top to bottom.
//
// Measurement failures do not abort the pass. The line gets the fallback
// height, its text is left blank, and each failing line is reported once.
func (r *Renderer) Render() (Frame, error) {
	start := time.Now()
	r.pass++
	clear(r.failed)
	snap := r.dirty.Take()

	count := r.ctx.Buffer.LineCount()
	if r.styleChanged.Swap(false) {
		r.heights.SetEstimate(r.estimate())
		r.heights.Reset(count)
	}
	if r.heights.Len() != count {
		r.ctx.Reporter.Report(report.ConditionInconsistentState, nil, report.Context{
			"op":       "render",
			"heights":  r.heights.Len(),
			"buffered": count,
		})
		r.heights.Reset(count)
	}

	visible := r.settle(count)
	scrollY := r.view.ScrollY()

	r.cache.Pin(visible)
	if n := r.cache.Config().PrefetchLines; n > 0 {
		r.cache.Prefetch(core.NewRange(visible.Start-n, visible.Start))
		r.cache.Prefetch(core.NewRange(visible.End, visible.End+n))
	}

	r.composer.SetWidth(r.view.Width())
	layout, err := r.composer.Layout(visible)
	if err != nil {
		return Frame{}, err
	}

	frame := Frame{
		Pass:          r.pass,
		Visible:       visible,
		Layout:        layout,
		ContentHeight: r.heights.Total(),
		ScrollY:       scrollY,
	}
	frame.FullRepaint = snap.FullRedraw || !r.drawn ||
		frame.ScrollY != r.last.ScrollY ||
		frame.Visible != r.last.Visible ||
		frame.ContentHeight != r.last.ContentHeight ||
		!frame.Layout.Equals(r.last.Layout)

	if frame.FullRepaint {
		r.clearSurface()
	}

	var paintErrs int
	for line := visible.Start; line < visible.End; line++ {
		if !frame.FullRepaint && !snap.LineDirty(line) {
			continue
		}
		y := r.heights.Offset(line) - scrollY
		if err := r.composer.DispatchPaint(line, y, r.heights.Height(line)); err != nil {
			// already reported by the composer
			paintErrs++
			r.log.Debug("paint failed", zap.Int("line", line), zap.Error(err))
		}
		frame.Painted++
	}

	for line := range r.failed {
		frame.Failed = append(frame.Failed, line)
	}
	slices.Sort(frame.Failed)

	if frame.ContentHeight != r.lastContent {
		r.lastContent = frame.ContentHeight
		if r.scrollOwner != nil {
			r.scrollOwner.ContentHeightChanged(frame.ContentHeight)
		}
	}

	r.last = frame
	r.drawn = true

	stats := r.cache.Stats()
	ds := r.dirty.Stats()
	r.log.Debug("render pass",
		zap.Uint64("pass", frame.Pass),
		zap.Stringer("visible", frame.Visible),
		zap.Int("scroll_y", frame.ScrollY),
		zap.Int("content_height", frame.ContentHeight),
		zap.Int("painted", frame.Painted),
		zap.Bool("full", frame.FullRepaint),
		zap.Int("failed", len(frame.Failed)),
		zap.Int("paint_errors", paintErrs),
		zap.Uint64("hits", stats.Hits),
		zap.Uint64("misses", stats.Misses),
		zap.Int("resident", stats.Resident),
		zap.Uint64("dirty_marks", ds.Marks),
		zap.Uint64("redraw_requests", ds.Requests),
		zap.Duration("elapsed", time.Since(start)),
	)
	return frame, nil
}

// settle clamps the scroll offset and measures the lines it exposes until
// the content height stops moving. The requested offset is reapplied on every
// round. An offset at or past the end stays anchored on the measured last page.
func (r *Renderer) settle(count int) core.Range {
	want := r.view.ScrollY()
	r.view.SetContentHeight(r.heights.Total())
	atEnd := want > 0 && want >= r.view.MaxScroll()

	var visible core.Range
	for range maxSettle {
		if atEnd {
			r.measureTail(count, r.view.Height())
			r.view.SetContentHeight(r.heights.Total())
			r.view.ScrollToBottom()
		} else {
			r.view.SetContentHeight(r.heights.Total())
			r.view.ScrollTo(want)
			r.view.Clamp()
		}

		total := r.heights.Total()
		visible = r.measureVisible(count, r.view.ScrollY(), r.view.Height())
		if r.heights.Total() == total {
			break
		}
	}
	r.view.SetContentHeight(r.heights.Total())
	if r.view.Clamp() {
		visible = r.measureVisible(count, r.view.ScrollY(), r.view.Height())
	}
	return visible
}

// measureVisible measures lines from the one at scrollY until the viewport
// is covered and returns the range of lines intersecting it. The lines
// measured so far stay pinned so a miss cannot evict them.
func (r *Renderer) measureVisible(count, scrollY, height int) core.Range {
	if count == 0 || height <= 0 {
		return core.Range{}
	}

	first := r.heights.LineAt(scrollY)
	bottom := scrollY + height
	y := r.heights.Offset(first)
	line := first
	for line < count && y < bottom {
		r.cache.Pin(core.Range{Start: first, End: line + 1})
		y += r.measure(line)
		line++
	}
	return core.Range{Start: first, End: line}
}

// measureTail measures lines upward from the last one until they cover
// height rows, so the last page has real heights before it is clamped to.
func (r *Renderer) measureTail(count, height int) {
	filled := 0
	for line := count - 1; line >= 0 && filled < height; line-- {
		r.cache.Pin(core.Range{Start: line, End: count})
		filled += r.measure(line)
	}
}

// measure returns the height of line, measuring it through the cache and
// recording the result in the height index.
func (r *Renderer) measure(line int) int {
	if _, failed := r.failed[line]; failed {
		return r.heights.Height(line)
	}

	e, err := r.cache.Get(line)
	if err != nil {
		r.failed[line] = struct{}{}
		cond := report.ConditionMeasurementFailure
		if errors.Is(err, linecache.ErrOutOfRange) {
			cond = report.ConditionOutOfRange
		}
		r.ctx.Reporter.Report(cond, err, report.Context{
			"line": line,
			"pass": r.pass,
		})
		h := r.fallbackHeight()
		r.heights.Set(line, h)
		return h
	}

	r.heights.Set(line, e.Height)
	return e.Height
}

// clearSurface fills the whole viewport with the default background when the
// shaper can fill.
func (r *Renderer) clearSurface() {
	f, ok := r.ctx.Shaper.(shaping.Filler)
	if !ok {
		return
	}
	d := r.ctx.Styles.Resolve(style.NameDefault)
	f.Fill(core.Rect{Width: r.view.Width(), Height: r.view.Height()}, d.Style)
}
