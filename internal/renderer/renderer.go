package renderer

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/lineview/internal/logging"
	"github.com/dshills/lineview/internal/renderer/buffer"
	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/dirty"
	"github.com/dshills/lineview/internal/renderer/display"
	"github.com/dshills/lineview/internal/renderer/linecache"
	"github.com/dshills/lineview/internal/renderer/margin"
	"github.com/dshills/lineview/internal/renderer/report"
	"github.com/dshills/lineview/internal/renderer/shaping"
	"github.com/dshills/lineview/internal/renderer/viewport"
)

// Options configures the renderer.
type Options struct {
	// Width and Height are the initial viewport size in surface units.
	Width  int
	Height int

	// Cache configures the line layout cache.
	Cache linecache.Config

	// EstimatedLineHeight is assumed for lines never measured. 0 measures
	// an empty line in the text style.
	EstimatedLineHeight int

	// FallbackHeight is used for lines whose measurement failed. 0 uses the
	// estimate.
	FallbackHeight int

	// PageOverlap is kept visible when paging.
	PageOverlap int

	// Direction orders the margins.
	Direction margin.Direction

	// MaxDirtyRegions is the number of disjoint dirty ranges kept before a
	// pass falls back to a full repaint. 0 uses dirty.DefaultMaxRegions.
	MaxDirtyRegions int
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Width:       80,
		Height:      24,
		Cache:           linecache.DefaultConfig(),
		PageOverlap:     2,
		MaxDirtyRegions: dirty.DefaultMaxRegions,
	}
}

// Frame describes a completed render pass.
type Frame struct {
	// Pass is the pass sequence number, starting at 1.
	Pass uint64
	// Visible is the range of lines intersecting the viewport.
	Visible core.Range
	// Layout is the margin layout used for the pass.
	Layout margin.Layout
	// ContentHeight is the summed height of every line.
	ContentHeight int
	// ScrollY is the clamped scroll offset the pass painted at.
	ScrollY int
	// Failed lists lines whose measurement failed, in ascending order.
	Failed []int
	// Painted is the number of lines painted.
	Painted int
	// FullRepaint reports whether the whole surface was repainted.
	FullRepaint bool
}

// Renderer is the viewport render driver.
//
// It is not safe for concurrent use, with one exception: style table
// changes may arrive from any goroutine and are picked up on the next pass.
type Renderer struct {
	ctx  display.Context
	log  *zap.Logger
	opts Options

	cache    *linecache.Cache
	heights  *viewport.HeightIndex
	view     *viewport.Viewport
	composer *margin.Composer
	dirty    *dirty.Tracker

	scrollOwner display.ScrollRangeOwner
	lastContent int

	styleChanged atomic.Bool
	unsubBuffer  func()
	unsubStyles  func()

	pass   uint64
	failed map[int]struct{}
	last   Frame
	drawn  bool
}

// New creates a renderer over ctx. Margins can be passed here or added
// later through Composer.
func New(ctx display.Context, opts Options, margins ...margin.Margin) (*Renderer, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	ctx = ctx.WithDefaults()

	cache, err := linecache.New(ctx, opts.Cache)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		ctx:         ctx,
		log:         logging.WithComponent(ctx.Logger, "renderer"),
		opts:        opts,
		cache:       cache,
		view:        viewport.New(opts.Width, opts.Height),
		dirty:       dirty.NewTracker(),
		lastContent: -1,
		failed:      make(map[int]struct{}),
	}
	if opts.PageOverlap > 0 {
		r.view.SetPageOverlap(opts.PageOverlap)
	}
	if opts.MaxDirtyRegions > 0 {
		r.dirty.SetMaxRegions(opts.MaxDirtyRegions)
	}
	r.heights = viewport.NewHeightIndex(ctx.Buffer.LineCount(), r.estimate())

	r.composer = margin.NewComposer(ctx, &textColumn{r: r}, margins...)
	r.composer.SetDirection(opts.Direction)

	r.unsubBuffer = ctx.Buffer.OnChange(r.HandleChange)
	r.unsubStyles = ctx.Styles.Subscribe(func(uint64) {
		r.styleChanged.Store(true)
		r.mark(dirty.CauseStyle, core.Range{})
	})

	r.dirty.MarkFull()
	return r, nil
}

// estimate returns the height assumed for unmeasured lines.
func (r *Renderer) estimate() int {
	if r.opts.EstimatedLineHeight > 0 {
		return r.opts.EstimatedLineHeight
	}
	d := r.ctx.Styles.Resolve(r.cache.Config().StyleName)
	h, err := shaping.LineHeight(r.ctx.Shaper, d)
	if err != nil || h <= 0 {
		r.log.Debug("line height estimate unavailable", zap.Error(err))
		return 1
	}
	return h
}

func (r *Renderer) fallbackHeight() int {
	if r.opts.FallbackHeight > 0 {
		return r.opts.FallbackHeight
	}
	return r.heights.Estimate()
}

// mark records a dirty region and asks the host for a pass if the renderer
// was clean.
func (r *Renderer) mark(cause dirty.Cause, lines core.Range) {
	if r.dirty.Mark(cause, lines) {
		r.ctx.Redraw.RequestRedraw()
	}
}

// SetScrollRangeOwner sets who is told about content height changes.
func (r *Renderer) SetScrollRangeOwner(o display.ScrollRangeOwner) {
	r.scrollOwner = o
	r.lastContent = -1
}

// Composer returns the margin composer.
func (r *Renderer) Composer() *margin.Composer {
	return r.composer
}

// Cache returns the line layout cache.
func (r *Renderer) Cache() *linecache.Cache {
	return r.cache
}

// Viewport returns the viewport.
func (r *Renderer) Viewport() *viewport.Viewport {
	return r.view
}

// Heights returns the line height index.
func (r *Renderer) Heights() *viewport.HeightIndex {
	return r.heights
}

// Dirty returns the dirty tracker.
func (r *Renderer) Dirty() *dirty.Tracker {
	return r.dirty
}

// LastFrame returns the most recent frame.
func (r *Renderer) LastFrame() Frame {
	return r.last
}

// ScrollTo sets the scroll offset. Out-of-range offsets are clamped by the
// next pass.
func (r *Renderer) ScrollTo(y int) {
	r.view.ScrollTo(y)
	r.mark(dirty.CauseScroll, core.Range{})
}

// ScrollBy scrolls by dy from the clamped offset.
func (r *Renderer) ScrollBy(dy int) {
	r.view.ScrollBy(dy)
	r.mark(dirty.CauseScroll, core.Range{})
}

// ScrollLines scrolls by n estimated line heights.
func (r *Renderer) ScrollLines(n int) {
	r.ScrollBy(n * max(r.heights.Estimate(), 1))
}

// PageUp scrolls up one page.
func (r *Renderer) PageUp() {
	r.view.PageUp()
	r.mark(dirty.CauseScroll, core.Range{})
}

// PageDown scrolls down one page.
func (r *Renderer) PageDown() {
	r.view.PageDown()
	r.mark(dirty.CauseScroll, core.Range{})
}

// ScrollToTop scrolls to the first line.
func (r *Renderer) ScrollToTop() {
	r.view.ScrollToTop()
	r.mark(dirty.CauseScroll, core.Range{})
}

// ScrollToBottom scrolls to the last page.
func (r *Renderer) ScrollToBottom() {
	r.view.SetContentHeight(r.heights.Total())
	r.view.ScrollToBottom()
	r.mark(dirty.CauseScroll, core.Range{})
}

// ScrollToLine scrolls the minimum amount needed to show line. A line
// outside the buffer is reported and clamped.
func (r *Renderer) ScrollToLine(line int) {
	count := r.heights.Len()
	if count == 0 {
		return
	}
	if line < 0 || line >= count {
		r.ctx.Reporter.Report(report.ConditionOutOfRange, &linecache.RangeError{Line: line, Count: count}, report.Context{
			"op": "scroll_to_line",
		})
		line = min(max(line, 0), count-1)
	}
	r.view.SetContentHeight(r.heights.Total())
	r.view.Clamp()
	if r.view.EnsureVisible(r.heights.Offset(line), r.heights.Height(line)) {
		r.mark(dirty.CauseScroll, core.Range{})
	}
}

// Resize changes the viewport size. Negative sizes are clamped to 0 and
// reported.
func (r *Renderer) Resize(width, height int) {
	if r.view.Resize(width, height) {
		r.ctx.Reporter.Report(report.ConditionClamped, nil, report.Context{
			"op":     "resize",
			"width":  width,
			"height": height,
		})
	}
	r.mark(dirty.CauseResize, core.Range{})
}

// HandleChange keeps the cache and height index in step with a buffer edit.
// It is registered as the buffer listener by New and must run on the render
// goroutine.
func (r *Renderer) HandleChange(ch buffer.Change) {
	r.cache.ApplyChange(ch)

	if ch.Kind == buffer.ChangeReplace && ch.OldCount == ch.NewCount {
		for line := ch.Start; line < ch.Start+ch.NewCount; line++ {
			r.heights.Forget(line)
		}
		r.mark(dirty.CauseContent, ch.After())
		return
	}

	r.heights.Splice(ch.Start, ch.OldCount, ch.NewCount)
	r.mark(dirty.CauseStructure, ch.After())
}

// RequestRedraw asks for a full repaint on the next pass.
func (r *Renderer) RequestRedraw() {
	if r.dirty.MarkFull() {
		r.ctx.Redraw.RequestRedraw()
	}
}

// Close detaches from the buffer and style table and releases every layout.
func (r *Renderer) Close() error {
	if r.unsubBuffer != nil {
		r.unsubBuffer()
		r.unsubBuffer = nil
	}
	if r.unsubStyles != nil {
		r.unsubStyles()
		r.unsubStyles = nil
	}
	r.composer.Close()
	return r.cache.Close()
}
