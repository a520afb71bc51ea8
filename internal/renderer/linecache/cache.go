// Package linecache provides the bounded per-line layout cache. Lines are
// measured lazily through the shaper, kept while they stay near the viewport,
// and reindexed in place when the buffer inserts or deletes lines so that
// unaffected lines are never re-measured.
package linecache

import (
	"go.uber.org/zap"

	"github.com/dshills/lineview/internal/logging"
	"github.com/dshills/lineview/internal/renderer/buffer"
	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/display"
	"github.com/dshills/lineview/internal/renderer/report"
	"github.com/dshills/lineview/internal/renderer/shaping"
	"github.com/dshills/lineview/internal/renderer/style"
)

// DefaultMaxEntries is four 64-line viewports.
const DefaultMaxEntries = 256

// Config configures the line cache behavior.
type Config struct {
	// MaxEntries is the resident entry bound. The bound grows to the pinned
	// range when a viewport shows more lines than this.
	MaxEntries int

	// PrefetchLines is the number of lines to measure above and below the
	// visible range.
	PrefetchLines int

	// StyleName is the style the text column is measured with.
	StyleName string
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxEntries:    DefaultMaxEntries,
		PrefetchLines: 8,
		StyleName:     style.NameText,
	}
}

// Entry is a measured line.
type Entry struct {
	// Line is the buffer line the entry describes.
	Line int
	// Height and Width are the measured extent in surface units.
	Height int
	Width  int
	// Layout is the shaped layout. It is owned by the cache and must not be
	// released or retained by callers past the next cache mutation.
	Layout shaping.Layout
	// StyleName is the style the line was measured with.
	StyleName string
	// StyleFingerprint is the style table fingerprint at measurement time.
	StyleFingerprint uint64
}

// Stats reports cache counters.
type Stats struct {
	Hits            uint64
	Misses          uint64
	Evictions       uint64
	Releases        uint64
	MeasureFailures uint64
	Resident        int
}

type slot struct {
	entry    Entry
	textHash uint64
}

// Cache is the line layout cache.
//
// Entries live in a slot arena indexed by line. The cache is not safe for
// concurrent use; buffer changes must be delivered on the render goroutine.
type Cache struct {
	config   Config
	buf      buffer.LineBuffer
	styles   *style.Table
	shaper   shaping.Shaper
	reporter report.Reporter
	log      *zap.Logger

	slots []slot
	index map[int]int
	free  []int

	pinned    core.Range
	lastLine  int
	lineCount int

	stats Stats
}

// New creates a cache reading from ctx's buffer and shaper.
func New(ctx display.Context, config Config) (*Cache, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	ctx = ctx.WithDefaults()

	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultMaxEntries
	}
	if config.PrefetchLines < 0 {
		config.PrefetchLines = 0
	}
	if config.StyleName == "" {
		config.StyleName = style.NameText
	}

	return &Cache{
		config:    config,
		buf:       ctx.Buffer,
		styles:    ctx.Styles,
		shaper:    ctx.Shaper,
		reporter:  ctx.Reporter,
		log:       logging.WithComponent(ctx.Logger, "linecache"),
		index:     make(map[int]int),
		lineCount: ctx.Buffer.LineCount(),
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// SetStyleName changes the style lines are measured with. Resident entries
// are re-measured lazily on their next Get.
func (c *Cache) SetStyleName(name string) {
	if name == "" {
		name = style.NameText
	}
	c.config.StyleName = name
}

// Get returns the entry for line, measuring it if it is absent or stale.
//
// A resident entry is stale when the line's text, the style name or the
// style table fingerprint changed since it was measured. If measurement
// fails the stale entry is dropped and a *MeasurementError is returned.
func (c *Cache) Get(line int) (Entry, error) {
	count := c.buf.LineCount()
	if line < 0 || line >= count {
		return Entry{}, &RangeError{Line: line, Count: count}
	}

	text := c.buf.LineText(line)
	hash := hashContent(text)
	fp := c.styles.Fingerprint()
	name := c.config.StyleName

	idx, resident := c.index[line]
	if resident {
		s := &c.slots[idx]
		if s.textHash == hash && s.entry.StyleFingerprint == fp && s.entry.StyleName == name {
			c.stats.Hits++
			c.lastLine = line
			return s.entry, nil
		}
	}
	c.stats.Misses++

	m, err := c.shaper.Measure(text, c.styles.Resolve(name))
	if err != nil {
		c.stats.MeasureFailures++
		if resident {
			c.drop(line)
		}
		return Entry{}, &MeasurementError{Line: line, Err: err}
	}

	if resident {
		c.release(&c.slots[idx])
	} else {
		idx = c.alloc()
		c.index[line] = idx
	}

	c.slots[idx] = slot{
		entry: Entry{
			Line:             line,
			Height:           m.Height,
			Width:            m.Width,
			Layout:           m.Layout,
			StyleName:        name,
			StyleFingerprint: fp,
		},
		textHash: hash,
	}
	c.lastLine = line
	c.evict()

	return c.slots[idx].entry, nil
}

// Peek returns the resident entry for line without measuring or validating it.
func (c *Cache) Peek(line int) (Entry, bool) {
	idx, ok := c.index[line]
	if !ok {
		return Entry{}, false
	}
	return c.slots[idx].entry, true
}

// Resident reports whether line has an entry.
func (c *Cache) Resident(line int) bool {
	_, ok := c.index[line]
	return ok
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	return len(c.index)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Resident = len(c.index)
	return s
}

// Pin protects the lines of r from eviction until the next Pin.
func (c *Cache) Pin(r core.Range) {
	c.pinned = r
}

// Pinned returns the pinned range.
func (c *Cache) Pinned() core.Range {
	return c.pinned
}

// Invalidate drops the entries of r. A range reaching outside the buffer is
// clamped and reported as inconsistent.
func (c *Cache) Invalidate(r core.Range) {
	count := c.buf.LineCount()
	clamped := r.Clamp(count)
	if clamped != r && !(r.IsEmpty() && clamped.IsEmpty()) {
		c.inconsistent(&InconsistentStateError{Op: "invalidate", Old: r, New: clamped, Count: count, Expected: count})
	}

	if clamped.Len() <= len(c.index) {
		for line := clamped.Start; line < clamped.End; line++ {
			c.drop(line)
		}
	} else {
		for _, line := range c.residentLines() {
			if clamped.Contains(line) {
				c.drop(line)
			}
		}
	}
	c.purgeOutside(count)
}

// InvalidateAll drops every entry. Use it when fonts or themes change in a
// way the style fingerprint does not capture.
func (c *Cache) InvalidateAll() {
	for _, line := range c.residentLines() {
		c.drop(line)
	}
}

// Reindex adjusts the cache after the lines of before were replaced by the
// lines of after, changing the buffer's line count by delta.
//
// Entries inside before are dropped. Entries at or after before.End move by
// delta and keep their measurements. If the arguments disagree with each other or
// with the buffer's line count, every entry from the start of the change on
// is purged and the call is reported as inconsistent.
func (c *Cache) Reindex(before, after core.Range, delta int) {
	count := c.buf.LineCount()
	expected := c.lineCount + delta

	consistent := before.Start == after.Start &&
		before.Start >= 0 && before.End <= c.lineCount && before.End >= before.Start &&
		after.End >= after.Start &&
		after.Len()-before.Len() == delta &&
		count == expected

	if !consistent {
		c.inconsistent(&InconsistentStateError{
			Op:       "reindex",
			Old:      before,
			New:      after,
			Delta:    delta,
			Count:    count,
			Expected: expected,
		})
		c.purgeFrom(max(min(before.Start, after.Start), 0))
		c.purgeOutside(count)
		c.lineCount = count
		return
	}

	moved := make(map[int]int, len(c.index))
	for line, idx := range c.index {
		switch {
		case before.Contains(line):
			c.release(&c.slots[idx])
			c.freeSlot(idx)
		case line >= before.End:
			c.slots[idx].entry.Line = line + delta
			moved[line+delta] = idx
		default:
			moved[line] = idx
		}
	}
	c.index = moved

	if c.lastLine >= before.End {
		c.lastLine += delta
	}
	c.purgeOutside(count)
	c.lineCount = count
}

// ApplyChange translates a buffer change into Invalidate or Reindex.
func (c *Cache) ApplyChange(ch buffer.Change) {
	if ch.Kind == buffer.ChangeReplace && ch.OldCount == ch.NewCount {
		c.Invalidate(ch.Before())
		return
	}
	c.Reindex(ch.Before(), ch.After(), ch.Delta())
}

// Prefetch measures the non-resident lines of r, stopping once the cache is
// full. Failures are ignored; the line is measured again when it becomes
// visible.
func (c *Cache) Prefetch(r core.Range) {
	r = r.Clamp(c.buf.LineCount())
	last := c.lastLine
	defer func() { c.lastLine = last }()

	for line := r.Start; line < r.End; line++ {
		if len(c.index) >= c.bound() {
			return
		}
		if c.Resident(line) {
			continue
		}
		_, _ = c.Get(line)
	}
}

// Reset releases every layout and clears the cache.
func (c *Cache) Reset() {
	c.InvalidateAll()
	c.slots = nil
	c.free = nil
	c.index = make(map[int]int)
	c.pinned = core.Range{}
	c.lineCount = c.buf.LineCount()
}

// Close releases every layout. The cache may be reused afterwards.
func (c *Cache) Close() error {
	c.Reset()
	return nil
}

// bound returns the effective entry bound.
func (c *Cache) bound() int {
	return max(c.config.MaxEntries, c.pinned.Len())
}

// evict removes entries while the cache exceeds its bound. The victim is
// the resident line farthest from the most recently requested line, ties
// going to the later line. Pinned lines and the requested line are kept.
func (c *Cache) evict() {
	bound := c.bound()
	for len(c.index) > bound {
		victim, victimDist := -1, -1
		for line := range c.index {
			if line == c.lastLine || c.pinned.Contains(line) {
				continue
			}
			d := line - c.lastLine
			if d < 0 {
				d = -d
			}
			if d > victimDist || (d == victimDist && line > victim) {
				victim, victimDist = line, d
			}
		}
		if victim < 0 {
			return
		}
		c.drop(victim)
		c.stats.Evictions++
	}
}

// purgeFrom drops every entry at or after line.
func (c *Cache) purgeFrom(line int) {
	for _, l := range c.residentLines() {
		if l >= line {
			c.drop(l)
		}
	}
}

// purgeOutside drops entries outside [0, count).
func (c *Cache) purgeOutside(count int) {
	for _, l := range c.residentLines() {
		if l < 0 || l >= count {
			c.drop(l)
		}
	}
}

func (c *Cache) residentLines() []int {
	lines := make([]int, 0, len(c.index))
	for l := range c.index {
		lines = append(lines, l)
	}
	return lines
}

// drop removes line's entry and releases its layout.
func (c *Cache) drop(line int) {
	idx, ok := c.index[line]
	if !ok {
		return
	}
	delete(c.index, line)
	c.release(&c.slots[idx])
	c.freeSlot(idx)
}

func (c *Cache) release(s *slot) {
	if s.entry.Layout != nil {
		s.entry.Layout.Release()
		s.entry.Layout = nil
		c.stats.Releases++
	}
}

func (c *Cache) alloc() int {
	if n := len(c.free); n > 0 {
		idx := c.free[n-1]
		c.free = c.free[:n-1]
		return idx
	}
	c.slots = append(c.slots, slot{})
	return len(c.slots) - 1
}

func (c *Cache) freeSlot(idx int) {
	c.slots[idx] = slot{}
	c.free = append(c.free, idx)
}

func (c *Cache) inconsistent(err *InconsistentStateError) {
	c.log.Debug("clamped cache maintenance", zap.Error(err))
	c.reporter.Report(report.ConditionInconsistentState, err, report.Context{
		"op":    err.Op,
		"old":   err.Old.String(),
		"new":   err.New.String(),
		"delta": err.Delta,
		"count": err.Count,
	})
}

// hashContent returns the FNV-1a hash of s.
func hashContent(s string) uint64 {
	var hash uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= 1099511628211
	}
	return hash
}
