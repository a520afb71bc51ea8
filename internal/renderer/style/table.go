// Package style provides the style table the renderer resolves semantic style
// names against. Every change to the table bumps a global fingerprint that the
// line cache and margin label caches compare against to detect stale layouts.
package style

import (
	"sort"
	"strings"
	"sync"

	"github.com/dshills/lineview/internal/renderer/core"
)

// Well-known style names used by the renderer components.
const (
	NameDefault           = "default"
	NameText              = "text"
	NameLineNumber        = "margin.line_number"
	NameLineNumberCurrent = "margin.line_number.current"
	NameMarker            = "margin.marker"
	NameFold              = "margin.fold"
)

// FontSpec selects the face a shaper measures and paints with.
// An empty Family selects the shaper's built-in face.
type FontSpec struct {
	Family string
	Size   float64
}

// Spacing adds extra room around shaped text, in surface units.
type Spacing struct {
	// Line is added to the measured height of each line.
	Line int
	// Letter is added after every grapheme.
	Letter int
}

// Descriptor is a fully resolved visual style.
type Descriptor struct {
	Name    string
	Font    FontSpec
	Style   core.Style
	Spacing Spacing
}

// Equals reports whether two descriptors would shape identically.
func (d Descriptor) Equals(other Descriptor) bool {
	return d.Font == other.Font && d.Spacing == other.Spacing && d.Style.Equals(other.Style)
}

// Table maps semantic style names to descriptors.
//
// Lookups fall back along dotted names: "margin.marker.error" resolves to
// "margin.marker" and then "default" when the more specific entry is absent.
type Table struct {
	mu          sync.RWMutex
	styles      map[string]Descriptor
	fingerprint uint64

	listeners  map[int]func(fingerprint uint64)
	nextListen int
}

// NewTable creates an empty table holding only a default descriptor.
func NewTable() *Table {
	return &Table{
		styles: map[string]Descriptor{
			NameDefault: {Name: NameDefault, Style: core.DefaultStyle()},
		},
		fingerprint: 1,
		listeners:   make(map[int]func(uint64)),
	}
}

// DefaultTable returns a table populated with a dark theme.
func DefaultTable() *Table {
	t := NewTable()

	bg := core.ColorFromRGB(30, 30, 30)
	fg := core.ColorFromRGB(212, 212, 212)
	dim := fg.Blend(bg, 0.55)

	t.styles[NameDefault] = Descriptor{Name: NameDefault, Style: core.Style{Foreground: fg, Background: bg}}
	t.styles[NameText] = Descriptor{Name: NameText, Style: core.Style{Foreground: fg, Background: bg}}
	t.styles[NameLineNumber] = Descriptor{Name: NameLineNumber, Style: core.Style{Foreground: dim, Background: bg}}
	t.styles[NameLineNumberCurrent] = Descriptor{
		Name:  NameLineNumberCurrent,
		Style: core.Style{Foreground: fg, Background: bg, Attributes: core.AttrBold},
	}
	t.styles[NameMarker] = Descriptor{Name: NameMarker, Style: core.Style{Foreground: dim, Background: bg}}
	t.styles[NameMarker+".error"] = Descriptor{Name: NameMarker + ".error", Style: core.Style{Foreground: core.ColorFromRGB(244, 71, 71), Background: bg}}
	t.styles[NameMarker+".warning"] = Descriptor{Name: NameMarker + ".warning", Style: core.Style{Foreground: core.ColorFromRGB(205, 173, 0), Background: bg}}
	t.styles[NameMarker+".info"] = Descriptor{Name: NameMarker + ".info", Style: core.Style{Foreground: core.ColorFromRGB(55, 148, 255), Background: bg}}
	t.styles[NameMarker+".vcs"] = Descriptor{Name: NameMarker + ".vcs", Style: core.Style{Foreground: core.ColorFromRGB(87, 166, 74), Background: bg}}
	t.styles[NameFold] = Descriptor{Name: NameFold, Style: core.Style{Foreground: dim, Background: bg}}

	return t
}

// Resolve returns the descriptor for name, walking up dotted parents and
// finally falling back to the default descriptor. The returned Name is the
// requested name, not the one that matched.
func (t *Table) Resolve(name string) Descriptor {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for n := name; n != ""; n = parentName(n) {
		if d, ok := t.styles[n]; ok {
			d.Name = name
			return d
		}
	}
	d := t.styles[NameDefault]
	d.Name = name
	return d
}

// Has reports whether name has its own entry (without fallback).
func (t *Table) Has(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.styles[name]
	return ok
}

// Names returns all defined style names in sorted order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.styles))
	for n := range t.styles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Set defines or replaces a single style and bumps the fingerprint.
func (t *Table) Set(name string, d Descriptor) {
	t.mu.Lock()
	d.Name = name
	if old, ok := t.styles[name]; ok && old.Equals(d) {
		t.mu.Unlock()
		return
	}
	t.styles[name] = d
	fp := t.bump()
	listeners := t.snapshotListeners()
	t.mu.Unlock()

	notify(listeners, fp)
}

// Replace swaps the whole table contents (theme change) and bumps the fingerprint.
// A default entry is kept if the replacement lacks one.
func (t *Table) Replace(styles map[string]Descriptor) {
	next := make(map[string]Descriptor, len(styles)+1)
	for name, d := range styles {
		d.Name = name
		next[name] = d
	}
	if _, ok := next[NameDefault]; !ok {
		next[NameDefault] = Descriptor{Name: NameDefault, Style: core.DefaultStyle()}
	}

	t.mu.Lock()
	t.styles = next
	fp := t.bump()
	listeners := t.snapshotListeners()
	t.mu.Unlock()

	notify(listeners, fp)
}

// Fingerprint identifies the current table contents. It changes on every
// effective mutation and never repeats.
func (t *Table) Fingerprint() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fingerprint
}

// Subscribe registers fn to be called with the new fingerprint after each change.
// The returned function removes the subscription.
func (t *Table) Subscribe(fn func(fingerprint uint64)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextListen
	t.nextListen++
	t.listeners[id] = fn

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.listeners, id)
	}
}

// bump must be called with the write lock held.
func (t *Table) bump() uint64 {
	t.fingerprint++
	return t.fingerprint
}

// snapshotListeners must be called with the lock held.
func (t *Table) snapshotListeners() []func(uint64) {
	ids := make([]int, 0, len(t.listeners))
	for id := range t.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(uint64), 0, len(ids))
	for _, id := range ids {
		out = append(out, t.listeners[id])
	}
	return out
}

func notify(listeners []func(uint64), fp uint64) {
	for _, fn := range listeners {
		fn(fp)
	}
}

// parentName strips the last dotted segment; "a.b.c" -> "a.b", "a" -> "".
func parentName(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[:i]
}
