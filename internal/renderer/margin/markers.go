package margin

import (
	"slices"

	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/display"
	"github.com/dshills/lineview/internal/renderer/style"
)

// MarkerKind is the kind of a per-line marker.
type MarkerKind uint8

const (
	MarkerNone MarkerKind = iota
	MarkerError
	MarkerWarning
	MarkerInfo
	MarkerBreakpoint
	MarkerBookmark
	MarkerVCSAdded
	MarkerVCSModified
	MarkerVCSDeleted
)

var markerKinds = []MarkerKind{
	MarkerError,
	MarkerWarning,
	MarkerInfo,
	MarkerBreakpoint,
	MarkerBookmark,
	MarkerVCSAdded,
	MarkerVCSModified,
	MarkerVCSDeleted,
}

// String returns the marker kind name.
func (k MarkerKind) String() string {
	switch k {
	case MarkerError:
		return "error"
	case MarkerWarning:
		return "warning"
	case MarkerInfo:
		return "info"
	case MarkerBreakpoint:
		return "breakpoint"
	case MarkerBookmark:
		return "bookmark"
	case MarkerVCSAdded:
		return "vcs.added"
	case MarkerVCSModified:
		return "vcs.modified"
	case MarkerVCSDeleted:
		return "vcs.deleted"
	default:
		return "none"
	}
}

// Priority returns the marker priority (higher wins).
func (k MarkerKind) Priority() int {
	switch k {
	case MarkerError:
		return 100
	case MarkerBreakpoint:
		return 90
	case MarkerWarning:
		return 80
	case MarkerInfo:
		return 70
	case MarkerBookmark:
		return 60
	case MarkerVCSDeleted:
		return 50
	case MarkerVCSModified:
		return 40
	case MarkerVCSAdded:
		return 30
	default:
		return 0
	}
}

// Glyph returns the text painted for the marker.
func (k MarkerKind) Glyph() string {
	switch k {
	case MarkerError:
		return "E"
	case MarkerWarning:
		return "W"
	case MarkerInfo:
		return "I"
	case MarkerBreakpoint:
		return "*"
	case MarkerBookmark:
		return "#"
	case MarkerVCSAdded:
		return "+"
	case MarkerVCSModified:
		return "~"
	case MarkerVCSDeleted:
		return "-"
	default:
		return ""
	}
}

// StyleName returns the style the marker is painted in, for example
// "margin.marker.error". Kinds without their own entry fall back to
// "margin.marker".
func (k MarkerKind) StyleName() string {
	if k == MarkerNone {
		return style.NameMarker
	}
	return style.NameMarker + "." + k.String()
}

// MarkerProvider supplies the markers on a line.
type MarkerProvider interface {
	MarkersAt(line int) []MarkerKind
}

// Top returns the highest priority marker, or MarkerNone.
func Top(kinds []MarkerKind) MarkerKind {
	best := MarkerNone
	for _, k := range kinds {
		if k.Priority() > best.Priority() {
			best = k
		}
	}
	return best
}

// MarkerSet is an in-memory MarkerProvider.
type MarkerSet struct {
	lines map[int][]MarkerKind
}

// NewMarkerSet creates an empty marker set.
func NewMarkerSet() *MarkerSet {
	return &MarkerSet{lines: make(map[int][]MarkerKind)}
}

// Add adds a marker to line. Duplicate kinds are ignored.
func (s *MarkerSet) Add(line int, kind MarkerKind) {
	if kind == MarkerNone || slices.Contains(s.lines[line], kind) {
		return
	}
	s.lines[line] = append(s.lines[line], kind)
}

// Remove removes a marker from line.
func (s *MarkerSet) Remove(line int, kind MarkerKind) {
	kinds := slices.DeleteFunc(s.lines[line], func(k MarkerKind) bool { return k == kind })
	if len(kinds) == 0 {
		delete(s.lines, line)
		return
	}
	s.lines[line] = kinds
}

// Clear removes every marker.
func (s *MarkerSet) Clear() {
	clear(s.lines)
}

// MarkersAt implements MarkerProvider.
func (s *MarkerSet) MarkersAt(line int) []MarkerKind {
	return s.lines[line]
}

// MarkersConfig holds marker margin configuration.
type MarkersConfig struct {
	Padding       int
	HideWhenEmpty bool
}

// DefaultMarkersConfig returns the default marker configuration.
func DefaultMarkersConfig() MarkersConfig {
	return MarkersConfig{Padding: 1, HideWhenEmpty: true}
}

// Markers is the marker margin. It shows the highest priority marker on
// each line.
type Markers struct {
	strip
	config   MarkersConfig
	provider MarkerProvider
}

// NewMarkers creates a marker margin. A nil provider shows nothing.
func NewMarkers(ctx display.Context, provider MarkerProvider, config MarkersConfig) *Markers {
	config.Padding = max(config.Padding, 0)
	return &Markers{
		strip:    newStrip(ctx, len(markerKinds)*4),
		config:   config,
		provider: provider,
	}
}

// Name implements Margin.
func (m *Markers) Name() string { return "markers" }

// StyleName implements Margin.
func (m *Markers) StyleName() string { return style.NameMarker }

// LineStyleName implements LineStyler.
func (m *Markers) LineStyleName(line int) string {
	return m.top(line).StyleName()
}

// SetProvider replaces the marker provider.
func (m *Markers) SetProvider(p MarkerProvider) {
	m.provider = p
}

func (m *Markers) top(line int) MarkerKind {
	if m.provider == nil {
		return MarkerNone
	}
	return Top(m.provider.MarkersAt(line))
}

// ComputeWidth implements Margin: the widest marker glyph present in the
// visible range plus padding. With no markers the margin is hidden when
// HideWhenEmpty is set, otherwise it reserves room for the widest glyph.
func (m *Markers) ComputeWidth(visible core.Range) int {
	r := visible.Clamp(m.ctx.Buffer.LineCount())

	widest, found := 0, false
	for line := r.Start; line < r.End; line++ {
		k := m.top(line)
		if k == MarkerNone {
			continue
		}
		found = true
		widest = max(widest, m.labelWidth(m.Name(), k.Glyph(), k.StyleName()))
	}

	if !found {
		if m.config.HideWhenEmpty {
			return 0
		}
		for _, k := range markerKinds {
			widest = max(widest, m.labelWidth(m.Name(), k.Glyph(), k.StyleName()))
		}
	}
	return widest + m.config.Padding
}

// Paint implements Margin.
func (m *Markers) Paint(req PaintRequest) error {
	m.fill(req)

	k := m.top(req.Line)
	if k == MarkerNone {
		return nil
	}
	return m.paintLabel(req, k.Glyph(), req.X)
}
