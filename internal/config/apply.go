package config

import (
	"slices"
	"strings"

	"github.com/dshills/lineview/internal/logging"
	"github.com/dshills/lineview/internal/renderer"
	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/display"
	"github.com/dshills/lineview/internal/renderer/linecache"
	"github.com/dshills/lineview/internal/renderer/margin"
	"github.com/dshills/lineview/internal/renderer/style"
)

// CacheConfig returns the line cache configuration.
func (c *Config) CacheConfig() linecache.Config {
	return linecache.Config{
		MaxEntries:    c.Cache.MaxEntries,
		PrefetchLines: c.Cache.PrefetchLines,
		StyleName:     c.Cache.TextStyle,
	}
}

// RendererOptions returns renderer options for a width x height viewport.
func (c *Config) RendererOptions(width, height int) renderer.Options {
	dir, _ := margin.ParseDirection(c.Margins.Direction)
	return renderer.Options{
		Width:               width,
		Height:              height,
		Cache:               c.CacheConfig(),
		EstimatedLineHeight: c.Viewport.EstimatedLineHeight,
		FallbackHeight:      c.Viewport.FallbackHeight,
		PageOverlap:         c.Viewport.PageOverlap,
		MaxDirtyRegions:     c.Viewport.MaxDirtyRegions,
		Direction:           dir,
	}
}

// LoggingConfig returns the logger configuration.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:       c.Log.Level,
		Development: c.Log.Development,
		OutputPaths: slices.Clone(c.Log.OutputPaths),
	}
}

// LineNumbersConfig returns the line number margin configuration.
func (c *Config) LineNumbersConfig() margin.LineNumbersConfig {
	ln := c.Margins.LineNumbers
	mode, _ := margin.ParseNumberMode(ln.Mode)
	return margin.LineNumbersConfig{
		Mode:               mode,
		MinDigits:          ln.MinDigits,
		Padding:            ln.Padding,
		WidthFromLineCount: ln.WidthFromLineCount,
		HighlightCurrent:   ln.HighlightCurrent,
		MaxLabels:          ln.MaxLabels,
	}
}

// BuildMargins builds the enabled margins in configured order. markers and folds
// may be nil when the host has nothing to show.
func (c *Config) BuildMargins(ctx display.Context, markers margin.MarkerProvider, folds margin.FoldProvider) []margin.Margin {
	var out []margin.Margin
	for _, name := range c.Margins.Order {
		switch name {
		case MarginLineNumbers:
			if c.Margins.LineNumbers.Enabled {
				out = append(out, margin.NewLineNumbers(ctx, c.LineNumbersConfig()))
			}
		case MarginMarkers:
			if c.Margins.Markers.Enabled {
				out = append(out, margin.NewMarkers(ctx, markers, margin.MarkersConfig{
					Padding:       c.Margins.Markers.Padding,
					HideWhenEmpty: c.Margins.Markers.HideWhenEmpty,
				}))
			}
		case MarginFolding:
			if c.Margins.Folding.Enabled {
				out = append(out, margin.NewFolding(ctx, folds, margin.FoldingConfig{
					Padding:       c.Margins.Folding.Padding,
					HideWhenEmpty: c.Margins.Folding.HideWhenEmpty,
				}))
			}
		}
	}
	return out
}

// StyleDescriptors returns the contents of base with the configured style
// overrides applied. An override starts from the entry's own descriptor, or
// from its nearest dotted parent when base has no such entry. Parents are
// applied first, so a new [styles."margin.marker.bookmark"] inherits an
// overridden [styles."margin.marker"].
func (c *Config) StyleDescriptors(base *style.Table) map[string]style.Descriptor {
	out := make(map[string]style.Descriptor)
	for _, name := range base.Names() {
		out[name] = base.Resolve(name)
	}

	names := make([]string, 0, len(c.Styles))
	for name := range c.Styles {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if da, db := strings.Count(a, "."), strings.Count(b, "."); da != db {
			return da - db
		}
		return strings.Compare(a, b)
	})

	for _, name := range names {
		d := lookup(out, name)
		d.Name = name
		out[name] = c.Styles[name].apply(d)
	}
	return out
}

// ApplyStyles replaces the contents of t with the defaults overridden by
// the configured styles. Applying the same configuration twice yields the
// same table contents.
func (c *Config) ApplyStyles(t *style.Table) {
	t.Replace(c.StyleDescriptors(style.DefaultTable()))
}

func (sc StyleConfig) apply(d style.Descriptor) style.Descriptor {
	if fg, _ := parseColor(sc.Foreground); fg != nil {
		d.Style.Foreground = *fg
	}
	if bg, _ := parseColor(sc.Background); bg != nil {
		d.Style.Background = *bg
	}
	d.Style.Attributes = setAttr(d.Style.Attributes, core.AttrBold, sc.Bold)
	d.Style.Attributes = setAttr(d.Style.Attributes, core.AttrItalic, sc.Italic)
	d.Style.Attributes = setAttr(d.Style.Attributes, core.AttrUnderline, sc.Underline)
	d.Style.Attributes = setAttr(d.Style.Attributes, core.AttrDim, sc.Dim)
	if sc.FontFamily != "" {
		d.Font.Family = sc.FontFamily
	}
	if sc.FontSize > 0 {
		d.Font.Size = sc.FontSize
	}
	if sc.LineSpacing != nil {
		d.Spacing.Line = *sc.LineSpacing
	}
	if sc.LetterSpacing != nil {
		d.Spacing.Letter = *sc.LetterSpacing
	}
	return d
}

func setAttr(a, attr core.Attribute, on *bool) core.Attribute {
	switch {
	case on == nil:
		return a
	case *on:
		return a.With(attr)
	default:
		return a &^ attr
	}
}

// lookup resolves name in styles along dotted parents, then the default.
func lookup(styles map[string]style.Descriptor, name string) style.Descriptor {
	for n := name; n != ""; {
		if d, ok := styles[n]; ok {
			return d
		}
		i := strings.LastIndexByte(n, '.')
		if i < 0 {
			break
		}
		n = n[:i]
	}
	if d, ok := styles[style.NameDefault]; ok {
		return d
	}
	return style.Descriptor{Style: core.DefaultStyle()}
}
