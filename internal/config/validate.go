package config

import (
	"errors"
	"slices"

	"github.com/dshills/lineview/internal/logging"
	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/margin"
)

// Validate checks every setting and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(path, msg string, value any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
	}

	if c.Cache.MaxEntries < 1 {
		invalid("cache.max_entries", "must be at least 1", c.Cache.MaxEntries)
	}
	if c.Cache.PrefetchLines < 0 {
		invalid("cache.prefetch_lines", "must not be negative", c.Cache.PrefetchLines)
	}
	if c.Cache.TextStyle == "" {
		invalid("cache.text_style", "must not be empty", c.Cache.TextStyle)
	}

	if c.Viewport.PageOverlap < 0 {
		invalid("viewport.page_overlap", "must not be negative", c.Viewport.PageOverlap)
	}
	if c.Viewport.EstimatedLineHeight < 0 {
		invalid("viewport.estimated_line_height", "must not be negative", c.Viewport.EstimatedLineHeight)
	}
	if c.Viewport.FallbackHeight < 0 {
		invalid("viewport.fallback_height", "must not be negative", c.Viewport.FallbackHeight)
	}
	if c.Viewport.MaxDirtyRegions < 1 {
		invalid("viewport.max_dirty_regions", "must be at least 1", c.Viewport.MaxDirtyRegions)
	}
	if c.Viewport.TabWidth < 1 {
		invalid("viewport.tab_width", "must be at least 1", c.Viewport.TabWidth)
	}

	seen := make(map[string]bool, len(c.Margins.Order))
	for _, name := range c.Margins.Order {
		if !slices.Contains([]string{MarginLineNumbers, MarginMarkers, MarginFolding}, name) {
			invalid("margins.order", "unknown margin", name)
			continue
		}
		if seen[name] {
			invalid("margins.order", "duplicate margin", name)
		}
		seen[name] = true
	}
	if _, ok := margin.ParseDirection(c.Margins.Direction); !ok {
		invalid("margins.direction", `must be "ltr" or "rtl"`, c.Margins.Direction)
	}

	ln := c.Margins.LineNumbers
	if _, ok := margin.ParseNumberMode(ln.Mode); !ok {
		invalid("margins.line_numbers.mode", `must be "absolute", "relative" or "hybrid"`, ln.Mode)
	}
	if ln.MinDigits < 0 {
		invalid("margins.line_numbers.min_digits", "must not be negative", ln.MinDigits)
	}
	if ln.Padding < 0 {
		invalid("margins.line_numbers.padding", "must not be negative", ln.Padding)
	}
	if ln.MaxLabels < 0 {
		invalid("margins.line_numbers.max_labels", "must not be negative", ln.MaxLabels)
	}
	if c.Margins.Markers.Padding < 0 {
		invalid("margins.markers.padding", "must not be negative", c.Margins.Markers.Padding)
	}
	if c.Margins.Folding.Padding < 0 {
		invalid("margins.folding.padding", "must not be negative", c.Margins.Folding.Padding)
	}

	for name, sc := range c.Styles {
		path := "styles." + name
		if _, err := parseColor(sc.Foreground); err != nil {
			invalid(path+".fg", err.Error(), sc.Foreground)
		}
		if _, err := parseColor(sc.Background); err != nil {
			invalid(path+".bg", err.Error(), sc.Background)
		}
		if sc.FontSize < 0 {
			invalid(path+".font_size", "must not be negative", sc.FontSize)
		}
	}

	if !logging.ValidLevel(c.Log.Level) {
		invalid("log.level", "unknown level", c.Log.Level)
	}

	return errors.Join(errs...)
}

// parseColor parses an optional color. Empty means inherit.
func parseColor(s string) (*core.Color, error) {
	if s == "" {
		return nil, nil
	}
	c, err := core.ColorFromHex(s)
	if err != nil {
		return nil, errors.New("invalid color")
	}
	return &c, nil
}
