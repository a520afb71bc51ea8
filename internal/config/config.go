// Package config loads lineview's TOML configuration.
//
// A configuration file has the sections [cache], [viewport], [margins] with
// [margins.line_numbers], [margins.markers] and [margins.folding],
// [styles.<name>] and [log]. Missing keys keep the values of Default.
// Environment variables prefixed with LINEVIEW_ override file values, and a
// Watcher reports edits to the file so styles can be reloaded live.
package config

// Config is the complete lineview configuration.
type Config struct {
	Cache    CacheConfig            `toml:"cache"`
	Viewport ViewportConfig         `toml:"viewport"`
	Margins  MarginsConfig          `toml:"margins"`
	Styles   map[string]StyleConfig `toml:"styles"`
	Log      LogConfig              `toml:"log"`
}

// CacheConfig configures the line layout cache.
type CacheConfig struct {
	MaxEntries    int    `toml:"max_entries"`
	PrefetchLines int    `toml:"prefetch_lines"`
	TextStyle     string `toml:"text_style"`
}

// ViewportConfig configures scrolling and line heights.
type ViewportConfig struct {
	PageOverlap         int `toml:"page_overlap"`
	EstimatedLineHeight int `toml:"estimated_line_height"`
	FallbackHeight      int `toml:"fallback_height"`
	TabWidth            int `toml:"tab_width"`
	MaxDirtyRegions     int `toml:"max_dirty_regions"`
}

// MarginsConfig configures the margins beside the text column.
type MarginsConfig struct {
	// Order lists margin names left to right: "line_numbers", "markers",
	// "folding". Disabled margins are skipped.
	Order       []string          `toml:"order"`
	Direction   string            `toml:"direction"`
	LineNumbers LineNumbersConfig `toml:"line_numbers"`
	Markers     MarkersConfig     `toml:"markers"`
	Folding     FoldingConfig     `toml:"folding"`
}

// LineNumbersConfig configures the line number margin.
type LineNumbersConfig struct {
	Enabled            bool   `toml:"enabled"`
	Mode               string `toml:"mode"`
	MinDigits          int    `toml:"min_digits"`
	Padding            int    `toml:"padding"`
	WidthFromLineCount bool   `toml:"width_from_line_count"`
	HighlightCurrent   bool   `toml:"highlight_current"`
	MaxLabels          int    `toml:"max_labels"`
}

// MarkersConfig configures the marker margin.
type MarkersConfig struct {
	Enabled       bool `toml:"enabled"`
	Padding       int  `toml:"padding"`
	HideWhenEmpty bool `toml:"hide_when_empty"`
}

// FoldingConfig configures the fold margin.
type FoldingConfig struct {
	Enabled       bool `toml:"enabled"`
	Padding       int  `toml:"padding"`
	HideWhenEmpty bool `toml:"hide_when_empty"`
}

// StyleConfig overrides one style table entry. Unset fields inherit from the
// entry's dotted parent.
type StyleConfig struct {
	Foreground    string  `toml:"fg"`
	Background    string  `toml:"bg"`
	Bold          *bool   `toml:"bold"`
	Italic        *bool   `toml:"italic"`
	Underline     *bool   `toml:"underline"`
	Dim           *bool   `toml:"dim"`
	FontFamily    string  `toml:"font_family"`
	FontSize      float64 `toml:"font_size"`
	LineSpacing   *int    `toml:"line_spacing"`
	LetterSpacing *int    `toml:"letter_spacing"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string   `toml:"level"`
	Development bool     `toml:"development"`
	OutputPaths []string `toml:"output_paths"`
}

// Margin names accepted in [margins] order.
const (
	MarginLineNumbers = "line_numbers"
	MarginMarkers     = "markers"
	MarginFolding     = "folding"
)

// Default returns the default configuration.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			MaxEntries:    256,
			PrefetchLines: 8,
			TextStyle:     "text",
		},
		Viewport: ViewportConfig{
			PageOverlap:     2,
			TabWidth:        4,
			MaxDirtyRegions: 32,
		},
		Margins: MarginsConfig{
			Order:     []string{MarginMarkers, MarginLineNumbers, MarginFolding},
			Direction: "ltr",
			LineNumbers: LineNumbersConfig{
				Enabled:          true,
				Mode:             "absolute",
				MinDigits:        3,
				Padding:          1,
				HighlightCurrent: true,
				MaxLabels:        512,
			},
			Markers: MarkersConfig{
				Enabled:       true,
				Padding:       1,
				HideWhenEmpty: true,
			},
			Folding: FoldingConfig{
				Enabled:       false,
				Padding:       1,
				HideWhenEmpty: true,
			},
		},
		Styles: map[string]StyleConfig{},
		Log: LogConfig{
			Level:       "info",
			OutputPaths: []string{"stderr"},
		},
	}
}
