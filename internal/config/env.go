package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "LINEVIEW_"

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// envBinding maps a variable suffix to a setter.
type envBinding struct {
	suffix string
	set    func(c *Config, value string) error
}

var envBindings = []envBinding{
	{"CACHE_MAX_ENTRIES", intSetter(func(c *Config) *int { return &c.Cache.MaxEntries })},
	{"CACHE_PREFETCH_LINES", intSetter(func(c *Config) *int { return &c.Cache.PrefetchLines })},
	{"CACHE_TEXT_STYLE", stringSetter(func(c *Config) *string { return &c.Cache.TextStyle })},
	{"VIEWPORT_PAGE_OVERLAP", intSetter(func(c *Config) *int { return &c.Viewport.PageOverlap })},
	{"VIEWPORT_ESTIMATED_LINE_HEIGHT", intSetter(func(c *Config) *int { return &c.Viewport.EstimatedLineHeight })},
	{"VIEWPORT_FALLBACK_HEIGHT", intSetter(func(c *Config) *int { return &c.Viewport.FallbackHeight })},
	{"VIEWPORT_MAX_DIRTY_REGIONS", intSetter(func(c *Config) *int { return &c.Viewport.MaxDirtyRegions })},
	{"VIEWPORT_TAB_WIDTH", intSetter(func(c *Config) *int { return &c.Viewport.TabWidth })},
	{"MARGINS_ORDER", func(c *Config, v string) error {
		c.Margins.Order = splitList(v)
		return nil
	}},
	{"MARGINS_DIRECTION", stringSetter(func(c *Config) *string { return &c.Margins.Direction })},
	{"LINE_NUMBERS_ENABLED", boolSetter(func(c *Config) *bool { return &c.Margins.LineNumbers.Enabled })},
	{"LINE_NUMBERS_MODE", stringSetter(func(c *Config) *string { return &c.Margins.LineNumbers.Mode })},
	{"MARKERS_ENABLED", boolSetter(func(c *Config) *bool { return &c.Margins.Markers.Enabled })},
	{"FOLDING_ENABLED", boolSetter(func(c *Config) *bool { return &c.Margins.Folding.Enabled })},
	{"LOG_LEVEL", stringSetter(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_DEVELOPMENT", boolSetter(func(c *Config) *bool { return &c.Log.Development })},
	{"LOG_OUTPUT_PATHS", func(c *Config, v string) error {
		c.Log.OutputPaths = splitList(v)
		return nil
	}},
}

// ApplyEnv overrides settings from LINEVIEW_* environment variables and
// validates the result.
func (c *Config) ApplyEnv() error {
	return c.ApplyLookup(os.LookupEnv)
}

// ApplyLookup is ApplyEnv with an explicit variable source.
func (c *Config) ApplyLookup(lookup LookupFunc) error {
	for _, b := range envBindings {
		key := EnvPrefix + b.suffix
		v, ok := lookup(key)
		if !ok {
			continue
		}
		if err := b.set(c, strings.TrimSpace(v)); err != nil {
			return &ValidationError{Path: key, Message: err.Error(), Value: v}
		}
	}
	return c.Validate()
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("not an integer")
		}
		*field(c) = n
		return nil
	}
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("not a boolean")
		}
		*field(c) = b
		return nil
	}
}

func stringSetter(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
