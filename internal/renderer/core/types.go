// Package core provides shared types for the renderer subsystem.
// This package breaks import cycles between the cache, margins, shapers and backends.
package core

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Attribute represents text attributes (bold, italic, etc.).
type Attribute uint16

// Text attribute flags.
const (
	AttrNone          Attribute = 0
	AttrBold          Attribute = 1 << iota
	AttrDim                     // Faint/dim text
	AttrItalic                  // Italic text
	AttrUnderline               // Underlined text
	AttrReverse                 // Reverse video (swap fg/bg)
	AttrStrikethrough           // Strikethrough text
)

// Has returns true if the attribute set contains the given attribute.
func (a Attribute) Has(attr Attribute) bool {
	return a&attr != 0
}

// With returns a new attribute set with the given attribute added.
func (a Attribute) With(attr Attribute) Attribute {
	return a | attr
}

// Color represents a color value.
// The zero value is not the default color; use ColorDefault for inherited colors.
type Color struct {
	R, G, B uint8
	// Default indicates this is the surface's default color.
	Default bool
}

// ColorDefault represents the surface's default color.
var ColorDefault = Color{Default: true}

// Common colors.
var (
	ColorBlack = Color{R: 0, G: 0, B: 0}
	ColorWhite = Color{R: 255, G: 255, B: 255}
	ColorGray  = Color{R: 128, G: 128, B: 128}
)

// ColorFromRGB creates a true color from RGB components.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// ColorFromHex creates a color from a hex string.
// Supports "#RGB", "#RRGGBB", "RGB", "RRGGBB" and the name "default".
func ColorFromHex(hex string) (Color, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" || strings.EqualFold(hex, "default") {
		return ColorDefault, nil
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	if len(hex) != 4 && len(hex) != 7 {
		return Color{}, fmt.Errorf("invalid hex color length: %s", hex)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// IsDefault returns true if this is the default/transparent color.
func (c Color) IsDefault() bool {
	return c.Default
}

// Equals returns true if two colors are equal.
func (c Color) Equals(other Color) bool {
	if c.Default || other.Default {
		return c.Default == other.Default
	}
	return c.R == other.R && c.G == other.G && c.B == other.B
}

// String returns a string representation of the color.
func (c Color) String() string {
	if c.Default {
		return "default"
	}
	return c.colorful().Hex()
}

// Blend mixes two colors in Lab space. amount 0 returns c, 1 returns other.
// Blending with the default color returns the non-default side.
func (c Color) Blend(other Color, amount float64) Color {
	switch {
	case c.Default:
		return other
	case other.Default:
		return c
	}
	if amount < 0 {
		amount = 0
	}
	if amount > 1 {
		amount = 1
	}
	r, g, b := c.colorful().BlendLab(other.colorful(), amount).Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

// RGBA implements color.Color so colors can be drawn into images directly.
func (c Color) RGBA() (r, g, b, a uint32) {
	if c.Default {
		return 0, 0, 0, 0
	}
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

// Style represents the visual style of text.
type Style struct {
	Foreground Color
	Background Color
	Attributes Attribute
}

// DefaultStyle returns the default surface style.
func DefaultStyle() Style {
	return Style{
		Foreground: ColorDefault,
		Background: ColorDefault,
		Attributes: AttrNone,
	}
}

// Merge combines two styles. Non-default colors of other win; attributes accumulate.
func (s Style) Merge(other Style) Style {
	result := s
	if !other.Foreground.IsDefault() {
		result.Foreground = other.Foreground
	}
	if !other.Background.IsDefault() {
		result.Background = other.Background
	}
	result.Attributes |= other.Attributes
	return result
}

// Equals returns true if two styles are identical.
func (s Style) Equals(other Style) bool {
	return s.Foreground.Equals(other.Foreground) &&
		s.Background.Equals(other.Background) &&
		s.Attributes == other.Attributes
}

// Cell represents a single terminal cell.
type Cell struct {
	// Rune is the character to display.
	Rune rune

	// Combining holds combining runes of a multi-rune grapheme cluster.
	Combining []rune

	// Width is the display width of this cell (0 for continuation cells).
	Width int

	// Style is the visual style for this cell.
	Style Style
}

// EmptyCell returns an empty cell with default style.
func EmptyCell() Cell {
	return Cell{Rune: ' ', Width: 1, Style: DefaultStyle()}
}

// NewCell creates a single-width cell with the default style.
func NewCell(r rune) Cell {
	return Cell{Rune: r, Width: 1, Style: DefaultStyle()}
}

// ContinuationCell returns the placeholder that follows a wide character.
func ContinuationCell(style Style) Cell {
	return Cell{Rune: 0, Width: 0, Style: style}
}

// IsContinuation returns true if this is a continuation cell.
func (c Cell) IsContinuation() bool {
	return c.Width == 0 && c.Rune == 0
}

// Equals returns true if two cells are identical.
func (c Cell) Equals(other Cell) bool {
	if c.Rune != other.Rune || c.Width != other.Width || !c.Style.Equals(other.Style) {
		return false
	}
	if len(c.Combining) != len(other.Combining) {
		return false
	}
	for i, r := range c.Combining {
		if other.Combining[i] != r {
			return false
		}
	}
	return true
}

// StringFromCells converts cells back to a string.
func StringFromCells(cells []Cell) string {
	var sb strings.Builder
	for _, c := range cells {
		if c.IsContinuation() {
			continue
		}
		sb.WriteRune(c.Rune)
		for _, r := range c.Combining {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
