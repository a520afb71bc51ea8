package shaping

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/dshills/lineview/internal/renderer/core"
	"github.com/dshills/lineview/internal/renderer/style"
)

// Font families understood by FontShaper.
const (
	FamilyBasic = "basic"
	FamilyGo    = "go"
	FamilyMono  = "gomono"
)

// DefaultFontSize is used for scalable families when the descriptor has no size.
const DefaultFontSize = 13

// FontShaper shapes text with golang.org/x/image font faces and paints into
// a draw.Image. An empty family selects basicfont.Face7x13; "go" and "gomono"
// select the Go fonts at the descriptor's size, with bold and italic variants
// chosen from the style attributes.
type FontShaper struct {
	dst       draw.Image
	tabStops  int
	defaultFG color.Color

	fonts map[string]*opentype.Font
	faces map[faceKey]font.Face
	live  int
}

type faceKey struct {
	family string
	size   float64
	bold   bool
	italic bool
}

// FontOption configures a FontShaper.
type FontOption func(*FontShaper)

// WithTabStops sets the tab interval in space widths.
func WithTabStops(n int) FontOption {
	return func(s *FontShaper) {
		if n > 0 {
			s.tabStops = n
		}
	}
}

// WithDefaultForeground sets the color used for the surface-default foreground.
func WithDefaultForeground(c color.Color) FontOption {
	return func(s *FontShaper) {
		s.defaultFG = c
	}
}

// NewFontShaper creates a shaper painting into dst.
func NewFontShaper(dst draw.Image, opts ...FontOption) *FontShaper {
	s := &FontShaper{
		dst:       dst,
		tabStops:  DefaultTabWidth,
		defaultFG: color.Black,
		fonts:     make(map[string]*opentype.Font),
		faces:     make(map[faceKey]font.Face),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetTarget redirects painting to a new image. Existing layouts stay valid.
func (s *FontShaper) SetTarget(dst draw.Image) {
	s.dst = dst
}

// Target returns the image being painted into.
func (s *FontShaper) Target() draw.Image {
	return s.dst
}

// Live returns the number of layouts produced and not yet released.
func (s *FontShaper) Live() int {
	return s.live
}

// Close releases all cached faces.
func (s *FontShaper) Close() error {
	var firstErr error
	for k, f := range s.faces {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.faces, k)
	}
	return firstErr
}

// fontLayout is the Layout produced by FontShaper.
type fontLayout struct {
	owner    *FontShaper
	text     []rune
	face     font.Face
	style    core.Style
	letter   fixed.Int26_6
	ascent   fixed.Int26_6
	width    int
	height   int
	released bool
}

func (l *fontLayout) Size() (int, int) {
	return l.width, l.height
}

func (l *fontLayout) Release() {
	if l.released {
		return
	}
	l.released = true
	l.text = nil
	l.face = nil
	l.owner.live--
}

// Measure shapes text with the face selected by d.
func (s *FontShaper) Measure(text string, d style.Descriptor) (Measurement, error) {
	if !utf8.ValidString(text) {
		return Measurement{}, ErrInvalidText
	}

	face, err := s.face(d)
	if err != nil {
		return Measurement{}, err
	}

	runes := []rune(text)
	letter := fixed.I(max(d.Spacing.Letter, 0))

	var x fixed.Int26_6
	var prev rune
	for _, r := range runes {
		x += kern(face, prev, r)
		x += s.advance(face, x, r) + letter
		prev = r
	}

	m := face.Metrics()
	l := &fontLayout{
		owner:  s,
		text:   runes,
		face:   face,
		style:  d.Style,
		letter: letter,
		ascent: m.Ascent,
		width:  x.Ceil(),
		height: m.Height.Ceil() + max(d.Spacing.Line, 0),
	}
	s.live++

	return Measurement{Width: l.width, Height: l.height, Layout: l}, nil
}

// Paint draws the layout with its top-left corner at (x, y).
func (s *FontShaper) Paint(l Layout, x, y int) error {
	fl, ok := l.(*fontLayout)
	if !ok || fl.owner != s {
		return ErrForeignLayout
	}
	if fl.released {
		return ErrReleased
	}
	if s.dst == nil {
		return nil
	}

	if !fl.style.Background.IsDefault() {
		s.fillRect(image.Rect(x, y, x+fl.width, y+fl.height), fl.style.Background)
	}

	fg := s.foreground(fl.style)
	x0 := fixed.I(x)
	yb := fixed.I(y) + fl.ascent

	var prev rune
	for _, r := range fl.text {
		x0 += kern(fl.face, prev, r)
		prev = r
		var adv fixed.Int26_6
		if r == '\t' {
			adv = s.advance(fl.face, x0-fixed.I(x), r)
		} else {
			adv = s.drawGlyph(fl.face, fg, x0, yb, r)
		}
		x0 += adv + fl.letter
	}

	if fl.style.Attributes.Has(core.AttrUnderline) {
		uy := yb.Ceil() + 1
		s.fillRect(image.Rect(x, uy, x+fl.width, uy+1), fg)
	}
	if fl.style.Attributes.Has(core.AttrStrikethrough) {
		sy := y + (yb.Ceil()-y)*2/3
		s.fillRect(image.Rect(x, sy, x+fl.width, sy+1), fg)
	}
	return nil
}

// Fill paints rect with the style's background. A default background
// leaves the image untouched.
func (s *FontShaper) Fill(rect core.Rect, st core.Style) {
	if s.dst == nil || rect.IsEmpty() || st.Background.IsDefault() {
		return
	}
	s.fillRect(image.Rect(rect.X, rect.Y, rect.X+rect.Width, rect.Y+rect.Height), st.Background)
}

func (s *FontShaper) foreground(st core.Style) color.Color {
	if st.Foreground.IsDefault() {
		return s.defaultFG
	}
	return st.Foreground
}

func (s *FontShaper) fillRect(r image.Rectangle, c color.Color) {
	z := s.dst.Bounds().Min
	draw.Draw(s.dst, r.Add(z), image.NewUniform(c), image.Point{}, draw.Src)
}

func (s *FontShaper) drawGlyph(face font.Face, fg color.Color, x0, yb fixed.Int26_6, r rune) fixed.Int26_6 {
	pt := fixed.Point26_6{X: x0, Y: yb}
	dr, m, mp, adv, ok := face.Glyph(pt, r)
	if !ok {
		dr, m, mp, adv, _ = face.Glyph(pt, unicode.ReplacementChar)
	}
	if m == nil {
		return adv
	}
	dr = dr.Add(s.dst.Bounds().Min)
	draw.DrawMask(s.dst, dr, image.NewUniform(fg), image.Point{}, m, mp, draw.Over)
	return adv
}

// advance returns the advance of r at x. Tabs run to the next stop; a tab
// that would be narrower than a space skips to the stop after.
func (s *FontShaper) advance(face font.Face, x fixed.Int26_6, r rune) fixed.Int26_6 {
	if r == '\t' {
		spaceWidth, ok := face.GlyphAdvance(' ')
		if !ok || spaceWidth <= 0 {
			return 0
		}
		tabWidth := spaceWidth.Mul(fixed.I(s.tabStops))
		adv := tabWidth - (x % tabWidth)
		if adv < spaceWidth {
			adv += tabWidth
		}
		return adv
	}
	adv, ok := face.GlyphAdvance(r)
	if !ok {
		adv, _ = face.GlyphAdvance(unicode.ReplacementChar)
	}
	return adv
}

func kern(face font.Face, prev, cur rune) fixed.Int26_6 {
	if prev == 0 {
		return 0
	}
	return face.Kern(prev, cur)
}

// face returns the cached face for d, loading it on first use.
func (s *FontShaper) face(d style.Descriptor) (font.Face, error) {
	family := strings.ToLower(strings.TrimSpace(d.Font.Family))
	if family == "" || family == FamilyBasic {
		return basicfont.Face7x13, nil
	}

	size := d.Font.Size
	if size <= 0 {
		size = DefaultFontSize
	}
	key := faceKey{
		family: family,
		size:   size,
		bold:   d.Style.Attributes.Has(core.AttrBold),
		italic: d.Style.Attributes.Has(core.AttrItalic),
	}
	if f, ok := s.faces[key]; ok {
		return f, nil
	}

	ttf, name, err := fontData(key)
	if err != nil {
		return nil, err
	}
	parsed, ok := s.fonts[name]
	if !ok {
		parsed, err = opentype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("parsing font %s: %w", name, err)
		}
		s.fonts[name] = parsed
	}

	f, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating face %s@%g: %w", name, size, err)
	}
	s.faces[key] = f
	return f, nil
}

// fontData selects the embedded TTF for a face key.
func fontData(k faceKey) ([]byte, string, error) {
	switch k.family {
	case FamilyGo:
		switch {
		case k.bold && k.italic:
			return gobolditalic.TTF, "go-bold-italic", nil
		case k.bold:
			return gobold.TTF, "go-bold", nil
		case k.italic:
			return goitalic.TTF, "go-italic", nil
		default:
			return goregular.TTF, "go-regular", nil
		}
	case FamilyMono:
		switch {
		case k.bold && k.italic:
			return gomonobolditalic.TTF, "gomono-bold-italic", nil
		case k.bold:
			return gomonobold.TTF, "gomono-bold", nil
		case k.italic:
			return gomonoitalic.TTF, "gomono-italic", nil
		default:
			return gomono.TTF, "gomono", nil
		}
	}
	return nil, "", fmt.Errorf("%q: %w", k.family, ErrUnknownFont)
}
