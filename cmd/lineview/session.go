package main

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/lineview/internal/config"
	"github.com/dshills/lineview/internal/renderer"
	"github.com/dshills/lineview/internal/renderer/buffer"
	"github.com/dshills/lineview/internal/renderer/display"
	"github.com/dshills/lineview/internal/renderer/margin"
	"github.com/dshills/lineview/internal/renderer/report"
	"github.com/dshills/lineview/internal/renderer/shaping"
	"github.com/dshills/lineview/internal/renderer/style"
)

// session ties a buffer, its margin state and a renderer together.
type session struct {
	log    *zap.Logger
	buf    *buffer.Lines
	styles *style.Table
	marks  *margin.MarkerSet
	folds  margin.FoldSet

	r       *renderer.Renderer
	numbers *margin.LineNumbers
	cursor  int
}

func newSession(cfg config.Config, log *zap.Logger, buf *buffer.Lines, shaper shaping.Shaper, redraw display.RedrawSink, width, height int) (*session, error) {
	s := &session{
		log:    log,
		buf:    buf,
		styles: style.NewTable(),
		marks:  margin.NewMarkerSet(),
		folds:  foldsFromIndent(buf),
	}
	cfg.ApplyStyles(s.styles)

	ctx := display.Context{
		Buffer:   buf,
		Styles:   s.styles,
		Shaper:   shaper,
		Redraw:   redraw,
		Reporter: report.NewLogReporter(log),
		Logger:   log,
	}

	r, err := renderer.New(ctx, cfg.RendererOptions(width, height), cfg.BuildMargins(ctx, s.marks, s.folds)...)
	if err != nil {
		return nil, err
	}
	s.r = r

	if m, ok := r.Composer().Margin(config.MarginLineNumbers); ok {
		s.numbers, _ = m.(*margin.LineNumbers)
	}
	return s, nil
}

// moveCursor moves the current line by delta and scrolls it into view.
func (s *session) moveCursor(delta int) {
	s.setCursor(s.cursor + delta)
}

func (s *session) setCursor(line int) {
	line = min(max(line, 0), max(s.buf.LineCount()-1, 0))
	if line == s.cursor {
		return
	}
	s.cursor = line
	if s.numbers != nil {
		s.numbers.SetCurrentLine(line)
		s.r.RequestRedraw()
	}
	s.r.ScrollToLine(line)
}

func (s *session) toggleBookmark() {
	if slices.Contains(s.marks.MarkersAt(s.cursor), margin.MarkerBookmark) {
		s.marks.Remove(s.cursor, margin.MarkerBookmark)
	} else {
		s.marks.Add(s.cursor, margin.MarkerBookmark)
	}
	s.r.RequestRedraw()
}

func (s *session) toggleFold() {
	s.folds.Toggle(s.cursor)
	s.r.RequestRedraw()
}

// applyReload swaps in the styles of a reloaded configuration. A failed
// reload keeps the current styles.
func (s *session) applyReload(rl config.Reload) {
	if rl.Err != nil {
		s.log.Warn("keeping previous configuration", zap.Error(rl.Err))
		return
	}
	rl.Config.ApplyStyles(s.styles)
}

func (s *session) close() error {
	return s.r.Close()
}

// foldsFromIndent opens a fold on every line followed by a more indented
// non-blank line.
func foldsFromIndent(buf buffer.LineBuffer) margin.FoldSet {
	folds := make(margin.FoldSet)
	prev, prevIndent := -1, 0
	for i := range buf.LineCount() {
		text := buf.LineText(i)
		if strings.TrimSpace(text) == "" {
			continue
		}
		indent := indentWidth(text)
		if prev >= 0 && indent > prevIndent {
			folds[prev] = margin.FoldOpen
		}
		prev, prevIndent = i, indent
	}
	return folds
}

func indentWidth(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case ' ':
			n++
		case '\t':
			n += shaping.DefaultTabWidth
		default:
			return n
		}
	}
	return n
}
