package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/lineview/internal/config"
	"github.com/dshills/lineview/internal/renderer/backend"
	"github.com/dshills/lineview/internal/renderer/buffer"
	"github.com/dshills/lineview/internal/renderer/display"
	"github.com/dshills/lineview/internal/renderer/shaping"
)

// runTerminal shows buf in the terminal until the user quits.
func runTerminal(cfg config.Config, log *zap.Logger, buf *buffer.Lines, opts options) error {
	term, err := backend.NewTerminal()
	if err != nil {
		return fmt.Errorf("creating terminal: %w", err)
	}
	if err := term.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer term.Shutdown()

	redraw := make(chan struct{}, 1)
	sink := display.RedrawFunc(func() {
		select {
		case redraw <- struct{}{}:
		default:
		}
	})

	width, height := term.Size()
	shaper := shaping.NewCellShaper(term, shaping.WithTabWidth(cfg.Viewport.TabWidth))
	s, err := newSession(cfg, log, buf, shaper, sink, width, height)
	if err != nil {
		return err
	}
	defer s.close()

	var reloads <-chan config.Reload
	if opts.Watch && opts.ConfigPath != "" {
		w, err := config.NewWatcher(opts.ConfigPath, config.WithLogger(log))
		if err != nil {
			log.Warn("config watcher disabled", zap.Error(err))
		} else {
			defer w.Close()
			reloads = w.Reloads()
		}
	}

	done := make(chan struct{})
	defer close(done)
	events := make(chan backend.Event)
	go func() {
		for {
			ev := term.PollEvent()
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	if err := draw(s, term); err != nil {
		return err
	}

	for {
		select {
		case ev := <-events:
			if quit := handleEvent(s, ev); quit {
				return nil
			}
		case rl, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			s.applyReload(rl)
		case <-redraw:
		}

		// Drain a request raised while handling the event; the pass below
		// covers it.
		select {
		case <-redraw:
		default:
		}
		if err := draw(s, term); err != nil {
			return err
		}
	}
}

func draw(s *session, term *backend.Terminal) error {
	if _, err := s.r.Render(); err != nil {
		return err
	}
	term.Show()
	return nil
}

// handleEvent applies ev to the session and reports whether to quit.
func handleEvent(s *session, ev backend.Event) bool {
	switch ev.Type {
	case backend.EventResize:
		s.r.Resize(ev.Width, ev.Height)

	case backend.EventMouse:
		switch ev.MouseButton {
		case backend.MouseWheelUp:
			s.r.ScrollLines(-3)
		case backend.MouseWheelDown:
			s.r.ScrollLines(3)
		}

	case backend.EventKey:
		switch ev.Key {
		case backend.KeyEscape, backend.KeyCtrlC:
			return true
		case backend.KeyCtrlL:
			s.r.RequestRedraw()
		case backend.KeyUp:
			s.moveCursor(-1)
		case backend.KeyDown:
			s.moveCursor(1)
		case backend.KeyPageUp:
			s.r.PageUp()
		case backend.KeyPageDown:
			s.r.PageDown()
		case backend.KeyHome:
			s.setCursor(0)
			s.r.ScrollToTop()
		case backend.KeyEnd:
			s.setCursor(s.buf.LineCount() - 1)
			s.r.ScrollToBottom()
		case backend.KeyRune:
			switch ev.Rune {
			case 'q':
				return true
			case 'j':
				s.moveCursor(1)
			case 'k':
				s.moveCursor(-1)
			case 'm':
				s.toggleBookmark()
			case 'z':
				s.toggleFold()
			}
		}
	}
	return false
}
