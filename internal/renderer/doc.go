// Package renderer is the viewport render driver of lineview.
//
// The driver turns a line buffer into painted lines inside a bounded
// viewport. Only the visible lines are measured and painted; everything else
// about the buffer is known through the per-line height index.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│        Renderer (render driver)         │
//	├─────────────────────────────────────────┤
//	│ Viewport │ HeightIndex │ Dirty Tracker  │
//	├─────────────────────────────────────────┤
//	│ Line Layout Cache │ Margin Composer     │
//	├─────────────────────────────────────────┤
//	│ Shaper (cells │ fonts) │ Style Table    │
//	├─────────────────────────────────────────┤
//	│ Backend (tcell │ null) │ draw.Image     │
//	└─────────────────────────────────────────┘
//
// Triggers (scrolling, resizing, buffer edits, style changes, explicit
// requests) only record what is dirty and ask the host's redraw sink for a
// pass. Painting happens exclusively inside Render, which the host calls on
// its render goroutine.
//
// Usage:
//
//	term, _ := backend.NewTerminal()
//	shaper := shaping.NewCellShaper(term)
//	r, _ := renderer.New(display.Context{Buffer: buf, Shaper: shaper}, renderer.DefaultOptions())
//	r.Composer().Add(margin.NewLineNumbers(ctx, margin.DefaultLineNumbersConfig()))
//	frame, _ := r.Render()
//	term.Show()
package renderer
