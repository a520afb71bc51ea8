package display

import (
	"errors"
	"testing"

	"github.com/dshills/lineview/internal/renderer/buffer"
	"github.com/dshills/lineview/internal/renderer/shaping"
)

func TestWithDefaults(t *testing.T) {
	c := Context{}.WithDefaults()
	if c.Styles == nil || c.Reporter == nil || c.Redraw == nil || c.Logger == nil {
		t.Fatalf("defaults not filled: %+v", c)
	}
	c.Redraw.RequestRedraw()
	c.Reporter.Report(0, nil, nil)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		ctx  Context
		want error
	}{
		{"empty", Context{}, ErrNoBuffer},
		{"no shaper", Context{Buffer: buffer.NewLines("a")}, ErrNoShaper},
		{"ok", Context{Buffer: buffer.NewLines("a"), Shaper: shaping.NewCellShaper(nil)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.ctx.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRedrawFunc(t *testing.T) {
	n := 0
	var sink RedrawSink = RedrawFunc(func() { n++ })
	sink.RequestRedraw()
	if n != 1 {
		t.Errorf("calls = %d", n)
	}
}
