package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"go.uber.org/zap"

	"github.com/dshills/lineview/internal/config"
	"github.com/dshills/lineview/internal/renderer/buffer"
	"github.com/dshills/lineview/internal/renderer/shaping"
	"github.com/dshills/lineview/internal/renderer/style"
)

// renderImage renders the top of buf once into a PNG file.
func renderImage(cfg config.Config, log *zap.Logger, buf *buffer.Lines, opts options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", opts.Width, opts.Height)
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	fg := style.DefaultTable().Resolve(style.NameText).Style.Foreground
	shaper := shaping.NewFontShaper(img,
		shaping.WithTabStops(cfg.Viewport.TabWidth),
		shaping.WithDefaultForeground(fg),
	)
	defer shaper.Close()

	s, err := newSession(cfg, log, buf, shaper, nil, opts.Width, opts.Height)
	if err != nil {
		return err
	}
	defer s.close()

	frame, err := s.r.Render()
	if err != nil {
		return err
	}
	log.Info("rendered image",
		zap.String("path", opts.PNGPath),
		zap.Int("lines", frame.Visible.Len()),
		zap.Int("content_height", frame.ContentHeight),
		zap.Ints("failed", frame.Failed),
	)

	f, err := os.Create(opts.PNGPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", opts.PNGPath, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding png: %w", err)
	}
	return f.Close()
}
