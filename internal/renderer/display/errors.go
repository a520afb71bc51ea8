package display

import "errors"

// Context validation errors.
var (
	ErrNoBuffer = errors.New("display context has no line buffer")
	ErrNoShaper = errors.New("display context has no shaper")
)
