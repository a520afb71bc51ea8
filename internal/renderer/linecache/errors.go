package linecache

import (
	"errors"
	"fmt"

	"github.com/dshills/lineview/internal/renderer/core"
)

// Errors returned by cache operations.
var (
	// ErrOutOfRange indicates a line index outside [0, LineCount).
	ErrOutOfRange = errors.New("line out of range")

	// ErrInconsistentState indicates a maintenance call that did not match
	// the buffer it describes.
	ErrInconsistentState = errors.New("inconsistent cache state")
)

// RangeError reports a line request outside the buffer.
type RangeError struct {
	// Line is the requested line.
	Line int
	// Count is the buffer's line count at the time of the request.
	Count int
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	return fmt.Sprintf("line %d not in [0,%d): %s", e.Line, e.Count, ErrOutOfRange)
}

// Unwrap returns ErrOutOfRange.
func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// MeasurementError reports a shaping failure for a line.
type MeasurementError struct {
	// Line is the line that failed to measure.
	Line int
	// Err is the shaper's error.
	Err error
}

// Error implements the error interface.
func (e *MeasurementError) Error() string {
	return fmt.Sprintf("measuring line %d: %v", e.Line, e.Err)
}

// Unwrap returns the shaper's error.
func (e *MeasurementError) Unwrap() error {
	return e.Err
}

// InconsistentStateError describes an invalidate or reindex call that was
// clamped or purged instead of applied.
type InconsistentStateError struct {
	// Op is the operation ("invalidate" or "reindex").
	Op string
	// Old and New are the ranges passed by the caller.
	Old, New core.Range
	// Delta is the line-count delta passed to reindex.
	Delta int
	// Count is the buffer's line count when the call was made.
	Count int
	// Expected is the line count the cache expected after the call.
	Expected int
}

// Error implements the error interface.
func (e *InconsistentStateError) Error() string {
	if e.Op == "invalidate" {
		return fmt.Sprintf("invalidate %s outside [0,%d): %s", e.Old, e.Count, ErrInconsistentState)
	}
	return fmt.Sprintf("reindex %s -> %s delta %d with %d lines (expected %d): %s",
		e.Old, e.New, e.Delta, e.Count, e.Expected, ErrInconsistentState)
}

// Unwrap returns ErrInconsistentState.
func (e *InconsistentStateError) Unwrap() error {
	return ErrInconsistentState
}
