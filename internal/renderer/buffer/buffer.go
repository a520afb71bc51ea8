// Package buffer defines the line-buffer contract the renderer reads from and
// an in-memory implementation used by hosts and tests.
//
// The renderer never owns a buffer. It reads line count and line text, and
// receives structural change notifications so caches can be reindexed.
package buffer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/lineview/internal/renderer/core"
)

// ChangeKind identifies the type of structural change.
type ChangeKind uint8

const (
	// ChangeInsert indicates lines were inserted.
	ChangeInsert ChangeKind = iota

	// ChangeDelete indicates lines were deleted.
	ChangeDelete

	// ChangeReplace indicates lines were replaced in place (counts may differ).
	ChangeReplace
)

// String returns the string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeInsert:
		return "insert"
	case ChangeDelete:
		return "delete"
	case ChangeReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Change describes one structural mutation of the buffer.
// Lines [Start, Start+OldCount) before the change became
// lines [Start, Start+NewCount) after it.
type Change struct {
	Kind     ChangeKind
	Start    int
	OldCount int
	NewCount int
}

// Before returns the affected line range before the change.
func (c Change) Before() core.Range {
	return core.LineSpan(c.Start, c.OldCount)
}

// After returns the affected line range after the change.
func (c Change) After() core.Range {
	return core.LineSpan(c.Start, c.NewCount)
}

// Delta returns the change in line count.
func (c Change) Delta() int {
	return c.NewCount - c.OldCount
}

// LineBuffer provides read access to an ordered sequence of lines.
type LineBuffer interface {
	// LineCount returns the total number of lines.
	LineCount() int

	// LineText returns the raw text of a line (0-indexed).
	LineText(index int) string

	// OnChange registers a listener for structural changes.
	// The returned function removes the listener.
	OnChange(listener func(Change)) (unsubscribe func())
}

// ErrLineOutOfRange is returned by mutations addressing a line outside the buffer.
var ErrLineOutOfRange = errors.New("line index out of range")

// Lines is an in-memory LineBuffer.
//
// Listeners are invoked synchronously on the goroutine performing the
// mutation, after the mutation is visible through LineCount and LineText.
type Lines struct {
	mu    sync.RWMutex
	lines []string

	listeners  map[int]func(Change)
	nextListen int
}

// NewLines creates a buffer holding a copy of lines.
func NewLines(lines ...string) *Lines {
	return &Lines{
		lines:     append([]string(nil), lines...),
		listeners: make(map[int]func(Change)),
	}
}

// FromString splits text on newlines. A trailing newline does not create an
// extra empty line; an empty string yields a single empty line.
func FromString(text string) *Lines {
	text = strings.TrimSuffix(text, "\n")
	return NewLines(strings.Split(text, "\n")...)
}

// Read loads lines from r, stripping "\n" and "\r\n" terminators.
func Read(r io.Reader) (*Lines, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading lines: %w", err)
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return NewLines(lines...), nil
}

// LineCount returns the number of lines.
func (b *Lines) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// LineText returns the text of a line, or "" when index is out of range.
func (b *Lines) LineText(index int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if index < 0 || index >= len(b.lines) {
		return ""
	}
	return b.lines[index]
}

// OnChange registers a change listener.
func (b *Lines) OnChange(listener func(Change)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextListen
	b.nextListen++
	b.listeners[id] = listener

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

// Insert inserts lines before index. index may equal LineCount to append.
func (b *Lines) Insert(index int, lines ...string) error {
	if len(lines) == 0 {
		return nil
	}

	b.mu.Lock()
	if index < 0 || index > len(b.lines) {
		b.mu.Unlock()
		return fmt.Errorf("insert at %d of %d lines: %w", index, len(b.lines), ErrLineOutOfRange)
	}
	next := make([]string, 0, len(b.lines)+len(lines))
	next = append(next, b.lines[:index]...)
	next = append(next, lines...)
	next = append(next, b.lines[index:]...)
	b.lines = next
	listeners := b.snapshotListeners()
	b.mu.Unlock()

	b.emit(listeners, Change{Kind: ChangeInsert, Start: index, OldCount: 0, NewCount: len(lines)})
	return nil
}

// Delete removes count lines starting at index. The buffer always keeps at
// least one line; deleting every line leaves a single empty line and is
// reported as a replace.
func (b *Lines) Delete(index, count int) error {
	if count <= 0 {
		return nil
	}

	b.mu.Lock()
	if index < 0 || index+count > len(b.lines) {
		b.mu.Unlock()
		return fmt.Errorf("delete [%d,%d) of %d lines: %w", index, index+count, len(b.lines), ErrLineOutOfRange)
	}
	change := Change{Kind: ChangeDelete, Start: index, OldCount: count, NewCount: 0}
	b.lines = append(b.lines[:index:index], b.lines[index+count:]...)
	if len(b.lines) == 0 {
		b.lines = []string{""}
		change = Change{Kind: ChangeReplace, Start: 0, OldCount: count, NewCount: 1}
	}
	listeners := b.snapshotListeners()
	b.mu.Unlock()

	b.emit(listeners, change)
	return nil
}

// Replace replaces count lines starting at index with lines.
func (b *Lines) Replace(index, count int, lines ...string) error {
	b.mu.Lock()
	if index < 0 || count < 0 || index+count > len(b.lines) {
		b.mu.Unlock()
		return fmt.Errorf("replace [%d,%d) of %d lines: %w", index, index+count, len(b.lines), ErrLineOutOfRange)
	}
	if count == 0 && len(lines) == 0 {
		b.mu.Unlock()
		return nil
	}
	next := make([]string, 0, len(b.lines)-count+len(lines))
	next = append(next, b.lines[:index]...)
	next = append(next, lines...)
	next = append(next, b.lines[index+count:]...)
	if len(next) == 0 {
		next = []string{""}
		lines = []string{""}
	}
	b.lines = next
	listeners := b.snapshotListeners()
	b.mu.Unlock()

	b.emit(listeners, Change{Kind: ChangeReplace, Start: index, OldCount: count, NewCount: len(lines)})
	return nil
}

// SetLine replaces the text of a single line.
func (b *Lines) SetLine(index int, text string) error {
	return b.Replace(index, 1, text)
}

// Text returns the buffer joined with newlines.
func (b *Lines) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return strings.Join(b.lines, "\n")
}

// snapshotListeners must be called with the lock held.
func (b *Lines) snapshotListeners() []func(Change) {
	ids := make([]int, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		out = append(out, b.listeners[id])
	}
	return out
}

func (b *Lines) emit(listeners []func(Change), c Change) {
	for _, fn := range listeners {
		fn(c)
	}
}
