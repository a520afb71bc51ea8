package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dshills/lineview/internal/logging"
)

// DefaultDebounce is how long the watcher waits for a burst of writes to
// settle before reloading.
const DefaultDebounce = 100 * time.Millisecond

// Reload is the result of reloading the watched file.
type Reload struct {
	Config Config
	// Err is set when the file failed to load; Config is then the zero value
	// and the previous configuration should stay in effect.
	Err error
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		w.log = logging.WithComponent(l, "config")
	}
}

// WithLoader replaces the function used to load the file on change.
func WithLoader(load func(path string) (Config, error)) WatcherOption {
	return func(w *Watcher) {
		if load != nil {
			w.load = load
		}
	}
}

// Watcher reloads a configuration file when it changes.
//
// The parent directory is watched rather than the file itself so that
// editors which replace the file on save are followed.
type Watcher struct {
	mu sync.Mutex

	path  string
	base  string
	delay time.Duration
	load  func(path string) (Config, error)
	log   *zap.Logger

	watcher *fsnotify.Watcher
	timer   *time.Timer

	reloads chan Reload
	errors  chan error

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// NewWatcher starts watching the file at path. The file need not exist yet,
// but its directory must.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:    abs,
		base:    filepath.Base(abs),
		delay:   DefaultDebounce,
		load:    loadWithEnv,
		log:     logging.WithComponent(nil, "config"),
		reloads: make(chan Reload, 1),
		errors:  make(chan error, 8),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	w.watcher = fsw

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Reloads delivers the result of each reload. Only the latest unread result
// is kept.
func (w *Watcher) Reloads() <-chan Reload {
	return w.reloads
}

// Errors delivers watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.closeCh)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.closedWg.Wait()

	w.mu.Lock()
	close(w.reloads)
	close(w.errors)
	w.mu.Unlock()
	return err
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.base {
				continue
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) ||
				event.Op.Has(fsnotify.Rename) || event.Op.Has(fsnotify.Remove) {
				w.log.Debug("config file changed", zap.String("op", event.Op.String()))
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

// schedule (re)starts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.fire)
}

func (w *Watcher) fire() {
	cfg, err := w.load(w.path)
	if err != nil {
		w.log.Warn("config reload failed", zap.Error(err))
	} else {
		w.log.Info("config reloaded", zap.String("path", w.path))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	r := Reload{Config: cfg, Err: err}
	select {
	case w.reloads <- r:
	default:
		// Replace the unread result.
		select {
		case <-w.reloads:
		default:
		}
		w.reloads <- r
	}
}

func (w *Watcher) sendError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.errors <- err:
	default:
		w.log.Warn("dropping watcher error", zap.Error(err))
	}
}

func loadWithEnv(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
