// Package watcher reloads option files when they change on disk.
//
// Files are watched through their parent directory so that editors which
// replace a file by rename are still observed. Bursts of events for the same
// file are coalesced by a debounce delay before the handler runs.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned when using a closed watcher.
	ErrClosed = errors.New("watcher closed")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Op describes what happened to a watched file. Values may be combined when
// several operations are coalesced.
type Op uint8

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
)

// Has reports whether op includes other.
func (op Op) Has(other Op) bool {
	return op&other != 0
}

func (op Op) String() string {
	var names []string
	for _, x := range []struct {
		op   Op
		name string
	}{{OpCreate, "create"}, {OpWrite, "write"}, {OpRemove, "remove"}, {OpRename, "rename"}} {
		if op.Has(x.op) {
			names = append(names, x.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Handler is called from the watcher goroutine after a file settles.
type Handler func(path string, op Op)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must be quiet before the handler runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.delay = d
		}
	}
}

// WithLogger sets the logger used for fsnotify errors.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// DefaultDebounce is the debounce delay used when none is configured.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches a set of option files.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	handler Handler
	logger  *zap.Logger
	delay   time.Duration

	files map[string]bool // absolute file paths
	dirs  map[string]int  // watched directories -> number of files in them

	started bool
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New creates a watcher that reports settled file changes to handler.
func New(handler Handler, opts ...Option) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watcher: nil handler")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:     fsw,
		handler: handler,
		logger:  zap.NewNop(),
		delay:   DefaultDebounce,
		files:   make(map[string]bool),
		dirs:    make(map[string]int),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add starts watching the file at path. The file need not exist yet, but
// its directory must.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.files[abs] {
		return nil
	}

	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[abs] = true
	return nil
}

// Remove stops watching the file at path.
func (w *Watcher) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if !w.files[abs] {
		return nil
	}
	delete(w.files, abs)

	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return nil
	}
	delete(w.dirs, dir)
	return w.fsw.Remove(dir)
}

// Files returns the watched files, sorted.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Start runs the event loop in a new goroutine until ctx is done or Close
// is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.started {
		return ErrAlreadyStarted
	}
	w.started = true

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Close stops the event loop and releases the fsnotify watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	d := newDebouncer(w.delay)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			op := convertOp(ev.Op)
			if op == 0 || !w.watching(ev.Name) {
				continue
			}
			d.add(filepath.Clean(ev.Name), op, time.Now())
			if wait, ok := d.next(time.Now()); ok {
				timer.Reset(wait)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("option file watch error", zap.Error(err))

		case <-timer.C:
			now := time.Now()
			for _, p := range d.flush(now) {
				w.logger.Debug("option file changed",
					zap.String("path", p.path), zap.Stringer("op", p.op))
				w.handler(p.path, p.op)
			}
			if wait, ok := d.next(now); ok {
				timer.Reset(wait)
			}
		}
	}
}

func (w *Watcher) watching(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[filepath.Clean(path)]
}

// convertOp maps fsnotify operations, dropping chmod-only events.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	return op
}
