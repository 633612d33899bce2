// Package watcher reports changes to a set of files using fsnotify.
//
// Parent directories are watched rather than the files themselves, so files
// that editors replace by rename, or that do not exist yet, are still seen.
// Events for the same file are coalesced over a debounce window.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/wstrim/internal/logging"
)

// ErrWatcherClosed is returned when using a closed watcher.
var ErrWatcherClosed = errors.New("watcher is closed")

// Op is the kind of change observed.
type Op int

const (
	// OpWrite indicates the file was modified.
	OpWrite Op = iota

	// OpCreate indicates the file was created (or renamed into place).
	OpCreate

	// OpRemove indicates the file was deleted or renamed away.
	OpRemove
)

// String returns the operation name.
func (op Op) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event represents a file change.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// Handler is called for every debounced event.
type Handler func(Event)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the window over which events for one file coalesce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watcher monitors a set of files.
type Watcher struct {
	mu      sync.RWMutex
	fsw     *fsnotify.Watcher
	files   map[string]bool
	dirs    map[string]int
	handler Handler
	closed  bool

	debounce time.Duration
	logger   *logging.Logger

	pendingMu sync.Mutex
	pending   map[string]Event
}

// New creates a watcher that calls handler for changes to watched files.
func New(handler Handler, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]int),
		handler:  handler,
		debounce: 100 * time.Millisecond,
		logger:   logging.Null(),
		pending:  make(map[string]Event),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.WithComponent("watcher")
	return w, nil
}

// Add starts watching path. The file need not exist, but its directory must.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.files[abs] {
		return nil
	}

	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.files[abs] = true
	return nil
}

// Remove stops watching path.
func (w *Watcher) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.files[abs] {
		return nil
	}
	delete(w.files, abs)

	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		if !w.closed {
			return w.fsw.Remove(dir)
		}
	}
	return nil
}

// Files returns the watched files.
func (w *Watcher) Files() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	return files
}

// Run delivers events until ctx is cancelled or the watcher is closed.
// Pending events are delivered before Run returns, after ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if w.debounce > 0 {
		ticker := time.NewTicker(w.debounce)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			w.flush(time.Time{})
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				w.flush(time.Time{})
				return nil
			}
			w.handleFSEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fsnotify: %v", err)

		case <-tick:
			w.flush(time.Now().Add(-w.debounce))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) handleFSEvent(ev fsnotify.Event) {
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}

	w.mu.RLock()
	watched := w.files[abs]
	w.mu.RUnlock()
	if !watched {
		return
	}

	op, ok := convertOp(ev.Op, abs)
	if !ok {
		return
	}

	event := Event{Path: abs, Op: op, Time: time.Now()}
	if w.debounce <= 0 {
		w.emit(event)
		return
	}
	w.queue(event)
}

// convertOp maps an fsnotify op onto Op. Renames are reported as removal
// unless the file is still there, which happens when an editor renames a
// temporary file over it.
func convertOp(fsOp fsnotify.Op, path string) (Op, bool) {
	switch {
	case fsOp.Has(fsnotify.Create):
		return OpCreate, true
	case fsOp.Has(fsnotify.Write):
		return OpWrite, true
	case fsOp.Has(fsnotify.Remove), fsOp.Has(fsnotify.Rename):
		if _, err := os.Stat(path); err == nil {
			return OpCreate, true
		}
		return OpRemove, true
	default:
		return 0, false
	}
}

// queue coalesces events per path:
// create + write => create, any + remove => remove, otherwise latest wins.
func (w *Watcher) queue(event Event) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	existing, ok := w.pending[event.Path]
	if ok && existing.Op == OpCreate && event.Op == OpWrite {
		event.Op = OpCreate
	}
	w.pending[event.Path] = event
}

// flush emits pending events last seen before cutoff. A zero cutoff
// flushes everything.
func (w *Watcher) flush(cutoff time.Time) {
	w.pendingMu.Lock()
	var ready []Event
	for path, ev := range w.pending {
		if cutoff.IsZero() || ev.Time.Before(cutoff) {
			ready = append(ready, ev)
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	for _, ev := range ready {
		w.emit(ev)
	}
}

// emit calls the handler with panic recovery so one bad event cannot stop
// the loop.
func (w *Watcher) emit(event Event) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("handler panic for %s: %v", event.Path, r)
		}
	}()
	if w.handler != nil {
		w.handler(event)
	}
}
