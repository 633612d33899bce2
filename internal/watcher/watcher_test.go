package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) handle(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	other := filepath.Join(dir, "unrelated.txt")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	var c collector
	w, err := New(c.handle, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("b"), 0o644))

	abs, _ := filepath.Abs(path)
	require.Eventually(t, func() bool {
		for _, ev := range c.snapshot() {
			if ev.Path == abs {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	for _, ev := range c.snapshot() {
		assert.Equal(t, abs, ev.Path, "only watched files are reported")
	}
}

func TestWatcherAddRemove(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")

	w, err := New(nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add(a))
	require.NoError(t, w.Add(b))
	require.NoError(t, w.Add(a))
	assert.Len(t, w.Files(), 2)
	assert.Equal(t, 1, len(w.dirs))

	require.NoError(t, w.Remove(a))
	assert.Len(t, w.Files(), 1)
	require.NoError(t, w.Remove(b))
	assert.Empty(t, w.Files())
	assert.Empty(t, w.dirs)
}

func TestWatcherAddAfterClose(t *testing.T) {
	w, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.Add(filepath.Join(t.TempDir(), "x")), ErrWatcherClosed)
}

func TestQueueCoalesces(t *testing.T) {
	w := &Watcher{pending: make(map[string]Event)}

	w.queue(Event{Path: "/f", Op: OpCreate})
	w.queue(Event{Path: "/f", Op: OpWrite})
	assert.Equal(t, OpCreate, w.pending["/f"].Op)

	w.queue(Event{Path: "/f", Op: OpRemove})
	assert.Equal(t, OpRemove, w.pending["/f"].Op)

	w.queue(Event{Path: "/g", Op: OpWrite})
	assert.Len(t, w.pending, 2)
}

func TestFlushRespectsCutoff(t *testing.T) {
	var c collector
	w := &Watcher{pending: make(map[string]Event), handler: c.handle}

	now := time.Now()
	w.pending["/old"] = Event{Path: "/old", Op: OpWrite, Time: now.Add(-time.Second)}
	w.pending["/new"] = Event{Path: "/new", Op: OpWrite, Time: now}

	w.flush(now.Add(-500 * time.Millisecond))
	require.Len(t, c.snapshot(), 1)
	assert.Equal(t, "/old", c.snapshot()[0].Path)

	w.flush(time.Time{})
	assert.Len(t, c.snapshot(), 2)
	assert.Empty(t, w.pending)
}

func TestConvertOp(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "here")
	require.NoError(t, os.WriteFile(existing, nil, 0o644))
	missing := filepath.Join(t.TempDir(), "gone")

	tests := []struct {
		name string
		op   fsnotify.Op
		path string
		want Op
		ok   bool
	}{
		{"create", fsnotify.Create, missing, OpCreate, true},
		{"write", fsnotify.Write, existing, OpWrite, true},
		{"remove", fsnotify.Remove, missing, OpRemove, true},
		{"rename away", fsnotify.Rename, missing, OpRemove, true},
		{"rename over", fsnotify.Rename, existing, OpCreate, true},
		{"chmod", fsnotify.Chmod, existing, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := convertOp(tt.op, tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEmitRecoversHandlerPanic(t *testing.T) {
	w, err := New(func(Event) { panic("boom") })
	require.NoError(t, err)
	defer w.Close()

	assert.NotPanics(t, func() { w.emit(Event{Path: "/x"}) })
}
