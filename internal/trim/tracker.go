package trim

import "sync"

// DocID identifies an open document. Values are assigned by the host.
type DocID = string

// Tracker stores the last known full text of every open document.
type Tracker struct {
	mu        sync.RWMutex
	snapshots map[DocID]string
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{snapshots: make(map[DocID]string)}
}

// OnOpen records text as the snapshot of id, replacing any previous one.
func (t *Tracker) OnOpen(id DocID, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshots[id] = text
}

// OnClone records the snapshot for a newly cloned document.
func (t *Tracker) OnClone(id DocID, text string) {
	t.OnOpen(id, text)
}

// OnSaved records the saved text so the next diff starts from it.
func (t *Tracker) OnSaved(id DocID, text string) {
	t.OnOpen(id, text)
}

// Forget drops the snapshot of a closed document.
func (t *Tracker) Forget(id DocID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.snapshots, id)
}

// Snapshot returns the stored text and whether id is tracked.
func (t *Tracker) Snapshot(id DocID) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	text, ok := t.snapshots[id]
	return text, ok
}

// Len returns the number of tracked documents.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.snapshots)
}
