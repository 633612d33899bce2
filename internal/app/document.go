package app

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/wstrim/internal/buffer"
	"github.com/dshills/wstrim/internal/hook"
	"github.com/dshills/wstrim/internal/logging"
)

// Document is an open file and its buffer.
type Document struct {
	id   string
	path string // absolute; empty for documents opened from a string
	name string
	buf  *buffer.Buffer
	perm fs.FileMode

	modified atomic.Bool
}

func newDocument(path, name string, buf *buffer.Buffer) *Document {
	return &Document{
		id:   uuid.NewString(),
		path: path,
		name: name,
		buf:  buf,
		perm: 0o644,
	}
}

// ID returns the document's identity, unique per open or clone.
func (d *Document) ID() string { return d.id }

// Path returns the absolute file path, or "" when the document has no file.
func (d *Document) Path() string { return d.path }

// Name returns the display name.
func (d *Document) Name() string { return d.name }

// Buffer returns the document's buffer.
func (d *Document) Buffer() hook.Buffer { return d.buf }

// Content returns the buffer text, exactly as it will be written.
func (d *Document) Content() string { return d.buf.Text() }

// SetContent replaces the buffer text, as an edit would, and marks the
// document modified.
func (d *Document) SetContent(text string) {
	d.buf.SetText(text)
	d.modified.Store(true)
}

// IsModified returns true if the document has unsaved changes.
func (d *Document) IsModified() bool {
	return d.modified.Load()
}

var _ hook.Document = (*Document)(nil)

// DocumentManager owns the open documents and fires lifecycle hooks for
// them. Pre-save hook errors abort a save; errors from the other hooks are
// logged.
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[string]*Document // id -> document
	byPath    map[string]*Document // first document opened for a path
	order     []string

	hooks   *hook.Dispatcher
	logger  *logging.Logger
	metrics *Metrics
}

// NewDocumentManager creates a document manager dispatching to hooks.
func NewDocumentManager(hooks *hook.Dispatcher, logger *logging.Logger, metrics *Metrics) *DocumentManager {
	if hooks == nil {
		hooks = hook.NewDispatcher(logger)
	}
	if logger == nil {
		logger = logging.Null()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &DocumentManager{
		documents: make(map[string]*Document),
		byPath:    make(map[string]*Document),
		hooks:     hooks,
		logger:    logger.WithComponent("documents"),
		metrics:   metrics,
	}
}

// Open opens a document from a file.
// Returns the existing document if the file is already open.
func (dm *DocumentManager) Open(path string) (*Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}

	dm.mu.RLock()
	existing, ok := dm.byPath[absPath]
	dm.mu.RUnlock()
	if ok {
		return existing, nil
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, NewOperationError("open", absPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, NewOperationError("open", absPath, err)
	}
	buf, err := buffer.NewBufferFromReader(f)
	if err != nil {
		return nil, NewOperationError("open", absPath, err)
	}

	doc := newDocument(absPath, filepath.Base(absPath), buf)
	doc.perm = info.Mode().Perm()
	dm.add(doc)
	dm.fire(hook.TopicOpened, doc)
	return doc, nil
}

// OpenString opens a document with no file behind it.
func (dm *DocumentManager) OpenString(name, text string) *Document {
	doc := newDocument("", name, buffer.NewBufferFromString(text))
	dm.add(doc)
	dm.fire(hook.TopicOpened, doc)
	return doc
}

// OpenWithBaseline opens path as if baseline had been loaded and then
// edited into the file's current content. The baseline becomes the
// snapshot the next save is diffed against.
func (dm *DocumentManager) OpenWithBaseline(path, baseline string) (*Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, NewOperationError("open", absPath, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, NewOperationError("open", absPath, err)
	}

	doc := newDocument(absPath, filepath.Base(absPath), buffer.NewBufferFromString(baseline))
	doc.perm = info.Mode().Perm()
	dm.add(doc)

	dm.fire(hook.TopicOpened, doc)
	doc.SetContent(string(data))
	return doc, nil
}

// Clone opens a second document over the same content with its own
// identity.
func (dm *DocumentManager) Clone(id string) (*Document, error) {
	src, ok := dm.Get(id)
	if !ok {
		return nil, NewOperationError("clone", id, ErrDocumentNotFound)
	}

	doc := newDocument(src.path, src.name, buffer.NewBufferFromString(src.Content()))
	doc.perm = src.perm
	dm.add(doc)

	dm.fire(hook.TopicCloned, doc)
	return doc, nil
}

// PreSave runs the pre-save hooks without writing the file.
func (dm *DocumentManager) PreSave(ctx context.Context, id string) (*Document, error) {
	doc, ok := dm.Get(id)
	if !ok {
		return nil, NewOperationError("save", id, ErrDocumentNotFound)
	}
	if err := ctx.Err(); err != nil {
		return doc, NewOperationError("save", doc.label(), err)
	}
	if err := dm.hooks.Dispatch(hook.TopicPreSave, doc); err != nil {
		return doc, NewOperationError("save", doc.label(), err)
	}
	return doc, nil
}

// Save runs the pre-save hooks, writes the buffer to the document's file
// and runs the post-save hooks. A failing pre-save hook aborts the save.
// The file is not rewritten when its content already matches.
func (dm *DocumentManager) Save(ctx context.Context, id string) error {
	start := time.Now()
	err := dm.save(ctx, id)
	dm.metrics.RecordSave(time.Since(start), err)
	return err
}

func (dm *DocumentManager) save(ctx context.Context, id string) error {
	doc, err := dm.PreSave(ctx, id)
	if err != nil {
		return err
	}
	if doc.path == "" {
		return NewOperationError("save", doc.label(), ErrNoFilePath)
	}
	if err := ctx.Err(); err != nil {
		return NewOperationError("save", doc.path, err)
	}

	content := []byte(doc.Content())
	if onDisk, err := os.ReadFile(doc.path); err == nil && bytes.Equal(onDisk, content) {
		dm.metrics.RecordSkippedWrite()
		dm.logger.Debug("%s unchanged on disk", doc.path)
	} else if err := os.WriteFile(doc.path, content, doc.perm); err != nil {
		return NewOperationError("save", doc.path, err)
	}

	doc.modified.Store(false)
	dm.fire(hook.TopicSaved, doc)
	return nil
}

// Close closes a document.
func (dm *DocumentManager) Close(id string) error {
	dm.mu.Lock()
	doc, ok := dm.documents[id]
	if !ok {
		dm.mu.Unlock()
		return NewOperationError("close", id, ErrDocumentNotFound)
	}
	delete(dm.documents, id)
	if dm.byPath[doc.path] == doc {
		delete(dm.byPath, doc.path)
	}
	for i, oid := range dm.order {
		if oid == id {
			dm.order = append(dm.order[:i], dm.order[i+1:]...)
			break
		}
	}
	dm.mu.Unlock()

	dm.fire(hook.TopicClosed, doc)
	return nil
}

// CloseAll closes every document.
func (dm *DocumentManager) CloseAll() {
	for _, doc := range dm.All() {
		_ = dm.Close(doc.id)
	}
}

// Get returns a document by ID.
func (dm *DocumentManager) Get(id string) (*Document, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	doc, ok := dm.documents[id]
	return doc, ok
}

// GetByPath returns the document opened for path.
func (dm *DocumentManager) GetByPath(path string) (*Document, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	doc, ok := dm.byPath[absPath]
	return doc, ok
}

// All returns all open documents in open order.
func (dm *DocumentManager) All() []*Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	docs := make([]*Document, 0, len(dm.order))
	for _, id := range dm.order {
		if doc, ok := dm.documents[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// Count returns the number of open documents.
func (dm *DocumentManager) Count() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return len(dm.documents)
}

func (dm *DocumentManager) add(doc *Document) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.documents[doc.id] = doc
	dm.order = append(dm.order, doc.id)
	if doc.path != "" {
		if _, exists := dm.byPath[doc.path]; !exists {
			dm.byPath[doc.path] = doc
		}
	}
}

// fire dispatches a non-save topic; failures are logged only.
func (dm *DocumentManager) fire(t hook.Topic, doc *Document) {
	if t == hook.TopicOpened || t == hook.TopicCloned {
		dm.metrics.RecordOpen()
	}
	if err := dm.hooks.Dispatch(t, doc); err != nil {
		dm.logger.Warn("%s hooks for %s: %v", t, doc.label(), err)
	}
}

func (d *Document) label() string {
	if d.path != "" {
		return d.path
	}
	return d.name
}
