package hook

import (
	"regexp"

	"github.com/dshills/wstrim/internal/buffer"
)

// Buffer is the buffer access a listener gets from the host.
type Buffer interface {
	// Text returns the full content.
	Text() string

	// LineCount returns the number of "\n"-separated lines.
	LineCount() int

	// LineRange returns the span of a line, excluding its "\n" or "\r\n".
	LineRange(line int) (buffer.Range, error)

	// TextRange returns the text in [start, end).
	TextRange(start, end buffer.ByteOffset) (string, error)

	// ApplyEdits applies edits ordered from the highest offset down.
	ApplyEdits(edits []buffer.Edit) error

	// FindAll returns every match of re in order.
	FindAll(re *regexp.Regexp) []buffer.Range
}

// Document identifies an open document and exposes its buffer.
type Document interface {
	// ID is assigned by the host and stable while the document is open.
	ID() string

	// Path is the file path, empty for unsaved documents.
	Path() string

	// Buffer returns the live buffer.
	Buffer() Buffer
}

// Listener receives document lifecycle events.
type Listener interface {
	OnOpen(doc Document) error
	OnClone(doc Document) error
	OnPreSave(doc Document) error
	OnPostSave(doc Document) error
	OnClose(doc Document) error
}

// Funcs adapts plain functions to Listener. Nil fields are no-ops.
type Funcs struct {
	Open     func(doc Document) error
	Clone    func(doc Document) error
	PreSave  func(doc Document) error
	PostSave func(doc Document) error
	Close    func(doc Document) error
}

func call(fn func(Document) error, doc Document) error {
	if fn == nil {
		return nil
	}
	return fn(doc)
}

// OnOpen implements Listener.
func (f Funcs) OnOpen(doc Document) error { return call(f.Open, doc) }

// OnClone implements Listener.
func (f Funcs) OnClone(doc Document) error { return call(f.Clone, doc) }

// OnPreSave implements Listener.
func (f Funcs) OnPreSave(doc Document) error { return call(f.PreSave, doc) }

// OnPostSave implements Listener.
func (f Funcs) OnPostSave(doc Document) error { return call(f.PostSave, doc) }

// OnClose implements Listener.
func (f Funcs) OnClose(doc Document) error { return call(f.Close, doc) }

var _ Listener = Funcs{}

// deliver routes a topic to the matching Listener method.
func deliver(l Listener, t Topic, doc Document) error {
	switch t {
	case TopicOpened:
		return l.OnOpen(doc)
	case TopicCloned:
		return l.OnClone(doc)
	case TopicPreSave:
		return l.OnPreSave(doc)
	case TopicSaved:
		return l.OnPostSave(doc)
	case TopicClosed:
		return l.OnClose(doc)
	default:
		return ErrUnknownTopic
	}
}
