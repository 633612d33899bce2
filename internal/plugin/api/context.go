package api

import (
	"sync"

	"github.com/dshills/wstrim/internal/hook"
)

// Context carries the document the current hook fired for. Modules read
// it at call time, so one Lua state can serve every document.
type Context struct {
	mu  sync.RWMutex
	doc hook.Document
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{}
}

// Bind sets the current document and returns a function restoring the
// previous one.
func (c *Context) Bind(doc hook.Document) (restore func()) {
	c.mu.Lock()
	prev := c.doc
	c.doc = doc
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		c.doc = prev
		c.mu.Unlock()
	}
}

// Document returns the current document, or nil outside a hook.
func (c *Context) Document() hook.Document {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.doc
}
