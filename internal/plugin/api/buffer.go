package api

import (
	lua "github.com/yuin/gopher-lua"
)

// BufferModule implements the ks.buf API module.
type BufferModule struct {
	ctx *Context
}

// NewBufferModule creates a new buffer module.
func NewBufferModule(ctx *Context) *BufferModule {
	return &BufferModule{ctx: ctx}
}

// Name returns the module name.
func (m *BufferModule) Name() string {
	return "buf"
}

// Register registers the module into the Lua state.
func (m *BufferModule) Register(L *lua.LState) error {
	mod := L.NewTable()
	L.SetField(mod, "id", L.NewFunction(m.id))
	L.SetField(mod, "path", L.NewFunction(m.path))
	L.SetField(mod, "text", L.NewFunction(m.text))
	L.SetField(mod, "line", L.NewFunction(m.line))
	L.SetField(mod, "line_count", L.NewFunction(m.lineCount))
	L.SetGlobal("_ks_buf", mod)
	return nil
}

// id() -> string
func (m *BufferModule) id(L *lua.LState) int {
	doc := m.ctx.Document()
	if doc == nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(doc.ID()))
	return 1
}

// path() -> string
func (m *BufferModule) path(L *lua.LState) int {
	doc := m.ctx.Document()
	if doc == nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(doc.Path()))
	return 1
}

// text() -> string
// Returns the full buffer text.
func (m *BufferModule) text(L *lua.LState) int {
	doc := m.ctx.Document()
	if doc == nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(doc.Buffer().Text()))
	return 1
}

// line(n) -> string
// Returns the text of a line (1-indexed), without its newline.
func (m *BufferModule) line(L *lua.LState) int {
	n := L.CheckInt(1)

	doc := m.ctx.Document()
	if doc == nil {
		L.Push(lua.LString(""))
		return 1
	}

	buf := doc.Buffer()
	r, err := buf.LineRange(n - 1)
	if err != nil {
		L.RaiseError("line: %v", err)
		return 0
	}
	text, err := buf.TextRange(r.Start, r.End)
	if err != nil {
		L.RaiseError("line: %v", err)
		return 0
	}
	L.Push(lua.LString(text))
	return 1
}

// line_count() -> number
func (m *BufferModule) lineCount(L *lua.LState) int {
	doc := m.ctx.Document()
	if doc == nil {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(doc.Buffer().LineCount()))
	return 1
}
