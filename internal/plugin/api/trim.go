package api

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/wstrim/internal/trim"
)

// TrimModule implements the ks.trim API module.
type TrimModule struct{}

// NewTrimModule creates a new trim module.
func NewTrimModule() *TrimModule {
	return &TrimModule{}
}

// Name returns the module name.
func (m *TrimModule) Name() string {
	return "trim"
}

// Register registers the module into the Lua state.
func (m *TrimModule) Register(L *lua.LState) error {
	mod := L.NewTable()
	L.SetField(mod, "changed_lines", L.NewFunction(m.changedLines))
	L.SetField(mod, "rstrip", L.NewFunction(m.rstrip))
	L.SetField(mod, "trim", L.NewFunction(m.trim))
	L.SetGlobal("_ks_trim", mod)
	return nil
}

// changed_lines(old, new) -> table
// Returns the 1-based numbers of the lines of new that are not part of any
// block matching old.
func (m *TrimModule) changedLines(L *lua.LState) int {
	old := L.CheckString(1)
	cur := L.CheckString(2)

	tbl := L.NewTable()
	for _, line := range trim.ChangedLines(old, cur) {
		tbl.Append(lua.LNumber(line + 1))
	}
	L.Push(tbl)
	return 1
}

// rstrip(s) -> string
// Removes trailing spaces and tabs.
func (m *TrimModule) rstrip(L *lua.LState) int {
	L.Push(lua.LString(trim.TrimRight(L.CheckString(1))))
	return 1
}

// trim(old, new, owner) -> string
// Trims the changed lines of new; every line when owner is true.
func (m *TrimModule) trim(L *lua.LState) int {
	old := L.CheckString(1)
	cur := L.CheckString(2)
	owner := L.OptBool(3, false)

	out, err := trim.Trim(old, cur, owner)
	if err != nil {
		L.RaiseError("trim: %v", err)
	}
	L.Push(lua.LString(out))
	return 1
}
