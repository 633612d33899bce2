package api

import (
	"fmt"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// APIVersion is reported to plugins as ks.api_version.
const APIVersion = 1

// Module is a Lua API module.
type Module interface {
	// Name returns the module name (e.g., "buf", "trim").
	Name() string

	// Register registers the module functions into the Lua state under the
	// _ks_<name> global.
	Register(L *lua.LState) error
}

// Registry manages API modules.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// DefaultRegistry creates a registry with the trim and buf modules.
func DefaultRegistry(ctx *Context) *Registry {
	r := NewRegistry()
	// Names are distinct, so registration cannot fail.
	_ = r.Register(NewTrimModule())
	_ = r.Register(NewBufferModule(ctx))
	return r
}

// Register adds a module.
func (r *Registry) Register(mod Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[mod.Name()]; exists {
		return fmt.Errorf("module %q already registered", mod.Name())
	}
	r.modules[mod.Name()] = mod
	return nil
}

// Get returns a module by name.
func (r *Registry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mod, ok := r.modules[name]
	return mod, ok
}

// List returns the registered module names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InjectAll registers every module into L and installs the ks table.
func (r *Registry) InjectAll(L *lua.LState) error {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range names {
		if err := r.modules[name].Register(L); err != nil {
			return fmt.Errorf("failed to register module %q: %w", name, err)
		}
	}
	installKS(L, names)
	return nil
}

// installKS moves the _ks_<name> globals into one ks table, published as
// the ks global and as the preloaded "ks" module.
func installKS(L *lua.LState, names []string) {
	ks := L.NewTable()
	for _, name := range names {
		global := "_ks_" + name
		if val := L.GetGlobal(global); val != lua.LNil {
			L.SetField(ks, name, val)
			L.SetGlobal(global, lua.LNil)
		}
	}
	L.SetField(ks, "api_version", lua.LNumber(APIVersion))

	L.SetGlobal("ks", ks)
	L.PreloadModule("ks", func(L *lua.LState) int {
		L.Push(ks)
		return 1
	})
}
