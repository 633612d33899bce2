// Package lua wraps gopher-lua with a sandboxed state for plugin scripts.
//
//	state, err := lua.NewState(lua.WithExecutionTimeout(time.Second))
//	if err != nil {
//	    return err
//	}
//	defer state.Close()
//
//	if err := state.DoFile("plugin.lua"); err != nil {
//	    return err
//	}
//
// The sandbox removes dofile, loadfile, load and loadstring, leaves the io,
// os and debug libraries closed, and restricts require to the string, table
// and math libraries plus preloaded ks modules.
package lua
