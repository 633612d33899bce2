// Package plugin runs Lua scripts as save-lifecycle listeners.
//
// A plugin is a single Lua file. Any of these global functions it defines
// is called for the matching lifecycle event, with the document ID and
// path as arguments:
//
//	on_open(id, path)
//	on_clone(id, path)
//	on_pre_save(id, path)
//	on_post_save(id, path)
//	on_close(id, path)
//
// While a function runs, ks.buf reads the document the event fired for.
// A function may return false and a message to fail the event:
//
//	function on_pre_save(id, path)
//	    if ks.buf.text():find("DO NOT SAVE") then
//	        return false, "document is marked do-not-save"
//	    end
//	end
//
// Hosts are registered with a hook.Dispatcher only for the events their
// script handles.
package plugin
