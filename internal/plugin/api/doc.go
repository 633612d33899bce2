// Package api implements the ks modules exposed to Lua plugins.
//
// Each module registers itself as a _ks_<name> global; Registry.InjectAll
// gathers them into a single ks table available both as a global and via
// require("ks"):
//
//	local ks = require("ks")
//	local lines = ks.trim.changed_lines(old, ks.buf.text())
//	for _, n in ipairs(lines) do
//	    print(n, ks.trim.rstrip(ks.buf.line(n)))
//	end
//
// ks.trim
//
//	changed_lines(old, new) -> table   1-based lines of new outside every match
//	rstrip(s) -> string                s without trailing spaces and tabs
//	trim(old, new, owner) -> string    new with changed lines trimmed; all lines if owner
//
// ks.buf (bound to the document the current hook fired for)
//
//	id() -> string
//	path() -> string
//	text() -> string
//	line(n) -> string                  1-based
//	line_count() -> number
package api
