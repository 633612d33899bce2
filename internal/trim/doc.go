// Package trim removes trailing whitespace from the lines a save actually
// changed.
//
// The Trimmer keeps a snapshot of every open document's text. On pre-save it
// aligns the snapshot's lines with the current lines using a
// Ratcliff/Obershelp sequence matcher. Lines of the current text that fall
// outside every matching block are "changed"; those lose their trailing
// spaces and tabs. Lines inside a matching block are left alone even if
// they carry trailing whitespace.
//
// Documents whose content matches one of the configured owner patterns have
// all trailing whitespace removed, whatever changed.
//
// A document with no snapshot at pre-save time (a new buffer, or one opened
// before the trimmer was registered) is resynchronized: its current text
// becomes the snapshot and no lines are edited.
//
// Edits are always applied from the end of the buffer backward so that
// earlier spans stay valid while later ones are rewritten.
package trim
