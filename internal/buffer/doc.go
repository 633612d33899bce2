// Package buffer provides the thread-safe text buffer that documents are
// edited through.
//
// Text is kept exactly as read, so writing it back reproduces the file
// byte for byte. Lines are numbered from 0 and split on "\n" exactly: a
// trailing newline yields a final empty line, a "\r" before "\n" belongs to
// the terminator, and any other "\r" is ordinary content.
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("a \nb\n")
//
//	r, _ := buf.LineRange(0)      // [0:2)
//	_, _ = buf.Replace(r.Start, r.End, "a")
//
//	// Batched edits must be ordered from the end of the buffer backward.
//	err := buf.ApplyEdits([]buffer.Edit{
//	    buffer.NewDelete(5, 6),
//	    buffer.NewDelete(1, 2),
//	})
//
// Position types:
//
//   - ByteOffset: raw byte position in the buffer
//   - Range: half-open byte span [Start, End)
package buffer
