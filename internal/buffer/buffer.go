package buffer

import (
	"errors"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrRangeInvalid   = errors.New("invalid range")
	ErrLineOutOfRange = errors.New("line out of range")
	ErrEditsOverlap   = errors.New("edits overlap or are not in reverse order")
)

// Buffer holds document text, byte for byte as read, and the start offset
// of every line. All methods are thread-safe.
type Buffer struct {
	mu         sync.RWMutex
	text       string
	lineStarts []ByteOffset
	revisionID RevisionID
}

// NewBuffer creates a new empty buffer.
func NewBuffer() *Buffer {
	b := &Buffer{revisionID: NewRevisionID()}
	b.reindex()
	return b
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string) *Buffer {
	b := NewBuffer()
	b.text = s
	b.reindex()
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data)), nil
}

// reindex rebuilds lineStarts. Caller must hold the write lock.
func (b *Buffer) reindex() {
	starts := b.lineStarts[:0]
	starts = append(starts, 0)
	for i := 0; i < len(b.text); i++ {
		if b.text[i] == '\n' {
			starts = append(starts, ByteOffset(i+1))
		}
	}
	b.lineStarts = starts
}

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(len(b.text))
}

// IsEmpty returns true if the buffer has no content.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// LineCount returns the number of lines. An empty buffer has one line.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lineStarts)
}

// LineRange returns the span of a line, excluding its terminator ("\n" or
// "\r\n"). A "\r" not followed by "\n" is line content.
func (b *Buffer) LineRange(line int) (Range, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineRange(line)
}

func (b *Buffer) lineRange(line int) (Range, error) {
	if line < 0 || line >= len(b.lineStarts) {
		return Range{}, ErrLineOutOfRange
	}
	start := b.lineStarts[line]
	end := ByteOffset(len(b.text))
	if line+1 < len(b.lineStarts) {
		end = b.lineStarts[line+1] - 1
		if end > start && b.text[end-1] == '\r' {
			end--
		}
	}
	return Range{Start: start, End: end}, nil
}

// LineText returns the text of a line without its terminator.
func (b *Buffer) LineText(line int) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, err := b.lineRange(line)
	if err != nil {
		return "", err
	}
	return b.text[r.Start:r.End], nil
}

// TextRange returns the text in [start, end).
func (b *Buffer) TextRange(start, end ByteOffset) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.validRange(Range{Start: start, End: end}) {
		return "", ErrRangeInvalid
	}
	return b.text[start:end], nil
}

// LineOf returns the line containing offset.
func (b *Buffer) LineOf(offset ByteOffset) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i := sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > offset
	})
	return i - 1
}

func (b *Buffer) validRange(r Range) bool {
	return r.IsValid() && r.End <= ByteOffset(len(b.text))
}

// FindAll returns the span of every non-overlapping match of re, in order.
func (b *Buffer) FindAll(re *regexp.Regexp) []Range {
	b.mu.RLock()
	defer b.mu.RUnlock()

	locs := re.FindAllStringIndex(b.text, -1)
	if len(locs) == 0 {
		return nil
	}
	ranges := make([]Range, 0, len(locs))
	for _, loc := range locs {
		ranges = append(ranges, Range{Start: ByteOffset(loc[0]), End: ByteOffset(loc[1])})
	}
	return ranges
}

// Replace replaces [start, end) with text and returns the end offset of the
// inserted text.
func (b *Buffer) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := Range{Start: start, End: end}
	if !b.validRange(r) {
		return 0, ErrRangeInvalid
	}

	b.text = b.text[:start] + text + b.text[end:]
	b.reindex()
	b.revisionID = NewRevisionID()

	return start + ByteOffset(len(text)), nil
}

// ApplyEdit applies a single edit.
func (b *Buffer) ApplyEdit(edit Edit) error {
	_, err := b.Replace(edit.Range.Start, edit.Range.End, edit.NewText)
	return err
}

// ApplyEdits applies edits as one revision.
// Edits must be sorted in reverse order (highest offset first) and must not
// overlap, so that applying one never moves the span of the next.
func (b *Buffer) ApplyEdits(edits []Edit) error {
	if len(edits) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i := 1; i < len(edits); i++ {
		if edits[i].Range.End > edits[i-1].Range.Start {
			return ErrEditsOverlap
		}
	}

	for _, edit := range edits {
		if !b.validRange(edit.Range) {
			return ErrRangeInvalid
		}
	}

	var sb strings.Builder
	sb.Grow(len(b.text))
	// Walk the edits from the front so the result can be built in one pass.
	prev := ByteOffset(0)
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		sb.WriteString(b.text[prev:e.Range.Start])
		sb.WriteString(e.NewText)
		prev = e.Range.End
	}
	sb.WriteString(b.text[prev:])

	b.text = sb.String()
	b.reindex()
	b.revisionID = NewRevisionID()
	return nil
}

// SetText replaces the entire content, e.g. after the file changed on disk.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.reindex()
	b.revisionID = NewRevisionID()
}

// RevisionID returns the current revision.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revisionID
}
