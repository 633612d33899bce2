package trim

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/wstrim/internal/buffer"
	"github.com/dshills/wstrim/internal/hook"
)

type testDoc struct {
	id  string
	buf *buffer.Buffer
}

func newTestDoc(id, text string) *testDoc {
	return &testDoc{id: id, buf: buffer.NewBufferFromString(text)}
}

func (d *testDoc) ID() string          { return d.id }
func (d *testDoc) Path() string        { return "" }
func (d *testDoc) Buffer() hook.Buffer { return d.buf }

// edit replaces the whole document text, as typing would.
func (d *testDoc) edit(text string) { d.buf.SetText(text) }

func mustOwner(t *testing.T, patterns ...string) *OwnerMatcher {
	t.Helper()
	m, err := NewOwnerMatcher(patterns...)
	require.NoError(t, err)
	return m
}

func TestPreSaveTrimsOnlyChangedLine(t *testing.T) {
	tr := New()
	doc := newTestDoc("d1", "a \nb\nc ")
	require.NoError(t, tr.OnOpen(doc))

	doc.edit("a \nb\nd ")
	res, err := tr.PreSave(doc)
	require.NoError(t, err)

	assert.False(t, res.Resynced)
	assert.Equal(t, []int{2}, res.ChangedLines)
	require.Len(t, res.Replacements, 1)
	assert.Equal(t, Replacement{Line: 2, Range: buffer.Range{Start: 5, End: 7}, Old: "d ", New: "d"}, res.Replacements[0])
	assert.Equal(t, "a \nb\nd", doc.buf.Text())
}

func TestPreSaveWithoutSnapshotResyncs(t *testing.T) {
	tr := New()
	doc := newTestDoc("d1", "x \n")

	res, err := tr.PreSave(doc)
	require.NoError(t, err)

	assert.True(t, res.Resynced)
	assert.Empty(t, res.Replacements)
	assert.False(t, res.Modified())
	assert.Equal(t, "x \n", doc.buf.Text())

	snap, ok := tr.Tracker().Snapshot("d1")
	require.True(t, ok)
	assert.Equal(t, "x \n", snap)
}

func TestPreSaveOwnerTrimsEverything(t *testing.T) {
	tr := New(WithOwnerMatcher(mustOwner(t, "B")))
	doc := newTestDoc("d1", "a \nb \n")
	require.NoError(t, tr.OnOpen(doc))

	res, err := tr.PreSave(doc)
	require.NoError(t, err)

	assert.Empty(t, res.ChangedLines)
	assert.True(t, res.OwnerMatched)
	assert.Len(t, res.Erased, 2)
	assert.Equal(t, "a\nb\n", doc.buf.Text())
}

func TestPreSaveOwnerAppliesToUntrackedDocuments(t *testing.T) {
	tr := New(WithOwnerMatcher(mustOwner(t, "jane@example\\.com")))
	doc := newTestDoc("d1", "// JANE@EXAMPLE.COM \nx\t\n")

	res, err := tr.PreSave(doc)
	require.NoError(t, err)

	assert.True(t, res.Resynced)
	assert.True(t, res.OwnerMatched)
	assert.Equal(t, "// JANE@EXAMPLE.COM\nx\n", doc.buf.Text())
}

func TestPreSaveNoOwnerMatchLeavesUnchangedLines(t *testing.T) {
	tr := New(WithOwnerMatcher(mustOwner(t, "somebody-else")))
	doc := newTestDoc("d1", "keep \nold\t\n")
	require.NoError(t, tr.OnOpen(doc))

	doc.edit("keep \nold\t\nnew  \n")
	res, err := tr.PreSave(doc)
	require.NoError(t, err)

	assert.False(t, res.OwnerMatched)
	assert.Equal(t, []int{2}, res.ChangedLines)
	assert.Equal(t, "keep \nold\t\nnew\n", doc.buf.Text())
}

func TestPreSaveCleanChangedLineIsNotReplaced(t *testing.T) {
	tr := New()
	doc := newTestDoc("d1", "a\nb")
	require.NoError(t, tr.OnOpen(doc))

	doc.edit("a\nc")
	res, err := tr.PreSave(doc)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, res.ChangedLines)
	assert.Empty(t, res.Replacements)
	assert.False(t, res.Modified())
}

func TestPreSaveInsertionDoesNotShiftChanges(t *testing.T) {
	tr := New()
	doc := newTestDoc("d1", "x \ny \nz ")
	require.NoError(t, tr.OnOpen(doc))

	doc.edit("top \nx \ny \nz ")
	res, err := tr.PreSave(doc)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, res.ChangedLines)
	assert.Equal(t, "top\nx \ny \nz ", doc.buf.Text())
}

func TestPreSaveMultipleReplacementsApplyBackward(t *testing.T) {
	tr := New()
	doc := newTestDoc("d1", "keep \n")
	require.NoError(t, tr.OnOpen(doc))

	doc.edit("one  \nkeep \ntwo\t\t\nthree \n")
	res, err := tr.PreSave(doc)
	require.NoError(t, err)

	require.Len(t, res.Replacements, 3)
	assert.Equal(t, "one\nkeep \ntwo\nthree\n", doc.buf.Text())
}

func TestPreSaveIsIdempotent(t *testing.T) {
	tr := New()
	doc := newTestDoc("d1", "a \nb \n")
	require.NoError(t, tr.OnOpen(doc))

	doc.edit("a \nb \nc \nd\t\n")
	first, err := tr.PreSave(doc)
	require.NoError(t, err)
	require.True(t, first.Modified())
	require.NoError(t, tr.OnPostSave(doc))

	second, err := tr.PreSave(doc)
	require.NoError(t, err)
	assert.Empty(t, second.ChangedLines)
	assert.False(t, second.Modified())
	assert.Equal(t, "a \nb \nc\nd\n", doc.buf.Text())
}

func TestPreSaveOwnerIsIdempotent(t *testing.T) {
	tr := New(WithOwnerMatcher(mustOwner(t, "a")))
	doc := newTestDoc("d1", "a \nb \n")
	require.NoError(t, tr.OnOpen(doc))

	_, err := tr.PreSave(doc)
	require.NoError(t, err)
	require.NoError(t, tr.OnPostSave(doc))

	res, err := tr.PreSave(doc)
	require.NoError(t, err)
	assert.True(t, res.OwnerMatched)
	assert.False(t, res.Modified())
}

func TestPreSaveReplacementsOnlyTouchChangedLines(t *testing.T) {
	tests := []struct {
		name    string
		old     string
		current string
	}{
		{"append", "a \nb \n", "a \nb \nc \n"},
		{"prepend", "a \nb ", "z \na \nb "},
		{"replace middle", "a \nb \nc ", "a \nB \nc "},
		{"delete", "a \nb \nc ", "a \nc "},
		{"reorder", "a \nb \nc ", "c \na \nb "},
		{"coincidental", "x \ny ", "x \ny \nx "},
		{"empty old", "", "a \n\t\n"},
		{"everything new", "a\nb", "c \nd "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New()
			doc := newTestDoc("d", tt.old)
			require.NoError(t, tr.OnOpen(doc))
			doc.edit(tt.current)

			res, err := tr.PreSave(doc)
			require.NoError(t, err)

			changed := make(map[int]bool)
			for _, l := range res.ChangedLines {
				changed[l] = true
			}
			for _, r := range res.Replacements {
				assert.True(t, changed[r.Line], "line %d replaced but not changed", r.Line)
				assert.Equal(t, TrimRight(r.Old), r.New)
				assert.NotEqual(t, r.Old, r.New)
			}

			before := SplitLines(tt.current)
			after := SplitLines(doc.buf.Text())
			require.Len(t, after, len(before), "trimming never changes the line count")
			for i := range before {
				if changed[i] {
					assert.Equal(t, TrimRight(before[i]), after[i])
				} else {
					assert.Equal(t, before[i], after[i], "unchanged line %d was edited", i)
				}
			}
		})
	}
}

func TestListenerLifecycle(t *testing.T) {
	tr := New()
	doc := newTestDoc("d1", "one")
	clone := newTestDoc("d2", "one")

	require.NoError(t, tr.OnOpen(doc))
	require.NoError(t, tr.OnClone(clone))
	assert.Equal(t, 2, tr.Tracker().Len())

	doc.edit("two ")
	require.NoError(t, tr.OnPreSave(doc))
	assert.Equal(t, "two", doc.buf.Text())
	require.NoError(t, tr.OnPostSave(doc))

	snap, ok := tr.Tracker().Snapshot("d1")
	require.True(t, ok)
	assert.Equal(t, "two", snap)

	require.NoError(t, tr.OnClose(doc))
	_, ok = tr.Tracker().Snapshot("d1")
	assert.False(t, ok)
	assert.Equal(t, 1, tr.Tracker().Len())
}

func TestTrimmerThroughDispatcher(t *testing.T) {
	tr := New()
	d := hook.NewDispatcher(nil)
	require.NoError(t, d.Register("trim", tr))

	doc := newTestDoc("d1", "a\n")
	require.NoError(t, d.Dispatch(hook.TopicOpened, doc))
	doc.edit("a\nb \n")
	require.NoError(t, d.Dispatch(hook.TopicPreSave, doc))

	assert.Equal(t, "a\nb\n", doc.buf.Text())
}

// failingBuffer rejects every edit.
type failingBuffer struct {
	*buffer.Buffer
}

var errReadOnly = errors.New("read only")

func (failingBuffer) ApplyEdits([]buffer.Edit) error { return errReadOnly }

type failingDoc struct{ buf failingBuffer }

func (d failingDoc) ID() string          { return "ro" }
func (d failingDoc) Path() string        { return "" }
func (d failingDoc) Buffer() hook.Buffer { return d.buf }

func TestPreSaveReportsEditErrors(t *testing.T) {
	tr := New()
	tr.Tracker().OnOpen("ro", "")
	doc := failingDoc{buf: failingBuffer{buffer.NewBufferFromString("x ")}}

	_, err := tr.PreSave(doc)

	require.Error(t, err)
	assert.ErrorIs(t, err, errReadOnly)
	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "trim lines", te.Op)
	assert.Equal(t, "ro", te.DocID)
}

func TestTrim(t *testing.T) {
	tests := []struct {
		name    string
		old     string
		current string
		owned   bool
		want    string
	}{
		{"changed line", "a \nb\nc ", "a \nb\nd ", false, "a \nb\nd"},
		{"owned", "a \nb\nc ", "a \nb\nd ", true, "a\nb\nd"},
		{"unchanged", "same ", "same ", false, "same "},
		{"crlf changed line", "a \r\nb\r\n", "a \r\nc \r\n", false, "a \r\nc\r\n"},
		{"crlf owned", "", "a \r\n\t\r\nb", true, "a\r\n\r\nb"},
		{"mixed endings kept", "a\nb\r\n", "a\nb\r\nc \n", false, "a\nb\r\nc\n"},
		{"lone cr is content", "x\n", "x\ns := \"a \rb\"\n", true, "x\ns := \"a \rb\"\n"},
		{"whitespace before lone cr", "", "a \r", true, "a \r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Trim(tt.old, tt.current, tt.owned)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.Count(tt.current, "\n"), strings.Count(got, "\n"))
		})
	}
}

func TestPreSaveOwnerKeepsCRLF(t *testing.T) {
	tr := New(WithOwnerMatcher(mustOwner(t, "me")))
	doc := newTestDoc("crlf", "me \r\nx\t\r\n")

	res, err := tr.PreSave(doc)
	require.NoError(t, err)

	assert.Equal(t, "me\r\nx\r\n", doc.buf.Text())
	assert.Equal(t, []buffer.Range{{Start: 2, End: 3}, {Start: 6, End: 7}}, res.Erased)
}

func TestTrimLargeDocument(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 300; i++ {
		sb.WriteString("line ")
		sb.WriteString(strings.Repeat("x", i%7))
		sb.WriteString("\n")
	}
	old := sb.String()
	current := strings.Replace(old, "line xxx\n", "line xxx\nadded \n", 1)

	got, err := Trim(old, current, false)
	require.NoError(t, err)

	assert.Contains(t, got, "line xxx\nadded\n")
	assert.Equal(t, strings.Count(current, "\n"), strings.Count(got, "\n"))
}
