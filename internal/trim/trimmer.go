package trim

import (
	"strings"

	"github.com/dshills/wstrim/internal/buffer"
	"github.com/dshills/wstrim/internal/hook"
	"github.com/dshills/wstrim/internal/logging"
)

// Replacement rewrites one changed line to its trimmed form.
type Replacement struct {
	Line  int          // 0-based line index in the current text
	Range buffer.Range // span of the line before trimming, newline excluded
	Old   string
	New   string
}

// Edit returns the buffer edit for the replacement.
func (r Replacement) Edit() buffer.Edit {
	return buffer.NewEdit(r.Range, r.New)
}

// Result describes one pre-save pass.
type Result struct {
	// Resynced is set when the document had no snapshot; no lines were
	// diffed in that case.
	Resynced bool

	// ChangedLines are the lines outside every matching block.
	ChangedLines []int

	// Replacements are the changed lines that actually lost whitespace.
	Replacements []Replacement

	// OwnerMatched is set when an owner pattern matched the document.
	OwnerMatched bool

	// Erased are the trailing whitespace runs removed because of an owner
	// match, in buffer coordinates after Replacements were applied.
	Erased []buffer.Range
}

// Modified reports whether the pass edited the buffer.
func (r Result) Modified() bool {
	return len(r.Replacements) > 0 || len(r.Erased) > 0
}

// Trimmer tracks document snapshots and trims changed lines before save.
// It implements hook.Listener.
type Trimmer struct {
	tracker *Tracker
	owner   *OwnerMatcher
	logger  *logging.Logger
}

// Option configures a Trimmer.
type Option func(*Trimmer)

// WithOwnerMatcher sets the matcher that enables whole-document trimming.
func WithOwnerMatcher(m *OwnerMatcher) Option {
	return func(t *Trimmer) {
		t.owner = m
	}
}

// WithTracker shares an existing snapshot store.
func WithTracker(tr *Tracker) Option {
	return func(t *Trimmer) {
		if tr != nil {
			t.tracker = tr
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(t *Trimmer) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Trimmer. Without an owner matcher only changed lines are
// trimmed.
func New(opts ...Option) *Trimmer {
	t := &Trimmer{
		tracker: NewTracker(),
		logger:  logging.Null(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.WithComponent("trim")
	return t
}

// Tracker returns the snapshot store.
func (t *Trimmer) Tracker() *Tracker {
	return t.tracker
}

// Owner returns the owner matcher, which may be nil.
func (t *Trimmer) Owner() *OwnerMatcher {
	return t.owner
}

// PreSave trims the document's buffer in place.
//
// With a snapshot, every changed line whose trimmed form differs is
// rewritten. Without one, the current text is recorded as the snapshot and
// no lines are touched. Either way, if the content matches an owner pattern
// every trailing whitespace run in the document is erased.
func (t *Trimmer) PreSave(doc hook.Document) (Result, error) {
	var res Result
	id := doc.ID()
	buf := doc.Buffer()
	log := t.logger.WithField("doc", id)

	old, ok := t.tracker.Snapshot(id)
	if !ok {
		t.tracker.OnOpen(id, buf.Text())
		res.Resynced = true
		log.Debug("no snapshot, resynchronized")
	} else {
		changed, repls, err := trimChangedLines(buf, old)
		res.ChangedLines = changed
		if err != nil {
			return res, &Error{Op: "trim lines", DocID: id, Err: err}
		}
		res.Replacements = repls
		if len(repls) > 0 {
			log.Debug("trimmed %d of %d changed lines", len(repls), len(changed))
		}
	}

	if t.owner.Match(buf.Text()) {
		res.OwnerMatched = true
		erased, err := trimAll(buf)
		if err != nil {
			return res, &Error{Op: "trim all", DocID: id, Err: err}
		}
		res.Erased = erased
		if len(erased) > 0 {
			log.Debug("owner match, erased %d trailing runs", len(erased))
		}
	}

	return res, nil
}

// trimChangedLines rewrites the lines of buf that are not in a matching
// block against old.
func trimChangedLines(buf hook.Buffer, old string) ([]int, []Replacement, error) {
	changed := ChangedLines(old, buf.Text())
	if len(changed) == 0 {
		return nil, nil, nil
	}

	var repls []Replacement
	for _, line := range changed {
		r, err := buf.LineRange(line)
		if err != nil {
			return changed, nil, err
		}
		text, err := buf.TextRange(r.Start, r.End)
		if err != nil {
			return changed, nil, err
		}
		trimmed := TrimRight(text)
		// Untouched lines keep the cursor and selection where they are.
		if trimmed == text {
			continue
		}
		repls = append(repls, Replacement{Line: line, Range: r, Old: text, New: trimmed})
	}
	if len(repls) == 0 {
		return changed, nil, nil
	}

	edits := make([]buffer.Edit, len(repls))
	for i, r := range repls {
		edits[i] = r.Edit()
	}
	buffer.SortDescending(edits)
	if err := buf.ApplyEdits(edits); err != nil {
		return changed, nil, err
	}
	return changed, repls, nil
}

// trimAll erases every trailing whitespace run in buf. Line terminators
// are left in place.
func trimAll(buf hook.Buffer) ([]buffer.Range, error) {
	runs := buf.FindAll(trailingWhitespace)
	if len(runs) == 0 {
		return nil, nil
	}
	for i, r := range runs {
		text, err := buf.TextRange(r.Start, r.End)
		if err != nil {
			return nil, err
		}
		runs[i].End = r.Start + buffer.ByteOffset(len(strings.TrimRight(text, "\r\n")))
	}

	edits := make([]buffer.Edit, len(runs))
	for i, r := range runs {
		edits[i] = buffer.NewDelete(r.Start, r.End)
	}
	buffer.SortDescending(edits)
	if err := buf.ApplyEdits(edits); err != nil {
		return nil, err
	}
	return runs, nil
}

// OnOpen records the opened document's text.
func (t *Trimmer) OnOpen(doc hook.Document) error {
	t.tracker.OnOpen(doc.ID(), doc.Buffer().Text())
	return nil
}

// OnClone records the clone's text under its own identity.
func (t *Trimmer) OnClone(doc hook.Document) error {
	t.tracker.OnClone(doc.ID(), doc.Buffer().Text())
	return nil
}

// OnPreSave trims the document.
func (t *Trimmer) OnPreSave(doc hook.Document) error {
	_, err := t.PreSave(doc)
	return err
}

// OnPostSave makes the saved text the next diff baseline.
func (t *Trimmer) OnPostSave(doc hook.Document) error {
	t.tracker.OnSaved(doc.ID(), doc.Buffer().Text())
	return nil
}

// OnClose drops the document's snapshot.
func (t *Trimmer) OnClose(doc hook.Document) error {
	t.tracker.Forget(doc.ID())
	return nil
}

var _ hook.Listener = (*Trimmer)(nil)

// Trim returns current with changed lines trimmed against old, and with all
// trailing whitespace removed when owned is set. It is the whole pre-save
// pass on a scratch buffer.
func Trim(old, current string, owned bool) (string, error) {
	buf := buffer.NewBufferFromString(current)
	if _, _, err := trimChangedLines(buf, old); err != nil {
		return current, &Error{Op: "trim lines", Err: err}
	}
	if owned {
		if _, err := trimAll(buf); err != nil {
			return current, &Error{Op: "trim all", Err: err}
		}
	}
	return buf.Text(), nil
}
