package hook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/wstrim/internal/buffer"
)

type fakeDoc struct {
	id  string
	buf *buffer.Buffer
}

func newFakeDoc(id, text string) *fakeDoc {
	return &fakeDoc{id: id, buf: buffer.NewBufferFromString(text)}
}

func (d *fakeDoc) ID() string     { return d.id }
func (d *fakeDoc) Path() string   { return "" }
func (d *fakeDoc) Buffer() Buffer { return d.buf }

// recorder appends "<name>:<topic>" for every call.
type recorder struct {
	name  string
	calls *[]string
	err   error
}

func (r recorder) rec(t Topic) error {
	*r.calls = append(*r.calls, r.name+":"+string(t))
	return r.err
}

func (r recorder) OnOpen(Document) error     { return r.rec(TopicOpened) }
func (r recorder) OnClone(Document) error    { return r.rec(TopicCloned) }
func (r recorder) OnPreSave(Document) error  { return r.rec(TopicPreSave) }
func (r recorder) OnPostSave(Document) error { return r.rec(TopicSaved) }
func (r recorder) OnClose(Document) error    { return r.rec(TopicClosed) }

func TestDispatchRoutesEveryTopic(t *testing.T) {
	var calls []string
	d := NewDispatcher(nil)
	require.NoError(t, d.Register("r", recorder{name: "r", calls: &calls}))

	doc := newFakeDoc("doc-1", "")
	for _, topic := range Topics() {
		require.NoError(t, d.Dispatch(topic, doc))
	}

	assert.Equal(t, []string{
		"r:buffer.opened",
		"r:buffer.cloned",
		"r:buffer.presave",
		"r:buffer.saved",
		"r:buffer.closed",
	}, calls)
}

func TestDispatchPriorityOrder(t *testing.T) {
	var calls []string
	d := NewDispatcher(nil)
	require.NoError(t, d.Register("low", recorder{name: "low", calls: &calls}, WithPriority(PriorityLow)))
	require.NoError(t, d.Register("first-normal", recorder{name: "first-normal", calls: &calls}))
	require.NoError(t, d.Register("critical", recorder{name: "critical", calls: &calls}, WithPriority(PriorityCritical)))
	require.NoError(t, d.Register("second-normal", recorder{name: "second-normal", calls: &calls}))

	require.NoError(t, d.Dispatch(TopicPreSave, newFakeDoc("x", "")))

	assert.Equal(t, []string{
		"critical:buffer.presave",
		"first-normal:buffer.presave",
		"second-normal:buffer.presave",
		"low:buffer.presave",
	}, calls)
	assert.Equal(t, []string{"critical", "first-normal", "second-normal", "low"}, d.Names())
}

func TestDispatchWithTopics(t *testing.T) {
	var calls []string
	d := NewDispatcher(nil)
	require.NoError(t, d.Register("saves", recorder{name: "saves", calls: &calls}, WithTopics(TopicSaved)))

	doc := newFakeDoc("x", "")
	require.NoError(t, d.Dispatch(TopicOpened, doc))
	require.NoError(t, d.Dispatch(TopicSaved, doc))

	assert.Equal(t, []string{"saves:buffer.saved"}, calls)
}

func TestDispatchJoinsErrorsAndContinues(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	d := NewDispatcher(nil)
	require.NoError(t, d.Register("bad", recorder{name: "bad", calls: &calls, err: boom}, WithPriority(PriorityHigh)))
	require.NoError(t, d.Register("good", recorder{name: "good", calls: &calls}))

	err := d.Dispatch(TopicOpened, newFakeDoc("doc-9", ""))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var le *ListenerError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "bad", le.Listener)
	assert.Equal(t, "doc-9", le.DocID)
	assert.Equal(t, []string{"bad:buffer.opened", "good:buffer.opened"}, calls)
}

func TestDispatchRecoversPanics(t *testing.T) {
	ran := false
	d := NewDispatcher(nil)
	require.NoError(t, d.Register("panics", Funcs{
		PreSave: func(Document) error { panic("bad listener") },
	}, WithPriority(PriorityHigh)))
	require.NoError(t, d.Register("after", Funcs{
		PreSave: func(Document) error { ran = true; return nil },
	}))

	err := d.Dispatch(TopicPreSave, newFakeDoc("x", ""))

	assert.ErrorIs(t, err, ErrListenerPanic)
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "bad listener", pe.Value)
	assert.NotEmpty(t, pe.Stack)
	assert.True(t, ran)
}

func TestDispatchUnknownTopic(t *testing.T) {
	d := NewDispatcher(nil)
	assert.ErrorIs(t, d.Dispatch(Topic("buffer.renamed"), newFakeDoc("x", "")), ErrUnknownTopic)
}

func TestRegisterErrors(t *testing.T) {
	d := NewDispatcher(nil)

	assert.ErrorIs(t, d.Register("nil", nil), ErrNilListener)
	require.NoError(t, d.Register("a", Funcs{}))
	assert.ErrorIs(t, d.Register("a", Funcs{}), ErrDuplicateListener)
}

func TestUnregister(t *testing.T) {
	var calls []string
	d := NewDispatcher(nil)
	require.NoError(t, d.Register("r", recorder{name: "r", calls: &calls}))

	require.NoError(t, d.Unregister("r"))
	assert.ErrorIs(t, d.Unregister("r"), ErrListenerNotFound)

	require.NoError(t, d.Dispatch(TopicOpened, newFakeDoc("x", "")))
	assert.Empty(t, calls)
}

func TestFuncsNilFieldsAreNoOps(t *testing.T) {
	var f Funcs
	doc := newFakeDoc("x", "")

	assert.NoError(t, f.OnOpen(doc))
	assert.NoError(t, f.OnClone(doc))
	assert.NoError(t, f.OnPreSave(doc))
	assert.NoError(t, f.OnPostSave(doc))
	assert.NoError(t, f.OnClose(doc))
}
