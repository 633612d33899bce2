package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/wstrim/internal/hook"
	"github.com/dshills/wstrim/internal/logging"
	"github.com/dshills/wstrim/internal/plugin/api"
	plua "github.com/dshills/wstrim/internal/plugin/lua"
)

// hookFunctions maps lifecycle topics to the Lua globals handling them.
var hookFunctions = map[hook.Topic]string{
	hook.TopicOpened:  "on_open",
	hook.TopicCloned:  "on_clone",
	hook.TopicPreSave: "on_pre_save",
	hook.TopicSaved:   "on_post_save",
	hook.TopicClosed:  "on_close",
}

// Host runs one plugin script. It implements hook.Listener.
type Host struct {
	name   string
	path   string
	state  *plua.State
	ctx    *api.Context
	topics []hook.Topic
	logger *logging.Logger

	executionTimeout time.Duration
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostExecutionTimeout sets the timeout for loading and each call.
func WithHostExecutionTimeout(d time.Duration) HostOption {
	return func(h *Host) {
		h.executionTimeout = d
	}
}

// WithHostLogger sets the logger.
func WithHostLogger(l *logging.Logger) HostOption {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// NameFromPath derives a plugin name from its script path.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadFile loads a plugin script from disk. The plugin is named after the
// file.
func LoadFile(path string, opts ...HostOption) (*Host, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Plugin: NameFromPath(path), Err: fmt.Errorf("%w: %s", ErrPluginNotFound, path)}
		}
		return nil, &Error{Plugin: NameFromPath(path), Err: err}
	}
	return newHost(NameFromPath(path), path, string(src), opts...)
}

// LoadString loads a plugin from source.
func LoadString(name, src string, opts ...HostOption) (*Host, error) {
	return newHost(name, "", src, opts...)
}

func newHost(name, path, src string, opts ...HostOption) (*Host, error) {
	h := &Host{
		name:             name,
		path:             path,
		ctx:              api.NewContext(),
		logger:           logging.Null(),
		executionTimeout: plua.DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithComponent("plugin").WithField("plugin", name)

	h.state = plua.NewState(plua.WithExecutionTimeout(h.executionTimeout))
	if err := api.DefaultRegistry(h.ctx).InjectAll(h.state.LuaState()); err != nil {
		h.state.Close()
		return nil, &Error{Plugin: name, Err: err}
	}
	if err := h.state.DoString(src); err != nil {
		h.state.Close()
		return nil, &Error{Plugin: name, Err: err}
	}

	for _, topic := range hook.Topics() {
		if h.state.HasFunction(hookFunctions[topic]) {
			h.topics = append(h.topics, topic)
		}
	}
	h.logger.Debug("loaded, handles %d events", len(h.topics))
	return h, nil
}

// Name returns the plugin name.
func (h *Host) Name() string {
	return h.name
}

// Path returns the script path, empty for plugins loaded from a string.
func (h *Host) Path() string {
	return h.path
}

// Topics returns the lifecycle topics the script handles.
func (h *Host) Topics() []hook.Topic {
	return append([]hook.Topic(nil), h.topics...)
}

// Close releases the Lua state.
func (h *Host) Close() error {
	return h.state.Close()
}

// call runs the handler for topic with doc bound to ks.buf. A missing
// handler is a no-op.
func (h *Host) call(topic hook.Topic, doc hook.Document) error {
	fn := hookFunctions[topic]
	if !h.state.HasFunction(fn) {
		return nil
	}

	restore := h.ctx.Bind(doc)
	defer restore()

	results, err := h.state.Call(fn, lua.LString(doc.ID()), lua.LString(doc.Path()))
	if err != nil {
		return &Error{Plugin: h.name, Topic: topic, Err: err}
	}
	if len(results) > 0 && results[0] == lua.LFalse {
		msg := "no reason given"
		if len(results) > 1 && results[1] != lua.LNil {
			msg = results[1].String()
		}
		return &Error{Plugin: h.name, Topic: topic, Err: fmt.Errorf("%w: %s", ErrRejected, msg)}
	}
	return nil
}

// OnOpen calls on_open.
func (h *Host) OnOpen(doc hook.Document) error { return h.call(hook.TopicOpened, doc) }

// OnClone calls on_clone.
func (h *Host) OnClone(doc hook.Document) error { return h.call(hook.TopicCloned, doc) }

// OnPreSave calls on_pre_save.
func (h *Host) OnPreSave(doc hook.Document) error { return h.call(hook.TopicPreSave, doc) }

// OnPostSave calls on_post_save.
func (h *Host) OnPostSave(doc hook.Document) error { return h.call(hook.TopicSaved, doc) }

// OnClose calls on_close.
func (h *Host) OnClose(doc hook.Document) error { return h.call(hook.TopicClosed, doc) }

var _ hook.Listener = (*Host)(nil)
