package hook

import (
	"errors"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/dshills/wstrim/internal/logging"
)

// Priority orders listeners; higher runs first.
type Priority int

const (
	PriorityLow      Priority = 25
	PriorityNormal   Priority = 50
	PriorityHigh     Priority = 75
	PriorityCritical Priority = 100
)

// RegisterOption configures a registration.
type RegisterOption func(*registration)

// WithPriority sets the listener priority. Default is PriorityNormal.
func WithPriority(p Priority) RegisterOption {
	return func(r *registration) {
		r.priority = p
	}
}

// WithTopics limits delivery to the given topics.
func WithTopics(topics ...Topic) RegisterOption {
	return func(r *registration) {
		r.topics = make(map[Topic]bool, len(topics))
		for _, t := range topics {
			r.topics[t] = true
		}
	}
}

type registration struct {
	name     string
	listener Listener
	priority Priority
	topics   map[Topic]bool // nil means all
	seq      uint64
}

func (r *registration) wants(t Topic) bool {
	return r.topics == nil || r.topics[t]
}

// Dispatcher delivers lifecycle events to named listeners.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners []*registration
	seq       uint64
	logger    *logging.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Null()
	}
	return &Dispatcher{logger: logger.WithComponent("hook")}
}

// Register adds a listener under a unique name.
func (d *Dispatcher) Register(name string, l Listener, opts ...RegisterOption) error {
	if l == nil {
		return ErrNilListener
	}

	r := &registration{name: name, listener: l, priority: PriorityNormal}
	for _, opt := range opts {
		opt(r)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.listeners {
		if existing.name == name {
			return ErrDuplicateListener
		}
	}

	d.seq++
	r.seq = d.seq
	d.listeners = append(d.listeners, r)
	sort.SliceStable(d.listeners, func(i, j int) bool {
		if d.listeners[i].priority != d.listeners[j].priority {
			return d.listeners[i].priority > d.listeners[j].priority
		}
		return d.listeners[i].seq < d.listeners[j].seq
	})
	return nil
}

// Unregister removes a listener by name.
func (d *Dispatcher) Unregister(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, r := range d.listeners {
		if r.name == name {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			return nil
		}
	}
	return ErrListenerNotFound
}

// Names returns listener names in delivery order.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, len(d.listeners))
	for i, r := range d.listeners {
		names[i] = r.name
	}
	return names
}

// Dispatch delivers t to every interested listener in order. All listeners
// run even if one fails; their errors are joined.
func (d *Dispatcher) Dispatch(t Topic, doc Document) error {
	switch t {
	case TopicOpened, TopicCloned, TopicPreSave, TopicSaved, TopicClosed:
	default:
		return ErrUnknownTopic
	}

	d.mu.RLock()
	targets := make([]*registration, 0, len(d.listeners))
	for _, r := range d.listeners {
		if r.wants(t) {
			targets = append(targets, r)
		}
	}
	d.mu.RUnlock()

	var errs []error
	for _, r := range targets {
		if err := d.safeDeliver(r, t, doc); err != nil {
			d.logger.WithField("listener", r.name).Warn("%s: %v", t, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// safeDeliver calls a listener with panic recovery.
func (d *Dispatcher) safeDeliver(r *registration, t Topic, doc Document) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{
				Listener: r.name,
				Topic:    t,
				Value:    v,
				Stack:    string(debug.Stack()),
			}
		}
	}()

	if err := deliver(r.listener, t, doc); err != nil {
		return &ListenerError{Listener: r.name, Topic: t, DocID: doc.ID(), Err: err}
	}
	return nil
}
