package hook

import (
	"errors"
	"fmt"
)

// Sentinel errors for the dispatcher.
var (
	// ErrUnknownTopic is returned when dispatching a topic with no listener method.
	ErrUnknownTopic = errors.New("unknown lifecycle topic")

	// ErrNilListener is returned when registering a nil listener.
	ErrNilListener = errors.New("listener cannot be nil")

	// ErrDuplicateListener is returned when a name is registered twice.
	ErrDuplicateListener = errors.New("listener already registered")

	// ErrListenerNotFound is returned when unregistering an unknown name.
	ErrListenerNotFound = errors.New("listener not found")

	// ErrListenerPanic is matched by PanicError through errors.Is.
	ErrListenerPanic = errors.New("listener panicked")
)

// ListenerError wraps an error returned by a listener.
type ListenerError struct {
	Listener string
	Topic    Topic
	DocID    string
	Err      error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %s on %s for %s: %v", e.Listener, e.Topic, e.DocID, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

// PanicError reports a recovered listener panic.
type PanicError struct {
	Listener string
	Topic    Topic
	Value    any
	Stack    string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("listener %s panicked on %s: %v", e.Listener, e.Topic, e.Value)
}

// Is allows errors.Is to match PanicError with ErrListenerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrListenerPanic
}
