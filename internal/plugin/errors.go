package plugin

import (
	"errors"
	"fmt"

	"github.com/dshills/wstrim/internal/hook"
)

var (
	// ErrPluginNotFound is returned when a plugin script cannot be located.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrAlreadyLoaded is returned when loading a plugin name twice.
	ErrAlreadyLoaded = errors.New("plugin is already loaded")

	// ErrRejected is returned when a hook function returns false.
	ErrRejected = errors.New("rejected by plugin")
)

// Error describes a plugin failure.
type Error struct {
	Plugin string
	Topic  hook.Topic // empty while loading
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Topic == "" {
		return fmt.Sprintf("plugin %s: %v", e.Plugin, e.Err)
	}
	return fmt.Sprintf("plugin %s on %s: %v", e.Plugin, e.Topic, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
