package config

import (
	"errors"
	"fmt"

	"github.com/dshills/wstrim/internal/config/loader"
)

var (
	// ErrUnsupportedFormat indicates a settings file with an unknown extension.
	ErrUnsupportedFormat = loader.ErrUnsupportedFormat

	// ErrTypeMismatch indicates a setting has the wrong type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// ParseError describes a settings file that could not be decoded.
type ParseError = loader.ParseError

// TypeError is returned when a setting value has the wrong type.
type TypeError struct {
	// Key is the setting key.
	Key string
	// Expected is the expected type name.
	Expected string
	// Actual is the actual type name.
	Actual string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("type error for %s: expected %s, got %s", e.Key, e.Expected, e.Actual)
}

// Is implements error matching for TypeError.
func (e *TypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}
