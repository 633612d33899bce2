package trim

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
)

// trailingWhitespace matches every maximal run of spaces and tabs that ends
// a line, together with the line's terminator. A bare "\r" is not a
// terminator.
var trailingWhitespace = regexp.MustCompile(`[\t ]+(?:\r?\n|\z)`)

// PatternError reports an owner pattern that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("owner pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// OwnerMatcher decides whether a document belongs to the user, in which case
// all of its trailing whitespace is removed on save. Patterns are regular
// expressions matched case-insensitively anywhere in the content.
// The pattern set can be swapped at any time.
type OwnerMatcher struct {
	mu       sync.RWMutex
	patterns []string
	compiled []*regexp.Regexp
}

// NewOwnerMatcher compiles patterns. Invalid patterns are skipped and
// reported in the returned error; the matcher is usable either way.
func NewOwnerMatcher(patterns ...string) (*OwnerMatcher, error) {
	m := &OwnerMatcher{}
	err := m.Set(patterns)
	return m, err
}

// Set replaces the pattern set. Invalid patterns are skipped and returned
// as joined *PatternError values.
func (m *OwnerMatcher) Set(patterns []string) error {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	kept := make([]string, 0, len(patterns))
	var errs []error
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			errs = append(errs, &PatternError{Pattern: p, Err: err})
			continue
		}
		compiled = append(compiled, re)
		kept = append(kept, p)
	}

	m.mu.Lock()
	m.patterns = kept
	m.compiled = compiled
	m.mu.Unlock()

	return errors.Join(errs...)
}

// Patterns returns the active (successfully compiled) patterns.
func (m *OwnerMatcher) Patterns() []string {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.patterns...)
}

// Match reports whether any pattern occurs in text. An empty or nil
// matcher matches nothing.
func (m *OwnerMatcher) Match(text string) bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, re := range m.compiled {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
