package config

import (
	"fmt"
	"slices"
)

// KeyOwnerPatterns is the settings key holding the owner patterns.
const KeyOwnerPatterns = "owner_patterns"

// Settings are the user-facing options.
type Settings struct {
	// OwnerPatterns are case-insensitive regular expressions. A document
	// whose text matches any of them has all trailing whitespace removed
	// on save, not only on changed lines.
	OwnerPatterns []string
}

// Equal reports whether s and other hold the same values.
func (s Settings) Equal(other Settings) bool {
	return slices.Equal(s.OwnerPatterns, other.OwnerPatterns)
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	return Settings{OwnerPatterns: slices.Clone(s.OwnerPatterns)}
}

// FromMap decodes settings from a merged settings map. Unknown keys are
// ignored. owner_patterns may be a list of strings or a single string.
func FromMap(m map[string]any) (Settings, error) {
	var s Settings

	raw, ok := m[KeyOwnerPatterns]
	if !ok || raw == nil {
		return s, nil
	}

	switch v := raw.(type) {
	case string:
		if v != "" {
			s.OwnerPatterns = []string{v}
		}
	case []string:
		s.OwnerPatterns = slices.Clone(v)
	case []any:
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return Settings{}, &TypeError{
					Key:      fmt.Sprintf("%s[%d]", KeyOwnerPatterns, i),
					Expected: "string",
					Actual:   fmt.Sprintf("%T", item),
				}
			}
			s.OwnerPatterns = append(s.OwnerPatterns, str)
		}
	default:
		return Settings{}, &TypeError{
			Key:      KeyOwnerPatterns,
			Expected: "list of strings",
			Actual:   fmt.Sprintf("%T", raw),
		}
	}
	return s, nil
}
