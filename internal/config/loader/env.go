package loader

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// EnvLoader loads settings from environment variables.
type EnvLoader struct {
	lookup  LookupFunc
	mapping map[string]string // env var -> settings key
}

// NewEnvLoader creates a loader that reads the process environment.
func NewEnvLoader(mapping map[string]string) *EnvLoader {
	return NewEnvLoaderWithLookup(os.LookupEnv, mapping)
}

// NewEnvLoaderWithLookup creates a loader with a custom lookup function.
func NewEnvLoaderWithLookup(lookup LookupFunc, mapping map[string]string) *EnvLoader {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &EnvLoader{lookup: lookup, mapping: mapping}
}

// Load returns the mapped variables that are set. Returns nil, nil when
// none are.
func (l *EnvLoader) Load() (map[string]any, error) {
	var out map[string]any
	for env, key := range l.mapping {
		val, ok := l.lookup(env)
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[key] = parseEnvValue(val)
	}
	return out, nil
}

// parseEnvValue decodes a flow sequence such as ["a", "b"]; anything else
// is kept as a plain string.
func parseEnvValue(val string) any {
	trimmed := strings.TrimSpace(val)
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		var list []any
		if err := yaml.Unmarshal([]byte(trimmed), &list); err == nil {
			return list
		}
	}
	return val
}
