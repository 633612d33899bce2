package config

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFS struct {
	mu    sync.Mutex
	files map[string]string
}

func newMemFS(files map[string]string) *memFS {
	if files == nil {
		files = make(map[string]string)
	}
	return &memFS{files: files}
}

func (m *memFS) set(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

func (m *memFS) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(data), nil
}

func noEnv(string) (string, bool) { return "", false }

func TestStoreLoadMergesLayers(t *testing.T) {
	mfs := newMemFS(map[string]string{
		"/user/settings.toml": `owner_patterns = ["user"]`,
		"/work/.wstrim.yaml":  "owner_patterns:\n  - workspace\n",
	})
	s := NewStore(
		WithPaths("/user/settings.toml", "/user/settings.yaml", "/work/.wstrim.toml", "/work/.wstrim.yaml"),
		WithFileSystem(mfs),
		WithEnvLookup(noEnv),
	)

	require.NoError(t, s.Load())
	assert.Equal(t, []string{"workspace"}, s.OwnerPatterns())
}

func TestStoreLoadNothing(t *testing.T) {
	s := NewStore(WithPaths("/none/settings.toml"), WithFileSystem(newMemFS(nil)), WithEnvLookup(noEnv))

	require.NoError(t, s.Load())
	assert.Empty(t, s.OwnerPatterns())
}

func TestStoreEnvironmentWins(t *testing.T) {
	mfs := newMemFS(map[string]string{"/u/settings.toml": `owner_patterns = ["file"]`})
	s := NewStore(
		WithPaths("/u/settings.toml"),
		WithFileSystem(mfs),
		WithEnvLookup(func(k string) (string, bool) {
			if k == EnvOwnerPatterns {
				return "Example Corp", true
			}
			return "", false
		}),
	)

	require.NoError(t, s.Load())
	assert.Equal(t, []string{"Example Corp"}, s.OwnerPatterns())
}

func TestStoreLoadReportsParseErrors(t *testing.T) {
	mfs := newMemFS(map[string]string{"/u/settings.toml": "owner_patterns = ["})
	s := NewStore(WithPaths("/u/settings.toml"), WithFileSystem(mfs), WithEnvLookup(noEnv))

	err := s.Load()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "/u/settings.toml", pe.Path)
}

func TestStoreLoadReportsTypeErrors(t *testing.T) {
	mfs := newMemFS(map[string]string{"/u/settings.toml": "owner_patterns = 3"})
	s := NewStore(WithPaths("/u/settings.toml"), WithFileSystem(mfs), WithEnvLookup(noEnv))

	assert.ErrorIs(t, s.Load(), ErrTypeMismatch)
}

func TestStoreUnsupportedPath(t *testing.T) {
	s := NewStore(WithPaths("/u/settings.json"), WithFileSystem(newMemFS(nil)), WithEnvLookup(noEnv))

	assert.ErrorIs(t, s.Load(), ErrUnsupportedFormat)
}

func TestStoreReloadNotifiesOnChange(t *testing.T) {
	mfs := newMemFS(map[string]string{"/u/settings.toml": `owner_patterns = ["a"]`})
	s := NewStore(WithPaths("/u/settings.toml"), WithFileSystem(mfs), WithEnvLookup(noEnv))
	require.NoError(t, s.Load())

	var got [][2][]string
	sub := s.OnChange(func(prev, next Settings) {
		got = append(got, [2][]string{prev.OwnerPatterns, next.OwnerPatterns})
	})

	require.NoError(t, s.Reload())
	assert.Empty(t, got, "unchanged settings do not notify")

	mfs.set("/u/settings.toml", `owner_patterns = ["a", "b"]`)
	require.NoError(t, s.Reload())
	require.Len(t, got, 1)
	assert.Equal(t, []string{"a"}, got[0][0])
	assert.Equal(t, []string{"a", "b"}, got[0][1])

	sub.Unsubscribe()
	mfs.set("/u/settings.toml", `owner_patterns = []`)
	require.NoError(t, s.Reload())
	assert.Len(t, got, 1)
}

func TestStoreReloadKeepsSettingsOnError(t *testing.T) {
	mfs := newMemFS(map[string]string{"/u/settings.toml": `owner_patterns = ["a"]`})
	s := NewStore(WithPaths("/u/settings.toml"), WithFileSystem(mfs), WithEnvLookup(noEnv))
	require.NoError(t, s.Load())

	mfs.set("/u/settings.toml", "owner_patterns = [")
	assert.Error(t, s.Reload())
	assert.Equal(t, []string{"a"}, s.OwnerPatterns())
}

func TestStoreSettingsIsACopy(t *testing.T) {
	mfs := newMemFS(map[string]string{"/u/settings.toml": `owner_patterns = ["a"]`})
	s := NewStore(WithPaths("/u/settings.toml"), WithFileSystem(mfs), WithEnvLookup(noEnv))
	require.NoError(t, s.Load())

	got := s.Settings()
	got.OwnerPatterns[0] = "mutated"
	assert.Equal(t, []string{"a"}, s.OwnerPatterns())
}

func TestDefaultPaths(t *testing.T) {
	paths := DefaultPaths("/work")

	require.NotEmpty(t, paths)
	assert.Equal(t, filepath.Join("/work", ".wstrim.yml"), paths[len(paths)-1])
	assert.Contains(t, paths, filepath.Join("/work", ".wstrim.toml"))

	for _, p := range DefaultPaths("") {
		assert.NotContains(t, p, ".wstrim")
	}
}

func TestStoreWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".wstrim.toml")
	require.NoError(t, os.WriteFile(path, []byte(`owner_patterns = ["a"]`), 0o644))

	s := NewStore(WithPaths(path), WithEnvLookup(noEnv), WithDebounce(20*time.Millisecond))
	require.NoError(t, s.Load())

	changed := make(chan Settings, 4)
	s.OnChange(func(_, next Settings) { changed <- next })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchErr := make(chan error, 1)
	go func() { watchErr <- s.Watch(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`owner_patterns = ["b"]`), 0o644))

	timeout := time.After(2 * time.Second)
	for done := false; !done; {
		select {
		case next := <-changed:
			// A reload may observe the file mid-write; wait for the final content.
			done = len(next.OwnerPatterns) == 1 && next.OwnerPatterns[0] == "b"
		case <-timeout:
			t.Fatal("settings were not reloaded")
		}
	}
	assert.Equal(t, []string{"b"}, s.OwnerPatterns())

	cancel()
	assert.ErrorIs(t, <-watchErr, context.Canceled)
}
