package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dshills/wstrim/internal/config/loader"
	"github.com/dshills/wstrim/internal/logging"
	"github.com/dshills/wstrim/internal/watcher"
)

// EnvOwnerPatterns overrides owner_patterns. It holds either a single
// pattern or a flow list such as ["a", "b"].
const EnvOwnerPatterns = "WSTRIM_OWNER_PATTERNS"

// Candidate settings file names, in load order within one directory.
var (
	userFileNames      = []string{"settings.toml", "settings.yaml", "settings.yml"}
	workspaceFileNames = []string{".wstrim.toml", ".wstrim.yaml", ".wstrim.yml"}
)

// UserConfigDir returns the directory holding the user settings file.
func UserConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "wstrim")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "wstrim")
	}
	return ""
}

// DefaultPaths returns the settings files to consult for workspace, lowest
// precedence first. An empty workspace yields only the user files.
func DefaultPaths(workspace string) []string {
	var paths []string
	if dir := UserConfigDir(); dir != "" {
		for _, name := range userFileNames {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	if workspace != "" {
		for _, name := range workspaceFileNames {
			paths = append(paths, filepath.Join(workspace, name))
		}
	}
	return paths
}

// Observer is called after settings change.
type Observer func(prev, next Settings)

// Subscription represents an active observer.
type Subscription struct {
	id    uint64
	store *Store
}

// Unsubscribe removes the observer.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.store != nil {
		s.store.unsubscribe(s.id)
	}
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPaths sets the settings files, lowest precedence first.
func WithPaths(paths ...string) StoreOption {
	return func(s *Store) {
		s.paths = append([]string(nil), paths...)
	}
}

// WithFileSystem sets the file system used to read settings.
func WithFileSystem(fsys loader.FileSystem) StoreOption {
	return func(s *Store) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// WithEnvLookup sets the environment lookup. Pass nil to ignore the
// environment.
func WithEnvLookup(lookup loader.LookupFunc) StoreOption {
	return func(s *Store) {
		s.lookup = lookup
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDebounce sets how long Watch waits for writes to settle.
func WithDebounce(d time.Duration) StoreOption {
	return func(s *Store) {
		s.debounce = d
	}
}

// Store holds the current settings.
type Store struct {
	mu       sync.RWMutex
	settings Settings

	paths    []string
	fs       loader.FileSystem
	lookup   loader.LookupFunc
	debounce time.Duration
	logger   *logging.Logger

	obsMu     sync.RWMutex
	observers map[uint64]Observer
	nextID    uint64
}

// NewStore creates a store. Without WithPaths it reads DefaultPaths for the
// current directory.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		fs:        loader.DefaultFS(),
		lookup:    os.LookupEnv,
		debounce:  100 * time.Millisecond,
		logger:    logging.Null(),
		observers: make(map[uint64]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.paths == nil {
		if wd, err := os.Getwd(); err == nil {
			s.paths = DefaultPaths(wd)
		}
	}
	s.logger = s.logger.WithComponent("config")
	return s
}

// Paths returns the settings files consulted, lowest precedence first.
func (s *Store) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// OwnerPatterns returns the current owner patterns.
func (s *Store) OwnerPatterns() []string {
	return s.Settings().OwnerPatterns
}

// Load reads every settings source and replaces the current settings.
// Observers are not notified.
func (s *Store) Load() error {
	settings, err := s.read()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.logger.Debug("loaded %d owner patterns", len(settings.OwnerPatterns))
	return nil
}

// Reload re-reads the settings. On error the previous settings are kept.
// Observers are notified when the settings changed.
func (s *Store) Reload() error {
	settings, err := s.read()
	if err != nil {
		s.logger.Warn("reload failed, keeping previous settings: %v", err)
		return err
	}

	s.mu.Lock()
	old := s.settings
	s.settings = settings
	s.mu.Unlock()

	if old.Equal(settings) {
		return nil
	}
	s.logger.Info("settings reloaded: %d owner patterns", len(settings.OwnerPatterns))
	s.notify(old, settings)
	return nil
}

// read merges the files and the environment, later sources winning.
func (s *Store) read() (Settings, error) {
	merged := make(map[string]any)
	var errs []error

	for _, path := range s.paths {
		l, err := loader.ForPath(s.fs, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m, err := l.Load()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if m != nil {
			s.logger.Debug("read %s", path)
			merged = loader.DeepMerge(merged, m)
		}
	}

	if s.lookup != nil {
		env := loader.NewEnvLoaderWithLookup(s.lookup, map[string]string{
			EnvOwnerPatterns: KeyOwnerPatterns,
		})
		m, err := env.Load()
		if err != nil {
			errs = append(errs, err)
		} else if m != nil {
			merged = loader.DeepMerge(merged, m)
		}
	}

	if len(errs) > 0 {
		return Settings{}, errors.Join(errs...)
	}

	settings, err := FromMap(merged)
	if err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return settings, nil
}

// OnChange registers an observer called after a reload changes the settings.
func (s *Store) OnChange(obs Observer) *Subscription {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = obs
	return &Subscription{id: id, store: s}
}

func (s *Store) unsubscribe(id uint64) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	delete(s.observers, id)
}

func (s *Store) notify(prev, next Settings) {
	s.obsMu.RLock()
	observers := make([]Observer, 0, len(s.observers))
	for _, obs := range s.observers {
		observers = append(observers, obs)
	}
	s.obsMu.RUnlock()

	// Call observers outside the lock.
	for _, obs := range observers {
		obs(prev.Clone(), next.Clone())
	}
}

// Watch reloads the settings whenever one of the files changes, until ctx
// is cancelled. Files in directories that do not exist are skipped.
func (s *Store) Watch(ctx context.Context) error {
	w, err := watcher.New(func(ev watcher.Event) {
		s.logger.Debug("%s %s", ev.Op, ev.Path)
		_ = s.Reload()
	}, watcher.WithDebounce(s.debounce), watcher.WithLogger(s.logger))
	if err != nil {
		return fmt.Errorf("creating settings watcher: %w", err)
	}
	defer w.Close()

	watched := 0
	for _, path := range s.paths {
		if err := w.Add(path); err != nil {
			s.logger.Debug("not watching %s: %v", path, err)
			continue
		}
		watched++
	}
	if watched == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	return w.Run(ctx)
}
