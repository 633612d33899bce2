package plugin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/wstrim/internal/hook"
	"github.com/dshills/wstrim/internal/logging"
)

// Manager owns the loaded plugins.
type Manager struct {
	mu      sync.RWMutex
	hosts   []*Host
	byName  map[string]*Host
	options []HostOption
	logger  *logging.Logger
}

// NewManager creates a manager. opts are applied to every loaded plugin.
func NewManager(logger *logging.Logger, opts ...HostOption) *Manager {
	if logger == nil {
		logger = logging.Null()
	}
	return &Manager{
		byName:  make(map[string]*Host),
		options: append([]HostOption{WithHostLogger(logger)}, opts...),
		logger:  logger.WithComponent("plugins"),
	}
}

// LoadFile loads a plugin script.
func (m *Manager) LoadFile(path string) (*Host, error) {
	name := NameFromPath(path)
	if m.Get(name) != nil {
		return nil, &Error{Plugin: name, Err: ErrAlreadyLoaded}
	}
	h, err := LoadFile(path, m.options...)
	if err != nil {
		return nil, err
	}
	return h, m.add(h)
}

// LoadString loads a plugin from source.
func (m *Manager) LoadString(name, src string) (*Host, error) {
	if m.Get(name) != nil {
		return nil, &Error{Plugin: name, Err: ErrAlreadyLoaded}
	}
	h, err := LoadString(name, src, m.options...)
	if err != nil {
		return nil, err
	}
	return h, m.add(h)
}

// LoadFiles loads every script, continuing past failures.
func (m *Manager) LoadFiles(paths ...string) error {
	var errs []error
	for _, path := range paths {
		if _, err := m.LoadFile(path); err != nil {
			m.logger.Warn("%v", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) add(h *Host) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byName[h.Name()]; exists {
		h.Close()
		return &Error{Plugin: h.Name(), Err: ErrAlreadyLoaded}
	}
	m.hosts = append(m.hosts, h)
	m.byName[h.Name()] = h
	m.logger.Info("loaded plugin %s", h.Name())
	return nil
}

// Get returns a plugin by name, or nil.
func (m *Manager) Get(name string) *Host {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byName[name]
}

// List returns the loaded plugins in load order.
func (m *Manager) List() []*Host {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Host(nil), m.hosts...)
}

// Register adds every plugin to d under "plugin.<name>", subscribed only to
// the topics its script handles.
func (m *Manager) Register(d *hook.Dispatcher, opts ...hook.RegisterOption) error {
	for _, h := range m.List() {
		topics := h.Topics()
		if len(topics) == 0 {
			continue
		}
		ropts := append([]hook.RegisterOption{hook.WithTopics(topics...)}, opts...)
		if err := d.Register("plugin."+h.Name(), h, ropts...); err != nil {
			return fmt.Errorf("registering plugin %s: %w", h.Name(), err)
		}
	}
	return nil
}

// Close closes every plugin.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, h := range m.hosts {
		if err := h.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.hosts = nil
	m.byName = make(map[string]*Host)
	return errors.Join(errs...)
}
