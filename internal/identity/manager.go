package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fintrack/internal/storage"
)

const (
	Anonymous State = iota
	Authenticated
)

type State int

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

type ManagerOption func(*Manager)

// WithSessionStore persists the current identity under storage.KeyCurrentUser
// so a later process can Restore it.
func WithSessionStore(kv storage.Store) ManagerOption {
	return func(m *Manager) { m.kv = kv }
}

// Manager is the anonymous/authenticated state machine of one client.
type Manager struct {
	mu       sync.Mutex
	registry *Registry
	current  string
	kv       storage.Store
}

func NewManager(registry *Registry, opts ...ManagerOption) *Manager {
	m := &Manager{registry: registry}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore re-enters the persisted identity, if there is one and it is still
// registered. Without a session store it does nothing.
func (m *Manager) Restore(ctx context.Context) error {
	if m.kv == nil {
		return nil
	}
	name, err := storage.LoadJSON(ctx, m.kv, storage.KeyCurrentUser, "")
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if name != "" && m.registry.Exists(name) {
		m.current = name
	}
	return nil
}

// Register creates an identity and authenticates as it.
func (m *Manager) Register(ctx context.Context, name, password string) (string, error) {
	id, err := m.registry.Create(ctx, name, password)
	if err != nil {
		return "", err
	}
	if err := m.switchTo(ctx, id.Name); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Identity registered", "user", id.Name)
	return id.Name, nil
}

// Login authenticates as an existing identity.
func (m *Manager) Login(ctx context.Context, name, password string) (string, error) {
	id, err := m.registry.Verify(name, password)
	if err != nil {
		return "", err
	}
	if err := m.switchTo(ctx, id.Name); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Identity logged in", "user", id.Name)
	return id.Name, nil
}

// Logout returns to the anonymous state. It succeeds from any state.
func (m *Manager) Logout(ctx context.Context) error {
	return m.switchTo(ctx, "")
}

// Current returns the authenticated name, if any.
func (m *Manager) Current() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.current != ""
}

// State returns the current state.
func (m *Manager) State() State {
	if _, ok := m.Current(); ok {
		return Authenticated
	}
	return Anonymous
}

// Scope is the storage partition of the current state.
func (m *Manager) Scope() string {
	name, _ := m.Current()
	return storage.ScopeOrGuest(name)
}

func (m *Manager) switchTo(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.kv != nil {
		var err error
		if name == "" {
			err = m.kv.Delete(ctx, storage.KeyCurrentUser)
		} else {
			err = storage.SaveJSON(ctx, m.kv, storage.KeyCurrentUser, name)
		}
		if err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
	}
	m.current = name
	return nil
}
