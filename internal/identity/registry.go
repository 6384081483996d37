// Package identity manages local identities and the anonymous/authenticated
// state of a client.
//
// Identities exist only to namespace persisted data. Passwords are stored as
// bcrypt hashes, but nothing here is meant as a security boundary.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 4

var (
	ErrDuplicateIdentity  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingFields      = fmt.Errorf("%w: username and password required", core.ErrValidation)
	ErrWeakPassword       = fmt.Errorf("%w: password must be at least %d characters", core.ErrValidation, MinPasswordLength)
	ErrReservedName       = fmt.Errorf("%w: username %q is reserved", core.ErrValidation, storage.GuestScope)
)

type RegistryOption func(*Registry)

// WithCost sets the bcrypt cost used for new password hashes.
func WithCost(cost int) RegistryOption {
	return func(r *Registry) { r.cost = cost }
}

// Registry is the shared, persisted set of identities.
type Registry struct {
	mu    sync.Mutex
	kv    storage.Store
	users map[string]core.Identity
	cost  int
	now   func() time.Time
}

// OpenRegistry loads the identity registry from kv.
func OpenRegistry(ctx context.Context, kv storage.Store, opts ...RegistryOption) (*Registry, error) {
	users, err := storage.LoadJSON(ctx, kv, storage.KeyUserRegistry, map[string]core.Identity{})
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	if users == nil {
		users = map[string]core.Identity{}
	}
	r := &Registry{kv: kv, users: users, cost: bcrypt.DefaultCost, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Create registers a new identity. The name is trimmed before use.
func (r *Registry) Create(ctx context.Context, name, password string) (core.Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(password) == "" {
		return core.Identity{}, ErrMissingFields
	}
	if len(password) < MinPasswordLength {
		return core.Identity{}, ErrWeakPassword
	}
	// the guest partition belongs to anonymous clients
	if strings.EqualFold(name, storage.GuestScope) {
		return core.Identity{}, ErrReservedName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[name]; exists {
		return core.Identity{}, ErrDuplicateIdentity
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return core.Identity{}, fmt.Errorf("hash password: %w", err)
	}
	id := core.Identity{Name: name, PasswordHash: string(hash), CreatedAt: r.now().UTC()}

	r.users[name] = id
	if err := storage.SaveJSON(ctx, r.kv, storage.KeyUserRegistry, r.users); err != nil {
		delete(r.users, name)
		return core.Identity{}, fmt.Errorf("persist registry: %w", err)
	}
	return id, nil
}

// Verify checks a name/password pair. Unknown names and wrong passwords are
// indistinguishable to the caller.
func (r *Registry) Verify(name, password string) (core.Identity, error) {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, storage.GuestScope) {
		return core.Identity{}, ErrInvalidCredentials
	}
	r.mu.Lock()
	id, ok := r.users[name]
	r.mu.Unlock()
	if !ok {
		return core.Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(id.PasswordHash), []byte(password)); err != nil {
		return core.Identity{}, ErrInvalidCredentials
	}
	return id, nil
}

// Exists reports whether name is registered.
func (r *Registry) Exists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[strings.TrimSpace(name)]
	return ok
}

// Count returns the number of registered identities.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
