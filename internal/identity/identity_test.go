package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

func newTestRegistry(t *testing.T, kv storage.Store) *Registry {
	t.Helper()
	reg, err := OpenRegistry(context.Background(), kv, WithCost(bcrypt.MinCost))
	require.NoError(t, err)
	return reg
}

func TestRegisterLoginScenario(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newTestRegistry(t, memory.New()))

	name, err := m.Register(ctx, "a", "pass1")
	require.NoError(t, err)
	assert.Equal(t, "a", name)
	assert.Equal(t, Authenticated, m.State())

	_, err = m.Register(ctx, "a", "other")
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	require.NoError(t, m.Logout(ctx))
	assert.Equal(t, Anonymous, m.State())
	assert.Equal(t, storage.GuestScope, m.Scope())

	_, err = m.Login(ctx, "a", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, Anonymous, m.State())

	_, err = m.Login(ctx, "a", "pass1")
	require.NoError(t, err)
	current, ok := m.Current()
	assert.True(t, ok)
	assert.Equal(t, "a", current)
	assert.Equal(t, "a", m.Scope())
}

func TestLoginUnknownIdentity(t *testing.T) {
	m := NewManager(newTestRegistry(t, memory.New()))
	_, err := m.Login(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, memory.New())

	cases := []struct {
		name, user, pass string
		want             error
	}{
		{"blank user", "   ", "secret", ErrMissingFields},
		{"blank password", "bob", "    ", ErrMissingFields},
		{"short password", "bob", "abc", ErrWeakPassword},
		{"guest partition name", "guest", "pw12", ErrReservedName},
		{"guest name any case", " Guest ", "pw12", ErrReservedName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := reg.Create(ctx, tc.user, tc.pass)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, errors.Is(err, core.ErrValidation))
		})
	}
	assert.Equal(t, 0, reg.Count())
}

func TestRegistryStoresHashesAndPersists(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	reg := newTestRegistry(t, kv)

	id, err := reg.Create(ctx, "  carol ", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "carol", id.Name)
	assert.NotEqual(t, "hunter2", id.PasswordHash)

	reopened := newTestRegistry(t, kv)
	assert.True(t, reopened.Exists("carol"))
	_, err = reopened.Verify("carol", "hunter2")
	assert.NoError(t, err)
}

func TestManagerRestoresPersistedSession(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	reg := newTestRegistry(t, kv)

	first := NewManager(reg, WithSessionStore(kv))
	_, err := first.Register(ctx, "dana", "s3cret")
	require.NoError(t, err)

	second := NewManager(reg, WithSessionStore(kv))
	require.NoError(t, second.Restore(ctx))
	name, ok := second.Current()
	assert.True(t, ok)
	assert.Equal(t, "dana", name)

	require.NoError(t, second.Logout(ctx))
	third := NewManager(reg, WithSessionStore(kv))
	require.NoError(t, third.Restore(ctx))
	assert.Equal(t, Anonymous, third.State())
}

func TestRestoreIgnoresUnknownIdentity(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, storage.SaveJSON(ctx, kv, storage.KeyCurrentUser, "nobody"))

	m := NewManager(newTestRegistry(t, kv), WithSessionStore(kv))
	require.NoError(t, m.Restore(ctx))
	assert.Equal(t, Anonymous, m.State())
}

func TestRegisterGuestDoesNotInheritAnonymousData(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Put(ctx, storage.TransactionsKey(""), []byte(`[{"id":1,"type":"expense","amount":"5","category":"Food","date":"2025-03-01"}]`)))

	m := NewManager(newTestRegistry(t, kv))
	_, err := m.Register(ctx, "guest", "pw12")
	assert.ErrorIs(t, err, ErrReservedName)
	assert.Equal(t, Anonymous, m.State())
	_, ok := m.Current()
	assert.False(t, ok)
}
