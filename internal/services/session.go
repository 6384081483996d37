// Package services holds the application state objects that tie identity,
// transactions and budgets together for one client.
package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/identity"
	"fintrack/internal/ledger"
	"fintrack/internal/report"
	"fintrack/internal/storage"
)

// Scope is the data of one identity partition. An identity switch moves the
// session to the Scope of the new partition, so nothing loaded for one
// identity is visible to another.
type Scope struct {
	Name    string
	Ledger  *ledger.Store
	Budgets *budget.Tracker
}

type SessionOption func(*Session)

// WithScopes makes the session share partitions with every other session
// given the same Scopes. WithPublisher and WithClock then only affect the
// session's reports, not the ledgers, which take their options from r.
func WithScopes(r *Scopes) SessionOption {
	return func(s *Session) { s.scopes = r }
}

// WithPublisher forwards transaction events of every scope to p.
func WithPublisher(p ledger.Publisher) SessionOption {
	return func(s *Session) {
		if p != nil {
			s.ledgerOpts = append(s.ledgerOpts, ledger.WithPublisher(p))
		}
	}
}

// WithPersistedIdentity remembers the authenticated identity in the store and
// restores it when the session is created.
func WithPersistedIdentity() SessionOption {
	return func(s *Session) { s.persistIdentity = true }
}

// WithClock overrides the time source of ledgers and reports.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
		s.ledgerOpts = append(s.ledgerOpts, ledger.WithClock(now))
	}
}

// Session is the explicit state object of one client: its identity state and
// the scope that identity currently sees.
type Session struct {
	mu              sync.Mutex
	id              string
	identity        *identity.Manager
	scope           *Scope
	scopes          *Scopes
	ledgerOpts      []ledger.Option
	persistIdentity bool
	now             func() time.Time
}

// NewSession starts a session in the anonymous state, or in the persisted
// identity when WithPersistedIdentity is given.
func NewSession(ctx context.Context, id string, kv storage.Store, registry *identity.Registry, opts ...SessionOption) (*Session, error) {
	s := &Session{id: id, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.scopes == nil {
		s.scopes = NewScopes(kv, s.ledgerOpts...)
	}

	var mopts []identity.ManagerOption
	if s.persistIdentity {
		mopts = append(mopts, identity.WithSessionStore(kv))
	}
	s.identity = identity.NewManager(registry, mopts...)
	if err := s.identity.Restore(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rescopeLocked(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// User returns the authenticated identity name, if any.
func (s *Session) User() (string, bool) { return s.identity.Current() }

// Scope returns the data scope of the current identity.
func (s *Session) Scope() *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Register creates an identity, switches to it and loads its empty scope.
func (s *Session) Register(ctx context.Context, name, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.identity.Register(ctx, name, password); err != nil {
		return err
	}
	return s.rescopeLocked(ctx)
}

// Login switches to an existing identity and loads its scope.
func (s *Session) Login(ctx context.Context, name, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.identity.Login(ctx, name, password); err != nil {
		return err
	}
	return s.rescopeLocked(ctx)
}

// Logout returns to the guest scope.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.identity.Logout(ctx); err != nil {
		return err
	}
	return s.rescopeLocked(ctx)
}

// Overview summarizes the current scope's transactions.
func (s *Session) Overview() core.Overview {
	return report.Summarize(s.Scope().Ledger.List(), s.now())
}

// BudgetStatuses reports every budgeted category of the current scope.
func (s *Session) BudgetStatuses() []core.BudgetStatus {
	sc := s.Scope()
	return sc.Budgets.Statuses(sc.Ledger.List())
}

// BudgetStatus reports one category of the current scope.
func (s *Session) BudgetStatus(category string) core.BudgetStatus {
	sc := s.Scope()
	return sc.Budgets.Status(category, sc.Ledger.List())
}

func (s *Session) rescopeLocked(ctx context.Context) error {
	sc, err := s.scopes.Get(ctx, s.identity.Scope())
	if err != nil {
		return err
	}
	s.scope = sc
	slog.DebugContext(ctx, "Session scope loaded", "session", s.id, "scope", sc.Name, "transactions", len(sc.Ledger.List()))
	return nil
}
