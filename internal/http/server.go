// Package http serves the fintrack JSON API. Each client is tracked by a
// session cookie that maps to its own services.Session.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/cache"
	"fintrack/internal/identity"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "fintrack_session"

// Deps are the collaborators shared by every session.
type Deps struct {
	Store     storage.Store
	Registry  *identity.Registry
	Catalog   *services.CatalogView
	Publisher ledger.Publisher
	// Ready checks backing services for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Options tune the server. Zero values get defaults.
type Options struct {
	Logger             *log.Logger
	SessionTTL         time.Duration
	MaxSessions        int
	RateLimitPerMinute int
	SecureCookies      bool
	CleanupInterval    time.Duration
	Now                func() time.Time
}

type Server struct {
	http.Server

	deps   Deps
	logger *log.Logger
	now    func() time.Time

	sessions    *cache.LRUCache[*services.Session]
	scopes      *services.Scopes
	sessionOpts []services.SessionOption
	secure      bool
	caches      *cache.Manager
	prefs       *services.PreferenceStore

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1000
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		deps:     deps,
		logger:   logger,
		now:      opts.Now,
		sessions: cache.NewLRUCache[*services.Session](opts.MaxSessions, opts.SessionTTL, cache.WithSlidingExpiry()),
		secure:   opts.SecureCookies,
		caches:   cache.NewManager(),
		prefs:    services.NewPreferenceStore(deps.Store),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
		started:  time.Now(),
	}
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)
	ledgerOpts := []ledger.Option{ledger.WithClock(opts.Now)}
	if deps.Publisher != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithPublisher(deps.Publisher))
	}
	s.scopes = services.NewScopes(deps.Store, ledgerOpts...)
	s.sessionOpts = append(s.sessionOpts, services.WithScopes(s.scopes), services.WithClock(opts.Now))

	s.caches.Register("sessions", s.sessions)
	s.caches.StartCleanup(opts.CleanupInterval)

	mux := http.NewServeMux()
	s.routes(mux)

	limited := s.limiter.Middleware(ratelimit.Mutating, s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
	})

	var handler http.Handler = mux
	handler = limited(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/register", s.withSession(s.handleRegister))
	mux.HandleFunc("POST /api/login", s.withSession(s.handleLogin))
	mux.HandleFunc("POST /api/logout", s.withSession(s.handleLogout))
	mux.HandleFunc("GET /api/session", s.withSession(s.handleSession))

	mux.HandleFunc("GET /api/transactions", s.withSession(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withSession(s.handleCreateTransaction))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.withSession(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withSession(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/summary", s.withSession(s.handleSummary))
	mux.HandleFunc("GET /api/reports", s.withSession(s.handleMonthReport))

	mux.HandleFunc("GET /api/budgets", s.withSession(s.handleListBudgets))
	mux.HandleFunc("GET /api/budgets/{category}", s.withSession(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budgets/{category}", s.withSession(s.handleSetBudget))
	mux.HandleFunc("DELETE /api/budgets/{category}", s.withSession(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/catalog/summary", s.handleCatalogSummary)
	mux.HandleFunc("GET /api/catalog/{id}", s.handleCatalogProduct)
	mux.HandleFunc("POST /api/catalog/refresh", s.handleCatalogRefresh)

	mux.HandleFunc("GET /api/export.csv", s.withSession(s.handleExportCSV))
	mux.HandleFunc("GET /api/export.xlsx", s.withSession(s.handleExportXLSX))

	mux.HandleFunc("GET /api/preferences", s.handleGetPreferences)
	mux.HandleFunc("PUT /api/preferences", s.handleSetPreferences)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *services.Session)

// withSession resolves the caller's session from its cookie, starting a new
// guest session when the cookie is missing or expired.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.session(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := log.NewContext(r.Context(), log.FromContext(r.Context()).With(log.FieldSessionID, sess.ID()))
		next(w, r.WithContext(ctx), sess)
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*services.Session, error) {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		if sess, ok := s.sessions.Get(c.Value); ok {
			return sess, nil
		}
	}

	id := uuid.NewString()
	sess, err := services.NewSession(r.Context(), id, s.deps.Store, s.deps.Registry, s.sessionOpts...)
	if err != nil {
		return nil, err
	}
	s.sessions.Set(id, sess)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	log.FromContext(r.Context()).DebugContext(r.Context(), "Session started", log.FieldSessionID, id)
	return sess, nil
}

// Shutdown stops background cleanup and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
