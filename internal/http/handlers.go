package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/storage"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the storage backend. The catalog is reported but never
// fails readiness.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := make(map[string]any)

	if s.deps.Ready != nil {
		if err := s.deps.Ready(ctx); err != nil {
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "ok"
	}

	if s.deps.Catalog != nil {
		if at := s.deps.Catalog.FetchedAt(); at.IsZero() {
			checks["catalog"] = "not_fetched"
		} else {
			checks["catalog"] = "fetched " + at.UTC().Format(time.RFC3339)
		}
	}
	checks["sessions"] = s.sessions.Size()

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.Metrics()
	rm := s.limiter.Metrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "# fintrack metrics\n")
	fmt.Fprintf(w, "fintrack_uptime_seconds %d\n", int64(time.Since(s.started).Seconds()))
	fmt.Fprintf(w, "fintrack_http_requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(w, "fintrack_http_server_errors_total %d\n", tm.ServerErrors)
	fmt.Fprintf(w, "fintrack_http_response_time_avg_microseconds %d\n", tm.AverageResponseMicros)
	fmt.Fprintf(w, "fintrack_rate_limit_allowed_total %d\n", rm.Allowed)
	fmt.Fprintf(w, "fintrack_rate_limit_rejected_total %d\n", rm.Rejected)
	fmt.Fprintf(w, "fintrack_rate_limit_clients %d\n", rm.ClientCount)
	fmt.Fprintf(w, "fintrack_security_suspicious_requests_total %d\n", s.detector.SuspiciousRequests())
	fmt.Fprintf(w, "fintrack_sessions_active %d\n", s.sessions.Size())
	fmt.Fprintf(w, "fintrack_scopes_loaded %d\n", s.scopes.Len())

	if lister, ok := s.deps.Store.(storage.KeyLister); ok {
		if keys, err := lister.Keys(r.Context(), storage.TransactionsPrefix); err == nil {
			fmt.Fprintf(w, "fintrack_scopes_with_transactions %d\n", len(keys))
		}
	}
}
