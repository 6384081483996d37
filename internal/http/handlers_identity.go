package http

import (
	"fmt"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

var errPasswordMismatch = fmt.Errorf("%w: passwords do not match", core.ErrValidation)

// sessionView is the JSON shape of a session's identity state.
type sessionView struct {
	Authenticated bool   `json:"authenticated"`
	User          string `json:"user,omitempty"`
	Scope         string `json:"scope"`
}

func viewOf(sess *services.Session) sessionView {
	user, ok := sess.User()
	return sessionView{Authenticated: ok, User: user, Scope: sess.Scope().Name}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// handleRegister creates an identity. When confirmPassword is sent it must
// match password.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	username, password := p.Get("username"), p.Get("password")
	if p.Has("confirmPassword") && p.Get("confirmPassword") != password {
		writeError(w, r, errPasswordMismatch)
		return
	}

	if err := sess.Register(r.Context(), username, password); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentIdentity).InfoContext(r.Context(), "Identity registered",
		log.FieldOperation, log.OpRegister, log.FieldScope, sess.Scope().Name)
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := sess.Login(r.Context(), p.Get("username"), p.Get("password")); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentIdentity).WarnContext(r.Context(), "Login failed",
			log.NewFields().WithOperation(log.OpLogin).WithError(err, log.ErrorTypeAuth).ToSlice()...)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	if err := sess.Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}
