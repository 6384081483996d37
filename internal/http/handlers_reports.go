package http

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	writeJSON(w, http.StatusOK, sess.Overview())
}

// handleMonthReport reports one month, the current one by default.
func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	m := ParseMonthParams(r.URL.Query(), s.now())
	writeJSON(w, http.StatusOK, report.Month(sess.Scope().Ledger.List(), m.Year, m.Month))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	writeJSON(w, http.StatusOK, sess.BudgetStatuses())
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	writeJSON(w, http.StatusOK, sess.BudgetStatus(r.PathValue("category")))
}

// handleSetBudget sets the limit of a category. Zero is allowed and disables
// the percentage; negative limits are rejected.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	category := r.PathValue("category")
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := decimal.NewFromString(p.Get("limit"))
	if err != nil {
		UnprocessableEntityError("limit must be a number").Write(w)
		return
	}
	if err := sess.Scope().Budgets.SetLimit(r.Context(), category, limit); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.BudgetStatus(category))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	if err := sess.Scope().Budgets.RemoveLimit(r.Context(), r.PathValue("category")); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	s.writeExport(w, r, sess, "csv", export.ContentTypeCSV, export.WriteCSV)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	s.writeExport(w, r, sess, "xlsx", export.ContentTypeXLSX, export.WriteXLSX)
}

// writeExport renders into a buffer first so a failure still gets a clean
// error response.
func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, sess *services.Session, ext, contentType string, write export.Writer) {
	txs := sess.Scope().Ledger.List()
	var buf bytes.Buffer
	if err := write(&buf, txs); err != nil {
		writeError(w, r, err)
		return
	}

	name := export.FileName(s.now(), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	log.FromContext(r.Context()).WithComponent(log.ComponentExport).InfoContext(r.Context(), "Transactions exported",
		log.FieldOperation, log.OpExport, log.FieldScope, sess.Scope().Name, "format", ext, "rows", len(txs))
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.prefs.Load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	dark, err := strconv.ParseBool(p.Get("darkMode"))
	if err != nil {
		UnprocessableEntityError("darkMode must be true or false").Write(w)
		return
	}
	prefs := services.Preferences{DarkMode: dark}
	if err := s.prefs.Save(r.Context(), prefs); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
