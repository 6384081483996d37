package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

// handleListTransactions lists the scope's transactions newest first.
// Optional filters: type, category, and year+month together.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	q := r.URL.Query()
	txs := sess.Scope().Ledger.List()

	if q.Get("year") != "" && q.Get("month") != "" {
		m := ParseMonthParams(q, s.now())
		txs = report.InMonth(txs, m.Year, m.Month)
	}
	typ := core.TransactionType(strings.ToLower(strings.TrimSpace(q.Get("type"))))
	category := strings.TrimSpace(q.Get("category"))
	if typ != "" || category != "" {
		out := make([]core.Transaction, 0, len(txs))
		for _, t := range txs {
			if typ != "" && t.Type != typ {
				continue
			}
			if category != "" && !strings.EqualFold(t.Category, category) {
				continue
			}
			out = append(out, t)
		}
		txs = out
	}

	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}

	tx := core.Transaction{
		Type:        core.TransactionType(strings.ToLower(p.Get("type"))),
		Category:    p.Get("category"),
		Description: p.Get("description"),
	}
	if !tx.Type.Valid() {
		writeError(w, r, core.ErrInvalidType)
		return
	}
	amount, err := p.Amount("amount")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx.Amount = amount
	if tx.Date, err = p.Date("date"); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := sess.Scope().Ledger.Add(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentLedger).InfoContext(r.Context(), "Transaction created",
		log.FieldOperation, log.OpCreate, log.FieldTxID, created.ID, log.FieldTxType, created.Type,
		log.FieldCategory, created.Category, log.FieldAmount, created.Amount.String())
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateTransaction applies the fields present in the body.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	id, ok := pathID(r)
	if !ok {
		BadRequestError("invalid transaction id").Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}

	var patch core.TransactionPatch
	if p.Has("type") {
		typ := core.TransactionType(strings.ToLower(p.Get("type")))
		if !typ.Valid() {
			writeError(w, r, core.ErrInvalidType)
			return
		}
		patch.Type = &typ
	}
	if p.Has("amount") {
		amount, err := p.Amount("amount")
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Amount = &amount
	}
	if p.Has("category") {
		category := p.Get("category")
		patch.Category = &category
	}
	if p.Has("description") {
		desc := p.Get("description")
		patch.Description = &desc
	}
	if p.Has("date") {
		date, err := p.Date("date")
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Date = &date
	}

	updated, found, err := sess.Scope().Ledger.Edit(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		NotFoundError("transaction not found").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	id, ok := pathID(r)
	if !ok {
		BadRequestError("invalid transaction id").Write(w)
		return
	}
	found, err := sess.Scope().Ledger.Remove(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		NotFoundError("transaction not found").Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
