package http

import (
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/catalog"
	"fintrack/internal/report"
)

// handleCatalog lists products, optionally filtered by q and ordered by sort.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	products, err := s.deps.Catalog.Products(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	products = catalog.Search(products, q.Get("q"))
	products = catalog.Sort(products, catalog.ParseSortKey(q.Get("sort")))
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleCatalogSummary(w http.ResponseWriter, r *http.Request) {
	products, err := s.deps.Catalog.Products(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Catalog(products))
}

func (s *Server) handleCatalogProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		BadRequestError("invalid product id").Write(w)
		return
	}
	products, err := s.deps.Catalog.Products(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, ok := catalog.Find(products, id)
	if !ok {
		NotFoundError("product not found").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleCatalogRefresh fetches again. It is the retry path after a failure.
func (s *Server) handleCatalogRefresh(w http.ResponseWriter, r *http.Request) {
	products, err := s.deps.Catalog.Refresh(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(products),
		"fetchedAt": s.deps.Catalog.FetchedAt().UTC().Format(time.RFC3339),
	})
}
