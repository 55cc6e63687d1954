package storefront

import (
	"net/http"
	"strconv"

	"FashionHub/internal/catalog"
	"FashionHub/internal/lists"
	"FashionHub/pkg/apperr"
	"FashionHub/pkg/kit"
)

type catalogPage struct {
	catalog.View
	PendingSearch string                  `json:"pending_search,omitempty"`
	InLists       map[string][]lists.Name `json:"in_lists"`
	Stats         lists.Stats             `json:"stats"`
}

// handleCatalog renders the current page. q, category and page, when given,
// are applied in that order so the page survives the filter reset.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	d := device(r)

	e, err := s.engine(r, d)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}

	q := r.URL.Query()
	if q.Has("q") {
		e.SetSearch(q.Get("q"))
	}
	if q.Has("category") {
		e.SetCategory(q.Get("category"))
	}
	if q.Has("page") {
		n, err := strconv.Atoi(q.Get("page"))
		if err != nil {
			kit.WriteCodedError(w, r, http.StatusBadRequest, apperr.CodeBadRequest, "invalid page", map[string]any{"page": q.Get("page")})
			return
		}
		e.SetPage(n)
	}

	kit.WriteJSON(w, http.StatusOK, s.catalogPage(d, e))
}

func (s *Server) catalogPage(d *Device, e *catalog.Engine) catalogPage {
	page := catalogPage{
		View:    e.Snapshot(),
		InLists: map[string][]lists.Name{},
		Stats:   d.Lists.Stats(),
	}
	if pending, ok := e.PendingSearch(); ok {
		page.PendingSearch = pending
	}
	for _, p := range page.Products {
		if in := d.Lists.ListsContaining(p.Key()); len(in) > 0 {
			page.InLists[p.Key()] = in
		}
	}
	return page
}

type searchReq struct {
	Text string `json:"text"`
}

// handleSearch takes keystroke-level input; the filter follows once typing
// has paused.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	d := device(r)

	var req searchReq
	if !decodeJSON(w, r, &req) {
		return
	}

	e, err := s.engine(r, d)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	e.TypeSearch(req.Text)

	kit.WriteJSON(w, http.StatusAccepted, map[string]any{
		"pending":     req.Text,
		"debounce_ms": s.searchDebounce().Milliseconds(),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	d := device(r)

	ps, err := s.Catalog.FetchAll(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}

	if d.engine == nil {
		d.engine = s.newEngine(ps)
	} else {
		d.engine.SetProducts(ps)
	}

	kit.WriteJSON(w, http.StatusOK, s.catalogPage(d, d.engine))
}
