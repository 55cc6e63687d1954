package storefront

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"FashionHub/internal/catalog"
	"FashionHub/internal/lists"
	"FashionHub/pkg/apperr"
	"FashionHub/pkg/kit"
)

type listView struct {
	IDs      []string          `json:"ids"`
	Products []catalog.Product `json:"products"`
}

type myListsPage struct {
	Shortlist listView    `json:"shortlist"`
	Favorites listView    `json:"favorites"`
	Stats     lists.Stats `json:"stats"`
}

type listChange struct {
	List    lists.Name `json:"list"`
	ID      string     `json:"id,omitempty"`
	InList  bool       `json:"in_list"`
	Message string     `json:"message,omitempty"`
	Items   []string   `json:"items"`
}

func (s *Server) handleMyLists(w http.ResponseWriter, r *http.Request) {
	d := device(r)

	e, err := s.engine(r, d)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}

	view := func(n lists.Name) listView {
		ids := d.Lists.Items(n)
		return listView{IDs: ids, Products: e.Lookup(ids)}
	}
	kit.WriteJSON(w, http.StatusOK, myListsPage{
		Shortlist: view(lists.Shortlist),
		Favorites: view(lists.Favorites),
		Stats:     d.Lists.Stats(),
	})
}

// listParam resolves {list}; it writes the 404 itself.
func listParam(w http.ResponseWriter, r *http.Request) (lists.Name, bool) {
	n, err := lists.ParseName(chi.URLParam(r, "list"))
	if err != nil {
		kit.WriteCodedError(w, r, http.StatusNotFound, apperr.CodeUnknownList, "unknown list", map[string]any{"list": chi.URLParam(r, "list")})
		return "", false
	}
	return n, true
}

func (s *Server) writeListError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, lists.ErrUnknownList) {
		kit.WriteCodedError(w, r, http.StatusNotFound, apperr.CodeUnknownList, "unknown list", nil)
		return
	}
	s.Log.Error("list write failed", zap.Error(err))
	kit.WriteAppError(w, r, &apperr.Error{
		Code:    apperr.CodeStorageFailure,
		Message: "list write failed",
		Status:  http.StatusInternalServerError,
		Err:     err,
	})
}

func (s *Server) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	d := device(r)
	n, ok := listParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	in, err := d.Lists.Toggle(r.Context(), n, id)
	if err != nil {
		s.writeListError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, listChange{
		List:    n,
		ID:      id,
		InList:  in,
		Message: lists.ToggleMessage(n, in),
		Items:   d.Lists.Items(n),
	})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	d := device(r)
	n, ok := listParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := d.Lists.Add(r.Context(), n, id); err != nil {
		s.writeListError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, listChange{List: n, ID: id, InList: true, Items: d.Lists.Items(n)})
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	d := device(r)
	n, ok := listParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := d.Lists.Remove(r.Context(), n, id); err != nil {
		s.writeListError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, listChange{List: n, ID: id, InList: false, Items: d.Lists.Items(n)})
}

type bulkReq struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleBulkAdd(w http.ResponseWriter, r *http.Request) {
	d := device(r)
	n, ok := listParam(w, r)
	if !ok {
		return
	}

	var req bulkReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		kit.WriteCodedError(w, r, http.StatusBadRequest, apperr.CodeBadRequest, "ids required", nil)
		return
	}

	if err := d.Lists.AddMany(r.Context(), n, req.IDs); err != nil {
		s.writeListError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, listChange{
		List:    n,
		InList:  true,
		Message: lists.BulkMessage(n, len(req.IDs)),
		Items:   d.Lists.Items(n),
	})
}

func (s *Server) handleClearList(w http.ResponseWriter, r *http.Request) {
	d := device(r)
	n, ok := listParam(w, r)
	if !ok {
		return
	}

	if err := d.Lists.Clear(r.Context(), n); err != nil {
		s.writeListError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, listChange{List: n, Items: d.Lists.Items(n)})
}
