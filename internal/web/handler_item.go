package web

import (
	"net/http"

	"github.com/vbonduro/stocktake/internal/domain"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}

	photo, err := s.formPhoto(r, "photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to read photo")
		return
	}

	item, err := s.service.CreateItem(r.Context(),
		r.PostFormValue("inventory_name"),
		r.PostFormValue("description"),
		photo,
	)
	if err != nil {
		s.writeServiceError(w, r, err, "item not found")
		return
	}
	jsonResponse(w, http.StatusCreated, s.toResponse(item))
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListItems(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, s.toResponses(items))
}

func (s *Server) toResponses(items []*domain.Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, s.toResponse(item))
	}
	return out
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	item, err := s.service.GetItem(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, s.toResponse(item))
}

// updateRequest distinguishes an absent field (nil) from an empty one.
type updateRequest struct {
	InventoryName *string `json:"inventory_name"`
	Description   *string `json:"description"`
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	var req updateRequest
	if isJSON(r) {
		if !s.decodeBody(w, r, &req, true) {
			return
		}
	} else {
		if !s.parseForm(w, r) {
			return
		}
		if v, ok := r.PostForm["inventory_name"]; ok && len(v) > 0 {
			req.InventoryName = &v[0]
		}
		if v, ok := r.PostForm["description"]; ok && len(v) > 0 {
			req.Description = &v[0]
		}
	}

	item, err := s.service.UpdateItem(r.Context(), id, req.InventoryName, req.Description)
	if err != nil {
		s.writeServiceError(w, r, err, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, s.toResponse(item))
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	if err := s.service.DeleteItem(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}
