package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

type searchRequest struct {
	ID       json.RawMessage `json:"id"`
	HasPhoto json.RawMessage `json:"has_photo"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var (
		rawID    string
		hasID    bool
		hasPhoto bool
	)

	if isJSON(r) {
		var req searchRequest
		if !s.decodeBody(w, r, &req, false) {
			return
		}
		rawID, hasID = jsonScalar(req.ID)
		if v, ok := jsonScalar(req.HasPhoto); ok {
			hasPhoto = truthy(v)
		}
	} else {
		if !s.parseForm(w, r) {
			return
		}
		if v, ok := r.Form["id"]; ok && len(v) > 0 {
			rawID, hasID = v[0], true
		}
		hasPhoto = truthy(r.Form.Get("has_photo"))
	}

	if !hasID || strings.TrimSpace(rawID) == "" {
		jsonError(w, http.StatusBadRequest, "id is required")
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	item, err := s.service.Search(r.Context(), id, hasPhoto)
	if err != nil {
		s.writeServiceError(w, r, err, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, s.toResponse(item))
}

// jsonScalar renders a JSON string, number or bool as its text. Absent and
// null values report false.
func jsonScalar(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, true
	}
	return string(raw), true
}

// truthy accepts the values HTML checkboxes and JSON clients commonly send.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
