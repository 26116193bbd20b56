package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vbonduro/stocktake/internal/domain"
	"github.com/vbonduro/stocktake/internal/service"
)

// itemResponse is the wire form of an item.
type itemResponse struct {
	ID            int64   `json:"id"`
	InventoryName string  `json:"inventory_name"`
	Description   string  `json:"description"`
	Photo         *string `json:"photo"`
	PhotoURL      *string `json:"photo_url"`
}

func (s *Server) toResponse(item *domain.Item) itemResponse {
	resp := itemResponse{
		ID:            item.ID,
		InventoryName: item.Name,
		Description:   item.Description,
	}
	if item.HasPhoto() {
		key := item.PhotoKey
		url := s.service.PhotoURL(item.ID)
		resp.Photo = &key
		resp.PhotoURL = &url
	}
	return resp
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// decodeBody decodes a JSON request body capped at maxUpload bytes. An empty
// body is accepted when allowEmpty is set. On failure it writes the error
// response itself and returns false.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, target any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	err := decodeJSON(r, target)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		jsonError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	jsonError(w, http.StatusBadRequest, "invalid JSON body")
	return false
}

// writeServiceError maps service errors onto status codes. Unexpected errors
// are logged and reported without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		jsonError(w, http.StatusNotFound, notFoundMsg)
	default:
		s.logger.Error("request failed",
			"request_id", RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseID reads the {id} path value. The bool is false when it is not an
// integer, which callers report as not found.
func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
