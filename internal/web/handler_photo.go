package web

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/vbonduro/stocktake/internal/service"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling file parts to disk. The body as a whole is capped by maxUpload.
const multipartMemory = 8 << 20

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// sniffMediaType guesses a media type from content. WebP is checked
// separately because older sniffing tables lack its signature.
func sniffMediaType(data []byte) string {
	if isWebP(data) {
		return "image/webp"
	}
	return http.DetectContentType(data)
}

// resolveMediaType prefers the media type the client declared for the part
// and only sniffs when none, or only the generic binary type, was given.
func resolveMediaType(declared string, data []byte) string {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil || mt == "" || mt == "application/octet-stream" {
		return sniffMediaType(data)
	}
	return mt
}

// parseForm parses a urlencoded or multipart body capped at maxUpload bytes.
// It writes the error response itself and reports whether parsing succeeded.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	var err error
	if isMultipart(r) {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		jsonError(w, http.StatusBadRequest, "failed to parse form")
		return false
	}
	return true
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && (mt == "application/json" || strings.HasSuffix(mt, "+json"))
}

// formPhoto reads the named file part of an already parsed form. It returns
// nil when the part is absent, or present but empty with no filename, which
// is what browsers send for an untouched file input.
func (s *Server) formPhoto(r *http.Request, field string) (*service.PhotoUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 && header.Filename == "" {
		return nil, nil
	}

	return &service.PhotoUpload{
		Filename:  header.Filename,
		MediaType: resolveMediaType(header.Header.Get("Content-Type"), data),
		Data:      data,
	}, nil
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "photo not found")
		return
	}

	reader, mediaType, err := s.service.FetchPhoto(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "photo not found")
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mediaType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "item_id", id, "error", err)
	}
}

func (s *Server) handleReplacePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if !s.parseForm(w, r) {
		return
	}

	photo, err := s.formPhoto(r, "photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to read photo")
		return
	}

	// A nil photo is rejected by the service after the item lookup, so an
	// unknown id is reported as 404 even without a file.
	item, err := s.service.ReplacePhoto(r.Context(), id, photo)
	if err != nil {
		s.writeServiceError(w, r, err, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, s.toResponse(item))
}
