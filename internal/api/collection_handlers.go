package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/memocurve/internal/collection"
	"github.com/vytor/memocurve/internal/errors"
	"github.com/vytor/memocurve/internal/logger"
)

const exportFilename = "flashcards.json"

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := s.ImportService.Export(r.Context(), &buf); err != nil {
		handleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.FromContext(r.Context()).Warn("failed to write export: %v", err)
	}
}

// maxImportBytes bounds an import request. Decode reads at most
// collection.MaxSize+1 bytes of the collection itself, so the slack only
// covers multipart framing.
const maxImportBytes = collection.MaxSize + maxBodyBytes

// handleImport accepts the collection either as the raw request body or as
// a multipart "file" upload. An oversized collection is read as corrupt,
// the same way on both paths.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		part, err := uploadedFile(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		defer part.Close()
		logger.FromContext(r.Context()).Debug("importing uploaded file %s", part.FileName())
		body = part
	}

	status, err := s.ImportService.Import(r.Context(), body)
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/collection/imports/"+status.ID)
	writeJSON(w, r, http.StatusAccepted, status)
}

// uploadedFile streams the multipart form up to its "file" part.
func uploadedFile(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, errors.NewBodyError("invalid upload", err)
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errors.NewValidationError("file", "is required")
		}
		if err != nil {
			return nil, errors.NewBodyError("invalid upload", err)
		}
		if part.FormName() == "file" {
			return part, nil
		}
		_ = part.Close()
	}
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.ImportService.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}
