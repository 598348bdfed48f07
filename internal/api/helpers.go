package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/vytor/memocurve/internal/errors"
	"github.com/vytor/memocurve/internal/flashcard"
	"github.com/vytor/memocurve/internal/logger"
)

const (
	defaultPerPage = 25
	maxPerPage     = 100
	maxBodyBytes   = 1 << 20
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}

// decodeJSON reads a single JSON document from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.NewBadRequestError("request body is empty")
		}
		return errors.NewBodyError("invalid JSON body", err)
	}
	return nil
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// pagination reads page and per_page, defaulting to the first page of 25.
func pagination(r *http.Request) (page, perPage int) {
	page = 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	perPage = defaultPerPage
	if pp, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && pp > 0 {
		perPage = pp
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// qualityFromRequest reads the rating from a JSON body or a form field.
func qualityFromRequest(w http.ResponseWriter, r *http.Request) (flashcard.Quality, error) {
	raw := ""
	if isJSON(r) {
		var body struct {
			Quality json.RawMessage `json:"quality"`
		}
		if err := decodeJSON(w, r, &body); err != nil {
			return 0, err
		}
		raw = strings.Trim(string(body.Quality), `"`)
	} else {
		raw = r.FormValue("quality")
	}
	if raw == "" {
		return 0, errors.NewValidationError("quality", "is required")
	}
	q, err := flashcard.ParseQuality(raw)
	if err != nil {
		return 0, errors.NewValidationError("quality", "must be 0-3 or again, hard, good, easy")
	}
	return q, nil
}
