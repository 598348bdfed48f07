package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/memocurve/internal/errors"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		if s.RequestTimeout > 0 {
			r.Use(timeoutMiddleware(s.RequestTimeout))
		}

		r.Get("/cards", s.handleListCards)
		r.Post("/cards", s.handleCreateCard)
		r.Delete("/cards", s.handleDeleteAllCards)
		r.Post("/cards/delete", s.handleDeleteCards)
		r.Get("/cards/{id}", s.handleGetCard)
		r.Put("/cards/{id}", s.handleUpdateCard)
		r.Delete("/cards/{id}", s.handleDeleteCard)
		r.Get("/cards/{id}/intervals", s.handleIntervals)
		r.Get("/cards/{id}/history", s.handleHistory)
		r.Post("/cards/{id}/review", s.handleReview)

		r.Get("/study", s.handleStudy)
		r.Get("/study/due", s.handleDueCards)

		r.Get("/collection/export", s.handleExport)
		r.Post("/collection/import", s.handleImport)
		r.Get("/collection/imports/{id}", s.handleImportStatus)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errors.NewNotFoundError("route", r.URL.Path))
	})
	return r
}
