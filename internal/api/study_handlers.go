package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/memocurve/internal/logger"
)

func (s *Server) handleStudy(w http.ResponseWriter, r *http.Request) {
	ov, err := s.StudyService.Overview(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ov)
}

// handleDueCards returns today's queue in collection order.
func (s *Server) handleDueCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.StudyService.DueCards(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"cards": cards, "count": len(cards)})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	quality, err := qualityFromRequest(w, r)
	if err != nil {
		log.Warn("invalid quality for card %s: %v", id, err)
		handleError(w, r, err)
		return
	}

	card, err := s.StudyService.Review(r.Context(), id, quality)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleIntervals(w http.ResponseWriter, r *http.Request) {
	preview, err := s.StudyService.Intervals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.CardService.Get(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	history, err := s.StudyService.History(r.Context(), id, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, history)
}
