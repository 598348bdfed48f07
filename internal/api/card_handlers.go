package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/memocurve/internal/errors"
	"github.com/vytor/memocurve/internal/flashcard"
	"github.com/vytor/memocurve/internal/logger"
	"github.com/vytor/memocurve/internal/models"
)

type cardListResponse struct {
	Cards   []models.Card `json:"cards"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"perPage"`
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	q := r.URL.Query()

	page, perPage := pagination(r)
	filter := models.CardFilter{
		Search: q.Get("q"),
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}
	if t := q.Get("type"); t != "" {
		qt := models.QuestionType(t)
		if qt != models.QuestionTypeFree && !qt.IsChoice() {
			handleError(w, r, errors.NewValidationError("type", "must be one of free four multi"))
			return
		}
		filter.QuestionType = qt
	}
	if q.Get("due") == "true" {
		now := s.Clock.Now()
		filter.DueAt = &now
	}

	log = log.WithFields(map[string]any{"page": page, "per_page": perPage})
	log.Debug("listing cards")

	cards, total, err := s.CardService.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if cards == nil {
		cards = []models.Card{}
	}
	writeJSON(w, r, http.StatusOK, cardListResponse{
		Cards:   cards,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var draft flashcard.Draft
	if err := decodeJSON(w, r, &draft); err != nil {
		handleError(w, r, err)
		return
	}
	card, err := s.CardService.Create(r.Context(), draft)
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/cards/"+card.ID)
	writeJSON(w, r, http.StatusCreated, card)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.CardService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var draft flashcard.Draft
	if err := decodeJSON(w, r, &draft); err != nil {
		handleError(w, r, err)
		return
	}
	card, err := s.CardService.Update(r.Context(), chi.URLParam(r, "id"), draft)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.CardService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCards(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		handleError(w, r, err)
		return
	}
	n, err := s.CardService.DeleteMany(r.Context(), body.IDs)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) handleDeleteAllCards(w http.ResponseWriter, r *http.Request) {
	n, err := s.CardService.DeleteAll(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int64{"deleted": n})
}
