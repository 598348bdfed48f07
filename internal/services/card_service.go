package services

import (
	"context"
	"errors"

	"github.com/vytor/memocurve/internal/clock"
	apperrors "github.com/vytor/memocurve/internal/errors"
	"github.com/vytor/memocurve/internal/flashcard"
	"github.com/vytor/memocurve/internal/logger"
	"github.com/vytor/memocurve/internal/models"
	"github.com/vytor/memocurve/internal/repository"
)

// CardService handles card authoring and removal
type CardService interface {
	Create(ctx context.Context, draft flashcard.Draft) (*models.Card, error)
	Get(ctx context.Context, id string) (*models.Card, error)
	List(ctx context.Context, filter models.CardFilter) ([]models.Card, int, error)
	Update(ctx context.Context, id string, draft flashcard.Draft) (*models.Card, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type cardService struct {
	repo  repository.CardRepository
	clock clock.Clock
	newID func() string
}

// NewCardService creates a new CardService
func NewCardService(repo repository.CardRepository, clk clock.Clock, newID func() string) CardService {
	return &cardService{repo: repo, clock: clk, newID: newID}
}

// draftError turns a rejected draft into a validation error.
func draftError(err error) error {
	var fe *flashcard.FieldError
	if errors.As(err, &fe) {
		return apperrors.NewValidationError(fe.Field, fe.Reason)
	}
	return apperrors.NewBadRequestError(err.Error())
}

func (s *cardService) Create(ctx context.Context, draft flashcard.Draft) (*models.Card, error) {
	log := logger.FromContext(ctx)
	log.Debug("creating card: type=%s", draft.QuestionType)

	card, err := flashcard.NewCard(draft, s.newID(), s.clock.Now())
	if err != nil {
		log.Debug("rejected card draft: %v", err)
		return nil, draftError(err)
	}
	if err := s.repo.Insert(ctx, card); err != nil {
		log.Error("failed to insert card: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	log.Info("card created: id=%s", card.ID)
	return &card, nil
}

func (s *cardService) Get(ctx context.Context, id string) (*models.Card, error) {
	card, err := s.repo.Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get card: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	if card == nil {
		return nil, apperrors.NewNotFoundError("card", id)
	}
	return card, nil
}

// List returns one page of cards and the total number matching the filter.
// Search is matched against the answer preview, so it runs after loading.
func (s *cardService) List(ctx context.Context, filter models.CardFilter) ([]models.Card, int, error) {
	log := logger.FromContext(ctx)

	if filter.Search == "" {
		cards, err := s.repo.List(ctx, filter)
		if err != nil {
			log.Error("failed to list cards: %v", err)
			return nil, 0, apperrors.NewInternalError(err)
		}
		total, err := s.repo.Count(ctx, filter)
		if err != nil {
			log.Error("failed to count cards: %v", err)
			return nil, 0, apperrors.NewInternalError(err)
		}
		return cards, total, nil
	}

	unpaged := filter
	unpaged.Limit, unpaged.Offset = 0, 0
	all, err := s.repo.List(ctx, unpaged)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, 0, apperrors.NewInternalError(err)
	}
	matched := make([]models.Card, 0, len(all))
	for _, c := range all {
		if flashcard.Matches(c, filter.Search) {
			matched = append(matched, c)
		}
	}
	return page(matched, filter.Offset, filter.Limit), len(matched), nil
}

func page(cards []models.Card, offset, limit int) []models.Card {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(cards) {
		return []models.Card{}
	}
	cards = cards[offset:]
	if limit > 0 && len(cards) > limit {
		cards = cards[:limit]
	}
	return cards
}

func (s *cardService) Update(ctx context.Context, id string, draft flashcard.Draft) (*models.Card, error) {
	log := logger.FromContext(ctx)
	log.Debug("updating card: id=%s", id)

	var updated models.Card
	err := s.repo.InTx(ctx, func(repo repository.CardRepository) error {
		card, err := repo.Get(ctx, id)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if card == nil {
			return apperrors.NewNotFoundError("card", id)
		}
		updated, err = flashcard.Edit(*card, draft)
		if err != nil {
			return draftError(err)
		}
		if err := repo.Update(ctx, updated); err != nil {
			return apperrors.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("card updated: id=%s", id)
	return &updated, nil
}

func (s *cardService) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		log.Error("failed to delete card: %v", err)
		return apperrors.NewInternalError(err)
	}
	if !ok {
		return apperrors.NewNotFoundError("card", id)
	}
	log.Info("card deleted: id=%s", id)
	return nil
}

func (s *cardService) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	log := logger.FromContext(ctx)
	if len(ids) == 0 {
		return 0, apperrors.NewValidationError("ids", "at least one id is required")
	}
	n, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		log.Error("failed to delete cards: %v", err)
		return 0, apperrors.NewInternalError(err)
	}
	log.Info("deleted %d of %d selected cards", n, len(ids))
	return n, nil
}

func (s *cardService) DeleteAll(ctx context.Context) (int64, error) {
	log := logger.FromContext(ctx)
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		log.Error("failed to delete all cards: %v", err)
		return 0, apperrors.NewInternalError(err)
	}
	log.Warn("deleted all %d cards", n)
	return n, nil
}
