package services

import (
	"context"

	"github.com/vytor/memocurve/internal/clock"
	apperrors "github.com/vytor/memocurve/internal/errors"
	"github.com/vytor/memocurve/internal/flashcard"
	"github.com/vytor/memocurve/internal/logger"
	"github.com/vytor/memocurve/internal/models"
	"github.com/vytor/memocurve/internal/repository"
)

const defaultHistoryLimit = 50

// StudyService drives daily study: the due queue, ratings and previews
type StudyService interface {
	Overview(ctx context.Context) (*models.StudyOverview, error)
	DueCards(ctx context.Context) ([]models.Card, error)
	Review(ctx context.Context, cardID string, quality flashcard.Quality) (*models.Card, error)
	Intervals(ctx context.Context, cardID string) (*models.IntervalPreview, error)
	History(ctx context.Context, cardID string, limit int) ([]models.ReviewHistory, error)
}

type studyService struct {
	cards         repository.CardRepository
	history       repository.ReviewHistoryRepository
	clock         clock.Clock
	upcomingLimit int
}

// NewStudyService creates a new StudyService
func NewStudyService(
	cards repository.CardRepository,
	history repository.ReviewHistoryRepository,
	clk clock.Clock,
	upcomingLimit int,
) StudyService {
	if upcomingLimit <= 0 {
		upcomingLimit = flashcard.DefaultUpcomingLimit
	}
	return &studyService{
		cards:         cards,
		history:       history,
		clock:         clk,
		upcomingLimit: upcomingLimit,
	}
}

func (s *studyService) Overview(ctx context.Context) (*models.StudyOverview, error) {
	log := logger.FromContext(ctx)
	cards, err := s.cards.List(ctx, models.CardFilter{})
	if err != nil {
		log.Error("failed to load collection: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	ov := flashcard.Overview(cards, s.clock.Now(), s.upcomingLimit)
	log.Debug("study overview: total=%d due=%d", ov.Total, ov.DueCount)
	return &ov, nil
}

func (s *studyService) DueCards(ctx context.Context) ([]models.Card, error) {
	now := s.clock.Now()
	cards, err := s.cards.List(ctx, models.CardFilter{DueAt: &now})
	if err != nil {
		logger.FromContext(ctx).Error("failed to list due cards: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	return cards, nil
}

// Review reschedules a card from a recall rating. The read and the write
// happen in one transaction so concurrent ratings of the same card serialize.
func (s *studyService) Review(ctx context.Context, cardID string, quality flashcard.Quality) (*models.Card, error) {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"card_id": cardID,
		"quality": int(quality),
	})
	if !quality.Valid() {
		return nil, apperrors.NewValidationError("quality", "must be between 0 and 3")
	}

	now := s.clock.Now()
	var reviewed models.Card
	err := s.cards.InTx(ctx, func(repo repository.CardRepository) error {
		card, err := repo.Get(ctx, cardID)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if card == nil {
			return apperrors.NewNotFoundError("card", cardID)
		}
		reviewed, err = flashcard.ApplyReview(*card, quality, now)
		if err != nil {
			return apperrors.NewValidationError("quality", err.Error())
		}
		if err := repo.Update(ctx, reviewed); err != nil {
			return apperrors.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		if appErr, ok := apperrors.As(err); !ok || appErr.Code == apperrors.ErrCodeInternal {
			log.Error("failed to review card: %v", err)
		}
		return nil, err
	}

	if err := s.history.Insert(ctx, models.ReviewHistory{
		CardID:     cardID,
		Quality:    int(quality),
		Interval:   reviewed.Interval,
		EaseFactor: reviewed.EaseFactor,
		ReviewedAt: now,
	}); err != nil {
		log.Warn("failed to record review history: %v", err)
	}

	log.Info("card reviewed: repetitions=%d interval=%d ease=%.2f",
		reviewed.Repetitions, reviewed.Interval, reviewed.EaseFactor)
	return &reviewed, nil
}

func (s *studyService) Intervals(ctx context.Context, cardID string) (*models.IntervalPreview, error) {
	card, err := s.cards.Get(ctx, cardID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get card: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	if card == nil {
		return nil, apperrors.NewNotFoundError("card", cardID)
	}
	iv := flashcard.PreviewIntervals(*card, s.clock.Now())
	return &models.IntervalPreview{
		CardID: card.ID,
		Again:  iv[flashcard.Again],
		Hard:   iv[flashcard.Hard],
		Good:   iv[flashcard.Good],
		Easy:   iv[flashcard.Easy],
	}, nil
}

func (s *studyService) History(ctx context.Context, cardID string, limit int) ([]models.ReviewHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	h, err := s.history.ForCard(ctx, cardID, limit)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load review history: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	return h, nil
}
