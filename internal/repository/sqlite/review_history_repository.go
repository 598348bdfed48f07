package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/memocurve/internal/logger"
	"github.com/vytor/memocurve/internal/models"
	"github.com/vytor/memocurve/internal/repository"
)

type reviewHistoryRepository struct {
	db *sql.DB
}

// NewReviewHistoryRepository creates a new ReviewHistoryRepository implementation
func NewReviewHistoryRepository(db *sql.DB) repository.ReviewHistoryRepository {
	return &reviewHistoryRepository{db: db}
}

func (r *reviewHistoryRepository) Insert(ctx context.Context, h models.ReviewHistory) error {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("inserting review history: card_id=%s, quality=%d", h.CardID, h.Quality)

	reviewedAt := h.ReviewedAt
	if reviewedAt.IsZero() {
		reviewedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO review_history (card_id, quality, interval_days, ease_factor, reviewed_at)
VALUES (?, ?, ?, ?, ?)
`, h.CardID, h.Quality, h.Interval, h.EaseFactor, reviewedAt.UTC())
	if err != nil {
		log.Error("failed to insert review history: %v", err)
	}
	return err
}

func (r *reviewHistoryRepository) ForCard(ctx context.Context, cardID string, limit int) ([]models.ReviewHistory, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")

	q := sqlBuilder.Select("id", "card_id", "quality", "interval_days", "ease_factor", "reviewed_at").
		From("review_history").
		Where(squirrel.Eq{"card_id": cardID}).
		OrderBy("reviewed_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query review history: %v", err)
		return nil, err
	}
	defer rows.Close()

	history := []models.ReviewHistory{}
	for rows.Next() {
		var h models.ReviewHistory
		if err := rows.Scan(&h.ID, &h.CardID, &h.Quality, &h.Interval, &h.EaseFactor, &h.ReviewedAt); err != nil {
			log.Error("failed to scan review history row: %v", err)
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
