package repository

import (
	"context"

	"github.com/vytor/memocurve/internal/models"
)

// CardRepository handles card collection access
type CardRepository interface {
	// Get returns nil, nil when no card has the given id.
	Get(ctx context.Context, id string) (*models.Card, error)
	List(ctx context.Context, filter models.CardFilter) ([]models.Card, error)
	Count(ctx context.Context, filter models.CardFilter) (int, error)
	Insert(ctx context.Context, card models.Card) error
	// UpsertBatch writes cards in one transaction, replacing cards with the same id.
	UpsertBatch(ctx context.Context, cards []models.Card) (int, error)
	// Update returns sql.ErrNoRows when the card does not exist.
	Update(ctx context.Context, card models.Card) error
	Delete(ctx context.Context, id string) (bool, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	// InTx runs fn against a repository bound to a single transaction.
	InTx(ctx context.Context, fn func(CardRepository) error) error
}

// ReviewHistoryRepository stores completed reviews
type ReviewHistoryRepository interface {
	Insert(ctx context.Context, h models.ReviewHistory) error
	ForCard(ctx context.Context, cardID string, limit int) ([]models.ReviewHistory, error)
}
