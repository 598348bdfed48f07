package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/memocurve/internal/models"
)

// MockReviewHistoryRepository is a mock implementation of repository.ReviewHistoryRepository
type MockReviewHistoryRepository struct {
	mock.Mock
}

func (m *MockReviewHistoryRepository) Insert(ctx context.Context, h models.ReviewHistory) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *MockReviewHistoryRepository) ForCard(ctx context.Context, cardID string, limit int) ([]models.ReviewHistory, error) {
	args := m.Called(ctx, cardID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReviewHistory), args.Error(1)
}
