package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/vytor/memocurve/internal/models"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueImport(id string, cards []models.Card) error {
	args := m.Called(id, cards)
	return args.Error(0)
}
