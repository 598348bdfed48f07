package jobs

import (
	"github.com/vytor/memocurve/internal/clock"
	"github.com/vytor/memocurve/internal/logger"
	"github.com/vytor/memocurve/internal/models"
	"github.com/vytor/memocurve/internal/repository"
	"github.com/vytor/memocurve/internal/worker"
)

// WorkerQueue implements JobQueue using worker pools
type WorkerQueue struct {
	importPool *worker.Pool
	cardRepo   repository.CardRepository
	clock      clock.Clock
	newID      func() string
	progress   worker.ImportProgress
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(
	importPool *worker.Pool,
	cardRepo repository.CardRepository,
	clk clock.Clock,
	newID func() string,
	progress worker.ImportProgress,
) *WorkerQueue {
	return &WorkerQueue{
		importPool: importPool,
		cardRepo:   cardRepo,
		clock:      clk,
		newID:      newID,
		progress:   progress,
	}
}

// SetProgress replaces the import progress receiver.
func (q *WorkerQueue) SetProgress(p worker.ImportProgress) {
	q.progress = p
}

// EnqueueImport returns worker.ErrQueueFull instead of blocking when the
// import queue has no room.
func (q *WorkerQueue) EnqueueImport(id string, cards []models.Card) error {
	err := q.importPool.TrySubmit(&worker.ImportCollectionJob{
		ID:       id,
		Cards:    cards,
		Repo:     q.cardRepo,
		Clock:    q.clock,
		NewID:    q.newID,
		Progress: q.progress,
	})
	if err != nil {
		return err
	}
	logger.Default().WithPrefix("jobs").Debug("import %s queued, %d pending", id, q.importPool.QueueSize())
	return nil
}
