package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/vytor/memocurve/internal/clock"
	"github.com/vytor/memocurve/internal/collection"
	apperrors "github.com/vytor/memocurve/internal/errors"
	"github.com/vytor/memocurve/internal/jobs"
	"github.com/vytor/memocurve/internal/logger"
	"github.com/vytor/memocurve/internal/models"
	"github.com/vytor/memocurve/internal/repository"
	"github.com/vytor/memocurve/internal/worker"
)

const (
	// importStatusTTL is how long a finished import stays queryable.
	importStatusTTL = time.Hour
	// maxFinishedImports caps the finished statuses kept at once.
	maxFinishedImports = 100
)

// ImportService moves whole collections in and out of the card store
type ImportService interface {
	worker.ImportProgress
	Import(ctx context.Context, r io.Reader) (*models.ImportStatus, error)
	Status(ctx context.Context, id string) (*models.ImportStatus, error)
	Export(ctx context.Context, w io.Writer) (int, error)
}

type importService struct {
	cards repository.CardRepository
	queue jobs.JobQueue
	clock clock.Clock
	newID func() string

	mu       sync.Mutex
	statuses map[string]*models.ImportStatus
}

// NewImportService creates a new ImportService
func NewImportService(cards repository.CardRepository, queue jobs.JobQueue, clk clock.Clock, newID func() string) ImportService {
	return &importService{
		cards:    cards,
		queue:    queue,
		clock:    clk,
		newID:    newID,
		statuses: make(map[string]*models.ImportStatus),
	}
}

// Import decodes a collection and queues it for a background write. A
// corrupt document is accepted as an empty collection.
func (s *importService) Import(ctx context.Context, r io.Reader) (*models.ImportStatus, error) {
	log := logger.FromContext(ctx)

	cards, report, err := collection.Decode(r, log)
	if err != nil {
		log.Error("failed to read collection: %v", err)
		return nil, apperrors.NewBodyError("could not read collection", err)
	}

	status := &models.ImportStatus{
		ID:        s.newID(),
		State:     models.ImportQueued,
		Received:  report.Received,
		Skipped:   report.Skipped,
		Corrupt:   report.Corrupt,
		CreatedAt: s.clock.Now(),
	}
	log = log.WithField("import_id", status.ID)

	s.mu.Lock()
	s.pruneLocked(status.CreatedAt)
	s.statuses[status.ID] = status
	s.mu.Unlock()

	if err := s.queue.EnqueueImport(status.ID, cards); err != nil {
		s.mu.Lock()
		delete(s.statuses, status.ID)
		s.mu.Unlock()
		if errors.Is(err, worker.ErrQueueFull) || errors.Is(err, worker.ErrStopped) {
			log.Warn("import rejected: %v", err)
			return nil, apperrors.NewUnavailableError("import queue is busy, try again later", err)
		}
		log.Error("failed to enqueue import: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	log.Info("collection import queued: received=%d skipped=%d", report.Received, report.Skipped)
	return s.snapshot(status.ID), nil
}

func (s *importService) Status(ctx context.Context, id string) (*models.ImportStatus, error) {
	st := s.snapshot(id)
	if st == nil {
		return nil, apperrors.NewNotFoundError("import", id)
	}
	return st, nil
}

func (s *importService) snapshot(id string) *models.ImportStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statuses[id]
	if !ok {
		return nil
	}
	cp := *st
	return &cp
}

func (s *importService) ImportStarted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.statuses[id]; ok && st.State == models.ImportQueued {
		st.State = models.ImportRunning
	}
}

func (s *importService) ImportFinished(id string, res worker.ImportResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statuses[id]
	if !ok {
		return
	}
	now := s.clock.Now()
	st.Imported = res.Imported
	st.Normalized = res.Normalized
	st.Skipped += res.Duplicates
	st.FinishedAt = &now
	if err != nil {
		st.State = models.ImportFailed
		st.Error = err.Error()
		return
	}
	st.State = models.ImportDone
}

// pruneLocked forgets finished imports older than importStatusTTL and, past
// maxFinishedImports, the oldest finished ones. Queued and running imports
// are kept. Callers hold s.mu.
func (s *importService) pruneLocked(now time.Time) {
	var finished []*models.ImportStatus
	for id, st := range s.statuses {
		if st.FinishedAt == nil {
			continue
		}
		if now.Sub(*st.FinishedAt) > importStatusTTL {
			delete(s.statuses, id)
			continue
		}
		finished = append(finished, st)
	}
	if len(finished) <= maxFinishedImports {
		return
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].FinishedAt.Before(*finished[j].FinishedAt)
	})
	for _, st := range finished[:len(finished)-maxFinishedImports] {
		delete(s.statuses, st.ID)
	}
}

// Export writes the whole collection in the stored JSON format and returns
// the number of cards written.
func (s *importService) Export(ctx context.Context, w io.Writer) (int, error) {
	log := logger.FromContext(ctx)
	cards, err := s.cards.List(ctx, models.CardFilter{})
	if err != nil {
		log.Error("failed to load collection for export: %v", err)
		return 0, apperrors.NewInternalError(err)
	}
	if err := collection.Encode(w, cards); err != nil {
		log.Error("failed to encode collection: %v", err)
		return 0, apperrors.NewInternalError(err)
	}
	log.Info("collection exported: cards=%d", len(cards))
	return len(cards), nil
}
