package jobs

import "github.com/vytor/memocurve/internal/models"

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	// EnqueueImport schedules a collection import tracked under id.
	EnqueueImport(id string, cards []models.Card) error
}
