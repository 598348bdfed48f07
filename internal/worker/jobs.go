package worker

import (
	"context"

	"github.com/vytor/memocurve/internal/clock"
	"github.com/vytor/memocurve/internal/collection"
	"github.com/vytor/memocurve/internal/logger"
	"github.com/vytor/memocurve/internal/models"
	"github.com/vytor/memocurve/internal/repository"
)

// importBatchSize caps how many cards are written per transaction.
const importBatchSize = 200

// ImportResult counts what an import job did with its cards.
type ImportResult struct {
	Imported   int
	Normalized int
	Duplicates int
}

// ImportProgress receives the lifecycle of an import job.
type ImportProgress interface {
	ImportStarted(id string)
	ImportFinished(id string, res ImportResult, err error)
}

// ImportCollectionJob writes a decoded collection into the card store,
// normalizing legacy records first. Cards with an existing id are replaced.
type ImportCollectionJob struct {
	ID       string
	Cards    []models.Card
	Repo     repository.CardRepository
	Clock    clock.Clock
	NewID    func() string
	Progress ImportProgress
}

func (j *ImportCollectionJob) Name() string { return "import_collection" }

func (j *ImportCollectionJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"import_id": j.ID,
		"cards":     len(j.Cards),
	})
	log.Info("starting collection import")
	if j.Progress != nil {
		j.Progress.ImportStarted(j.ID)
	}

	res, err := j.run(ctx, log)
	if err != nil {
		log.WithError(err).Error("collection import failed after %d cards", res.Imported)
	} else {
		log.Info("collection import finished: imported=%d normalized=%d duplicates=%d",
			res.Imported, res.Normalized, res.Duplicates)
	}
	if j.Progress != nil {
		j.Progress.ImportFinished(j.ID, res, err)
	}
	return err
}

func (j *ImportCollectionJob) run(ctx context.Context, log *logger.Logger) (ImportResult, error) {
	var res ImportResult
	cards, dropped := collection.Dedupe(j.Cards)
	res.Duplicates = dropped
	if dropped > 0 {
		log.Warn("dropped %d cards with a repeated id", dropped)
	}
	res.Normalized = collection.Prepare(cards, j.Clock.Now(), j.NewID)
	if res.Normalized > 0 {
		log.Debug("normalized %d legacy cards", res.Normalized)
	}

	for start := 0; start < len(cards); start += importBatchSize {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		end := start + importBatchSize
		if end > len(cards) {
			end = len(cards)
		}
		n, err := j.Repo.UpsertBatch(ctx, cards[start:end])
		if err != nil {
			return res, err
		}
		res.Imported += n
		log.Debug("imported batch %d-%d", start, end)
	}
	return res, nil
}
