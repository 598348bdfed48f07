package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/memocurve/internal/logger"
	"github.com/vytor/memocurve/internal/models"
	"github.com/vytor/memocurve/internal/repository"
)

var cardColumns = []string{
	"id", "question_type", "question_image", "question_text", "answer_text", "choices",
	"correct_choice_index", "repetitions", "ease_factor", "interval_days", "next_review", "created_at",
}

type cardRepository struct {
	db *sql.DB // nil when bound to a transaction
	q  querier
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db, q: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (models.Card, error) {
	var (
		c          models.Card
		qType      string
		choices    string
		correct    sql.NullInt64
		nextReview sql.NullTime
	)
	err := row.Scan(&c.ID, &qType, &c.QuestionImage, &c.QuestionText, &c.AnswerText, &choices,
		&correct, &c.Repetitions, &c.EaseFactor, &c.Interval, &nextReview, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	c.QuestionType = models.QuestionType(qType)
	c.Choices = []string{}
	if choices != "" {
		if err := json.Unmarshal([]byte(choices), &c.Choices); err != nil {
			return c, err
		}
	}
	if correct.Valid {
		idx := int(correct.Int64)
		c.CorrectChoiceIndex = &idx
	}
	if nextReview.Valid {
		t := nextReview.Time
		c.NextReview = &t
	}
	return c, nil
}

func cardValues(c models.Card) ([]any, error) {
	choices := c.Choices
	if choices == nil {
		choices = []string{}
	}
	encoded, err := json.Marshal(choices)
	if err != nil {
		return nil, err
	}
	var correct sql.NullInt64
	if c.CorrectChoiceIndex != nil {
		correct = sql.NullInt64{Int64: int64(*c.CorrectChoiceIndex), Valid: true}
	}
	var nextReview sql.NullTime
	if c.NextReview != nil {
		nextReview = sql.NullTime{Time: c.NextReview.UTC(), Valid: true}
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return []any{
		c.ID, string(c.QuestionType), c.QuestionImage, c.QuestionText, c.AnswerText, string(encoded),
		correct, c.Repetitions, c.EaseFactor, c.Interval, nextReview, createdAt.UTC(),
	}, nil
}

func applyCardFilter(q squirrel.SelectBuilder, filter models.CardFilter) squirrel.SelectBuilder {
	if filter.QuestionType != "" {
		q = q.Where(squirrel.Eq{"question_type": string(filter.QuestionType)})
	}
	if filter.DueAt != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"next_review": nil},
			squirrel.LtOrEq{"next_review": filter.DueAt.UTC()},
		})
	}
	return q
}

func (r *cardRepository) Get(ctx context.Context, id string) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("getting card: id=%s", id)

	query, args, err := sqlBuilder.Select(cardColumns...).From("cards").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	c, err := scanCard(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("card not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) List(ctx context.Context, filter models.CardFilter) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing cards: question_type=%s, due_only=%t, limit=%d, offset=%d",
		filter.QuestionType, filter.DueAt != nil, filter.Limit, filter.Offset)

	q := applyCardFilter(sqlBuilder.Select(cardColumns...).From("cards"), filter).OrderBy("rowid ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	log.Debug("found %d cards", len(cards))
	return cards, rows.Err()
}

func (r *cardRepository) Count(ctx context.Context, filter models.CardFilter) (int, error) {
	query, args, err := applyCardFilter(sqlBuilder.Select("COUNT(*)").From("cards"), filter).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		logger.FromContext(ctx).WithPrefix("card_repo").Error("failed to count cards: %v", err)
		return 0, err
	}
	return n, nil
}

func (r *cardRepository) Insert(ctx context.Context, c models.Card) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting card: id=%s, type=%s", c.ID, c.QuestionType)

	values, err := cardValues(c)
	if err != nil {
		return err
	}
	query, args, err := sqlBuilder.Insert("cards").Columns(cardColumns...).Values(values...).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to insert card: %v", err)
		return err
	}
	return nil
}

func (r *cardRepository) UpsertBatch(ctx context.Context, cards []models.Card) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("upserting %d cards", len(cards))
	if len(cards) == 0 {
		return 0, nil
	}

	written := 0
	err := r.InTx(ctx, func(repo repository.CardRepository) error {
		inner := repo.(*cardRepository)
		for _, c := range cards {
			values, err := cardValues(c)
			if err != nil {
				return err
			}
			query, args, err := sqlBuilder.Insert("cards").Columns(cardColumns...).Values(values...).
				Suffix(`ON CONFLICT(id) DO UPDATE SET
question_type = excluded.question_type, question_image = excluded.question_image,
question_text = excluded.question_text, answer_text = excluded.answer_text,
choices = excluded.choices, correct_choice_index = excluded.correct_choice_index,
repetitions = excluded.repetitions, ease_factor = excluded.ease_factor,
interval_days = excluded.interval_days, next_review = excluded.next_review`).ToSql()
			if err != nil {
				return err
			}
			if _, err := inner.q.ExecContext(ctx, query, args...); err != nil {
				log.Error("failed to upsert card %s: %v", c.ID, err)
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Debug("upserted %d cards", written)
	return written, nil
}

func (r *cardRepository) Update(ctx context.Context, c models.Card) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("updating card: id=%s, interval=%d, ease=%.2f", c.ID, c.Interval, c.EaseFactor)

	values, err := cardValues(c)
	if err != nil {
		return err
	}
	set := map[string]any{}
	// id and created_at are immutable
	for i, col := range cardColumns {
		if col == "id" || col == "created_at" {
			continue
		}
		set[col] = values[i]
	}
	query, args, err := sqlBuilder.Update("cards").SetMap(set).Where(squirrel.Eq{"id": c.ID}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update card: %v", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *cardRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := r.DeleteMany(ctx, []string{id})
	return n > 0, err
}

func (r *cardRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("deleting %d cards", len(ids))
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlBuilder.Delete("cards").Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to delete cards: %v", err)
		return 0, err
	}
	return res.RowsAffected()
}

func (r *cardRepository) DeleteAll(ctx context.Context) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Info("deleting all cards")

	res, err := r.q.ExecContext(ctx, `DELETE FROM cards`)
	if err != nil {
		log.Error("failed to delete all cards: %v", err)
		return 0, err
	}
	return res.RowsAffected()
}

func (r *cardRepository) InTx(ctx context.Context, fn func(repository.CardRepository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return tx(ctx, r.db, func(t *sql.Tx) error {
		return fn(&cardRepository{q: t})
	})
}
