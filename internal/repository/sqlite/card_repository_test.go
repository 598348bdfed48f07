package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/memocurve/internal/models"
	"github.com/vytor/memocurve/internal/repository"
	"github.com/vytor/memocurve/internal/repository/sqlite"
	"github.com/vytor/memocurve/internal/testutil"
)

var now = time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)

type CardRepositorySuite struct {
	suite.Suite
	db      *sql.DB
	repo    repository.CardRepository
	history repository.ReviewHistoryRepository
}

func (s *CardRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewCardRepository(s.db)
	s.history = sqlite.NewReviewHistoryRepository(s.db)
}

func (s *CardRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *CardRepositorySuite) seed(cards ...models.Card) {
	for _, c := range cards {
		s.Require().NoError(s.repo.Insert(context.Background(), c))
	}
}

func (s *CardRepositorySuite) TestInsertAndGet() {
	ctx := context.Background()
	card := testutil.ChoiceCard("c1", []string{"a", "b", "c", "d"}, 2, testutil.At(now))
	card.QuestionImage = "data:image/png;base64,AAAA"
	s.seed(card)

	got, err := s.repo.Get(ctx, "c1")
	s.Require().NoError(err)
	s.Require().NotNil(got)

	s.Equal(card.ID, got.ID)
	s.Equal(models.QuestionTypeFour, got.QuestionType)
	s.Equal(card.QuestionImage, got.QuestionImage)
	s.Equal([]string{"a", "b", "c", "d"}, got.Choices)
	s.Require().NotNil(got.CorrectChoiceIndex)
	s.Equal(2, *got.CorrectChoiceIndex)
	s.Equal(2.5, got.EaseFactor)
	s.Equal(1, got.Interval)
	s.Require().NotNil(got.NextReview)
	s.True(now.Equal(*got.NextReview))
	s.True(card.CreatedAt.Equal(got.CreatedAt))
}

func (s *CardRepositorySuite) TestGet_NotFound() {
	got, err := s.repo.Get(context.Background(), "missing")
	s.NoError(err)
	s.Nil(got)
}

func (s *CardRepositorySuite) TestNullableFields() {
	card := testutil.FreeCard("free", "x", nil)
	s.seed(card)

	got, err := s.repo.Get(context.Background(), "free")
	s.Require().NoError(err)
	s.Nil(got.NextReview)
	s.Nil(got.CorrectChoiceIndex)
	s.Empty(got.Choices)
}

func (s *CardRepositorySuite) TestUpdate() {
	ctx := context.Background()
	s.seed(testutil.FreeCard("c1", "x", testutil.At(now)))

	card, err := s.repo.Get(ctx, "c1")
	s.Require().NoError(err)
	card.Repetitions = 3
	card.EaseFactor = 2.36
	card.Interval = 8
	card.NextReview = testutil.At(now.AddDate(0, 0, 8))
	s.Require().NoError(s.repo.Update(ctx, *card))

	got, err := s.repo.Get(ctx, "c1")
	s.Require().NoError(err)
	s.Equal(3, got.Repetitions)
	s.InDelta(2.36, got.EaseFactor, 1e-9)
	s.Equal(8, got.Interval)
	s.True(now.AddDate(0, 0, 8).Equal(*got.NextReview))
}

func (s *CardRepositorySuite) TestUpdate_Missing() {
	err := s.repo.Update(context.Background(), testutil.FreeCard("ghost", "x", nil))
	s.True(errors.Is(err, sql.ErrNoRows))
}

func (s *CardRepositorySuite) TestList_FiltersAndOrder() {
	ctx := context.Background()
	s.seed(
		testutil.FreeCard("a", "x", testutil.At(now.Add(time.Hour))),
		testutil.ChoiceCard("b", []string{"p", "q"}, 0, nil),
		testutil.FreeCard("c", "y", testutil.At(now)),
		testutil.FreeCard("d", "z", testutil.At(now.Add(-time.Hour))),
	)

	all, err := s.repo.List(ctx, models.CardFilter{})
	s.Require().NoError(err)
	s.Equal([]string{"a", "b", "c", "d"}, cardIDs(all))

	due, err := s.repo.List(ctx, models.CardFilter{DueAt: testutil.At(now)})
	s.Require().NoError(err)
	s.Equal([]string{"b", "c", "d"}, cardIDs(due))

	free, err := s.repo.List(ctx, models.CardFilter{QuestionType: models.QuestionTypeFree, Limit: 2, Offset: 1})
	s.Require().NoError(err)
	s.Equal([]string{"c", "d"}, cardIDs(free))

	n, err := s.repo.Count(ctx, models.CardFilter{DueAt: testutil.At(now)})
	s.Require().NoError(err)
	s.Equal(3, n)
}

func (s *CardRepositorySuite) TestUpsertBatch() {
	ctx := context.Background()
	s.seed(testutil.FreeCard("a", "old", nil))

	updated := testutil.FreeCard("a", "new", nil)
	updated.Repetitions = 2
	n, err := s.repo.UpsertBatch(ctx, []models.Card{updated, testutil.FreeCard("b", "x", nil)})
	s.Require().NoError(err)
	s.Equal(2, n)

	got, err := s.repo.Get(ctx, "a")
	s.Require().NoError(err)
	s.Equal("new", got.AnswerText)
	s.Equal(2, got.Repetitions)

	total, err := s.repo.Count(ctx, models.CardFilter{})
	s.Require().NoError(err)
	s.Equal(2, total)
}

func (s *CardRepositorySuite) TestUpsertBatch_RollsBackOnError() {
	ctx := context.Background()
	bad := testutil.FreeCard("bad", "x", nil)
	bad.EaseFactor = 0.5 // violates the ease floor constraint

	_, err := s.repo.UpsertBatch(ctx, []models.Card{testutil.FreeCard("ok", "x", nil), bad})
	s.Error(err)

	total, err := s.repo.Count(ctx, models.CardFilter{})
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *CardRepositorySuite) TestDelete() {
	ctx := context.Background()
	s.seed(
		testutil.FreeCard("a", "x", nil),
		testutil.FreeCard("b", "x", nil),
		testutil.FreeCard("c", "x", nil),
		testutil.FreeCard("d", "x", nil),
	)

	ok, err := s.repo.Delete(ctx, "a")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.repo.Delete(ctx, "a")
	s.Require().NoError(err)
	s.False(ok)

	n, err := s.repo.DeleteMany(ctx, []string{"b", "c", "zz"})
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	n, err = s.repo.DeleteMany(ctx, nil)
	s.Require().NoError(err)
	s.Zero(n)

	n, err = s.repo.DeleteAll(ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *CardRepositorySuite) TestInTx_Rollback() {
	ctx := context.Background()
	s.seed(testutil.FreeCard("a", "x", nil))

	boom := errors.New("boom")
	err := s.repo.InTx(ctx, func(r repository.CardRepository) error {
		card, err := r.Get(ctx, "a")
		s.Require().NoError(err)
		card.Repetitions = 9
		s.Require().NoError(r.Update(ctx, *card))
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.repo.Get(ctx, "a")
	s.Require().NoError(err)
	s.Equal(0, got.Repetitions)
}

func (s *CardRepositorySuite) TestReviewHistory() {
	ctx := context.Background()
	s.seed(testutil.FreeCard("a", "x", nil))

	s.Require().NoError(s.history.Insert(ctx, models.ReviewHistory{CardID: "a", Quality: 2, Interval: 1, EaseFactor: 2.5, ReviewedAt: now}))
	s.Require().NoError(s.history.Insert(ctx, models.ReviewHistory{CardID: "a", Quality: 0, Interval: 1, EaseFactor: 2.18, ReviewedAt: now.Add(time.Hour)}))

	history, err := s.history.ForCard(ctx, "a", 10)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(0, history[0].Quality)
	s.Equal(2, history[1].Quality)

	_, err = s.repo.Delete(ctx, "a")
	s.Require().NoError(err)
	history, err = s.history.ForCard(ctx, "a", 10)
	s.Require().NoError(err)
	s.Empty(history, "history should cascade with the card")
}

func cardIDs(cards []models.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func TestCardRepositorySuite(t *testing.T) {
	suite.Run(t, new(CardRepositorySuite))
}
