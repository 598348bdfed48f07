package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vytor/memocurve/internal/db"
	"github.com/vytor/memocurve/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	database, err := db.Open(":memory:")
	require.NoError(t, err)
	return database.DB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// FreeCard builds a free-answer card with the default schedule.
func FreeCard(id, answer string, nextReview *time.Time) models.Card {
	return models.Card{
		ID:           id,
		QuestionType: models.QuestionTypeFree,
		QuestionText: "question " + id,
		AnswerText:   answer,
		Choices:      []string{},
		EaseFactor:   2.5,
		Interval:     1,
		NextReview:   nextReview,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// ChoiceCard builds a four-choice card whose correct answer is choices[correct].
func ChoiceCard(id string, choices []string, correct int, nextReview *time.Time) models.Card {
	c := FreeCard(id, "", nextReview)
	c.QuestionType = models.QuestionTypeFour
	c.Choices = choices
	c.CorrectChoiceIndex = &correct
	return c
}

// At returns a pointer to t, for optional time fields.
func At(t time.Time) *time.Time {
	return &t
}
