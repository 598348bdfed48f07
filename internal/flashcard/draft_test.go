package flashcard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/memocurve/internal/flashcard"
	"github.com/vytor/memocurve/internal/models"
)

func TestValidateDraft(t *testing.T) {
	tests := []struct {
		name      string
		draft     flashcard.Draft
		wantField string
	}{
		{
			name:  "free with answer",
			draft: flashcard.Draft{QuestionType: models.QuestionTypeFree, AnswerText: "42"},
		},
		{
			name:      "missing type",
			draft:     flashcard.Draft{AnswerText: "42"},
			wantField: "questionType",
		},
		{
			name:      "unknown type",
			draft:     flashcard.Draft{QuestionType: "essay", AnswerText: "42"},
			wantField: "questionType",
		},
		{
			name:      "free with blank answer",
			draft:     flashcard.Draft{QuestionType: models.QuestionTypeFree, AnswerText: "   "},
			wantField: "answerText",
		},
		{
			name:  "four choices",
			draft: flashcard.Draft{QuestionType: models.QuestionTypeFour, Choices: []string{"a", "b", "", ""}, CorrectChoiceIndex: intPtr(1)},
		},
		{
			name:      "four with five slots",
			draft:     flashcard.Draft{QuestionType: models.QuestionTypeFour, Choices: []string{"a", "b", "c", "d", "e"}, CorrectChoiceIndex: intPtr(0)},
			wantField: "choices",
		},
		{
			name:      "multi with nine choices",
			draft:     flashcard.Draft{QuestionType: models.QuestionTypeMulti, Choices: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}, CorrectChoiceIndex: intPtr(0)},
			wantField: "choices",
		},
		{
			name:      "one filled choice",
			draft:     flashcard.Draft{QuestionType: models.QuestionTypeMulti, Choices: []string{"a", " "}, CorrectChoiceIndex: intPtr(0)},
			wantField: "choices",
		},
		{
			name:      "correct index on blank choice",
			draft:     flashcard.Draft{QuestionType: models.QuestionTypeMulti, Choices: []string{"a", "b", ""}, CorrectChoiceIndex: intPtr(2)},
			wantField: "correctChoiceIndex",
		},
		{
			name:      "correct index missing",
			draft:     flashcard.Draft{QuestionType: models.QuestionTypeMulti, Choices: []string{"a", "b"}},
			wantField: "correctChoiceIndex",
		},
		{
			name:      "correct index out of range",
			draft:     flashcard.Draft{QuestionType: models.QuestionTypeMulti, Choices: []string{"a", "b"}, CorrectChoiceIndex: intPtr(5)},
			wantField: "correctChoiceIndex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := flashcard.ValidateDraft(tt.draft)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var fe *flashcard.FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.wantField, fe.Field)
			assert.NotEmpty(t, fe.Reason)
		})
	}
}

func TestNewCard_Defaults(t *testing.T) {
	card, err := flashcard.NewCard(flashcard.Draft{
		QuestionType: models.QuestionTypeFree,
		QuestionText: "  2 + 2? ",
		AnswerText:   " 4 ",
	}, "id-1", now)
	require.NoError(t, err)

	assert.Equal(t, "id-1", card.ID)
	assert.Equal(t, "2 + 2?", card.QuestionText)
	assert.Equal(t, "4", card.AnswerText)
	assert.Empty(t, card.Choices)
	assert.Nil(t, card.CorrectChoiceIndex)
	assert.Equal(t, 0, card.Repetitions)
	assert.Equal(t, 2.5, card.EaseFactor)
	assert.Equal(t, 1, card.Interval)
	assert.Equal(t, now, card.CreatedAt)
	assert.True(t, flashcard.IsDue(card, now))
}

func TestNewCard_DropsBlankChoices(t *testing.T) {
	card, err := flashcard.NewCard(flashcard.Draft{
		QuestionType:       models.QuestionTypeMulti,
		Choices:            []string{"", " red ", "", "blue", "green"},
		CorrectChoiceIndex: intPtr(3),
		AnswerText:         "ignored",
	}, "id-2", now)
	require.NoError(t, err)

	assert.Equal(t, []string{"red", "blue", "green"}, card.Choices)
	require.NotNil(t, card.CorrectChoiceIndex)
	assert.Equal(t, 1, *card.CorrectChoiceIndex)
	assert.Equal(t, "blue", flashcard.AnswerPreview(card))
	assert.Empty(t, card.AnswerText)
}

func TestNewCard_Invalid(t *testing.T) {
	_, err := flashcard.NewCard(flashcard.Draft{QuestionType: models.QuestionTypeFree}, "id", now)
	var fe *flashcard.FieldError
	assert.ErrorAs(t, err, &fe)
}

func TestEdit_KeepsSchedule(t *testing.T) {
	card := legacyCard()
	card.CreatedAt = now

	edited, err := flashcard.Edit(card, flashcard.Draft{
		QuestionType:       models.QuestionTypeFour,
		Choices:            []string{"Lyon", "Paris", "Nice", "Lille"},
		CorrectChoiceIndex: intPtr(1),
	})
	require.NoError(t, err)

	assert.Equal(t, card.ID, edited.ID)
	assert.Equal(t, card.CreatedAt, edited.CreatedAt)
	assert.Equal(t, card.Repetitions, edited.Repetitions)
	assert.Equal(t, card.EaseFactor, edited.EaseFactor)
	assert.Equal(t, card.Interval, edited.Interval)
	assert.Equal(t, card.NextReview, edited.NextReview)
	assert.Empty(t, edited.Answer)
	assert.Equal(t, "Paris", flashcard.AnswerPreview(edited))
}
