package flashcard

import (
	"strings"

	"github.com/vytor/memocurve/internal/models"
)

// AnswerPreview returns the canonical correct answer for a card, or "" when
// the card does not carry a usable one.
func AnswerPreview(card models.Card) string {
	if !card.QuestionType.IsChoice() {
		if card.AnswerText != "" {
			return card.AnswerText
		}
		return card.Answer
	}
	if card.CorrectChoiceIndex == nil {
		return ""
	}
	idx := *card.CorrectChoiceIndex
	if idx < 0 || idx >= len(card.Choices) {
		return ""
	}
	return card.Choices[idx]
}

// Matches reports whether query occurs, case-insensitively, in the card's
// answer preview or question text. An empty query matches everything.
func Matches(card models.Card, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(AnswerPreview(card)), q) ||
		strings.Contains(strings.ToLower(card.QuestionText), q)
}
