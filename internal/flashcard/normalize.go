package flashcard

import "github.com/vytor/memocurve/internal/models"

// Normalize upgrades a card stored before question types existed into a
// free-answer card. Cards that already carry a type are returned as is, so
// repeated calls are harmless. Scheduling fields are never touched.
func Normalize(card models.Card) models.Card {
	if card.QuestionType != "" {
		return card
	}
	card.QuestionType = models.QuestionTypeFree
	card.AnswerText = card.Answer
	card.Choices = []string{}
	card.CorrectChoiceIndex = nil
	return card
}

// NormalizeAll normalizes every card in place and returns how many changed.
func NormalizeAll(cards []models.Card) int {
	n := 0
	for i := range cards {
		if cards[i].QuestionType == "" {
			cards[i] = Normalize(cards[i])
			n++
		}
	}
	return n
}
