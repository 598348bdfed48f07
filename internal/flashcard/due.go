package flashcard

import (
	"math"
	"sort"
	"time"

	"github.com/vytor/memocurve/internal/models"
)

// DefaultUpcomingLimit bounds the upcoming preview on the study screen.
const DefaultUpcomingLimit = 5

// establishedInterval is the interval above which a card counts as established.
const establishedInterval = 7

// IsDue reports whether card should be reviewed at now. Cards without a
// next review time are due immediately and the boundary is inclusive.
func IsDue(card models.Card, now time.Time) bool {
	if card.NextReview == nil || card.NextReview.IsZero() {
		return true
	}
	return !card.NextReview.After(now)
}

// Partition splits cards into due and not-due subsets, keeping collection order.
func Partition(cards []models.Card, now time.Time) (due, notDue []models.Card) {
	due = make([]models.Card, 0, len(cards))
	notDue = make([]models.Card, 0, len(cards))
	for _, c := range cards {
		if IsDue(c, now) {
			due = append(due, c)
		} else {
			notDue = append(notDue, c)
		}
	}
	return due, notDue
}

// DueCards returns the cards due at now in collection order.
func DueCards(cards []models.Card, now time.Time) []models.Card {
	due, _ := Partition(cards, now)
	return due
}

// Upcoming returns up to limit not-due cards, soonest first.
// A non-positive limit returns all of them.
func Upcoming(cards []models.Card, now time.Time, limit int) []models.Card {
	_, notDue := Partition(cards, now)
	sort.SliceStable(notDue, func(i, j int) bool {
		return notDue[i].NextReview.Before(*notDue[j].NextReview)
	})
	if limit > 0 && len(notDue) > limit {
		notDue = notDue[:limit]
	}
	return notDue
}

// DaysUntil is the number of days, rounded up, until card becomes due.
// It is zero for due cards.
func DaysUntil(card models.Card, now time.Time) int {
	if IsDue(card, now) {
		return 0
	}
	d := card.NextReview.Sub(now)
	return int(math.Ceil(d.Hours() / 24))
}

// Overview builds the study screen summary for cards at now.
func Overview(cards []models.Card, now time.Time, upcomingLimit int) models.StudyOverview {
	due := DueCards(cards, now)
	ov := models.StudyOverview{
		Total:    len(cards),
		DueCount: len(due),
		Due:      due,
		Upcoming: []models.UpcomingCard{},
	}
	for _, c := range cards {
		if c.Repetitions > 0 {
			ov.Studied++
		}
		if c.Interval > establishedInterval {
			ov.Established++
		}
	}
	for _, c := range Upcoming(cards, now, upcomingLimit) {
		ov.Upcoming = append(ov.Upcoming, models.UpcomingCard{
			Card:          c,
			DaysUntil:     DaysUntil(c, now),
			AnswerPreview: AnswerPreview(c),
		})
	}
	return ov
}
