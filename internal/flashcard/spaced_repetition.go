package flashcard

import (
	"fmt"
	"math"
	"time"

	"github.com/vytor/memocurve/internal/models"
)

const (
	MinEaseFactor     = 1.3
	DefaultEaseFactor = 2.5
	DefaultInterval   = 1
	secondInterval    = 3
)

// State is the scheduling part of a card.
type State struct {
	Repetitions int
	EaseFactor  float64
	Interval    int
	NextReview  time.Time
}

// StateOf reads the scheduling state of a card, defaulting fields that a
// legacy record may lack.
func StateOf(card models.Card) State {
	s := State{
		Repetitions: card.Repetitions,
		EaseFactor:  card.EaseFactor,
		Interval:    card.Interval,
	}
	if card.NextReview != nil {
		s.NextReview = *card.NextReview
	}
	if s.Repetitions < 0 {
		s.Repetitions = 0
	}
	if s.EaseFactor == 0 || math.IsNaN(s.EaseFactor) {
		s.EaseFactor = DefaultEaseFactor
	}
	if s.Interval < 1 {
		s.Interval = DefaultInterval
	}
	return s
}

// NextEase applies the SM-2 ease adjustment for a rating, floored at MinEaseFactor.
func NextEase(ease float64, q Quality) float64 {
	miss := float64(Easy - q)
	// explicit conversions keep the steps individually rounded
	penalty := float64(miss * float64(0.08+miss*0.02))
	return math.Max(MinEaseFactor, ease+0.1-penalty)
}

// NextState computes the schedule after a review rated q at time now.
// Again resets progress; the first two successful reviews are scheduled one
// and three days out, later ones grow by the new ease factor.
func NextState(s State, q Quality, now time.Time) (State, error) {
	if !q.Valid() {
		return State{}, fmt.Errorf("%w: got %d", ErrInvalidQuality, int(q))
	}

	ef := NextEase(s.EaseFactor, q)

	var reps, interval int
	if q < Hard {
		reps = 0
		interval = DefaultInterval
	} else {
		reps = s.Repetitions + 1
		switch reps {
		case 1:
			interval = DefaultInterval
		case 2:
			interval = secondInterval
		default:
			interval = int(math.Round(float64(float64(s.Interval) * ef)))
		}
	}
	if interval < 1 {
		interval = 1
	}

	return State{
		Repetitions: reps,
		EaseFactor:  ef,
		Interval:    interval,
		NextReview:  now.AddDate(0, 0, interval),
	}, nil
}

// ApplyReview reschedules card for a review rated q at time now.
// Only the scheduling fields change.
func ApplyReview(card models.Card, q Quality, now time.Time) (models.Card, error) {
	next, err := NextState(StateOf(card), q, now)
	if err != nil {
		return card, err
	}
	card.Repetitions = next.Repetitions
	card.EaseFactor = next.EaseFactor
	card.Interval = next.Interval
	due := next.NextReview
	card.NextReview = &due
	return card, nil
}

// PreviewIntervals returns the interval in days each rating would schedule,
// indexed by Quality.
func PreviewIntervals(card models.Card, now time.Time) [4]int {
	var out [4]int
	s := StateOf(card)
	for _, q := range Qualities {
		next, _ := NextState(s, q, now)
		out[q] = next.Interval
	}
	return out
}
