package flashcard

import (
	"errors"
	"strings"
	"time"

	"github.com/vytor/memocurve/internal/models"
)

// Phase is the position of a Session within the reveal/rate cycle.
type Phase int

const (
	Presenting Phase = iota
	Revealed
	Finished
)

func (p Phase) String() string {
	switch p {
	case Presenting:
		return "presenting"
	case Revealed:
		return "revealed"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrCannotReveal      = errors.New("answer attempt required before reveal")
)

// Session walks a fixed queue of due cards. Each card is presented, the
// answer is revealed after an attempt, and a rating moves on to the next card.
// A Session is not safe for concurrent use.
type Session struct {
	queue     []models.Card
	idx       int
	phase     Phase
	selected  *int
	freeInput string
}

// NewSession starts a session over queue. An empty queue is already finished.
func NewSession(queue []models.Card) *Session {
	s := &Session{queue: append([]models.Card(nil), queue...)}
	if len(queue) == 0 {
		s.phase = Finished
	}
	return s
}

func (s *Session) Phase() Phase { return s.phase }

func (s *Session) Done() bool { return s.phase == Finished }

// Remaining counts the cards not yet rated, including the current one.
func (s *Session) Remaining() int { return len(s.queue) - s.idx }

// Current returns the card being studied.
func (s *Session) Current() (models.Card, bool) {
	if s.Done() {
		return models.Card{}, false
	}
	return s.queue[s.idx], true
}

// SelectChoice records the choice picked for a choice-type card.
func (s *Session) SelectChoice(i int) error {
	card, ok := s.Current()
	if !ok || s.phase != Presenting || !card.QuestionType.IsChoice() {
		return ErrInvalidTransition
	}
	if i < 0 || i >= len(card.Choices) {
		return ErrInvalidTransition
	}
	s.selected = &i
	return nil
}

// SetFreeInput records the typed answer for a free-type card.
func (s *Session) SetFreeInput(text string) error {
	card, ok := s.Current()
	if !ok || s.phase != Presenting || card.QuestionType.IsChoice() {
		return ErrInvalidTransition
	}
	s.freeInput = text
	return nil
}

func (s *Session) CanReveal() bool {
	card, ok := s.Current()
	if !ok || s.phase != Presenting {
		return false
	}
	if card.QuestionType.IsChoice() {
		return s.selected != nil
	}
	return strings.TrimSpace(s.freeInput) != ""
}

func (s *Session) Reveal() error {
	if s.phase != Presenting {
		return ErrInvalidTransition
	}
	if !s.CanReveal() {
		return ErrCannotReveal
	}
	s.phase = Revealed
	return nil
}

// Correct reports whether the selected choice is the right one. The second
// result is false when there is nothing to judge: free-type cards, or before
// the answer is revealed.
func (s *Session) Correct() (correct, judged bool) {
	card, ok := s.Current()
	if !ok || s.phase != Revealed || !card.QuestionType.IsChoice() || s.selected == nil {
		return false, false
	}
	return card.CorrectChoiceIndex != nil && *card.CorrectChoiceIndex == *s.selected, true
}

// Rate reschedules the current card and advances to the next one. The
// returned card is what the caller should write back.
func (s *Session) Rate(q Quality, now time.Time) (models.Card, error) {
	if s.phase != Revealed {
		return models.Card{}, ErrInvalidTransition
	}
	updated, err := ApplyReview(s.queue[s.idx], q, now)
	if err != nil {
		return models.Card{}, err
	}
	s.queue[s.idx] = updated
	s.idx++
	s.selected = nil
	s.freeInput = ""
	if s.idx >= len(s.queue) {
		s.phase = Finished
	} else {
		s.phase = Presenting
	}
	return updated, nil
}
