package flashcard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Quality is the self-reported recall rating for a review.
type Quality int

const (
	Again Quality = iota
	Hard
	Good
	Easy
)

// ErrInvalidQuality is returned for ratings outside Again..Easy.
var ErrInvalidQuality = errors.New("quality must be between 0 and 3")

// Qualities lists every valid rating in ascending order.
var Qualities = []Quality{Again, Hard, Good, Easy}

func (q Quality) Valid() bool {
	return q >= Again && q <= Easy
}

func (q Quality) String() string {
	switch q {
	case Again:
		return "again"
	case Hard:
		return "hard"
	case Good:
		return "good"
	case Easy:
		return "easy"
	default:
		return "quality(" + strconv.Itoa(int(q)) + ")"
	}
}

// ParseQuality accepts either the numeric rating or its name.
func ParseQuality(s string) (Quality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, q := range Qualities {
		if s == q.String() {
			return q, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, s)
	}
	q := Quality(n)
	if !q.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuality, n)
	}
	return q, nil
}
