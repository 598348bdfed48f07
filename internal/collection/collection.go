// Package collection reads and writes a card collection as a JSON array in the
// storage format of the original browser client, including records written
// before question types existed.
package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/vytor/memocurve/internal/flashcard"
	"github.com/vytor/memocurve/internal/logger"
	"github.com/vytor/memocurve/internal/models"
)

// MaxSize bounds how much input Decode reads.
const MaxSize = 32 << 20

// Report summarises a decode.
type Report struct {
	Received int  `json:"received"`
	Skipped  int  `json:"skipped"`
	Corrupt  bool `json:"corrupt"`
}

// Decode parses a collection. It fails soft: input that is not a JSON array
// yields an empty collection with Report.Corrupt set, and records that cannot
// be parsed are skipped. Only read errors are returned.
func Decode(r io.Reader, log *logger.Logger) ([]models.Card, Report, error) {
	var rep Report
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, rep, fmt.Errorf("read collection: %w", err)
	}
	if len(data) > MaxSize {
		log.Warn("collection larger than %d bytes, treating as empty", MaxSize)
		rep.Corrupt = true
		return []models.Card{}, rep, nil
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []models.Card{}, rep, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn("unparseable collection, treating as empty: %v", err)
		rep.Corrupt = true
		return []models.Card{}, rep, nil
	}

	rep.Received = len(raw)
	cards := make([]models.Card, 0, len(raw))
	for i, msg := range raw {
		var c models.Card
		if err := json.Unmarshal(msg, &c); err != nil {
			log.Warn("skipping collection record %d: %v", i, err)
			rep.Skipped++
			continue
		}
		cards = append(cards, c)
	}
	return cards, rep, nil
}

// Encode writes cards as an indented JSON array.
func Encode(w io.Writer, cards []models.Card) error {
	if cards == nil {
		cards = []models.Card{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cards)
}

// Prepare makes decoded cards safe to store: legacy records are normalized,
// absent scheduling fields take their defaults, and missing identifiers or
// creation times are filled in. It returns how many cards were normalized.
func Prepare(cards []models.Card, now time.Time, newID func() string) int {
	normalized := flashcard.NormalizeAll(cards)
	for i := range cards {
		c := &cards[i]
		if c.ID == "" {
			c.ID = newID()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		switch c.QuestionType {
		case models.QuestionTypeFree, models.QuestionTypeFour, models.QuestionTypeMulti:
		default:
			c.QuestionType = models.QuestionTypeFree
		}
		if c.Choices == nil {
			c.Choices = []string{}
		}
		s := flashcard.StateOf(*c)
		c.Repetitions = s.Repetitions
		c.EaseFactor = math.Max(s.EaseFactor, flashcard.MinEaseFactor)
		c.Interval = s.Interval
		if c.NextReview != nil && c.NextReview.IsZero() {
			c.NextReview = nil
		}
		if c.QuestionType.IsChoice() && c.CorrectChoiceIndex != nil {
			if idx := *c.CorrectChoiceIndex; idx < 0 || idx >= len(c.Choices) {
				c.CorrectChoiceIndex = nil
			}
		}
	}
	return normalized
}

// Dedupe drops later cards whose id was already seen, keeping order, and
// reports how many were dropped. Cards without an id are always kept.
func Dedupe(cards []models.Card) ([]models.Card, int) {
	seen := make(map[string]bool, len(cards))
	out := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		if c.ID != "" {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
		}
		out = append(out, c)
	}
	return out, len(cards) - len(out)
}
