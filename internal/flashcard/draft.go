package flashcard

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vytor/memocurve/internal/models"
)

const (
	minChoices  = 2
	fourChoices = 4
)

// Draft is the editable content of a card as submitted by a user.
type Draft struct {
	QuestionType       models.QuestionType `json:"questionType" validate:"required,oneof=free four multi"`
	QuestionImage      string              `json:"questionImage"`
	QuestionText       string              `json:"questionText" validate:"max=4000"`
	AnswerText         string              `json:"answerText" validate:"max=4000"`
	Choices            []string            `json:"choices" validate:"max=8,dive,max=4000"`
	CorrectChoiceIndex *int                `json:"correctChoiceIndex"`
}

// FieldError describes why a draft was rejected.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(draftStructLevel, Draft{})
	return v
}

func draftStructLevel(sl validator.StructLevel) {
	d := sl.Current().Interface().(Draft)
	if !d.QuestionType.IsChoice() {
		if strings.TrimSpace(d.AnswerText) == "" {
			sl.ReportError(d.AnswerText, "answerText", "AnswerText", "required", "")
		}
		return
	}

	if d.QuestionType == models.QuestionTypeFour && len(d.Choices) > fourChoices {
		sl.ReportError(d.Choices, "choices", "Choices", "max", "4")
		return
	}
	filled := 0
	for _, c := range d.Choices {
		if strings.TrimSpace(c) != "" {
			filled++
		}
	}
	if filled < minChoices {
		sl.ReportError(d.Choices, "choices", "Choices", "min", "2")
		return
	}
	idx := d.CorrectChoiceIndex
	if idx == nil || *idx < 0 || *idx >= len(d.Choices) || strings.TrimSpace(d.Choices[*idx]) == "" {
		sl.ReportError(d.CorrectChoiceIndex, "correctChoiceIndex", "CorrectChoiceIndex", "choice", "")
	}
}

// ValidateDraft checks a draft and returns a *FieldError for the first problem.
func ValidateDraft(d Draft) error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &FieldError{Field: fe.Field(), Reason: reason(fe)}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max":
		if fe.Field() == "choices" {
			return "at most " + fe.Param() + " choices allowed"
		}
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "at least " + fe.Param() + " non-empty choices required"
	case "choice":
		return "must point at a non-empty choice"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// clean trims the draft and drops blank choices, moving the correct index
// along with its choice.
func clean(d Draft) Draft {
	d.QuestionText = strings.TrimSpace(d.QuestionText)
	d.AnswerText = strings.TrimSpace(d.AnswerText)
	if !d.QuestionType.IsChoice() {
		d.Choices = []string{}
		d.CorrectChoiceIndex = nil
		return d
	}
	d.AnswerText = ""
	choices := make([]string, 0, len(d.Choices))
	correct := -1
	for i, c := range d.Choices {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if d.CorrectChoiceIndex != nil && *d.CorrectChoiceIndex == i {
			correct = len(choices)
		}
		choices = append(choices, c)
	}
	d.Choices = choices
	d.CorrectChoiceIndex = &correct
	return d
}

// NewCard builds a card from a validated draft with the default schedule,
// due immediately.
func NewCard(d Draft, id string, now time.Time) (models.Card, error) {
	if err := ValidateDraft(d); err != nil {
		return models.Card{}, err
	}
	d = clean(d)
	due := now
	return models.Card{
		ID:                 id,
		QuestionType:       d.QuestionType,
		QuestionImage:      d.QuestionImage,
		QuestionText:       d.QuestionText,
		AnswerText:         d.AnswerText,
		Choices:            d.Choices,
		CorrectChoiceIndex: d.CorrectChoiceIndex,
		Repetitions:        0,
		EaseFactor:         DefaultEaseFactor,
		Interval:           DefaultInterval,
		NextReview:         &due,
		CreatedAt:          now,
	}, nil
}

// Edit replaces the content of card with d. Identity, creation time and
// schedule are kept.
func Edit(card models.Card, d Draft) (models.Card, error) {
	if err := ValidateDraft(d); err != nil {
		return card, err
	}
	d = clean(d)
	card.QuestionType = d.QuestionType
	card.QuestionImage = d.QuestionImage
	card.QuestionText = d.QuestionText
	card.AnswerText = d.AnswerText
	card.Answer = ""
	card.Choices = d.Choices
	card.CorrectChoiceIndex = d.CorrectChoiceIndex
	return card, nil
}
