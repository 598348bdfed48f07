package models

import "time"

// QuestionType selects how the answer is captured. It has no effect on scheduling.
type QuestionType string

const (
	QuestionTypeFree  QuestionType = "free"
	QuestionTypeFour  QuestionType = "four"
	QuestionTypeMulti QuestionType = "multi"
)

// IsChoice reports whether the type answers with a list of choices.
func (t QuestionType) IsChoice() bool {
	return t == QuestionTypeFour || t == QuestionTypeMulti
}

// Card is a unit of study material together with its review schedule.
// JSON tags follow the stored collection format so exported collections
// can be read back by older clients.
type Card struct {
	ID                 string       `json:"id"`
	QuestionType       QuestionType `json:"questionType,omitempty"`
	QuestionImage      string       `json:"questionImage,omitempty"`
	QuestionText       string       `json:"questionText,omitempty"`
	AnswerText         string       `json:"answerText,omitempty"`
	Answer             string       `json:"answer,omitempty"`
	Choices            []string     `json:"choices"`
	CorrectChoiceIndex *int         `json:"correctChoiceIndex"`
	Repetitions        int          `json:"repetitions"`
	EaseFactor         float64      `json:"easeFactor"`
	Interval           int          `json:"interval"`
	NextReview         *time.Time   `json:"nextReview,omitempty"`
	CreatedAt          time.Time    `json:"createdAt"`
}

// CardFilter narrows a card listing. A non-nil DueAt keeps only the cards
// due at that instant.
type CardFilter struct {
	QuestionType QuestionType
	DueAt        *time.Time
	Search       string
	Limit        int
	Offset       int
}

// ReviewHistory records one rating and the schedule it produced.
type ReviewHistory struct {
	ID         int64     `json:"id"`
	CardID     string    `json:"cardId"`
	Quality    int       `json:"quality"`
	Interval   int       `json:"interval"`
	EaseFactor float64   `json:"easeFactor"`
	ReviewedAt time.Time `json:"reviewedAt"`
}

// UpcomingCard is a not-yet-due card in the study preview.
type UpcomingCard struct {
	Card
	DaysUntil     int    `json:"daysUntil"`
	AnswerPreview string `json:"answerPreview"`
}

// StudyOverview summarises the collection for the study screen.
type StudyOverview struct {
	Total       int            `json:"total"`
	Studied     int            `json:"studied"`
	Established int            `json:"established"`
	DueCount    int            `json:"dueCount"`
	Due         []Card         `json:"due"`
	Upcoming    []UpcomingCard `json:"upcoming"`
}

// IntervalPreview is the interval, in days, each rating would schedule.
type IntervalPreview struct {
	CardID string `json:"cardId"`
	Again  int    `json:"again"`
	Hard   int    `json:"hard"`
	Good   int    `json:"good"`
	Easy   int    `json:"easy"`
}

type ImportState string

const (
	ImportQueued  ImportState = "queued"
	ImportRunning ImportState = "running"
	ImportDone    ImportState = "done"
	ImportFailed  ImportState = "failed"
)

// ImportStatus tracks a background collection import.
type ImportStatus struct {
	ID         string      `json:"id"`
	State      ImportState `json:"state"`
	Received   int         `json:"received"`
	Skipped    int         `json:"skipped"`
	Corrupt    bool        `json:"corrupt"`
	Imported   int         `json:"imported"`
	Normalized int         `json:"normalized"`
	Error      string      `json:"error,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
}
