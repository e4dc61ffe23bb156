package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardQuestionEmpty is returned when a card's question text is empty.
	ErrCardQuestionEmpty = errors.New("card question cannot be empty")

	// ErrCardAnswerEmpty is returned when a card's answer text is empty.
	ErrCardAnswerEmpty = errors.New("card answer cannot be empty")

	// ErrInvalidRating is returned when a review rating is outside 0-3.
	ErrInvalidRating = errors.New("rating must be between 0 (forgot) and 3 (easy)")
)

// CardStatus describes where a card sits in the learning progression.
// It is always derived from the learning state, never set independently.
type CardStatus string

// Possible card status values
const (
	CardStatusNew      CardStatus = "new"
	CardStatusLearning CardStatus = "learning"
	CardStatusReview   CardStatus = "review"
	CardStatusMastered CardStatus = "mastered"
)

// Rating is the user's self-assessment for a single review.
type Rating int

// Possible review ratings
const (
	RatingForgot Rating = 0
	RatingHard   Rating = 1
	RatingGood   Rating = 2
	RatingEasy   Rating = 3
)

// Valid reports whether the rating is one of the four defined values.
func (r Rating) Valid() bool {
	return r >= RatingForgot && r <= RatingEasy
}

// IsCorrect reports whether the rating counts as a successful recall.
func (r Rating) IsCorrect() bool {
	return r >= RatingGood
}

// ReviewRecord is one entry in a card's append-only review history.
type ReviewRecord struct {
	ReviewedAt       time.Time `json:"reviewed_at"`
	Rating           Rating    `json:"rating"`
	TimeTakenSeconds float64   `json:"time_taken_seconds"`
}

// LearningState holds the per-card spaced-repetition state.
// It follows an SM-2 variant: the ease factor governs interval growth,
// Repetitions counts consecutive correct answers, and Status is derived
// from (Repetitions, Interval) by the srs package.
type LearningState struct {
	EaseFactor     float64    `json:"ease_factor"`      // Bounded to [1.3, 2.5]
	Interval       int        `json:"interval"`         // Current interval in days
	Repetitions    int        `json:"repetitions"`      // Consecutive correct answers
	NextReviewAt   time.Time  `json:"next_review_at"`   // When the card is next due
	LastReviewedAt *time.Time `json:"last_reviewed_at"` // Nil until first review
	Status         CardStatus `json:"status"`
}

// NewLearningState returns the initial state for a freshly created card:
// default ease factor, zero interval, due immediately.
func NewLearningState(now time.Time) LearningState {
	return LearningState{
		EaseFactor:   2.5,
		Interval:     0,
		Repetitions:  0,
		NextReviewAt: now,
		Status:       CardStatusNew,
	}
}

// Card represents a flashcard generated from a source note.
// A card is owned exclusively by its deck; its identity is immutable after
// creation, while question/answer remain editable.
type Card struct {
	ID            uuid.UUID      `json:"id"`
	Question      string         `json:"question"`
	Answer        string         `json:"answer"`
	SourceNote    string         `json:"source_note"`
	SourceSection string         `json:"source_section"`
	Tags          []string       `json:"tags"`
	Learning      LearningState  `json:"learning"`
	History       []ReviewRecord `json:"history"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewCard creates a new Card with a fresh UUID and initialized learning state.
// Returns an error if validation fails.
func NewCard(question, answer, sourceNote, sourceSection string, tags []string) (*Card, error) {
	now := time.Now().UTC()
	if tags == nil {
		tags = []string{}
	}
	card := &Card{
		ID:            uuid.New(),
		Question:      question,
		Answer:        answer,
		SourceNote:    sourceNote,
		SourceSection: sourceSection,
		Tags:          tags,
		Learning:      NewLearningState(now),
		History:       []ReviewRecord{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if strings.TrimSpace(c.Question) == "" {
		return ErrCardQuestionEmpty
	}

	if strings.TrimSpace(c.Answer) == "" {
		return ErrCardAnswerEmpty
	}

	return nil
}

// UpdateContent replaces the card's question and answer and bumps the
// UpdatedAt timestamp. Returns an error if the new content is invalid.
func (c *Card) UpdateContent(question, answer string) error {
	origQuestion, origAnswer := c.Question, c.Answer
	c.Question = question
	c.Answer = answer

	if err := c.Validate(); err != nil {
		c.Question = origQuestion
		c.Answer = origAnswer
		return err
	}

	c.UpdatedAt = time.Now().UTC()
	return nil
}

// AddReview appends a record to the card's review history and updates the
// card's timestamps. The learning state itself is updated separately by the
// srs package; this only records what happened.
func (c *Card) AddReview(record ReviewRecord) {
	c.History = append(c.History, record)
	c.UpdatedAt = record.ReviewedAt
}

// DedupKey returns the exact-match identity used when merging generated
// card candidates: question and answer text, nothing else.
func (c *Card) DedupKey() string {
	return c.Question + "\x00" + c.Answer
}
