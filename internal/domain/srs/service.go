package srs

import (
	"errors"
	"time"

	"github.com/yayaysya/sixu-recall/internal/domain"
)

// Common errors
var (
	ErrInvalidRating = errors.New("invalid review rating")
	ErrInvalidDays   = errors.New("postpone days must be at least 1")
)

// Service defines the interface for scheduling operations
type Service interface {
	// CalculateNextReview computes the post-review learning state for a rating
	CalculateNextReview(
		state domain.LearningState,
		rating domain.Rating,
		now time.Time,
	) (domain.LearningState, error)

	// PostponeReview pushes the next review time forward by a number of days
	// without touching ease factor or repetition count
	PostponeReview(
		state domain.LearningState,
		days int,
		now time.Time,
	) (domain.LearningState, error)

	// Status derives the card status for a learning state
	Status(state domain.LearningState) domain.CardStatus
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduling service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduling service with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// CalculateNextReview implements the Service interface
func (s *defaultService) CalculateNextReview(
	state domain.LearningState,
	rating domain.Rating,
	now time.Time,
) (domain.LearningState, error) {
	if !rating.Valid() {
		return domain.LearningState{}, ErrInvalidRating
	}

	return calculateNextState(state, rating, now, s.params), nil
}

// PostponeReview implements the Service interface
func (s *defaultService) PostponeReview(
	state domain.LearningState,
	days int,
	now time.Time,
) (domain.LearningState, error) {
	if days < 1 {
		return domain.LearningState{}, ErrInvalidDays
	}

	next := state
	next.NextReviewAt = state.NextReviewAt.AddDate(0, 0, days)

	return next, nil
}

// Status implements the Service interface
func (s *defaultService) Status(state domain.LearningState) domain.CardStatus {
	return DeriveStatus(state.Repetitions, state.Interval, s.params)
}
