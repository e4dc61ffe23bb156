package srs

import (
	"errors"
	"testing"
	"time"

	"github.com/yayaysya/sixu-recall/internal/domain"
)

func TestServiceCalculateNextReview(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	state := domain.NewLearningState(now)

	next, err := service.CalculateNextReview(state, domain.RatingGood, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if next.Repetitions != 1 {
		t.Errorf("Expected repetitions 1, got %d", next.Repetitions)
	}
	if next.Interval != 1 {
		t.Errorf("Expected interval 1, got %d", next.Interval)
	}
	if next.LastReviewedAt == nil || !next.LastReviewedAt.Equal(now) {
		t.Errorf("Expected last reviewed at %v, got %v", now, next.LastReviewedAt)
	}
}

func TestServiceCalculateNextReviewInvalidRating(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	now := time.Now().UTC()

	for _, rating := range []domain.Rating{-1, 4, 99} {
		_, err := service.CalculateNextReview(domain.NewLearningState(now), rating, now)
		if !errors.Is(err, ErrInvalidRating) {
			t.Errorf("Rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
}

func TestServicePostponeReview(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	state := domain.LearningState{
		EaseFactor:   2.2,
		Interval:     6,
		Repetitions:  2,
		NextReviewAt: now,
		Status:       domain.CardStatusLearning,
	}

	next, err := service.PostponeReview(state, 3, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !next.NextReviewAt.Equal(now.AddDate(0, 0, 3)) {
		t.Errorf("Expected next review pushed 3 days, got %v", next.NextReviewAt)
	}

	// Postponing never touches the scheduling state itself
	if next.EaseFactor != state.EaseFactor {
		t.Errorf("Expected ease factor unchanged, got %v", next.EaseFactor)
	}
	if next.Repetitions != state.Repetitions {
		t.Errorf("Expected repetitions unchanged, got %d", next.Repetitions)
	}
	if next.Interval != state.Interval {
		t.Errorf("Expected interval unchanged, got %d", next.Interval)
	}
}

func TestServicePostponeReviewInvalidDays(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	now := time.Now().UTC()

	for _, days := range []int{0, -1} {
		_, err := service.PostponeReview(domain.NewLearningState(now), days, now)
		if !errors.Is(err, ErrInvalidDays) {
			t.Errorf("Days %d: expected ErrInvalidDays, got %v", days, err)
		}
	}
}

func TestServiceStatus(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()

	state := domain.LearningState{Repetitions: 3, Interval: 21}
	if got := service.Status(state); got != domain.CardStatusMastered {
		t.Errorf("Expected mastered, got %q", got)
	}
}

func TestNewServiceWithParams(t *testing.T) {
	t.Parallel() // Enable parallel execution
	params := NewParams(ParamsConfig{LapseInterval: 2, ForgotPenalty: 0.5})
	service := NewServiceWithParams(params)
	now := time.Now().UTC()

	state := domain.LearningState{
		EaseFactor:   2.5,
		Interval:     15,
		Repetitions:  3,
		NextReviewAt: now,
		Status:       domain.CardStatusReview,
	}

	next, err := service.CalculateNextReview(state, domain.RatingForgot, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if next.Interval != 2 {
		t.Errorf("Expected custom lapse interval 2, got %d", next.Interval)
	}
	if next.EaseFactor != 2.0 {
		t.Errorf("Expected ease factor 2.0 after custom penalty, got %v", next.EaseFactor)
	}
}
