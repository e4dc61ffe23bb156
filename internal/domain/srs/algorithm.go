package srs

import (
	"math"
	"time"

	"github.com/yayaysya/sixu-recall/internal/domain"
)

// calculateNewEaseFactor determines the new ease factor after a review.
//
// Successful reviews nudge the ease factor upward by an amount that shrinks
// with the distance between the rating and "easy":
//
//	adjustment = 0.1 - (3-rating) * (0.08 + (3-rating)*0.02)
//
// which works out to +0.1 for "easy" and 0 for "good". Failed reviews apply
// a fixed penalty: -0.15 for "hard", -0.20 for "forgot". The result is
// always clamped to [params.MinEaseFactor, params.MaxEaseFactor].
func calculateNewEaseFactor(currentEF float64, rating domain.Rating, params *Params) float64 {
	var newEF float64

	if rating.IsCorrect() {
		distance := float64(domain.RatingEasy - rating)
		adjustment := 0.1 - distance*(0.08+distance*0.02)
		newEF = currentEF + adjustment
	} else if rating == domain.RatingHard {
		newEF = currentEF - params.HardPenalty
	} else {
		newEF = currentEF - params.ForgotPenalty
	}

	// Ensure ease factor stays within configured limits
	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}
	if newEF > params.MaxEaseFactor {
		newEF = params.MaxEaseFactor
	}

	return newEF
}

// calculateNewInterval determines the next interval in days.
//
// For successful reviews the interval depends on the updated consecutive
// correct count: the first two successes use fixed intervals (1 day, then
// 6 days), after which the previous interval is multiplied by the previous
// ease factor and rounded. Failed reviews fall back to the lapse interval.
//
// Parameters:
//   - previousInterval: the interval in days before this review
//   - previousEF: the ease factor before this review's adjustment
//   - newRepetitions: the consecutive correct count after this review
func calculateNewInterval(
	previousInterval int,
	previousEF float64,
	newRepetitions int,
	rating domain.Rating,
	params *Params,
) int {
	if !rating.IsCorrect() {
		return params.LapseInterval
	}

	switch newRepetitions {
	case 1:
		return params.FirstCorrectInterval
	case 2:
		return params.SecondCorrectInterval
	default:
		return int(math.Round(float64(previousInterval) * previousEF))
	}
}

// DeriveStatus computes a card's status from its learning state. Status is
// never stored independently of this derivation:
//
//	repetitions == 0 and interval == 0  -> new
//	repetitions <  LearningRepetitions  -> learning
//	interval    <  MasteryIntervalDays  -> review
//	otherwise                           -> mastered
func DeriveStatus(repetitions, interval int, params *Params) domain.CardStatus {
	switch {
	case repetitions == 0 && interval == 0:
		return domain.CardStatusNew
	case repetitions < params.LearningRepetitions:
		return domain.CardStatusLearning
	case interval < params.MasteryIntervalDays:
		return domain.CardStatusReview
	default:
		return domain.CardStatusMastered
	}
}

// calculateNextState computes the full post-review learning state. It is a
// pure function over (state, rating, now); the input state is not modified.
func calculateNextState(
	state domain.LearningState,
	rating domain.Rating,
	now time.Time,
	params *Params,
) domain.LearningState {
	next := state

	if rating.IsCorrect() {
		next.Repetitions = state.Repetitions + 1
	} else {
		next.Repetitions = 0
	}

	// Interval growth uses the pre-adjustment ease factor
	next.Interval = calculateNewInterval(
		state.Interval,
		state.EaseFactor,
		next.Repetitions,
		rating,
		params,
	)

	next.EaseFactor = calculateNewEaseFactor(state.EaseFactor, rating, params)

	reviewedAt := now
	next.LastReviewedAt = &reviewedAt
	next.NextReviewAt = now.Add(time.Duration(next.Interval) * 24 * time.Hour)
	next.Status = DeriveStatus(next.Repetitions, next.Interval, params)

	return next
}
