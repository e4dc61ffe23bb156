package service

import (
	"time"

	"github.com/yayaysya/sixu-recall/internal/domain"
)

// ComputeStats derives a deck's stats snapshot from its full card set.
// It is idempotent: identical card state always yields identical stats,
// regardless of call order.
func ComputeStats(cards []*domain.Card) domain.DeckStats {
	stats := domain.DeckStats{Total: len(cards)}

	var lastStudied *time.Time
	for _, card := range cards {
		switch card.Learning.Status {
		case domain.CardStatusNew:
			stats.New++
		case domain.CardStatusLearning:
			stats.Learning++
		case domain.CardStatusReview:
			stats.Review++
		case domain.CardStatusMastered:
			stats.Mastered++
		}

		stats.TotalReviews += len(card.History)
		for _, record := range card.History {
			stats.TotalStudyTimeSeconds += record.TimeTakenSeconds
			if lastStudied == nil || record.ReviewedAt.After(*lastStudied) {
				reviewedAt := record.ReviewedAt
				lastStudied = &reviewedAt
			}
		}
	}

	if stats.Total > 0 {
		stats.MasteryRate = float64(stats.Review+stats.Mastered) / float64(stats.Total)
	}
	stats.LastStudiedAt = lastStudied

	return stats
}
