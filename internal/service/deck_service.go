// Package service implements the deck/card lifecycle: review application,
// statistics aggregation, study-set selection, merge/delete, and the
// generation entry points exposed to hosts.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yayaysya/sixu-recall/internal/domain"
	"github.com/yayaysya/sixu-recall/internal/domain/srs"
	"github.com/yayaysya/sixu-recall/internal/store"
)

// DeckService owns deck and card lifecycle operations. All mutations are
// read-modify-write over the whole deck; concurrent reviews against the
// same deck are not coordinated (last writer wins).
type DeckService struct {
	store  store.DeckStore
	srs    srs.Service
	logger *slog.Logger

	// now is the clock, replaceable in tests
	now func() time.Time
}

// NewDeckService creates a deck lifecycle service.
func NewDeckService(deckStore store.DeckStore, srsService srs.Service, logger *slog.Logger) *DeckService {
	return &DeckService{
		store:  deckStore,
		srs:    srsService,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListDecks returns all persisted decks without cards.
func (s *DeckService) ListDecks(ctx context.Context) ([]*domain.Deck, error) {
	return s.store.ListDecks(ctx)
}

// GetDeck returns one deck and its cards.
func (s *DeckService) GetDeck(ctx context.Context, deckID uuid.UUID) (*domain.Deck, []*domain.Card, error) {
	return s.store.GetDeck(ctx, deckID)
}

// CreateDeck persists a new deck around the given cards, deriving the
// card-id list and stats from the card set.
func (s *DeckService) CreateDeck(
	ctx context.Context,
	name string,
	sourceNotes []string,
	settings domain.DeckSettings,
	cards []*domain.Card,
) (*domain.Deck, error) {
	deck, err := domain.NewDeck(name, sourceNotes)
	if err != nil {
		return nil, err
	}
	if settings.NewPerDay > 0 && settings.ReviewPerDay > 0 {
		deck.Settings = settings
	}

	deck.SetCards(cards)
	deck.Stats = ComputeStats(cards)

	if err := s.store.SaveDeck(ctx, deck, cards); err != nil {
		return nil, fmt.Errorf("failed to save deck: %w", err)
	}

	s.logger.Info("deck created",
		"deck_id", deck.ID,
		"name", deck.Name,
		"card_count", len(cards))

	return deck, nil
}

// ApplyReview runs one card through the scheduling algorithm for the given
// rating, appends the review to the card's history, recomputes deck stats
// from the full card set, and persists the deck. Fails if the deck or card
// does not exist or the rating is invalid.
func (s *DeckService) ApplyReview(
	ctx context.Context,
	deckID, cardID uuid.UUID,
	rating domain.Rating,
	timeTakenSeconds float64,
) (*domain.Card, error) {
	if !rating.Valid() {
		return nil, domain.ErrInvalidRating
	}

	deck, cards, err := s.store.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	card := findCard(cards, cardID)
	if card == nil {
		return nil, store.ErrCardNotFound
	}

	now := s.now()
	newState, err := s.srs.CalculateNextReview(card.Learning, rating, now)
	if err != nil {
		return nil, err
	}

	card.Learning = newState
	card.AddReview(domain.ReviewRecord{
		ReviewedAt:       now,
		Rating:           rating,
		TimeTakenSeconds: timeTakenSeconds,
	})

	deck.Stats = ComputeStats(cards)
	deck.UpdatedAt = now

	if err := s.store.SaveDeck(ctx, deck, cards); err != nil {
		return nil, fmt.Errorf("failed to save deck after review: %w", err)
	}

	return card, nil
}

// PostponeCard pushes a card's next review forward by the given number of
// days without altering its ease factor or repetition count.
func (s *DeckService) PostponeCard(
	ctx context.Context,
	deckID, cardID uuid.UUID,
	days int,
) (*domain.Card, error) {
	deck, cards, err := s.store.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	card := findCard(cards, cardID)
	if card == nil {
		return nil, store.ErrCardNotFound
	}

	newState, err := s.srs.PostponeReview(card.Learning, days, s.now())
	if err != nil {
		return nil, err
	}
	card.Learning = newState
	card.UpdatedAt = s.now()
	deck.UpdatedAt = card.UpdatedAt

	if err := s.store.SaveDeck(ctx, deck, cards); err != nil {
		return nil, fmt.Errorf("failed to save deck after postpone: %w", err)
	}

	return card, nil
}

// EditCard updates a card's question and answer.
func (s *DeckService) EditCard(
	ctx context.Context,
	deckID, cardID uuid.UUID,
	question, answer string,
) (*domain.Card, error) {
	deck, cards, err := s.store.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	card := findCard(cards, cardID)
	if card == nil {
		return nil, store.ErrCardNotFound
	}

	if err := card.UpdateContent(question, answer); err != nil {
		return nil, err
	}
	deck.UpdatedAt = s.now()

	if err := s.store.SaveDeck(ctx, deck, cards); err != nil {
		return nil, fmt.Errorf("failed to save deck after edit: %w", err)
	}

	return card, nil
}

// SelectStudySet selects the cards for one study session: due non-new
// cards ordered earliest-due-first up to the review limit, plus new cards
// in existing order up to the new limit, shuffled together so review and
// new cards do not cluster. Limits of zero or below fall back to the
// deck's settings.
func (s *DeckService) SelectStudySet(
	ctx context.Context,
	deckID uuid.UUID,
	newLimit, reviewLimit int,
) ([]*domain.Card, error) {
	deck, cards, err := s.store.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	if newLimit <= 0 {
		newLimit = deck.Settings.NewPerDay
	}
	if reviewLimit <= 0 {
		reviewLimit = deck.Settings.ReviewPerDay
	}

	now := s.now()

	var due []*domain.Card
	var fresh []*domain.Card
	for _, card := range cards {
		if card.Learning.Status == domain.CardStatusNew {
			fresh = append(fresh, card)
			continue
		}
		if !card.Learning.NextReviewAt.After(now) {
			due = append(due, card)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].Learning.NextReviewAt.Before(due[j].Learning.NextReviewAt)
	})

	if len(due) > reviewLimit {
		due = due[:reviewLimit]
	}
	if len(fresh) > newLimit {
		fresh = fresh[:newLimit]
	}

	studySet := make([]*domain.Card, 0, len(due)+len(fresh))
	studySet = append(studySet, due...)
	studySet = append(studySet, fresh...)

	rand.Shuffle(len(studySet), func(i, j int) {
		studySet[i], studySet[j] = studySet[j], studySet[i]
	})

	return studySet, nil
}

// MergeDecks combines the given decks into one new deck: cards are
// concatenated verbatim (deliberately without deduplication, unlike
// generation), source-note references are unioned, and stats are summed
// additively with the mastery rate recomputed from the summed totals.
// Source decks are deleted after the merged deck is persisted. Fails
// without creating anything when zero requested decks are loadable;
// partially loadable input is tolerated.
func (s *DeckService) MergeDecks(
	ctx context.Context,
	deckIDs []uuid.UUID,
	newName string,
) (*domain.Deck, error) {
	var sources []*domain.Deck
	var allCards []*domain.Card

	for _, id := range deckIDs {
		deck, cards, err := s.store.GetDeck(ctx, id)
		if err != nil {
			s.logger.Warn("skipping unloadable deck in merge",
				"deck_id", id,
				"error", err)
			continue
		}
		sources = append(sources, deck)
		allCards = append(allCards, cards...)
	}

	if len(sources) == 0 {
		return nil, ErrNoDecksToMerge
	}

	merged, err := domain.NewDeck(newName, nil)
	if err != nil {
		return nil, err
	}

	var stats domain.DeckStats
	for _, src := range sources {
		merged.AddSourceNotes(src.SourceNotes)
		stats = addStats(stats, src.Stats)
	}
	if stats.Total > 0 {
		stats.MasteryRate = float64(stats.Review+stats.Mastered) / float64(stats.Total)
	}

	merged.SetCards(allCards)
	merged.Stats = stats

	if err := s.store.SaveDeck(ctx, merged, allCards); err != nil {
		return nil, fmt.Errorf("failed to save merged deck: %w", err)
	}

	for _, src := range sources {
		if err := s.store.DeleteDeck(ctx, src.ID); err != nil {
			s.logger.Error("failed to delete source deck after merge",
				"deck_id", src.ID,
				"error", err)
		}
	}

	s.logger.Info("decks merged",
		"merged_deck_id", merged.ID,
		"source_count", len(sources),
		"card_count", len(allCards))

	return merged, nil
}

// DeleteDeck removes a deck and all its cards as one unit. Absence of the
// deck (or of either backing record) is not an error.
func (s *DeckService) DeleteDeck(ctx context.Context, deckID uuid.UUID) error {
	return s.store.DeleteDeck(ctx, deckID)
}

// findCard locates a card by id in a deck's card set.
func findCard(cards []*domain.Card, cardID uuid.UUID) *domain.Card {
	for _, card := range cards {
		if card.ID == cardID {
			return card
		}
	}
	return nil
}

// addStats sums two stats snapshots field by field. Mastery rate is left
// for the caller to recompute from the summed totals.
func addStats(a, b domain.DeckStats) domain.DeckStats {
	a.Total += b.Total
	a.New += b.New
	a.Learning += b.Learning
	a.Review += b.Review
	a.Mastered += b.Mastered
	a.TotalReviews += b.TotalReviews
	a.TotalStudyTimeSeconds += b.TotalStudyTimeSeconds
	if b.LastStudiedAt != nil && (a.LastStudiedAt == nil || b.LastStudiedAt.After(*a.LastStudiedAt)) {
		a.LastStudiedAt = b.LastStudiedAt
	}
	return a
}
