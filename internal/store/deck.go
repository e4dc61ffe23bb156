// Package store defines the persistence interfaces for decks and cards.
// The deck is the unit of persistence and deletion; cards have no
// existence outside their deck.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/yayaysya/sixu-recall/internal/domain"
)

// DeckStore persists decks together with their cards. Each operation is
// atomic from the caller's perspective: load full deck, mutate in memory,
// save full deck. Concurrent writers against the same deck are not
// coordinated; the last writer wins.
type DeckStore interface {
	// ListDecks loads all decks without their cards.
	ListDecks(ctx context.Context) ([]*domain.Deck, error)

	// GetDeck loads one deck and all of its cards. Implementations repair
	// the deck's card-id list from the cards actually loaded when the two
	// disagree. Returns ErrDeckNotFound if the deck does not exist and
	// ErrCorruptDeck if the persisted record lacks id or name.
	GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, []*domain.Card, error)

	// SaveDeck persists the deck and the given card set as one unit,
	// replacing whatever cards were previously stored with it.
	SaveDeck(ctx context.Context, deck *domain.Deck, cards []*domain.Card) error

	// DeleteDeck removes the deck and all of its cards. Deleting a deck
	// that does not exist is not an error.
	DeleteDeck(ctx context.Context, id uuid.UUID) error
}
