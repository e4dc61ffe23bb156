package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yayaysya/sixu-recall/internal/domain"
)

// MemoryStore is an in-memory DeckStore used by tests and by hosts that
// manage persistence themselves.
type MemoryStore struct {
	mu    sync.RWMutex
	decks map[uuid.UUID]*memoryDeck
}

type memoryDeck struct {
	deck  domain.Deck
	cards []domain.Card
}

// NewMemoryStore creates an empty in-memory deck store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		decks: make(map[uuid.UUID]*memoryDeck),
	}
}

// ListDecks implements DeckStore.
func (s *MemoryStore) ListDecks(ctx context.Context) ([]*domain.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	decks := make([]*domain.Deck, 0, len(s.decks))
	for _, entry := range s.decks {
		deck := entry.deck
		decks = append(decks, &deck)
	}
	return decks, nil
}

// GetDeck implements DeckStore.
func (s *MemoryStore) GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, []*domain.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.decks[id]
	if !ok {
		return nil, nil, ErrDeckNotFound
	}

	deck := entry.deck
	cards := make([]*domain.Card, 0, len(entry.cards))
	for i := range entry.cards {
		card := entry.cards[i]
		cards = append(cards, &card)
	}

	// Repair the card-id list from the cards actually stored
	deck.SetCards(cards)

	return &deck, cards, nil
}

// SaveDeck implements DeckStore.
func (s *MemoryStore) SaveDeck(ctx context.Context, deck *domain.Deck, cards []*domain.Card) error {
	if err := deck.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]domain.Card, 0, len(cards))
	for _, card := range cards {
		stored = append(stored, *card)
	}
	s.decks[deck.ID] = &memoryDeck{
		deck:  *deck,
		cards: stored,
	}
	return nil
}

// DeleteDeck implements DeckStore.
func (s *MemoryStore) DeleteDeck(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.decks, id)
	return nil
}

// interface guard
var _ DeckStore = (*MemoryStore)(nil)
