// Package postgres implements the store interfaces on PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yayaysya/sixu-recall/internal/domain"
	"github.com/yayaysya/sixu-recall/internal/store"
)

// DeckStore implements store.DeckStore using a PostgreSQL database.
// Decks and cards live in two tables; card learning state, review history
// and the deck's derived stats are stored as JSONB.
type DeckStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewDeckStore creates a PostgreSQL implementation of store.DeckStore.
// The pool must be initialized and is managed by the caller.
func NewDeckStore(pool *pgxpool.Pool, logger *slog.Logger) *DeckStore {
	if pool == nil {
		panic("pool cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DeckStore{
		pool:   pool,
		logger: logger.With(slog.String("component", "deck_store")),
	}
}

// Ensure DeckStore implements store.DeckStore
var _ store.DeckStore = (*DeckStore)(nil)

// ListDecks implements store.DeckStore.ListDecks.
func (s *DeckStore) ListDecks(ctx context.Context) ([]*domain.Deck, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, source_notes, card_ids, settings, stats, created_at, updated_at
		FROM decks
		ORDER BY created_at`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var decks []*domain.Deck
	for rows.Next() {
		deck, err := scanDeck(rows.Scan)
		if err != nil {
			return nil, err
		}
		decks = append(decks, deck)
	}

	return decks, rows.Err()
}

// GetDeck implements store.DeckStore.GetDeck. The deck's card-id list is
// repaired from the card rows actually loaded.
func (s *DeckStore) GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, []*domain.Card, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, source_notes, card_ids, settings, stats, created_at, updated_at
		FROM decks
		WHERE id = $1`, id)

	deck, err := scanDeck(row.Scan)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, question, answer, source_note, source_section, tags, learning, history,
		       created_at, updated_at
		FROM cards
		WHERE deck_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, nil, mapError(err)
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		card := &domain.Card{}
		var tags, learning, history []byte
		err := rows.Scan(
			&card.ID, &card.Question, &card.Answer, &card.SourceNote, &card.SourceSection,
			&tags, &learning, &history, &card.CreatedAt, &card.UpdatedAt,
		)
		if err != nil {
			return nil, nil, mapError(err)
		}
		if err := json.Unmarshal(tags, &card.Tags); err != nil {
			return nil, nil, fmt.Errorf("failed to decode card tags: %w", err)
		}
		if err := json.Unmarshal(learning, &card.Learning); err != nil {
			return nil, nil, fmt.Errorf("failed to decode learning state: %w", err)
		}
		if err := json.Unmarshal(history, &card.History); err != nil {
			return nil, nil, fmt.Errorf("failed to decode review history: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mapError(err)
	}

	// The persisted id list may disagree with the card rows; the rows win.
	if len(deck.CardIDs) != len(cards) {
		s.logger.Warn("repairing deck card-id list on load",
			"deck_id", deck.ID,
			"listed", len(deck.CardIDs),
			"loaded", len(cards))
	}
	deck.SetCards(cards)

	return deck, cards, nil
}

// SaveDeck implements store.DeckStore.SaveDeck. The deck row is upserted
// and the card set replaced, all in one transaction.
func (s *DeckStore) SaveDeck(ctx context.Context, deck *domain.Deck, cards []*domain.Card) error {
	if err := deck.Validate(); err != nil {
		return err
	}

	sourceNotes, err := json.Marshal(deck.SourceNotes)
	if err != nil {
		return fmt.Errorf("failed to encode source notes: %w", err)
	}
	cardIDs, err := json.Marshal(deck.CardIDs)
	if err != nil {
		return fmt.Errorf("failed to encode card ids: %w", err)
	}
	settings, err := json.Marshal(deck.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	stats, err := json.Marshal(deck.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO decks (id, name, source_notes, card_ids, settings, stats, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			source_notes = EXCLUDED.source_notes,
			card_ids = EXCLUDED.card_ids,
			settings = EXCLUDED.settings,
			stats = EXCLUDED.stats,
			updated_at = EXCLUDED.updated_at`,
		deck.ID, deck.Name, sourceNotes, cardIDs, settings, stats, deck.CreatedAt, deck.UpdatedAt)
	if err != nil {
		return mapError(err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM cards WHERE deck_id = $1`, deck.ID)
	if err != nil {
		return mapError(err)
	}

	for position, card := range cards {
		tags, err := json.Marshal(card.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode card tags: %w", err)
		}
		learning, err := json.Marshal(card.Learning)
		if err != nil {
			return fmt.Errorf("failed to encode learning state: %w", err)
		}
		history, err := json.Marshal(card.History)
		if err != nil {
			return fmt.Errorf("failed to encode review history: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO cards (id, deck_id, position, question, answer, source_note,
			                   source_section, tags, learning, history, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			card.ID, deck.ID, position, card.Question, card.Answer, card.SourceNote,
			card.SourceSection, tags, learning, history, card.CreatedAt, card.UpdatedAt)
		if err != nil {
			return mapError(err)
		}
	}

	return tx.Commit(ctx)
}

// DeleteDeck implements store.DeckStore.DeleteDeck. Card rows go with the
// deck via ON DELETE CASCADE; deleting an absent deck is not an error.
func (s *DeckStore) DeleteDeck(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM decks WHERE id = $1`, id)
	return mapError(err)
}

// scanDeck reads one deck row. A row missing id or name is a hard
// ErrCorruptDeck; everything else is repaired or defaulted.
func scanDeck(scan func(dest ...any) error) (*domain.Deck, error) {
	deck := &domain.Deck{}
	var sourceNotes, cardIDs, settings, stats []byte

	err := scan(&deck.ID, &deck.Name, &sourceNotes, &cardIDs, &settings, &stats,
		&deck.CreatedAt, &deck.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	if deck.ID == uuid.Nil || strings.TrimSpace(deck.Name) == "" {
		return nil, fmt.Errorf("%w: deck %s", store.ErrCorruptDeck, deck.ID)
	}

	if err := json.Unmarshal(sourceNotes, &deck.SourceNotes); err != nil {
		deck.SourceNotes = []string{}
	}
	if err := json.Unmarshal(cardIDs, &deck.CardIDs); err != nil {
		deck.CardIDs = []uuid.UUID{}
	}
	if err := json.Unmarshal(settings, &deck.Settings); err != nil {
		deck.Settings = domain.DefaultDeckSettings()
	}
	if err := json.Unmarshal(stats, &deck.Stats); err != nil {
		deck.Stats = domain.DeckStats{}
	}

	return deck, nil
}
