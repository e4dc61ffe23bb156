package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Deck-specific validation errors
var (
	// ErrDeckIDEmpty is returned when a deck ID is empty or nil.
	ErrDeckIDEmpty = errors.New("deck ID cannot be empty")

	// ErrDeckNameEmpty is returned when a deck's display name is empty.
	ErrDeckNameEmpty = errors.New("deck name cannot be empty")
)

// DeckSettings holds per-deck study limits.
type DeckSettings struct {
	NewPerDay    int `json:"new_per_day"`    // Max new cards introduced per session
	ReviewPerDay int `json:"review_per_day"` // Max due cards reviewed per session
}

// DefaultDeckSettings returns the standard study limits for a new deck.
func DefaultDeckSettings() DeckSettings {
	return DeckSettings{
		NewPerDay:    20,
		ReviewPerDay: 200,
	}
}

// DeckStats is a derived snapshot of a deck's card population. It is always
// recomputed from the live card set, never hand-edited.
type DeckStats struct {
	Total                 int        `json:"total"`
	New                   int        `json:"new"`
	Learning              int        `json:"learning"`
	Review                int        `json:"review"`
	Mastered              int        `json:"mastered"`
	MasteryRate           float64    `json:"mastery_rate"` // (review+mastered)/total
	TotalReviews          int        `json:"total_reviews"`
	TotalStudyTimeSeconds float64    `json:"total_study_time_seconds"`
	LastStudiedAt         *time.Time `json:"last_studied_at"`
}

// Deck is the unit of persistence and deletion for cards. CardIDs mirrors
// the set of cards actually persisted with the deck; stores repair this
// list on load if it disagrees with the card rows.
type Deck struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	SourceNotes []string     `json:"source_notes"`
	CardIDs     []uuid.UUID  `json:"card_ids"`
	Settings    DeckSettings `json:"settings"`
	Stats       DeckStats    `json:"stats"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewDeck creates a new Deck with a fresh UUID, default settings and empty
// stats. Returns an error if validation fails.
func NewDeck(name string, sourceNotes []string) (*Deck, error) {
	now := time.Now().UTC()
	if sourceNotes == nil {
		sourceNotes = []string{}
	}
	deck := &Deck{
		ID:          uuid.New(),
		Name:        name,
		SourceNotes: sourceNotes,
		CardIDs:     []uuid.UUID{},
		Settings:    DefaultDeckSettings(),
		Stats:       DeckStats{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if strings.TrimSpace(d.Name) == "" {
		return ErrDeckNameEmpty
	}

	return nil
}

// SetCards replaces the deck's card-id list from the given cards, keeping
// the list consistent with what is actually persisted. Stores also use this
// to repair the list on load, so it does not touch UpdatedAt.
func (d *Deck) SetCards(cards []*Card) {
	ids := make([]uuid.UUID, 0, len(cards))
	for _, card := range cards {
		ids = append(ids, card.ID)
	}
	d.CardIDs = ids
}

// AddSourceNote records a source note reference, skipping duplicates.
func (d *Deck) AddSourceNote(ref string) {
	for _, existing := range d.SourceNotes {
		if existing == ref {
			return
		}
	}
	d.SourceNotes = append(d.SourceNotes, ref)
}

// AddSourceNotes records multiple source note references, skipping duplicates.
func (d *Deck) AddSourceNotes(refs []string) {
	for _, ref := range refs {
		d.AddSourceNote(ref)
	}
}
