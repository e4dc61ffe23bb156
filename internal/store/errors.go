package store

import "errors"

// Common store errors. Implementations translate driver-level failures
// into these sentinels so callers never depend on driver error types.
var (
	// ErrDeckNotFound indicates the requested deck does not exist.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrCardNotFound indicates the requested card does not exist in the deck.
	ErrCardNotFound = errors.New("card not found")

	// ErrCorruptDeck indicates a persisted deck record is missing required
	// fields (id or name) and cannot be loaded. A card-id list that merely
	// disagrees with the persisted cards is repaired on load instead.
	ErrCorruptDeck = errors.New("deck record is missing required fields")
)
