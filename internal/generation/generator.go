// Package generation defines the boundary between the card engine and
// external AI text-generation services.
package generation

import (
	"context"
)

// CardRequest describes one generation call: the text to work from, how
// many cards to aim for, and an optional section label for context.
type CardRequest struct {
	// Text is the source content cards are generated from
	Text string

	// Count is the target number of cards for this request
	Count int

	// SectionHint names the document section the text came from, if known
	SectionHint string
}

// CandidateCard is a raw generated card before it is merged, deduplicated
// and promoted to a domain Card. Question and Answer are required;
// SourceSection and Tags are optional and repaired with defaults when the
// model omits them.
type CandidateCard struct {
	Question      string
	Answer        string
	SourceSection string
	Tags          []string
}

// Generator defines the interface for generating flashcards from text.
// This interface serves as a boundary between the application core and
// external AI/LLM services, following the hexagonal architecture pattern.
type Generator interface {
	// GenerateCards creates flashcard candidates for the request. It returns
	// ErrInvalidResponse (wrapped) for malformed model output, which the
	// batch processor treats as a retryable task failure.
	GenerateCards(ctx context.Context, req CardRequest) ([]CandidateCard, error)
}
