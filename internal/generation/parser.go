package generation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// responseSchema is the JSON shape the model is asked to produce:
// { "cards": [ { "question", "answer", "sourceSection"?, "tags"? } ] }
type responseSchema struct {
	Cards []cardSchema `json:"cards"`
}

type cardSchema struct {
	Question      string   `json:"question"`
	Answer        string   `json:"answer"`
	SourceSection string   `json:"sourceSection"`
	Tags          []string `json:"tags"`
}

// ParseResponse validates a raw model response into card candidates.
//
// The response may be wrapped in a markdown code fence. A response that is
// not JSON, has no cards array, or contains a card missing question or
// answer fails with ErrInvalidResponse; absent sourceSection or tags are
// repaired with defaults instead.
func ParseResponse(raw string) ([]CandidateCard, error) {
	payload := stripCodeFence(raw)
	if strings.TrimSpace(payload) == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	var parsed responseSchema
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if len(parsed.Cards) == 0 {
		return nil, fmt.Errorf("%w: no cards in response", ErrInvalidResponse)
	}

	candidates := make([]CandidateCard, 0, len(parsed.Cards))
	for i, card := range parsed.Cards {
		if strings.TrimSpace(card.Question) == "" {
			return nil, fmt.Errorf("%w: card %d missing question", ErrInvalidResponse, i)
		}
		if strings.TrimSpace(card.Answer) == "" {
			return nil, fmt.Errorf("%w: card %d missing answer", ErrInvalidResponse, i)
		}

		tags := card.Tags
		if tags == nil {
			tags = []string{}
		}

		candidates = append(candidates, CandidateCard{
			Question:      strings.TrimSpace(card.Question),
			Answer:        strings.TrimSpace(card.Answer),
			SourceSection: strings.TrimSpace(card.SourceSection),
			Tags:          tags,
		})
	}

	return candidates, nil
}

// stripCodeFence unwraps ```json ... ``` (or bare ```) fences around the
// payload. Responses without a fence pass through unchanged.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// Drop the opening fence line
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		return trimmed
	}

	// Drop the closing fence
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}

	return strings.TrimSpace(trimmed)
}
