package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yayaysya/sixu-recall/internal/config"
	"github.com/yayaysya/sixu-recall/internal/generation"
	"github.com/yayaysya/sixu-recall/internal/splitter"
)

// fakeGenerator is a scriptable Generator that records every request.
type fakeGenerator struct {
	mu       sync.Mutex
	requests []generation.CardRequest
	fn       func(req generation.CardRequest, callsForHint int) ([]generation.CandidateCard, error)
}

func (f *fakeGenerator) GenerateCards(ctx context.Context, req generation.CardRequest) ([]generation.CandidateCard, error) {
	f.mu.Lock()
	callsForHint := 0
	for _, prev := range f.requests {
		if prev.SectionHint == req.SectionHint {
			callsForHint++
		}
	}
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	return f.fn(req, callsForHint)
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeGenerator) requestsForHint(hint string) []generation.CardRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	var reqs []generation.CardRequest
	for _, req := range f.requests {
		if req.SectionHint == hint {
			reqs = append(reqs, req)
		}
	}
	return reqs
}

// candidates fabricates n distinct candidates labelled by prefix.
func candidates(prefix string, n int) []generation.CandidateCard {
	cards := make([]generation.CandidateCard, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, generation.CandidateCard{
			Question: fmt.Sprintf("%s question %d", prefix, i),
			Answer:   fmt.Sprintf("%s answer %d", prefix, i),
		})
	}
	return cards
}

func testConfig() config.GenerationConfig {
	return config.GenerationConfig{
		Concurrency:       2,
		MaxChunkSize:      3000,
		RetryDelaySeconds: 1,
		DefaultCardCount:  10,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(gen generation.Generator, cfg config.GenerationConfig) *Pipeline {
	return New(splitter.NewMarkdownSplitter(), gen, cfg, testLogger())
}

func TestGenerateSingleChunkCallsGeneratorOnce(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		fn: func(req generation.CardRequest, _ int) ([]generation.CandidateCard, error) {
			return candidates("single", 3), nil
		},
	}
	pipe := newTestPipeline(gen, testConfig())

	cards, err := pipe.Generate(context.Background(), "note.md", "Plain note without headings.", 5, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.callCount(), "small documents take the direct path")
	assert.Len(t, cards, 3)

	require.Len(t, gen.requests, 1)
	assert.Equal(t, 5, gen.requests[0].Count, "direct path asks for the full target")

	for _, card := range cards {
		assert.Equal(t, "note.md", card.SourceNote)
		assert.Equal(t, "uncategorized", card.SourceSection)
	}
}

func TestGenerateDefaultsTargetCount(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		fn: func(req generation.CardRequest, _ int) ([]generation.CandidateCard, error) {
			return candidates("default", 2), nil
		},
	}
	pipe := newTestPipeline(gen, testConfig())

	_, err := pipe.Generate(context.Background(), "note.md", "short text", 0, nil)
	require.NoError(t, err)

	require.Len(t, gen.requests, 1)
	assert.Equal(t, 10, gen.requests[0].Count)
}

func TestGenerateEmptyText(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		fn: func(req generation.CardRequest, _ int) ([]generation.CandidateCard, error) {
			return candidates("never", 1), nil
		},
	}
	pipe := newTestPipeline(gen, testConfig())

	_, err := pipe.Generate(context.Background(), "note.md", "   \n ", 5, nil)
	assert.ErrorIs(t, err, generation.ErrEmptyText)
	assert.Zero(t, gen.callCount())
}

func TestGenerateSectionFallbackChain(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		fn: func(req generation.CardRequest, _ int) ([]generation.CandidateCard, error) {
			return []generation.CandidateCard{
				{Question: "Q1", Answer: "A1", SourceSection: "From Model"},
				{Question: "Q2", Answer: "A2"},
			}, nil
		},
	}
	pipe := newTestPipeline(gen, testConfig())

	cards, err := pipe.Generate(context.Background(), "note.md", "# Variables\nbody", 5, nil)
	require.NoError(t, err)
	require.Len(t, cards, 2)

	// Candidate-provided section wins; otherwise the chunk title
	assert.Equal(t, "From Model", cards[0].SourceSection)
	assert.Equal(t, "Variables", cards[1].SourceSection)
}

func TestGenerateDeduplicatesAcrossChunks(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		fn: func(req generation.CardRequest, _ int) ([]generation.CandidateCard, error) {
			return []generation.CandidateCard{
				{Question: "Shared question", Answer: "Shared answer"},
			}, nil
		},
	}
	pipe := newTestPipeline(gen, testConfig())

	text := "# First\nalpha\n\n# Second\nbeta"
	cards, err := pipe.Generate(context.Background(), "note.md", text, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, gen.callCount())
	require.Len(t, cards, 1, "identical (question, answer) pairs collapse to one card")
}

func TestGenerateTruncatesToTarget(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		fn: func(req generation.CardRequest, _ int) ([]generation.CandidateCard, error) {
			return candidates("over", 6), nil
		},
	}
	pipe := newTestPipeline(gen, testConfig())

	cards, err := pipe.Generate(context.Background(), "note.md", "single chunk text", 4, nil)
	require.NoError(t, err)
	require.Len(t, cards, 4)

	// Truncation keeps the earliest candidates in order
	for i, card := range cards {
		assert.Equal(t, fmt.Sprintf("over question %d", i), card.Question)
	}
}

func TestGenerateDropsInvalidCandidates(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		fn: func(req generation.CardRequest, _ int) ([]generation.CandidateCard, error) {
			return []generation.CandidateCard{
				{Question: "Valid", Answer: "Answer"},
				{Question: "  ", Answer: "Broken"},
			}, nil
		},
	}
	pipe := newTestPipeline(gen, testConfig())

	cards, err := pipe.Generate(context.Background(), "note.md", "text", 5, nil)
	require.NoError(t, err)

	require.Len(t, cards, 1)
	assert.Equal(t, "Valid", cards[0].Question)
}

func TestGenerateCompensatesFailedChunks(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		fn: func(req generation.CardRequest, callsForHint int) ([]generation.CandidateCard, error) {
			// The middle chunk fails its whole first pass, then recovers
			// in compensation.
			if req.SectionHint == "Beta" && callsForHint < 2 {
				return nil, errors.New("model unavailable")
			}
			return candidates(req.SectionHint, req.Count), nil
		},
	}
	pipe := newTestPipeline(gen, testConfig())

	text := "# Alpha\naaa\n\n# Beta\nbbb\n\n# Gamma\nccc"
	cards, err := pipe.Generate(context.Background(), "note.md", text, 10, nil)
	require.NoError(t, err)

	// First pass: ceil(10/3) = 4 per chunk, two chunks succeed (8 cards).
	// Compensation asks the failed chunk for the remaining 2.
	assert.Len(t, cards, 10)

	betaRequests := gen.requestsForHint("Beta")
	require.Len(t, betaRequests, 3, "two first-pass attempts plus one compensation attempt")
	assert.Equal(t, 4, betaRequests[0].Count)
	assert.Equal(t, 2, betaRequests[2].Count, "compensation divides the shortfall")
}

func TestGenerateCompensationShortfallIsNotFatal(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		fn: func(req generation.CardRequest, _ int) ([]generation.CandidateCard, error) {
			if req.SectionHint == "Beta" {
				return nil, errors.New("permanently broken")
			}
			return candidates(req.SectionHint, req.Count), nil
		},
	}
	pipe := newTestPipeline(gen, testConfig())

	text := "# Alpha\naaa\n\n# Beta\nbbb\n\n# Gamma\nccc"
	cards, err := pipe.Generate(context.Background(), "note.md", text, 10, nil)
	require.NoError(t, err)

	// Two healthy chunks produced 4 each; no padding loop tops this up.
	assert.Len(t, cards, 8)
}

func TestGenerateAllChunksFail(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		fn: func(req generation.CardRequest, _ int) ([]generation.CandidateCard, error) {
			return nil, errors.New("always broken")
		},
	}
	pipe := newTestPipeline(gen, testConfig())

	_, err := pipe.Generate(context.Background(), "note.md", "single chunk text", 5, nil)
	assert.ErrorIs(t, err, generation.ErrGenerationFailed)
}

func TestGenerateReportsProgressMilestones(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		fn: func(req generation.CardRequest, _ int) ([]generation.CandidateCard, error) {
			return candidates("p", 2), nil
		},
	}
	pipe := newTestPipeline(gen, testConfig())

	var percents []int
	reporter := func(p Progress) {
		percents = append(percents, p.Percent)
	}

	_, err := pipe.Generate(context.Background(), "note.md", "short text", 5, reporter)
	require.NoError(t, err)

	require.NotEmpty(t, percents)
	assert.Equal(t, 10, percents[0])
	assert.Contains(t, percents, 20)
	assert.Contains(t, percents, 85)
	assert.Equal(t, 100, percents[len(percents)-1])

	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1], "single-pass progress never regresses")
	}
}

func TestGenerateNilReporterIsSafe(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		fn: func(req generation.CardRequest, _ int) ([]generation.CandidateCard, error) {
			return candidates("quiet", 1), nil
		},
	}
	pipe := newTestPipeline(gen, testConfig())

	_, err := pipe.Generate(context.Background(), "note.md", "text", 3, nil)
	assert.NoError(t, err)
}

func TestCeilDiv(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		a, b, expected int
	}{
		{10, 3, 4},
		{10, 5, 2},
		{1, 5, 1},
		{0, 5, 1},
		{7, 7, 1},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ceilDiv(tc.a, tc.b), "ceilDiv(%d, %d)", tc.a, tc.b)
	}
}
