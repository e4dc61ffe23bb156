package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yayaysya/sixu-recall/internal/config"
	"github.com/yayaysya/sixu-recall/internal/domain/srs"
	"github.com/yayaysya/sixu-recall/internal/generation"
	"github.com/yayaysya/sixu-recall/internal/pipeline"
	"github.com/yayaysya/sixu-recall/internal/splitter"
	"github.com/yayaysya/sixu-recall/internal/store"
)

// stubGenerator returns a fixed number of candidates derived from the
// request text, so decks from different notes get distinct cards.
type stubGenerator struct {
	mu       sync.Mutex
	perCall  int
	requests int
}

func (g *stubGenerator) GenerateCards(ctx context.Context, req generation.CardRequest) ([]generation.CandidateCard, error) {
	g.mu.Lock()
	g.requests++
	g.mu.Unlock()

	cards := make([]generation.CandidateCard, 0, g.perCall)
	for i := 0; i < g.perCall; i++ {
		cards = append(cards, generation.CandidateCard{
			Question: fmt.Sprintf("%s question %d", req.Text, i),
			Answer:   fmt.Sprintf("answer %d", i),
		})
	}
	return cards, nil
}

func newTestGenerateService(t *testing.T, notesDir string) (*GenerateService, *store.MemoryStore) {
	t.Helper()

	memory := store.NewMemoryStore()
	decks := NewDeckService(memory, srs.NewDefaultService(), testLogger())

	cfg := config.GenerationConfig{
		Concurrency:       2,
		MaxChunkSize:      3000,
		RetryDelaySeconds: 1,
		DefaultCardCount:  5,
	}
	pipe := pipeline.New(splitter.NewMarkdownSplitter(), &stubGenerator{perCall: 3}, cfg, testLogger())

	service := NewGenerateService(pipe, decks, NewFileNoteReader(notesDir),
		config.StudyConfig{NewPerDay: 20, ReviewPerDay: 200}, testLogger())
	return service, memory
}

func writeNote(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestGenerateFromNote(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeNote(t, dir, "concurrency.md", "goroutines and channels")
	service, memory := newTestGenerateService(t, dir)

	result, err := service.GenerateFromNote(context.Background(), GenerateOptions{
		SourceNote: "concurrency.md",
	}, nil)
	require.NoError(t, err)

	// Deck name defaults to the note's base name
	assert.Equal(t, "concurrency", result.Deck.Name)
	assert.Equal(t, []string{"concurrency.md"}, result.Deck.SourceNotes)
	assert.Len(t, result.Cards, 3)
	assert.Equal(t, 20, result.Deck.Settings.NewPerDay)

	stored, storedCards, err := memory.GetDeck(context.Background(), result.Deck.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Deck.ID, stored.ID)
	assert.Len(t, storedCards, 3)
}

func TestGenerateFromNoteExplicitName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeNote(t, dir, "note.md", "some text")
	service, _ := newTestGenerateService(t, dir)

	result, err := service.GenerateFromNote(context.Background(), GenerateOptions{
		SourceNote: "note.md",
		DeckName:   "Custom Name",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Custom Name", result.Deck.Name)
}

func TestGenerateFromNoteMissingNote(t *testing.T) {
	t.Parallel()

	service, _ := newTestGenerateService(t, t.TempDir())

	_, err := service.GenerateFromNote(context.Background(), GenerateOptions{
		SourceNote: "does-not-exist.md",
	}, nil)
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestGenerateFromLearningPathSerial(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeNote(t, dir, "one.md", "first note")
	writeNote(t, dir, "two.md", "second note")
	service, _ := newTestGenerateService(t, dir)

	// Three files or fewer run serially; the missing file becomes a
	// failure entry, not an abort.
	result, err := service.GenerateFromLearningPath(context.Background(),
		[]string{"one.md", "missing.md", "two.md"}, "Go Path", nil)
	require.NoError(t, err)

	require.Len(t, result.Results, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "missing.md", result.Failures[0].FileName)
	assert.ErrorIs(t, result.Failures[0].Err, ErrNoteNotFound)

	names := []string{result.Results[0].Deck.Name, result.Results[1].Deck.Name}
	assert.ElementsMatch(t, []string{"Go Path - one", "Go Path - two"}, names)
}

func TestGenerateFromLearningPathConcurrent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("note-%d.md", i)
		writeNote(t, dir, name, fmt.Sprintf("note number %d", i))
		files = append(files, name)
	}
	service, memory := newTestGenerateService(t, dir)

	result, err := service.GenerateFromLearningPath(context.Background(), files, "", nil)
	require.NoError(t, err)

	assert.Len(t, result.Results, 5)
	assert.Empty(t, result.Failures)

	decks, err := memory.ListDecks(context.Background())
	require.NoError(t, err)
	assert.Len(t, decks, 5)
}

func TestGenerateFromLearningPathNoFiles(t *testing.T) {
	t.Parallel()

	service, _ := newTestGenerateService(t, t.TempDir())
	_, err := service.GenerateFromLearningPath(context.Background(), nil, "Path", nil)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestGenerateFromLearningPathReportsProgress(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeNote(t, dir, "a.md", "alpha")
	writeNote(t, dir, "b.md", "beta")
	service, _ := newTestGenerateService(t, dir)

	var percents []int
	_, err := service.GenerateFromLearningPath(context.Background(),
		[]string{"a.md", "b.md"}, "", func(p pipeline.Progress) {
			percents = append(percents, p.Percent)
		})
	require.NoError(t, err)

	assert.Equal(t, []int{50, 100}, percents)
}
