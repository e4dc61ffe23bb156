package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/yayaysya/sixu-recall/internal/batch"
	"github.com/yayaysya/sixu-recall/internal/config"
	"github.com/yayaysya/sixu-recall/internal/domain"
	"github.com/yayaysya/sixu-recall/internal/pipeline"
)

// Learning-path generation switches from a serial loop to the batch
// processor once a path has more files than this.
const serialPathLimit = 3

// pathConcurrency caps simultaneously generating files on the batch path.
const pathConcurrency = 3

// GenerateOptions describes one generate-from-note request.
type GenerateOptions struct {
	// SourceNote references the note to generate from
	SourceNote string

	// DeckName names the created deck; defaults to the note's base name
	DeckName string

	// Count is the target card count; zero uses the configured default
	Count int
}

// GenerateResult is the product of one generate-from-note call.
type GenerateResult struct {
	Deck  *domain.Deck
	Cards []*domain.Card
}

// PathFileResult is the per-file product of a learning-path generation.
type PathFileResult struct {
	FileName string
	Deck     *domain.Deck
	Cards    []*domain.Card
}

// PathFailure records one file that could not be processed.
type PathFailure struct {
	FileName string
	Err      error
}

// PathResult reports a learning-path generation as partial success:
// per-file results and an error list, never all-or-nothing.
type PathResult struct {
	Results  []PathFileResult
	Failures []PathFailure
}

// GenerateService turns source notes into persisted decks of cards.
type GenerateService struct {
	pipeline *pipeline.Pipeline
	decks    *DeckService
	notes    NoteReader
	study    config.StudyConfig
	logger   *slog.Logger
}

// NewGenerateService creates the generation entry-point service.
func NewGenerateService(
	pipe *pipeline.Pipeline,
	decks *DeckService,
	notes NoteReader,
	study config.StudyConfig,
	logger *slog.Logger,
) *GenerateService {
	return &GenerateService{
		pipeline: pipe,
		decks:    decks,
		notes:    notes,
		study:    study,
		logger:   logger,
	}
}

// GenerateFromNote generates a deck of cards from one source note. A
// missing note is a fatal error surfaced immediately, not retried.
func (s *GenerateService) GenerateFromNote(
	ctx context.Context,
	opts GenerateOptions,
	reporter pipeline.Reporter,
) (*GenerateResult, error) {
	text, err := s.notes.ReadNote(ctx, opts.SourceNote)
	if err != nil {
		return nil, err
	}

	cards, err := s.pipeline.Generate(ctx, opts.SourceNote, text, opts.Count, reporter)
	if err != nil {
		return nil, err
	}

	name := opts.DeckName
	if strings.TrimSpace(name) == "" {
		name = noteBaseName(opts.SourceNote)
	}

	deck, err := s.decks.CreateDeck(ctx, name, []string{opts.SourceNote}, s.defaultSettings(), cards)
	if err != nil {
		return nil, err
	}

	return &GenerateResult{Deck: deck, Cards: cards}, nil
}

// GenerateFromLearningPath generates one deck per file of a learning path.
// Small paths (up to three files) run serially; larger ones fan out
// through the batch processor with a concurrency of three. The outcome is
// a structured partial result: per-file successes plus an error list.
func (s *GenerateService) GenerateFromLearningPath(
	ctx context.Context,
	files []string,
	pathName string,
	reporter pipeline.Reporter,
) (*PathResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	result := &PathResult{}

	if len(files) <= serialPathLimit {
		for i, file := range files {
			fileResult, err := s.generatePathFile(ctx, file, pathName)
			if err != nil {
				result.Failures = append(result.Failures, PathFailure{FileName: file, Err: err})
			} else {
				result.Results = append(result.Results, *fileResult)
			}
			if reporter != nil {
				reporter(pipeline.Progress{
					Percent: (i + 1) * 100 / len(files),
					Message: fmt.Sprintf("processed %d/%d files", i+1, len(files)),
				})
			}
		}
		return result, nil
	}

	tasks := make([]batch.Task[PathFileResult], 0, len(files))
	for _, file := range files {
		file := file
		tasks = append(tasks, batch.Task[PathFileResult]{
			ID: file,
			Execute: func(ctx context.Context) (PathFileResult, error) {
				fileResult, err := s.generatePathFile(ctx, file, pathName)
				if err != nil {
					return PathFileResult{}, err
				}
				return *fileResult, nil
			},
		})
	}

	results, err := batch.Process(ctx, tasks, batch.Options{
		Concurrency: pathConcurrency,
		MaxRetries:  1,
		Logger:      s.logger,
	}, func(completed, total int) {
		if reporter != nil {
			reporter(pipeline.Progress{
				Percent: completed * 100 / total,
				Message: fmt.Sprintf("processed %d/%d files", completed, total),
			})
		}
	})
	if err != nil {
		return nil, err
	}

	summary := batch.Partition(results)
	result.Results = summary.Outputs
	for _, failed := range summary.Failed {
		result.Failures = append(result.Failures, PathFailure{FileName: failed.TaskID, Err: failed.Err})
	}

	return result, nil
}

// generatePathFile generates one deck for one file of a learning path.
func (s *GenerateService) generatePathFile(
	ctx context.Context,
	file string,
	pathName string,
) (*PathFileResult, error) {
	deckName := noteBaseName(file)
	if strings.TrimSpace(pathName) != "" {
		deckName = fmt.Sprintf("%s - %s", pathName, deckName)
	}

	generated, err := s.GenerateFromNote(ctx, GenerateOptions{
		SourceNote: file,
		DeckName:   deckName,
	}, nil)
	if err != nil {
		return nil, err
	}

	return &PathFileResult{
		FileName: file,
		Deck:     generated.Deck,
		Cards:    generated.Cards,
	}, nil
}

// defaultSettings maps the configured study limits onto deck settings.
func (s *GenerateService) defaultSettings() domain.DeckSettings {
	return domain.DeckSettings{
		NewPerDay:    s.study.NewPerDay,
		ReviewPerDay: s.study.ReviewPerDay,
	}
}

// noteBaseName derives a deck name from a note reference.
func noteBaseName(ref string) string {
	base := filepath.Base(ref)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
