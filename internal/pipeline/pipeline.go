// Package pipeline orchestrates chunked flashcard generation: it splits a
// document, fans generation calls out through the batch processor, runs a
// single compensation pass over failed chunks, and merges the results into
// one deduplicated card set.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yayaysya/sixu-recall/internal/batch"
	"github.com/yayaysya/sixu-recall/internal/config"
	"github.com/yayaysya/sixu-recall/internal/domain"
	"github.com/yayaysya/sixu-recall/internal/generation"
	"github.com/yayaysya/sixu-recall/internal/splitter"
)

// Retry budgets for the two generation passes. The compensation pass gets
// a larger budget because it is the last chance for its chunks.
const (
	firstPassRetries        = 2
	compensationPassRetries = 3
)

// fallbackSection labels cards whose chunk carries no section information.
const fallbackSection = "uncategorized"

// Pipeline generates a target number of cards from one source document.
type Pipeline struct {
	splitter  splitter.Splitter
	generator generation.Generator
	cfg       config.GenerationConfig
	logger    *slog.Logger
}

// New creates a generation pipeline.
func New(
	split splitter.Splitter,
	gen generation.Generator,
	cfg config.GenerationConfig,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		splitter:  split,
		generator: gen,
		cfg:       cfg,
		logger:    logger,
	}
}

// chunkCards pairs a chunk with the candidates one generation task produced
// for it, so merged results can be reconciled with their origin.
type chunkCards struct {
	chunk splitter.Chunk
	cards []generation.CandidateCard
}

// Generate produces up to targetCount cards from the source text.
//
// Small documents (one chunk or fewer) take the direct path: a single
// generation task against the whole text, no compensation machinery.
// Larger documents divide the target evenly across chunks, run one batch
// pass, then one compensation pass over chunks that failed, and finally
// merge, deduplicate and truncate. The result is below target when
// compensation still under-produces; there is deliberately no further
// padding loop.
func (p *Pipeline) Generate(
	ctx context.Context,
	sourceNote string,
	text string,
	targetCount int,
	reporter Reporter,
) ([]*domain.Card, error) {
	if targetCount < 1 {
		targetCount = p.cfg.DefaultCardCount
	}

	report(reporter, progressRead, "source loaded")

	chunks := p.splitter.Split(text, p.cfg.MaxChunkSize)
	if len(chunks) == 0 {
		return nil, generation.ErrEmptyText
	}
	report(reporter, progressSplit, fmt.Sprintf("split into %d chunks", len(chunks)))

	var produced []chunkCards
	var err error
	if len(chunks) == 1 {
		produced, err = p.generateSingle(ctx, chunks[0], targetCount, reporter)
	} else {
		produced, err = p.generateChunked(ctx, chunks, targetCount, reporter)
	}
	if err != nil {
		return nil, err
	}

	report(reporter, progressMerge, "merging and deduplicating cards")
	cards, err := p.mergeCandidates(produced, sourceNote, targetCount)
	if err != nil {
		return nil, err
	}

	report(reporter, progressDone, fmt.Sprintf("generated %d cards", len(cards)))
	return cards, nil
}

// generateSingle runs the whole document through one generation task.
func (p *Pipeline) generateSingle(
	ctx context.Context,
	chunk splitter.Chunk,
	targetCount int,
	reporter Reporter,
) ([]chunkCards, error) {
	tasks := p.buildTasks([]splitter.Chunk{chunk}, targetCount)

	results, err := batch.Process(ctx, tasks, p.batchOptions(firstPassRetries), func(completed, total int) {
		report(reporter, generationPercent(completed, total), "generating cards")
	})
	if err != nil {
		return nil, err
	}

	summary := batch.Partition(results)
	if len(summary.Outputs) == 0 {
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, summary.Failed[0].Err)
	}

	return summary.Outputs, nil
}

// generateChunked runs the first batch pass and, on shortfall, a single
// compensation pass over the failed chunks.
func (p *Pipeline) generateChunked(
	ctx context.Context,
	chunks []splitter.Chunk,
	targetCount int,
	reporter Reporter,
) ([]chunkCards, error) {
	perChunk := ceilDiv(targetCount, len(chunks))
	tasks := p.buildTasksWithCount(chunks, perChunk)

	results, err := batch.Process(ctx, tasks, p.batchOptions(firstPassRetries), func(completed, total int) {
		report(reporter, generationPercent(completed, total), "generating cards")
	})
	if err != nil {
		return nil, err
	}

	summary := batch.Partition(results)
	produced := summary.Outputs

	generated := 0
	for _, out := range produced {
		generated += len(out.cards)
	}

	failedChunks := p.failedChunks(chunks, results)
	if len(failedChunks) > 0 {
		remaining := targetCount - generated
		perFailed := 1
		if remaining > 0 {
			perFailed = ceilDiv(remaining, len(failedChunks))
		}

		p.logger.Info("running compensation pass",
			"failed_chunks", len(failedChunks),
			"generated_so_far", generated,
			"target", targetCount,
			"per_chunk", perFailed)
		report(reporter, progressCompensation,
			fmt.Sprintf("retrying %d failed chunks", len(failedChunks)))

		compTasks := p.buildTasksWithCount(failedChunks, perFailed)
		compResults, err := batch.Process(ctx, compTasks, p.batchOptions(compensationPassRetries), nil)
		if err != nil {
			return nil, err
		}

		compSummary := batch.Partition(compResults)
		produced = append(produced, compSummary.Outputs...)
	}

	if len(produced) == 0 {
		return nil, fmt.Errorf("%w: no chunk produced any cards", generation.ErrGenerationFailed)
	}

	return produced, nil
}

// buildTasks creates one generation task per chunk, each aiming for the
// full target count (used on the single-chunk path).
func (p *Pipeline) buildTasks(chunks []splitter.Chunk, count int) []batch.Task[chunkCards] {
	return p.buildTasksWithCount(chunks, count)
}

// buildTasksWithCount creates one generation task per chunk with a fixed
// per-chunk card count.
func (p *Pipeline) buildTasksWithCount(chunks []splitter.Chunk, count int) []batch.Task[chunkCards] {
	tasks := make([]batch.Task[chunkCards], 0, len(chunks))
	for _, chunk := range chunks {
		chunk := chunk
		tasks = append(tasks, batch.Task[chunkCards]{
			ID: fmt.Sprintf("chunk-%d", chunk.Index),
			Execute: func(ctx context.Context) (chunkCards, error) {
				cards, err := p.generator.GenerateCards(ctx, generation.CardRequest{
					Text:        chunk.Content,
					Count:       count,
					SectionHint: chunk.Title,
				})
				if err != nil {
					return chunkCards{}, err
				}
				return chunkCards{chunk: chunk, cards: cards}, nil
			},
		})
	}
	return tasks
}

// failedChunks maps failed task results back to their chunks by task ID.
func (p *Pipeline) failedChunks(chunks []splitter.Chunk, results []batch.Result[chunkCards]) []splitter.Chunk {
	byID := make(map[string]splitter.Chunk, len(chunks))
	for _, chunk := range chunks {
		byID[fmt.Sprintf("chunk-%d", chunk.Index)] = chunk
	}

	var failed []splitter.Chunk
	for _, res := range results {
		if !res.Success {
			if chunk, ok := byID[res.TaskID]; ok {
				failed = append(failed, chunk)
			}
		}
	}
	return failed
}

// mergeCandidates deduplicates candidates by exact (question, answer) match
// with first occurrence winning, truncates to the target count, and
// promotes survivors to domain cards with fresh identifiers.
func (p *Pipeline) mergeCandidates(
	produced []chunkCards,
	sourceNote string,
	targetCount int,
) ([]*domain.Card, error) {
	seen := make(map[string]struct{})
	cards := make([]*domain.Card, 0, targetCount)

	for _, out := range produced {
		for _, candidate := range out.cards {
			key := candidate.Question + "\x00" + candidate.Answer
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			section := candidate.SourceSection
			if section == "" {
				section = out.chunk.Title
			}
			if section == "" {
				section = fallbackSection
			}

			card, err := domain.NewCard(candidate.Question, candidate.Answer, sourceNote, section, candidate.Tags)
			if err != nil {
				p.logger.Warn("dropping invalid generated card", "error", err)
				continue
			}
			cards = append(cards, card)

			if len(cards) == targetCount {
				return cards, nil
			}
		}
	}

	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: all candidates were invalid", generation.ErrGenerationFailed)
	}

	return cards, nil
}

// batchOptions builds processor options for one generation pass.
func (p *Pipeline) batchOptions(retries int) batch.Options {
	return batch.Options{
		Concurrency: p.cfg.Concurrency,
		MaxRetries:  retries,
		RetryDelay:  time.Duration(p.cfg.RetryDelaySeconds) * time.Second,
		Logger:      p.logger,
	}
}

// ceilDiv returns ceil(a/b) with a floor of 1.
func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	n := (a + b - 1) / b
	if n < 1 {
		n = 1
	}
	return n
}
