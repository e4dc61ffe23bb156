// Package batch implements a bounded-concurrency task processor with
// per-task retry budgets, exponential backoff, cooperative cancellation
// and progress reporting. It is the fan-out engine behind chunked card
// generation; one failing task never aborts the others.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Common errors returned by the processor
var (
	// ErrCancelled marks tasks that were never attempted (or whose backoff
	// wait was interrupted) because the caller cancelled the batch.
	ErrCancelled = errors.New("task cancelled")

	// ErrNotStarted is returned by Process when the context is already
	// cancelled before any task is admitted.
	ErrNotStarted = errors.New("batch cancelled before starting")
)

// Default processing parameters
const (
	DefaultConcurrency = 5
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = time.Second
)

// Task is one unit of asynchronous work. Tasks are ephemeral: they exist
// only for the duration of a Process call and settle into exactly one Result.
type Task[T any] struct {
	// ID identifies the task in results and logs
	ID string

	// Execute runs the task's work. It must honor ctx cancellation.
	Execute func(ctx context.Context) (T, error)

	// MaxRetries overrides the batch-wide attempt budget when > 0
	MaxRetries int
}

// Options configures a Process call.
type Options struct {
	// Concurrency is the ceiling on simultaneously in-flight tasks.
	// Defaults to DefaultConcurrency.
	Concurrency int

	// MaxRetries is the per-task attempt budget unless a task overrides it.
	// Defaults to DefaultMaxRetries.
	MaxRetries int

	// RetryDelay is the base backoff delay; attempt n waits
	// RetryDelay * 2^(n-1) before retrying. Defaults to DefaultRetryDelay.
	RetryDelay time.Duration

	// BatchSize, when > 0, groups tasks into fixed-size batches with a full
	// barrier between groups instead of the default sliding window.
	BatchSize int

	// Logger for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// ProgressFunc is invoked with (completed, total) after each task settles.
// It is advisory only; panics inside it are recovered and logged so they
// cannot corrupt the processor's bookkeeping.
type ProgressFunc func(completed, total int)

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Process executes the given tasks with a sliding-window concurrency limit
// and returns one Result per input task, aligned with input order.
//
// Admission follows input order; completion order is unspecified (each
// Result carries its settle sequence in SettleOrder). Cancellation is
// cooperative: the context is polled before every attempt, in-flight
// attempts run to completion, and unstarted tasks settle as failures
// wrapping ErrCancelled. Process itself fails only when the context is
// already cancelled before any task starts.
func Process[T any](
	ctx context.Context,
	tasks []Task[T],
	opts Options,
	onProgress ProgressFunc,
) ([]Result[T], error) {
	opts = opts.withDefaults()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotStarted, err)
	}

	if len(tasks) == 0 {
		return []Result[T]{}, nil
	}

	opts.Logger.Debug("starting batch",
		"task_count", len(tasks),
		"concurrency", opts.Concurrency,
		"max_retries", opts.MaxRetries,
		"batch_size", opts.BatchSize)

	results := make([]Result[T], len(tasks))

	tracker := &progressTracker{
		total:      len(tasks),
		onProgress: onProgress,
		logger:     opts.Logger,
	}

	if opts.BatchSize > 0 {
		for start := 0; start < len(tasks); start += opts.BatchSize {
			end := start + opts.BatchSize
			if end > len(tasks) {
				end = len(tasks)
			}
			runWindow(ctx, tasks[start:end], results[start:end], opts, tracker)
		}
	} else {
		runWindow(ctx, tasks, results, opts, tracker)
	}

	return results, nil
}

// runWindow runs one group of tasks through the sliding window and blocks
// until every task in the group has settled.
func runWindow[T any](
	ctx context.Context,
	tasks []Task[T],
	results []Result[T],
	opts Options,
	tracker *progressTracker,
) {
	sem := make(chan struct{}, opts.Concurrency)
	var wg sync.WaitGroup

	for i := range tasks {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			res := runTask(ctx, tasks[i], opts)
			res.SettleOrder = tracker.settle()
			results[i] = res
			tracker.report()
		}(i)
	}

	wg.Wait()
}

// runTask executes a single task with retries and exponential backoff.
func runTask[T any](ctx context.Context, task Task[T], opts Options) Result[T] {
	maxAttempts := task.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = opts.MaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Poll for cancellation before every attempt
		if err := ctx.Err(); err != nil {
			return failure[T](task.ID, fmt.Errorf("%w: %v", ErrCancelled, err), attempt-1)
		}

		output, err := task.Execute(ctx)
		if err == nil {
			return Result[T]{
				TaskID:  task.ID,
				Success: true,
				Output:  output,
				Retries: attempt - 1,
			}
		}
		lastErr = err

		opts.Logger.Warn("task attempt failed",
			"task_id", task.ID,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err)

		if attempt == maxAttempts {
			break
		}

		// delay = RetryDelay * 2^(attempt-1)
		delay := opts.RetryDelay * time.Duration(1<<(attempt-1))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return failure[T](task.ID, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err()), attempt)
		}
	}

	return failure[T](task.ID, lastErr, maxAttempts-1)
}

func failure[T any](taskID string, err error, retries int) Result[T] {
	return Result[T]{
		TaskID:  taskID,
		Success: false,
		Err:     err,
		Retries: retries,
	}
}

// progressTracker serializes settle counting and shields the processor from
// misbehaving progress callbacks.
type progressTracker struct {
	mu         sync.Mutex
	completed  int
	total      int
	onProgress ProgressFunc
	logger     *slog.Logger
}

// settle records one settled task and returns its settle sequence (1-based).
func (t *progressTracker) settle() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
	return t.completed
}

// report invokes the progress callback with the current counts.
func (t *progressTracker) report() {
	if t.onProgress == nil {
		return
	}

	t.mu.Lock()
	completed := t.completed
	t.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("progress callback panicked", "panic", r)
		}
	}()
	t.onProgress(completed, t.total)
}
