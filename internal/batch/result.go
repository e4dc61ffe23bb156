package batch

import "sort"

// Result records how a single task settled. It is immutable once produced:
// Success implies Output is populated, failure implies Err is populated.
type Result[T any] struct {
	// TaskID ties the result back to its originating task, since settle
	// order does not match input order.
	TaskID string

	// Success discriminates the two arms of the result
	Success bool

	// Output holds the task's product when Success is true
	Output T

	// Err holds the last attempt's error when Success is false
	Err error

	// Retries is the number of retries actually consumed (attempts - 1)
	Retries int

	// SettleOrder is the 1-based sequence in which this task settled
	SettleOrder int
}

// Summary partitions a batch's results into successes and failures.
type Summary[T any] struct {
	// Outputs are the successful task outputs, in settle order
	Outputs []T

	// Failed holds the results of tasks that exhausted their retries
	Failed []Result[T]

	// SuccessRate is successes / total, 0 for an empty batch
	SuccessRate float64
}

// Partition splits results into successful outputs (in settle order) and
// failed results, and computes the batch success rate.
func Partition[T any](results []Result[T]) Summary[T] {
	ordered := make([]Result[T], len(results))
	copy(ordered, results)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SettleOrder < ordered[j].SettleOrder
	})

	summary := Summary[T]{
		Outputs: make([]T, 0, len(ordered)),
		Failed:  make([]Result[T], 0),
	}

	for _, res := range ordered {
		if res.Success {
			summary.Outputs = append(summary.Outputs, res.Output)
		} else {
			summary.Failed = append(summary.Failed, res)
		}
	}

	if len(results) > 0 {
		summary.SuccessRate = float64(len(summary.Outputs)) / float64(len(results))
	}

	return summary
}
