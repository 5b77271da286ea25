package store

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// chunk is a half-open index range [start, end) of a snapshot.
type chunk struct {
	start int
	end   int
}

// partition splits count elements into contiguous chunks for workers.
//
// The chunk size is max(1, count/workers) and chunks are laid out from index 0
// in steps of that size, the last one clamped to count. When count is not
// evenly divisible the remainder forms one more, shorter chunk. Every index
// belongs to exactly one chunk.
func partition(count, workers int) []chunk {
	if workers < 1 {
		workers = 1
	}
	size := max(1, count/workers)

	chunks := make([]chunk, 0, count/size+1)
	for start := 0; start < count; start += size {
		chunks = append(chunks, chunk{start: start, end: min(start+size, count)})
	}
	return chunks
}

// sumInts adds numbers into an int64 accumulator.
func sumInts(numbers []int32) int64 {
	var sum int64
	for _, n := range numbers {
		sum += int64(n)
	}
	return sum
}

// SumParallel computes the count, sum and average of numbers by summing
// contiguous chunks concurrently, one goroutine per chunk.
//
// workers is the parallelism hint used to size chunks (values below 1 are
// treated as 1). numbers must not be modified while SumParallel runs; callers
// pass a snapshot. The first worker failure cancels the remaining workers and
// is returned; no partial result is produced.
func SumParallel(ctx context.Context, numbers []int32, workers int, logger *slog.Logger) (ParallelResult, error) {
	return sumParallel(ctx, numbers, workers, sumInts, logger)
}

func sumParallel(ctx context.Context, numbers []int32, workers int, summer func([]int32) int64, logger *slog.Logger) (ParallelResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	chunks := partition(len(numbers), workers)
	partials := make([]int64, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		g.Go(func() error {
			// a sibling already failed or the caller gave up
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, err := safeSum(summer, numbers[c.start:c.end], logger)
			if err != nil {
				return err
			}
			partials[i] = sum
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return ParallelResult{}, fmt.Errorf("parallel aggregation failed: %w", err)
	}

	var total int64
	for _, p := range partials {
		total += p
	}

	result := ParallelResult{
		Count: len(numbers),
		Sum:   total,
	}
	if result.Count > 0 {
		result.Average = float64(total) / float64(result.Count)
	}

	logger.Debug("parallel aggregation completed",
		"count", result.Count,
		"chunks", len(chunks),
		"workers", workers,
	)
	return result, nil
}

// safeSum runs summer with panic recovery.
// A panic is logged with its stack under a correlation ID and returned as an
// error wrapping [ErrWorkerPanic] that carries the same ID.
func safeSum(summer func([]int32) int64, part []int32, logger *slog.Logger) (sum int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()

			logger.Error("aggregation worker panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack),
			)

			sum = 0
			err = fmt.Errorf("%w (correlation_id: %s)", ErrWorkerPanic, correlationID)
		}
	}()
	return summer(part), nil
}
