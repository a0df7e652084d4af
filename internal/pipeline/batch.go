package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds RunBatch when no limit is given.
const DefaultConcurrency = 4

// RunBatch calls fn for every input with at most limit calls in flight.
// Results keep input order. Per-input failures belong in T; the returned
// error is only set when ctx ends before every input started.
func RunBatch[T any](ctx context.Context, limit int, inputs []string, logger *slog.Logger, fn func(ctx context.Context, input string) T) ([]T, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("starting batch", "total", len(inputs), "concurrency", limit)
	start := time.Now()

	results := make([]T, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, input := range inputs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			logger.Debug("processing", "input", input, "index", i+1, "total", len(inputs))
			results[i] = fn(gctx, input)
			return nil
		})
	}

	err := g.Wait()
	logger.Info("batch complete", "total", len(inputs), "elapsed", time.Since(start))
	return results, err
}
