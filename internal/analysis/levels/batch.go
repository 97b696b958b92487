package levels

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pricelevels/internal/logging"
	"pricelevels/internal/models"
)

// BatchResult holds one ticker's outcome. Err is set when that ticker's input
// was rejected; it never aborts the other tickers.
type BatchResult struct {
	Symbol   string
	Result   *Result
	Err      error
	Duration time.Duration
}

// BatchEngine fans one-ticker computations out across a bounded worker pool.
type BatchEngine struct {
	engine  *Engine
	workers int
	logger  zerolog.Logger
}

// NewBatchEngine creates a batch engine with the specified number of workers.
func NewBatchEngine(engine *Engine, workers int, logger zerolog.Logger) *BatchEngine {
	if workers <= 0 {
		workers = 4
	}
	return &BatchEngine{
		engine:  engine,
		workers: workers,
		logger:  logger,
	}
}

// ComputeAll computes every ticker's levels in parallel. Results are sorted by
// symbol. Cancelling ctx stops scheduling further tickers and returns ctx's error.
func (b *BatchEngine) ComputeAll(ctx context.Context, inputs map[string]models.Bars) ([]BatchResult, error) {
	runID := uuid.NewString()
	logger := logging.WithRunID(b.logger, runID)

	symbols := make([]string, 0, len(inputs))
	for symbol := range inputs {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	results := make([]BatchResult, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	start := time.Now()
	for idx, symbol := range symbols {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			began := time.Now()
			result, err := b.engine.Compute(inputs[symbol])
			results[idx] = BatchResult{
				Symbol:   symbol,
				Result:   result,
				Err:      err,
				Duration: time.Since(began),
			}
			if err != nil {
				logger.Warn().Err(err).Str("symbol", symbol).Msg("Skipping ticker with invalid input")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info().
		Int("tickers", len(symbols)).
		Int("workers", b.workers).
		Dur("duration", time.Since(start)).
		Msg("Batch level computation completed")

	return results, nil
}
