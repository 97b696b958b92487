// Package store provides bar persistence feeding the level engine.
package store

import (
	"context"
	"time"

	apperrors "pricelevels/internal/errors"
	"pricelevels/internal/models"
)

// DefaultTimeframe is used when bars are imported without a timeframe.
const DefaultTimeframe = "1day"

// CandleStore defines the interface for bar persistence.
type CandleStore interface {
	SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error)
	GetCandlesFreshness(ctx context.Context, symbol, timeframe string) (time.Time, error)
	ListSymbols(ctx context.Context, timeframe string) ([]string, error)

	// Lifecycle
	Close() error
}

// LoadBars reads a symbol's candles in [from, to] and converts them for the
// engine. A zero to means no upper bound. No stored bars is ErrDataNotFound.
func LoadBars(ctx context.Context, s CandleStore, symbol, timeframe string, from, to time.Time) (models.Bars, error) {
	if to.IsZero() {
		to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	candles, err := s.GetCandles(ctx, symbol, timeframe, from, to)
	if err != nil {
		return models.Bars{}, err
	}
	if len(candles) == 0 {
		return models.Bars{}, apperrors.NewDataError("candles", symbol, "no bars stored for "+timeframe, apperrors.ErrDataNotFound)
	}
	return models.BarsFromCandles(candles), nil
}
