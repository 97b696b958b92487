package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pricelevels/internal/errors"
	"pricelevels/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "bars.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// Property: for any valid bars, saving them and reading them back yields the
// same bars, including bars without volume.
func TestProperty_CandleRoundTripConsistency(t *testing.T) {
	store := newTestStore(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"AAPL", "MSFT", "NVDA", "SPY", "QQQ", "IBM", "BTCUSD", "EURUSD"}
	timeframeGen := gen.OneConstOf("1min", "5min", "1hour", "1day")
	countGen := gen.IntRange(1, 20)
	priceGen := gen.Float64Range(1.0, 5000.0)
	volumeGen := gen.Float64Range(0, 1000000)

	run := 0
	properties.Property("Candle round-trip: save then retrieve produces equivalent data", prop.ForAll(
		func(symbolIdx int, timeframe string, count int, basePrice, baseVolume float64, withVolume bool) bool {
			ctx := context.Background()
			run++
			uniqueSymbol := fmt.Sprintf("%s_%d", symbols[symbolIdx%len(symbols)], run)

			candles := generateTestCandles(count, basePrice, baseVolume, withVolume)

			if err := store.SaveCandles(ctx, uniqueSymbol, timeframe, candles); err != nil {
				t.Logf("Failed to save candles: %v", err)
				return false
			}

			from := candles[0].Timestamp.Add(-time.Second)
			to := candles[len(candles)-1].Timestamp.Add(time.Second)
			retrieved, err := store.GetCandles(ctx, uniqueSymbol, timeframe, from, to)
			if err != nil {
				t.Logf("Failed to get candles: %v", err)
				return false
			}

			if len(retrieved) != len(candles) {
				t.Logf("Count mismatch: expected %d, got %d", len(candles), len(retrieved))
				return false
			}
			for i, orig := range candles {
				if !candlesEqual(orig, retrieved[i]) {
					t.Logf("Candle mismatch at index %d: original=%+v, retrieved=%+v", i, orig, retrieved[i])
					return false
				}
			}
			return true
		},
		gen.IntRange(0, len(symbols)-1),
		timeframeGen,
		countGen,
		priceGen,
		volumeGen,
		gen.Bool(),
	))

	properties.Property("Empty candles: saving empty slice should succeed", prop.ForAll(
		func(timeframe string) bool {
			return store.SaveCandles(context.Background(), "EMPTY", timeframe, []models.Candle{}) == nil
		},
		timeframeGen,
	))

	properties.TestingRun(t)
}

func TestSQLiteStore_ReplacesSameTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	candles := generateTestCandles(3, 100, 1000, true)

	require.NoError(t, store.SaveCandles(ctx, "AAPL", DefaultTimeframe, candles))
	candles[1].Close = 999
	require.NoError(t, store.SaveCandles(ctx, "AAPL", DefaultTimeframe, candles[1:2]))

	got, err := store.GetCandles(ctx, "AAPL", DefaultTimeframe, candles[0].Timestamp, candles[2].Timestamp)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 999.0, got[1].Close)
}

func TestSQLiteStore_ListSymbolsAndFreshness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	candles := generateTestCandles(5, 50, 10, false)

	require.NoError(t, store.SaveCandles(ctx, "MSFT", DefaultTimeframe, candles))
	require.NoError(t, store.SaveCandles(ctx, "AAPL", DefaultTimeframe, candles))
	require.NoError(t, store.SaveCandles(ctx, "SPY", "1hour", candles))

	symbols, err := store.ListSymbols(ctx, DefaultTimeframe)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)

	latest, err := store.GetCandlesFreshness(ctx, "AAPL", DefaultTimeframe)
	require.NoError(t, err)
	assert.True(t, latest.Equal(candles[4].Timestamp), "got %v", latest)

	none, err := store.GetCandlesFreshness(ctx, "NONE", DefaultTimeframe)
	require.NoError(t, err)
	assert.True(t, none.IsZero())
}

func TestLoadBars(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveCandles(ctx, "IBM", DefaultTimeframe, generateTestCandles(4, 120, 0, false)))

	bars, err := LoadBars(ctx, store, "IBM", DefaultTimeframe, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 4, bars.Len())
	assert.False(t, bars.HasVolume())

	_, err = LoadBars(ctx, store, "MISSING", DefaultTimeframe, time.Time{}, time.Time{})
	assert.True(t, errors.Is(err, apperrors.ErrDataNotFound))
}

// generateTestCandles creates valid candles for testing.
func generateTestCandles(count int, basePrice, baseVolume float64, withVolume bool) []models.Candle {
	candles := make([]models.Candle, count)
	baseTime := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	for i := 0; i < count; i++ {
		variation := float64(i%10) * 0.01 * basePrice
		close := basePrice + variation*0.5

		volume := math.NaN()
		if withVolume {
			volume = roundToDecimal(baseVolume+float64(i*1000), 2)
		}

		candles[i] = models.Candle{
			Timestamp: baseTime.Add(time.Duration(i) * time.Minute),
			High:      roundToDecimal(close*1.01, 2),
			Low:       roundToDecimal(close*0.99, 2),
			Close:     roundToDecimal(close, 2),
			Volume:    volume,
		}
	}

	return candles
}

// roundToDecimal rounds a float to specified decimal places
func roundToDecimal(val float64, places int) float64 {
	multiplier := math.Pow(10, float64(places))
	return math.Round(val*multiplier) / multiplier
}

// candlesEqual compares two candles for equality with floating point tolerance.
func candlesEqual(a, b models.Candle) bool {
	const tolerance = 0.01

	if !a.Timestamp.Equal(b.Timestamp) {
		return false
	}
	if !floatEqual(a.High, b.High, tolerance) || !floatEqual(a.Low, b.Low, tolerance) || !floatEqual(a.Close, b.Close, tolerance) {
		return false
	}
	if a.HasVolume() != b.HasVolume() {
		return false
	}
	return !a.HasVolume() || floatEqual(a.Volume, b.Volume, tolerance)
}

// floatEqual compares two floats with a tolerance.
func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestIsBusy(t *testing.T) {
	assert.True(t, IsBusy(fmt.Errorf("failed to insert candle: %w", sqlite3.Error{Code: sqlite3.ErrBusy})))
	assert.True(t, IsBusy(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.False(t, IsBusy(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.False(t, IsBusy(errors.New("other")))
}
