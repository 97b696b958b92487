package levels

import (
	"fmt"
	"math"

	"pricelevels/internal/analysis/indicators"
)

var (
	// RetracementRatios are measured down from the rolling high and clamped into the range.
	RetracementRatios = []float64{0.236, 0.382, 0.500, 0.618, 0.786}
	// ExtensionRatios are projected above the rolling high and are not clamped.
	ExtensionRatios = []float64{1.272, 1.618, 2.618}
)

// degenerateRangeFraction is the share of the rolling high used as the range
// when the window has no high/low spread.
const degenerateRangeFraction = 0.01

// FibonacciLevels holds the rolling range and the eight ladder series.
type FibonacciLevels struct {
	RollingHigh  indicators.Series
	RollingLow   indicators.Series
	Retracements []indicators.NamedSeries
	Extensions   []indicators.NamedSeries
	// Substituted counts the bars where the degenerate-range guard applied.
	Substituted int
}

// FibonacciName returns the output name for a ratio, e.g. 0.618 -> "fib_618".
func FibonacciName(ratio float64) string {
	return fmt.Sprintf("fib_%d", int(math.Round(ratio*1000)))
}

// FibonacciNames returns all eight names in ladder order.
func FibonacciNames() []string {
	names := make([]string, 0, len(RetracementRatios)+len(ExtensionRatios))
	for _, r := range RetracementRatios {
		names = append(names, FibonacciName(r))
	}
	for _, r := range ExtensionRatios {
		names = append(names, FibonacciName(r))
	}
	return names
}

// CalculateFibonacci builds retracement and extension ladders from the rolling
// high/low over window bars. Bars before the window fills carry NoValue; empty
// input yields eight empty series.
func CalculateFibonacci(high, low []float64, window int) FibonacciLevels {
	n := len(high)
	result := FibonacciLevels{
		RollingHigh: indicators.RollingMax(high, window),
		RollingLow:  indicators.RollingMin(low, window),
	}

	retracements := make([]indicators.Series, len(RetracementRatios))
	for k := range retracements {
		retracements[k] = indicators.NewSeries(n)
	}
	extensions := make([]indicators.Series, len(ExtensionRatios))
	for k := range extensions {
		extensions[k] = indicators.NewSeries(n)
	}

	for i := 0; i < n; i++ {
		hi, lo := result.RollingHigh[i], result.RollingLow[i]
		if indicators.IsNoValue(hi) || indicators.IsNoValue(lo) {
			continue
		}

		span := hi - lo
		if span <= 0 {
			span = hi * degenerateRangeFraction
			result.Substituted++
		}

		for k, ratio := range RetracementRatios {
			retracements[k][i] = clamp(hi-ratio*span, lo, hi)
		}
		for k, ratio := range ExtensionRatios {
			extensions[k][i] = hi + ratio*span
		}
	}

	for k, ratio := range RetracementRatios {
		result.Retracements = append(result.Retracements, indicators.NamedSeries{Name: FibonacciName(ratio), Values: retracements[k]})
	}
	for k, ratio := range ExtensionRatios {
		result.Extensions = append(result.Extensions, indicators.NamedSeries{Name: FibonacciName(ratio), Values: extensions[k]})
	}

	return result
}

// Named returns the retracements followed by the extensions.
func (f FibonacciLevels) Named() []indicators.NamedSeries {
	out := make([]indicators.NamedSeries, 0, len(f.Retracements)+len(f.Extensions))
	out = append(out, f.Retracements...)
	return append(out, f.Extensions...)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
