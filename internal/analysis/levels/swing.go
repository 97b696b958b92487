package levels

import (
	"pricelevels/internal/analysis/indicators"
)

// SwingPoints holds the per-bar swing flags and the strength of each flagged bar.
// Strength is zero for bars that are not swings.
type SwingPoints struct {
	IsHigh   []bool
	IsLow    []bool
	Strength indicators.Series
}

// DetectSwings flags local extrema using a symmetric window of bars on each side.
//
// Bar i is a swing high when high[i] is >= every high in [i-window, i-1] and
// [i+1, i+window], and its strength (high[i] - mean)/mean over those 2*window
// neighbours reaches minStrength. Swing lows mirror the rule on low. Bars within
// window of either edge are never flagged.
func DetectSwings(high, low []float64, window int, minStrength float64) SwingPoints {
	n := len(high)
	result := SwingPoints{
		IsHigh:   make([]bool, n),
		IsLow:    make([]bool, n),
		Strength: make(indicators.Series, n),
	}
	if window < 1 || n < 2*window+1 {
		return result
	}

	for i := window; i < n-window; i++ {
		if strength, ok := swingHighStrength(high, i, window); ok && strength >= minStrength {
			result.IsHigh[i] = true
			result.Strength[i] = strength
		}
		if strength, ok := swingLowStrength(low, i, window); ok && strength >= minStrength {
			result.IsLow[i] = true
			if strength > result.Strength[i] {
				result.Strength[i] = strength
			}
		}
	}

	return result
}

// swingHighStrength returns the relative height of high[i] above its neighbours,
// and false when bar i is not the window maximum.
func swingHighStrength(high []float64, i, window int) (float64, bool) {
	var total float64
	for j := 1; j <= window; j++ {
		if high[i] < high[i-j] || high[i] < high[i+j] {
			return 0, false
		}
		total += high[i-j] + high[i+j]
	}
	mean := total / float64(2*window)
	if mean == 0 {
		return 0, false
	}
	return (high[i] - mean) / mean, true
}

// swingLowStrength mirrors swingHighStrength for lows.
func swingLowStrength(low []float64, i, window int) (float64, bool) {
	var total float64
	for j := 1; j <= window; j++ {
		if low[i] > low[i-j] || low[i] > low[i+j] {
			return 0, false
		}
		total += low[i-j] + low[i+j]
	}
	mean := total / float64(2*window)
	if mean == 0 {
		return 0, false
	}
	return (mean - low[i]) / mean, true
}

// SwingFlags is the reduced form of DetectSwings returning only the flags.
func SwingFlags(high, low []float64, cfg Config) (highs, lows []bool) {
	swings := DetectSwings(high, low, cfg.SwingWindow, cfg.MinSwingStrength)
	return swings.IsHigh, swings.IsLow
}

// boolSeries converts flags to a 0/1 series.
func boolSeries(flags []bool) indicators.Series {
	out := make(indicators.Series, len(flags))
	for i, f := range flags {
		if f {
			out[i] = 1
		}
	}
	return out
}
