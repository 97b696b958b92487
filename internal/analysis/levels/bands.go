package levels

import (
	"pricelevels/internal/analysis/indicators"
)

const (
	// stdFallbackFraction scales the global close stddev when a window has zero variance.
	stdFallbackFraction = 0.01
	// atrFallbackFraction scales the window stddev when ATR is zero.
	atrFallbackFraction = 0.5
	// minChannelFraction is the narrowest channel allowed, as a share of the stddev band width.
	minChannelFraction = 0.10
)

// DynamicBands holds the stddev band and the ATR channel around the rolling mean.
type DynamicBands struct {
	Middle        indicators.Series
	Resistance    indicators.Series
	Support       indicators.Series
	ATR           indicators.Series
	ATRResistance indicators.Series
	ATRSupport    indicators.Series

	// StdSubstituted and ATRSubstituted count the bars where a zero-width guard applied.
	StdSubstituted int
	ATRSubstituted int
}

// CalculateDynamicBands computes mean +/- k*stddev and mean +/- k*ATR over window bars.
//
// A window with zero stddev uses 1% of the global close stddev; zero ATR uses
// half the (possibly substituted) stddev. Both channels are re-clamped so that
// resistance >= middle >= support and the channel is at least 10% of the
// stddev band wide.
func CalculateDynamicBands(high, low, close []float64, window int, k float64) DynamicBands {
	n := len(close)
	bands := DynamicBands{
		Middle:        indicators.RollingMean(close, window),
		Resistance:    indicators.NewSeries(n),
		Support:       indicators.NewSeries(n),
		ATR:           indicators.RollingMean(indicators.TrueRange(high, low, close), window),
		ATRResistance: indicators.NewSeries(n),
		ATRSupport:    indicators.NewSeries(n),
	}

	std := indicators.RollingStdDev(close, window)
	globalStd := indicators.GlobalStdDev(close)

	for i := 0; i < n; i++ {
		mean := bands.Middle[i]
		if indicators.IsNoValue(mean) || indicators.IsNoValue(std[i]) {
			continue
		}

		sd := std[i]
		if sd <= 0 {
			sd = stdFallbackFraction * globalStd
			bands.StdSubstituted++
		}

		atr := bands.ATR[i]
		if indicators.IsNoValue(atr) || atr <= 0 {
			atr = atrFallbackFraction * sd
			bands.ATR[i] = atr
			bands.ATRSubstituted++
		}

		spread := 2 * k * sd
		bands.Resistance[i], bands.Support[i] = clampChannel(mean+k*sd, mean, mean-k*sd, spread)
		bands.ATRResistance[i], bands.ATRSupport[i] = clampChannel(mean+k*atr, mean, mean-k*atr, spread)
	}

	return bands
}

// clampChannel orders the bounds around middle and widens a channel narrower
// than minChannelFraction of spread symmetrically about middle.
func clampChannel(upper, middle, lower, spread float64) (float64, float64) {
	if upper < lower {
		upper, lower = lower, upper
	}
	if upper < middle {
		upper = middle
	}
	if lower > middle {
		lower = middle
	}

	if minWidth := minChannelFraction * spread; upper < lower+minWidth {
		upper = middle + minWidth/2
		lower = middle - minWidth/2
	}

	return upper, lower
}

// Named returns the four band levels in output order.
func (b DynamicBands) Named() []indicators.NamedSeries {
	return []indicators.NamedSeries{
		{Name: "dynamic_resistance", Values: b.Resistance},
		{Name: "dynamic_support", Values: b.Support},
		{Name: "atr_resistance", Values: b.ATRResistance},
		{Name: "atr_support", Values: b.ATRSupport},
	}
}
