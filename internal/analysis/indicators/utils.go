package indicators

import (
	"math"
	"slices"

	"github.com/markcheno/go-talib"
)

// fromTalib copies a ta-lib output into a series, marking the lookback bars as NoValue.
// ta-lib leaves zeros in the lookback region.
func fromTalib(raw []float64, period int) Series {
	out := NewSeries(len(raw))
	for i := period - 1; i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// windowFits reports whether a rolling window of period bars can be evaluated at least once.
// ta-lib indexes the first window unconditionally, so short inputs must be filtered here.
func windowFits(n, period int) bool {
	return period > 0 && n >= period
}

// RollingMax returns the highest value over the trailing period bars.
func RollingMax(values []float64, period int) Series {
	if !windowFits(len(values), period) {
		return NewSeries(len(values))
	}
	if period == 1 {
		return Series(values).Clone()
	}
	return fromTalib(talib.Max(values, period), period)
}

// RollingMin returns the lowest value over the trailing period bars.
func RollingMin(values []float64, period int) Series {
	if !windowFits(len(values), period) {
		return NewSeries(len(values))
	}
	if period == 1 {
		return Series(values).Clone()
	}
	return fromTalib(talib.Min(values, period), period)
}

// RollingMean returns the simple moving average over the trailing period bars.
func RollingMean(values []float64, period int) Series {
	if !windowFits(len(values), period) {
		return NewSeries(len(values))
	}
	return snapFlat(fromTalib(talib.Sma(values, period), period), values, period, func(v float64) float64 { return v })
}

// RollingSum returns the sum over the trailing period bars.
func RollingSum(values []float64, period int) Series {
	out := RollingMean(values, period)
	for i, v := range out {
		if !IsNoValue(v) {
			out[i] = v * float64(period)
		}
	}
	return out
}

// RollingStdDev returns the population standard deviation over the trailing period bars.
func RollingStdDev(values []float64, period int) Series {
	if !windowFits(len(values), period) {
		return NewSeries(len(values))
	}
	if period == 1 {
		return fromTalib(make([]float64, len(values)), period)
	}
	sd := fromTalib(talib.StdDev(values, period, 1.0), period)
	return snapFlat(sd, values, period, func(float64) float64 { return 0 })
}

// snapFlat overwrites the bars whose trailing window holds one repeated value with exact(value).
// ta-lib keeps running sums, so a flat window that follows a volatile one carries rounding residue.
func snapFlat(out Series, values []float64, period int, exact func(v float64) float64) Series {
	hi := RollingMax(values, period)
	lo := RollingMin(values, period)
	for i := range out {
		if !IsNoValue(out[i]) && hi[i] == lo[i] {
			out[i] = exact(hi[i])
		}
	}
	return out
}

// GlobalStdDev returns the population standard deviation of the defined values.
func GlobalStdDev(values []float64) float64 {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if !IsNoValue(v) && !math.IsInf(v, 0) {
			defined = append(defined, v)
		}
	}
	if len(defined) < 2 || slices.Min(defined) == slices.Max(defined) {
		return 0
	}
	sd := talib.StdDev(defined, len(defined), 1.0)
	return sd[len(defined)-1]
}

// TrueRange returns max(H-L, |H-prevClose|, |L-prevClose|) per bar.
// The first bar has no previous close and uses H-L.
func TrueRange(high, low, close []float64) Series {
	n := len(close)
	out := NewSeries(n)
	if n == 0 {
		return out
	}
	out[0] = high[0] - low[0]
	if n < 2 {
		return out
	}
	tr := talib.TRange(high, low, close)
	for i := 1; i < n; i++ {
		out[i] = tr[i]
	}
	return out
}

// TypicalPrice returns (H+L+C)/3 per bar.
func TypicalPrice(high, low, close []float64) Series {
	out := make(Series, len(close))
	for i := range close {
		out[i] = (high[i] + low[i] + close[i]) / 3
	}
	return out
}

// FillGaps forward-fills and then backward-fills NoValue bars.
// A series with no defined value is returned unchanged.
func FillGaps(values []float64) Series {
	out := Series(values).Clone()
	first := out.FirstDefined()
	if first < 0 {
		return out
	}
	for i := 0; i < first; i++ {
		out[i] = out[first]
	}
	for i := first + 1; i < len(out); i++ {
		if IsNoValue(out[i]) {
			out[i] = out[i-1]
		}
	}
	return out
}

// Mean returns the arithmetic mean of the defined values, or 0.
func Mean(values []float64) float64 {
	var total float64
	var count int
	for _, v := range values {
		if IsNoValue(v) {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
