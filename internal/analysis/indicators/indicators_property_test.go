package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: the rolling helpers agree with a naive trailing-window scan and
// stay within the window's bounds:
// - RollingMin <= RollingMean <= RollingMax
// - RollingStdDev >= 0
// - RollingSum == RollingMean * period
// - the first period-1 bars carry NoValue

func priceSliceGen(minLen, maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, gen.Float64Range(1.0, 1000.0)).Map(func(values []float64) []float64 {
		for len(values) < minLen {
			values = append(values, 100.0)
		}
		return values
	})
}

func testParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxShrinkCount = 0
	parameters.Rng.Seed(time.Now().UnixNano())
	return parameters
}

func naiveWindow(values []float64, i, period int) (lo, hi, mean float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	var total float64
	for j := i - period + 1; j <= i; j++ {
		lo = math.Min(lo, values[j])
		hi = math.Max(hi, values[j])
		total += values[j]
	}
	return lo, hi, total / float64(period)
}

func TestProperty_RollingWindowMatchesNaiveScan(t *testing.T) {
	properties := gopter.NewProperties(testParameters())

	properties.Property("rolling max/min/mean equal a trailing-window scan", prop.ForAll(
		func(values []float64, period int) bool {
			highs := RollingMax(values, period)
			lows := RollingMin(values, period)
			means := RollingMean(values, period)

			for i := range values {
				if i < period-1 {
					if highs.Defined(i) || lows.Defined(i) || means.Defined(i) {
						return false
					}
					continue
				}
				lo, hi, avg := naiveWindow(values, i, period)
				if highs[i] != hi || lows[i] != lo {
					return false
				}
				if math.Abs(means[i]-avg) > 1e-6*math.Max(1, math.Abs(avg)) {
					return false
				}
			}
			return true
		},
		priceSliceGen(30, 80),
		gen.IntRange(1, 25),
	))

	properties.TestingRun(t)
}

func TestProperty_RollingBoundsOrdering(t *testing.T) {
	properties := gopter.NewProperties(testParameters())

	properties.Property("min <= mean <= max and stddev >= 0", prop.ForAll(
		func(values []float64, period int) bool {
			highs := RollingMax(values, period)
			lows := RollingMin(values, period)
			means := RollingMean(values, period)
			std := RollingStdDev(values, period)

			for i := range values {
				if !means.Defined(i) {
					continue
				}
				tolerance := 1e-9 * highs[i]
				if means[i] < lows[i]-tolerance || means[i] > highs[i]+tolerance {
					return false
				}
				if std[i] < 0 || math.IsNaN(std[i]) {
					return false
				}
			}
			return true
		},
		priceSliceGen(30, 80),
		gen.IntRange(1, 25),
	))

	properties.TestingRun(t)
}

func TestProperty_RollingSumIsScaledMean(t *testing.T) {
	properties := gopter.NewProperties(testParameters())

	properties.Property("sum equals mean times period", prop.ForAll(
		func(values []float64, period int) bool {
			sum := RollingSum(values, period)
			mean := RollingMean(values, period)
			for i := range values {
				if sum.Defined(i) != mean.Defined(i) {
					return false
				}
				if sum.Defined(i) && math.Abs(sum[i]-mean[i]*float64(period)) > 1e-9*math.Abs(sum[i]) {
					return false
				}
			}
			return true
		},
		priceSliceGen(10, 60),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}

func TestProperty_TrueRangeNonNegative(t *testing.T) {
	properties := gopter.NewProperties(testParameters())

	properties.Property("true range is at least high - low", prop.ForAll(
		func(closes []float64) bool {
			high := make([]float64, len(closes))
			low := make([]float64, len(closes))
			for i, c := range closes {
				high[i] = c * 1.01
				low[i] = c * 0.99
			}
			tr := TrueRange(high, low, closes)
			for i := range tr {
				if tr[i] < high[i]-low[i]-1e-9 {
					return false
				}
			}
			return true
		},
		priceSliceGen(2, 60),
	))

	properties.TestingRun(t)
}
