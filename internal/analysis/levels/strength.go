package levels

import (
	"math"

	"pricelevels/internal/analysis"
	"pricelevels/internal/analysis/indicators"
)

const (
	minStrength = 1
	maxStrength = 10
)

// StrengthScores holds the bounded integer strength of the support and
// resistance level at each bar plus the volume-confirmation flag.
type StrengthScores struct {
	Support            []int
	Resistance         []int
	VolumeConfirmation []int
}

// levelTest is the outcome of scanning one lookback window against one level.
type levelTest struct {
	touches     int
	bounces     int
	volumeBonus float64
}

// strength folds touches, bounces and the volume bonus into [1, 10].
func (t levelTest) strength() int {
	score := math.Min(maxStrength, float64(minStrength+t.touches+t.bounces)+t.volumeBonus)
	return int(score)
}

// ScoreStrength scores every bar's support and resistance level by scanning the
// trailing cfg.StrengthLookback bars.
//
// A touch is a bar whose low (high for resistance) lies within
// cfg.TouchTolerance of the level; a bounce is a touch whose next bar, still
// inside the window, closes back away from the level. The volume bonus is the
// ratio of the mean volume on touch bars to the mean window volume, capped at
// cfg.VolumeBonusCap. Volume may be nil. Cost is O(lookback) per bar.
func ScoreStrength(high, low, close, volume []float64, support, resistance indicators.Series, cfg Config) StrengthScores {
	n := len(close)
	scores := StrengthScores{
		Support:            make([]int, n),
		Resistance:         make([]int, n),
		VolumeConfirmation: make([]int, n),
	}

	for i := 0; i < n; i++ {
		start := i - cfg.StrengthLookback + 1
		if start < 0 {
			start = 0
		}

		sup := testLevel(low, close, volume, support[i], start, i, analysis.LevelSupport, cfg)
		res := testLevel(high, close, volume, resistance[i], start, i, analysis.LevelResistance, cfg)

		scores.Support[i] = sup.strength()
		scores.Resistance[i] = res.strength()
		if math.Max(sup.volumeBonus, res.volumeBonus) > cfg.VolumeConfirmThreshold {
			scores.VolumeConfirmation[i] = 1
		}
	}

	return scores
}

// testLevel counts touches and bounces of prices against level over bars [start, end].
func testLevel(prices, close, volume []float64, level float64, start, end int, side analysis.LevelType, cfg Config) levelTest {
	var t levelTest
	if indicators.IsNoValue(level) || level <= 0 {
		return t
	}

	var touchVolume, windowVolume float64
	for j := start; j <= end; j++ {
		if volume != nil && !math.IsNaN(volume[j]) {
			windowVolume += volume[j]
		}
		if math.IsNaN(prices[j]) || math.Abs(prices[j]-level)/level >= cfg.TouchTolerance {
			continue
		}

		t.touches++
		if volume != nil && !math.IsNaN(volume[j]) {
			touchVolume += volume[j]
		}
		if j < end && reverses(close[j], close[j+1], side) {
			t.bounces++
		}
	}

	windowAvg := windowVolume / float64(end-start+1)
	if t.touches > 0 && windowAvg > 0 {
		touchAvg := touchVolume / float64(t.touches)
		t.volumeBonus = math.Min(cfg.VolumeBonusCap, touchAvg/windowAvg)
	}

	return t
}

// reverses reports whether price moved away from the level on the next bar.
func reverses(current, next float64, side analysis.LevelType) bool {
	if side == analysis.LevelSupport {
		return next > current
	}
	return next < current
}

// LevelStrength is the reduced form of ScoreStrength without volume confirmation.
func LevelStrength(high, low, close []float64, support, resistance indicators.Series, cfg Config) (supportStrength, resistanceStrength []int) {
	scores := ScoreStrength(high, low, close, nil, support, resistance, cfg)
	return scores.Support, scores.Resistance
}

func intSeries(values []int) indicators.Series {
	out := make(indicators.Series, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
