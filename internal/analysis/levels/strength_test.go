package levels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricelevels/internal/analysis/indicators"
)

// rangeBoundBars descends into a 100-110 range at bar 10, tests the 100 floor
// at bars 10, 14 and 18 with a higher close after each, then drifts up.
func rangeBoundBars() (high, low, close, volume []float64) {
	for i := 0; i < 10; i++ {
		c := 120 - float64(i)
		high = append(high, c+2)
		low = append(low, c-2)
		close = append(close, c)
	}

	ranged := [][3]float64{
		{104, 100, 102},
		{108, 102, 106},
		{110, 105, 108},
		{108, 103, 104},
		{103, 100, 101},
		{107, 102, 105},
		{110, 104, 108},
		{107, 103, 104},
		{104, 100, 101},
		{106, 102, 104},
		{108, 103, 105},
	}
	for _, b := range ranged {
		high = append(high, b[0])
		low = append(low, b[1])
		close = append(close, b[2])
	}

	for i := 0; i < 9; i++ {
		c := 106 + float64(i)
		high = append(high, c+2)
		low = append(low, c-2)
		close = append(close, c)
	}

	volume = make([]float64, len(close))
	for i := range volume {
		volume[i] = 1000
	}
	return high, low, close, volume
}

func TestScoreStrength_RepeatedTouchesOfFloor(t *testing.T) {
	high, low, close, volume := rangeBoundBars()
	require.Len(t, close, 30)
	cfg := DefaultConfig()
	support := indicators.RollingMin(low, cfg.Window)
	resistance := indicators.RollingMax(high, cfg.Window)
	require.Equal(t, 100.0, support[20])

	scores := ScoreStrength(high, low, close, volume, support, resistance, cfg)

	// Three touches, three bounces, volume bonus of one.
	assert.Equal(t, 8, scores.Support[20])
	assert.GreaterOrEqual(t, scores.Support[20], 6)
	assert.Equal(t, 0, scores.VolumeConfirmation[20])
}

func TestScoreStrength_VolumeConfirmation(t *testing.T) {
	low := []float64{100, 105, 105, 105, 105}
	high := []float64{104, 109, 109, 109, 109}
	close := []float64{101, 106, 106, 106, 106}
	volume := []float64{5000, 1000, 1000, 1000, 1000}
	support := indicators.Constant(5, 100)
	resistance := indicators.NewSeries(5)
	cfg := DefaultConfig()
	cfg.StrengthLookback = 5

	scores := ScoreStrength(high, low, close, volume, support, resistance, cfg)

	// One touch, one bounce and the capped volume bonus of two.
	assert.Equal(t, 5, scores.Support[4])
	assert.Equal(t, 1, scores.Resistance[4])
	assert.Equal(t, 1, scores.VolumeConfirmation[4])
	// The touch bar alone has no following bar inside its window.
	assert.Equal(t, 1+1+1, scores.Support[0])
}

func TestScoreStrength_Bounds(t *testing.T) {
	n := 40
	flat := indicators.Constant(n, 100)
	close := make([]float64, n)
	for i := range close {
		close[i] = 100 + float64(i%2)
	}
	cfg := DefaultConfig()

	scores := ScoreStrength(flat, flat, close, nil, flat, flat, cfg)

	for i := 0; i < n; i++ {
		assert.GreaterOrEqual(t, scores.Support[i], 1)
		assert.LessOrEqual(t, scores.Support[i], 10)
		assert.LessOrEqual(t, scores.Resistance[i], 10)
		assert.Zero(t, scores.VolumeConfirmation[i])
	}
	assert.Equal(t, 10, scores.Support[n-1])
}

func TestLevelStrength_IgnoresVolume(t *testing.T) {
	high, low, close, _ := rangeBoundBars()
	cfg := DefaultConfig()
	support := indicators.RollingMin(low, cfg.Window)
	resistance := indicators.RollingMax(high, cfg.Window)

	sup, res := LevelStrength(high, low, close, support, resistance, cfg)

	assert.Equal(t, 7, sup[20])
	assert.Len(t, res, len(close))
	assert.Equal(t, 1, sup[0])
}
