package levels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSwings_FlagsCentralPeak(t *testing.T) {
	high := []float64{10, 10, 10, 10, 10, 20, 10, 10, 10, 10, 10}
	low := []float64{9, 9, 9, 9, 9, 19, 9, 9, 9, 9, 9}

	swings := DetectSwings(high, low, 5, 0.02)

	require.Len(t, swings.IsHigh, len(high))
	assert.True(t, swings.IsHigh[5])
	assert.False(t, swings.IsLow[5])
	assert.InDelta(t, 1.0, swings.Strength[5], 1e-12)
	for i := range high {
		if i != 5 {
			assert.False(t, swings.IsHigh[i], "bar %d", i)
		}
	}
}

func TestDetectSwings_FlagsTrough(t *testing.T) {
	high := []float64{11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11}
	low := []float64{10, 10, 10, 10, 10, 5, 10, 10, 10, 10, 10}

	swings := DetectSwings(high, low, 5, 0.02)

	assert.True(t, swings.IsLow[5])
	assert.InDelta(t, 0.5, swings.Strength[5], 1e-12)
}

func TestDetectSwings_NeverFlagsBoundaryBars(t *testing.T) {
	high := []float64{10, 30, 10, 10, 10, 10, 10, 10, 10, 25, 10}
	low := []float64{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 1}

	swings := DetectSwings(high, low, 5, 0)

	for i := range high {
		assert.False(t, swings.IsHigh[i], "bar %d", i)
		if i != 5 {
			assert.False(t, swings.IsLow[i], "bar %d", i)
		}
	}
}

func TestDetectSwings_ShortSeriesYieldsNothing(t *testing.T) {
	high := []float64{1, 5, 1}
	low := []float64{0.5, 4, 0.5}

	swings := DetectSwings(high, low, 5, 0)

	assert.Equal(t, []bool{false, false, false}, swings.IsHigh)
	assert.Equal(t, []bool{false, false, false}, swings.IsLow)
}

func TestDetectSwings_WeakCandidateFiltered(t *testing.T) {
	high := []float64{10, 10, 10, 10, 10, 10.1, 10, 10, 10, 10, 10}
	low := []float64{9, 9, 9, 9, 9, 9.5, 9, 9, 9, 9, 9}

	swings := DetectSwings(high, low, 5, 0.02)
	assert.False(t, swings.IsHigh[5])

	swings = DetectSwings(high, low, 5, 0.005)
	assert.True(t, swings.IsHigh[5])
}

func TestSwingFlags_MatchesDetector(t *testing.T) {
	bars := barsFromCloses(waveCloses(60, 100), 1, 1000)
	cfg := DefaultConfig()

	highs, lows := SwingFlags(bars.High, bars.Low, cfg)
	full := DetectSwings(bars.High, bars.Low, cfg.SwingWindow, cfg.MinSwingStrength)

	assert.Equal(t, full.IsHigh, highs)
	assert.Equal(t, full.IsLow, lows)
}
