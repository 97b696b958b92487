package levels

import (
	"math"
	"time"

	"pricelevels/internal/analysis/indicators"
	"pricelevels/internal/models"
)

// barsFromCloses builds bars with high/low spread around each close and constant volume.
func barsFromCloses(closes []float64, spread, volume float64) models.Bars {
	n := len(closes)
	bars := models.Bars{
		Timestamps: make([]time.Time, n),
		High:       make([]float64, n),
		Low:        make([]float64, n),
		Close:      make([]float64, n),
		Volume:     make([]float64, n),
	}
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars.Timestamps[i] = t0.AddDate(0, 0, i)
		bars.High[i] = c + spread
		bars.Low[i] = c - spread
		bars.Close[i] = c
		bars.Volume[i] = volume
	}
	return bars
}

// constantBars returns n bars with high = low = close = price.
func constantBars(n int, price, volume float64) models.Bars {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return barsFromCloses(closes, 0, volume)
}

// waveCloses returns a deterministic oscillating close series.
func waveCloses(n int, base float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = base + 8*math.Sin(float64(i)/3) + float64(i%7)
	}
	return out
}

func nan() float64 {
	return math.NaN()
}

// sameBits compares two series bit for bit, so NoValue bars compare equal.
func sameBits(a, b indicators.Series) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}
