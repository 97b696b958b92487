// Package models provides domain models for the price-level engine.
package models

import (
	"math"
	"time"
)

// Candle represents one price bar. Volume is NaN when the source has no volume.
type Candle struct {
	Timestamp time.Time
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// HasVolume reports whether the candle carries a volume figure.
func (c Candle) HasVolume() bool {
	return !math.IsNaN(c.Volume)
}

// Bars is the struct-of-arrays form consumed by the level engine.
// All slices are aligned and ordered ascending by time. Volume is nil when
// no volume was supplied.
type Bars struct {
	Timestamps []time.Time
	High       []float64
	Low        []float64
	Close      []float64
	Volume     []float64
}

// Len returns the number of bars (the length of the close series).
func (b Bars) Len() int {
	return len(b.Close)
}

// HasVolume reports whether a volume series was supplied.
func (b Bars) HasVolume() bool {
	return b.Volume != nil
}

// BarsFromCandles converts candles to Bars. The volume series is kept only if
// at least one candle carries volume; missing volumes become zero.
func BarsFromCandles(candles []Candle) Bars {
	n := len(candles)
	bars := Bars{
		Timestamps: make([]time.Time, n),
		High:       make([]float64, n),
		Low:        make([]float64, n),
		Close:      make([]float64, n),
	}

	withVolume := false
	for _, c := range candles {
		if c.HasVolume() {
			withVolume = true
			break
		}
	}
	if withVolume {
		bars.Volume = make([]float64, n)
	}

	for i, c := range candles {
		bars.Timestamps[i] = c.Timestamp
		bars.High[i] = c.High
		bars.Low[i] = c.Low
		bars.Close[i] = c.Close
		if withVolume && c.HasVolume() {
			bars.Volume[i] = c.Volume
		}
	}

	return bars
}

// Latest returns the last candle and false when there are none.
func Latest(candles []Candle) (Candle, bool) {
	if len(candles) == 0 {
		return Candle{}, false
	}
	return candles[len(candles)-1], true
}
