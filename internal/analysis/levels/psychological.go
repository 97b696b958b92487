package levels

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"pricelevels/internal/analysis/indicators"
)

// PsychologicalLevel is one round-number level anchored on the latest close.
type PsychologicalLevel struct {
	Name   string
	Offset int
	Price  float64
}

// roundingStep picks the round-number granularity for a price tier.
func roundingStep(price float64) decimal.Decimal {
	switch {
	case price >= 100:
		return decimal.NewFromInt(10)
	case price >= 10:
		return decimal.NewFromInt(5)
	default:
		return decimal.NewFromInt(1)
	}
}

// PsychologicalLevels generates round-number levels from the latest defined close:
// the anchor plus count steps above and below it. Levels at or below zero are dropped.
// The levels are not recomputed per bar.
//
// The anchor is the close rounded to the tier step with halves rounded away from
// zero, so 105 anchors on 110 and 7.5 on 8. An infinite close yields no levels.
func PsychologicalLevels(close []float64, count int) []PsychologicalLevel {
	last, ok := indicators.Series(close).Last()
	if !ok || math.IsInf(last, 0) {
		return nil
	}

	step := roundingStep(last)
	anchor := decimal.NewFromFloat(last).Div(step).Round(0).Mul(step)

	levels := make([]PsychologicalLevel, 0, 2*count+1)
	for offset := -count; offset <= count; offset++ {
		price := anchor.Add(step.Mul(decimal.NewFromInt(int64(offset))))
		if !price.IsPositive() {
			continue
		}
		levels = append(levels, PsychologicalLevel{
			Name:   psychologicalName(offset),
			Offset: offset,
			Price:  price.InexactFloat64(),
		})
	}

	return levels
}

func psychologicalName(offset int) string {
	switch {
	case offset < 0:
		return fmt.Sprintf("psych_below_%d", -offset)
	case offset > 0:
		return fmt.Sprintf("psych_above_%d", offset)
	default:
		return "psych_anchor"
	}
}

// psychologicalSeries expands the levels to constant series of length n.
func psychologicalSeries(levels []PsychologicalLevel, n int) []indicators.NamedSeries {
	out := make([]indicators.NamedSeries, 0, len(levels))
	for _, l := range levels {
		out = append(out, indicators.NamedSeries{Name: l.Name, Values: indicators.Constant(n, l.Price)})
	}
	return out
}
