package levels

import (
	"fmt"

	"pricelevels/internal/analysis/indicators"
)

// traditionalTiers is the number of resistance/support tiers; tier k spans k windows.
const traditionalTiers = 3

// TraditionalLevels holds the rolling-extreme support and resistance levels.
type TraditionalLevels struct {
	Resistance [traditionalTiers]indicators.Series
	Support    [traditionalTiers]indicators.Series
	SwingHighs []indicators.NamedSeries
	SwingLows  []indicators.NamedSeries
	WeekHigh   indicators.Series
	WeekLow    indicators.Series
	MonthHigh  indicators.Series
	MonthLow   indicators.Series
}

// CalculateTraditional computes resistance_k/support_k as the rolling high/low
// over k*cfg.Window bars, the swing extremes over each horizon and the
// week/month extremes.
func CalculateTraditional(high, low []float64, cfg Config) TraditionalLevels {
	var t TraditionalLevels
	for k := 0; k < traditionalTiers; k++ {
		span := cfg.Window * (k + 1)
		t.Resistance[k] = indicators.RollingMax(high, span)
		t.Support[k] = indicators.RollingMin(low, span)
	}

	for _, h := range cfg.SwingHorizons {
		t.SwingHighs = append(t.SwingHighs, indicators.NamedSeries{
			Name:   fmt.Sprintf("swing_high_%d", h),
			Values: indicators.RollingMax(high, h),
		})
		t.SwingLows = append(t.SwingLows, indicators.NamedSeries{
			Name:   fmt.Sprintf("swing_low_%d", h),
			Values: indicators.RollingMin(low, h),
		})
	}

	t.WeekHigh = indicators.RollingMax(high, cfg.WeekBars)
	t.WeekLow = indicators.RollingMin(low, cfg.WeekBars)
	t.MonthHigh = indicators.RollingMax(high, cfg.MonthBars)
	t.MonthLow = indicators.RollingMin(low, cfg.MonthBars)

	return t
}

// Named returns every traditional series with its output name.
func (t TraditionalLevels) Named() []indicators.NamedSeries {
	out := make([]indicators.NamedSeries, 0, 2*traditionalTiers+len(t.SwingHighs)+len(t.SwingLows)+4)
	for k := 0; k < traditionalTiers; k++ {
		out = append(out,
			indicators.NamedSeries{Name: fmt.Sprintf("resistance_%d", k+1), Values: t.Resistance[k]},
			indicators.NamedSeries{Name: fmt.Sprintf("support_%d", k+1), Values: t.Support[k]},
		)
	}
	out = append(out, t.SwingHighs...)
	out = append(out, t.SwingLows...)
	return append(out,
		indicators.NamedSeries{Name: "week_high", Values: t.WeekHigh},
		indicators.NamedSeries{Name: "week_low", Values: t.WeekLow},
		indicators.NamedSeries{Name: "month_high", Values: t.MonthHigh},
		indicators.NamedSeries{Name: "month_low", Values: t.MonthLow},
	)
}
