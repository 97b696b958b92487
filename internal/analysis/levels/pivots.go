package levels

import (
	"pricelevels/internal/analysis/indicators"
)

// Pivots holds the five pivot variants per bar.
//
// Standard, fibonacci, camarilla and woodie read the bar's own H/L/C; the
// fibonacci and camarilla variants share the standard formula. Only demark
// looks at the prior bar.
type Pivots struct {
	Standard  indicators.Series
	Fibonacci indicators.Series
	Camarilla indicators.Series
	Woodie    indicators.Series
	Demark    indicators.Series
}

// CalculatePivots computes the pivot variants for every bar.
func CalculatePivots(high, low, close []float64) Pivots {
	n := len(close)
	p := Pivots{
		Standard:  make(indicators.Series, n),
		Fibonacci: make(indicators.Series, n),
		Camarilla: make(indicators.Series, n),
		Woodie:    make(indicators.Series, n),
		Demark:    make(indicators.Series, n),
	}

	for i := 0; i < n; i++ {
		standard := standardPivot(high[i], low[i], close[i])
		p.Standard[i] = standard
		p.Fibonacci[i] = standard
		p.Camarilla[i] = standard
		p.Woodie[i] = woodiePivot(high[i], low[i], close[i])

		if i == 0 {
			// No prior bar: the neutral branch applies.
			p.Demark[i] = woodiePivot(high[i], low[i], close[i])
			continue
		}
		p.Demark[i] = demarkPivot(high[i], low[i], close[i], high[i-1], low[i-1], close[i-1])
	}

	return p
}

// Named returns the variants in output order.
func (p Pivots) Named() []indicators.NamedSeries {
	return []indicators.NamedSeries{
		{Name: "pivot_standard", Values: p.Standard},
		{Name: "pivot_fibonacci", Values: p.Fibonacci},
		{Name: "pivot_camarilla", Values: p.Camarilla},
		{Name: "pivot_woodie", Values: p.Woodie},
		{Name: "pivot_demark", Values: p.Demark},
	}
}

func standardPivot(high, low, close float64) float64 {
	return (high + low + close) / 3
}

func woodiePivot(high, low, close float64) float64 {
	return (high + low + 2*close) / 4
}

// demarkPivot picks the formula from where the prior close sat in the prior range.
func demarkPivot(high, low, close, prevHigh, prevLow, prevClose float64) float64 {
	if prevClose < prevLow {
		return (high + 2*low + close) / 4
	} else if prevClose > prevHigh {
		return (2*high + low + close) / 4
	}
	return (high + low + 2*close) / 4
}

// StandardPivot is the reduced form of CalculatePivots returning only the standard pivot.
func StandardPivot(high, low, close []float64) indicators.Series {
	return CalculatePivots(high, low, close).Standard
}
