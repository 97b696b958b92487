package levels

import (
	"pricelevels/internal/analysis"
	"pricelevels/internal/analysis/indicators"
)

// FusionInput carries every level source the resolver merges.
type FusionInput struct {
	Close         []float64
	Support       indicators.Series
	Resistance    indicators.Series
	Fibonacci     []indicators.NamedSeries
	Psychological []PsychologicalLevel
}

// NearestLevels is the per-bar nearest support and resistance with provenance.
// Sides without any candidate hold NoValue and SourceNone.
type NearestLevels struct {
	Support          indicators.Series
	Resistance       indicators.Series
	SupportSource    []analysis.LevelSource
	ResistanceSource []analysis.LevelSource
	// LevelType is the source of whichever nearest level sits closer to the close.
	LevelType []analysis.LevelSource
}

// candidate is a transient (source, price) pair considered for one bar.
type candidate struct {
	source analysis.LevelSource
	price  float64
}

// ResolveNearest picks, for every bar, the closest candidate below and above the close.
//
// Candidates are enumerated traditional, then fibonacci, then psychological, and
// on equal distance the first one enumerated wins. A candidate equal to the
// close is neither support nor resistance.
//
// Fibonacci and psychological candidates are split by side the same way, but each
// keeps its own provenance: a psychological winner is tagged psych_support or
// psych_resistance rather than folded into the fib_* tags.
func ResolveNearest(in FusionInput) NearestLevels {
	n := len(in.Close)
	out := NearestLevels{
		Support:          indicators.NewSeries(n),
		Resistance:       indicators.NewSeries(n),
		SupportSource:    make([]analysis.LevelSource, n),
		ResistanceSource: make([]analysis.LevelSource, n),
		LevelType:        make([]analysis.LevelSource, n),
	}

	candidates := make([]candidate, 0, 2+len(in.Fibonacci)+len(in.Psychological))
	for i := 0; i < n; i++ {
		price := in.Close[i]
		if indicators.IsNoValue(price) {
			continue
		}

		candidates = appendCandidates(candidates[:0], in, i, price)

		bestBelow, bestAbove := -1, -1
		for k, c := range candidates {
			switch {
			case c.price < price:
				if bestBelow < 0 || price-c.price < price-candidates[bestBelow].price {
					bestBelow = k
				}
			case c.price > price:
				if bestAbove < 0 || c.price-price < candidates[bestAbove].price-price {
					bestAbove = k
				}
			}
		}

		if bestBelow >= 0 {
			out.Support[i] = candidates[bestBelow].price
			out.SupportSource[i] = candidates[bestBelow].source
		}
		if bestAbove >= 0 {
			out.Resistance[i] = candidates[bestAbove].price
			out.ResistanceSource[i] = candidates[bestAbove].source
		}
		out.LevelType[i] = closerSource(price, out, i)
	}

	return out
}

// appendCandidates enumerates bar i's candidates in the fixed tie-break order.
func appendCandidates(dst []candidate, in FusionInput, i int, price float64) []candidate {
	if in.Support != nil && in.Support.Defined(i) {
		dst = append(dst, candidate{source: analysis.SourceSupport, price: in.Support[i]})
	}
	if in.Resistance != nil && in.Resistance.Defined(i) {
		dst = append(dst, candidate{source: analysis.SourceResistance, price: in.Resistance[i]})
	}

	for _, fib := range in.Fibonacci {
		if !fib.Values.Defined(i) {
			continue
		}
		v := fib.Values[i]
		source := analysis.SourceFibResistance
		if v < price {
			source = analysis.SourceFibSupport
		}
		dst = append(dst, candidate{source: source, price: v})
	}

	for _, psych := range in.Psychological {
		source := analysis.SourcePsychResistance
		if psych.Price < price {
			source = analysis.SourcePsychSupport
		}
		dst = append(dst, candidate{source: source, price: psych.Price})
	}

	return dst
}

// closerSource returns the provenance of the nearer side; support wins ties.
func closerSource(price float64, out NearestLevels, i int) analysis.LevelSource {
	hasSupport := out.Support.Defined(i)
	hasResistance := out.Resistance.Defined(i)
	switch {
	case hasSupport && hasResistance:
		if out.Resistance[i]-price < price-out.Support[i] {
			return out.ResistanceSource[i]
		}
		return out.SupportSource[i]
	case hasSupport:
		return out.SupportSource[i]
	case hasResistance:
		return out.ResistanceSource[i]
	}
	return analysis.SourceNone
}

// NearestPrices is the reduced form of ResolveNearest returning only the prices.
func NearestPrices(in FusionInput) (support, resistance indicators.Series) {
	nearest := ResolveNearest(in)
	return nearest.Support, nearest.Resistance
}
