// Package indicators provides the series primitives shared by the level calculators:
// an aligned float series with a "no value" marker and rolling window statistics.
package indicators

import (
	"iter"
	"math"
)

// NoValue marks a bar whose value is not yet defined (e.g. the window has not filled).
var NoValue = math.NaN()

// IsNoValue reports whether v is the "no value" marker.
func IsNoValue(v float64) bool {
	return math.IsNaN(v)
}

// Series is a named level sequence aligned 1:1 with the input bars.
type Series []float64

// NewSeries returns a series of length n where every bar is NoValue.
func NewSeries(n int) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = NoValue
	}
	return s
}

// Constant returns a series of length n holding v at every bar.
func Constant(n int, v float64) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// Len returns the number of bars.
func (s Series) Len() int {
	return len(s)
}

// Defined reports whether bar i carries a value.
func (s Series) Defined(i int) bool {
	return i >= 0 && i < len(s) && !IsNoValue(s[i])
}

// All yields every (index, value) pair including NoValue bars.
func (s Series) All() iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		for i, v := range s {
			if !yield(i, v) {
				return
			}
		}
	}
}

// DefinedValues yields only the bars that carry a value.
func (s Series) DefinedValues() iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		for i, v := range s {
			if IsNoValue(v) {
				continue
			}
			if !yield(i, v) {
				return
			}
		}
	}
}

// Last returns the last defined value.
func (s Series) Last() (float64, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if !IsNoValue(s[i]) {
			return s[i], true
		}
	}
	return 0, false
}

// FirstDefined returns the index of the first defined bar, or -1.
func (s Series) FirstDefined() int {
	for i, v := range s {
		if !IsNoValue(v) {
			return i
		}
	}
	return -1
}

// Clone returns an independent copy.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// NamedSeries pairs a series with its output name.
type NamedSeries struct {
	Name   string
	Values Series
}
