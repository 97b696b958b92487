// Package analysis provides the shared vocabulary of the price-level engine:
// level sides and the provenance tags attached to fused levels.
package analysis

// LevelType represents the side of a price level relative to the close.
type LevelType string

const (
	LevelSupport    LevelType = "support"
	LevelResistance LevelType = "resistance"
)

// LevelSource identifies which calculator produced a fused level.
type LevelSource string

const (
	SourceNone            LevelSource = ""
	SourceSupport         LevelSource = "support"
	SourceResistance      LevelSource = "resistance"
	SourceFibSupport      LevelSource = "fib_support"
	SourceFibResistance   LevelSource = "fib_resistance"
	SourcePsychSupport    LevelSource = "psych_support"
	SourcePsychResistance LevelSource = "psych_resistance"
)

// IsSet reports whether the source carries provenance.
func (s LevelSource) IsSet() bool {
	return s != SourceNone
}

// Level represents a support or resistance level.
type Level struct {
	Price    float64
	Type     LevelType
	Strength int
	Source   LevelSource
}
