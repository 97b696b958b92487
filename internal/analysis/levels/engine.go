// Package levels detects technical support and resistance levels in a bar series
// and fuses them per bar into the nearest support and resistance.
package levels

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"pricelevels/internal/analysis"
	"pricelevels/internal/analysis/indicators"
	apperrors "pricelevels/internal/errors"
	"pricelevels/internal/models"
)

// Fallbacks records which degenerate-data guards fired during a computation.
type Fallbacks struct {
	FibonacciRange  int
	VWAPUniform     int
	VolumeProfile   bool
	StdDev          int
	ATR             int
	FilledPriceGaps bool
}

// Result is the full output of one computation.
type Result struct {
	Len           int
	Series        map[string]indicators.Series
	Swings        SwingPoints
	Nearest       NearestLevels
	Strength      StrengthScores
	VolumeProfile []VolumeBucket
	Psychological []PsychologicalLevel
	Fallbacks     Fallbacks
}

// NearestLevelResult is the fused view of one bar.
type NearestLevelResult struct {
	NearestSupport     float64
	NearestResistance  float64
	SupportStrength    int
	ResistanceStrength int
	VolumeConfirmation int
	LevelType          analysis.LevelSource
}

// Names returns the output series names in sorted order.
func (r *Result) Names() []string {
	names := make([]string, 0, len(r.Series))
	for name := range r.Series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a named series.
func (r *Result) Get(name string) (indicators.Series, bool) {
	s, ok := r.Series[name]
	return s, ok
}

// At returns the fused result for bar i.
func (r *Result) At(i int) NearestLevelResult {
	return NearestLevelResult{
		NearestSupport:     r.Nearest.Support[i],
		NearestResistance:  r.Nearest.Resistance[i],
		SupportStrength:    r.Strength.Support[i],
		ResistanceStrength: r.Strength.Resistance[i],
		VolumeConfirmation: r.Strength.VolumeConfirmation[i],
		LevelType:          r.Nearest.LevelType[i],
	}
}

// Levels returns the defined nearest levels of bar i as analysis levels.
func (r *Result) Levels(i int) []analysis.Level {
	var out []analysis.Level
	if r.Nearest.Support.Defined(i) {
		out = append(out, analysis.Level{
			Price:    r.Nearest.Support[i],
			Type:     analysis.LevelSupport,
			Strength: r.Strength.Support[i],
			Source:   r.Nearest.SupportSource[i],
		})
	}
	if r.Nearest.Resistance.Defined(i) {
		out = append(out, analysis.Level{
			Price:    r.Nearest.Resistance[i],
			Type:     analysis.LevelResistance,
			Strength: r.Strength.Resistance[i],
			Source:   r.Nearest.ResistanceSource[i],
		})
	}
	return out
}

// Engine sequences the level calculators. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	cfg    Config
	logger zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report activated fallbacks.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine after validating cfg.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute is a one-shot helper that builds an engine for cfg and runs it.
func Compute(bars models.Bars, cfg Config) (*Result, error) {
	e, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return e.Compute(bars)
}

// ValidateBars checks the input shape: non-empty, equal-length high/low/close
// and, when supplied, volume.
func ValidateBars(bars models.Bars) error {
	n := len(bars.Close)
	if n == 0 {
		return apperrors.NewValidationError("close", 0, "series is empty", apperrors.ErrEmptySeries)
	}
	if len(bars.High) != n {
		return apperrors.NewValidationError("high", len(bars.High), "length differs from close", apperrors.ErrLengthMismatch)
	}
	if len(bars.Low) != n {
		return apperrors.NewValidationError("low", len(bars.Low), "length differs from close", apperrors.ErrLengthMismatch)
	}
	if bars.Volume != nil && len(bars.Volume) != n {
		return apperrors.NewValidationError("volume", len(bars.Volume), "length differs from close", apperrors.ErrLengthMismatch)
	}
	if indicators.Series(bars.Close).FirstDefined() < 0 {
		return apperrors.NewValidationError("close", n, "series has no defined value", apperrors.ErrEmptySeries)
	}
	for _, col := range []struct {
		name   string
		values []float64
	}{{"high", bars.High}, {"low", bars.Low}, {"close", bars.Close}, {"volume", bars.Volume}} {
		for i, v := range col.values {
			if math.IsInf(v, 0) {
				return apperrors.NewValidationError(col.name, i, "value is infinite", apperrors.ErrInvalidInput)
			}
		}
	}
	return nil
}

// Compute runs every calculator over the bars and fuses the results.
// Only an input shape error is returned; degenerate data is absorbed by the
// calculators' fallbacks.
func (e *Engine) Compute(bars models.Bars) (*Result, error) {
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}

	cfg := e.cfg
	n := bars.Len()
	high := indicators.FillGaps(bars.High)
	low := indicators.FillGaps(bars.Low)
	close := indicators.FillGaps(bars.Close)

	result := &Result{
		Len:    n,
		Series: make(map[string]indicators.Series),
	}
	result.Fallbacks.FilledPriceGaps = hasGaps(bars.High) || hasGaps(bars.Low) || hasGaps(bars.Close)

	traditional := CalculateTraditional(high, low, cfg)
	result.add(traditional.Named()...)

	result.Swings = DetectSwings(high, low, cfg.SwingWindow, cfg.MinSwingStrength)
	result.add(
		indicators.NamedSeries{Name: "is_swing_high", Values: boolSeries(result.Swings.IsHigh)},
		indicators.NamedSeries{Name: "is_swing_low", Values: boolSeries(result.Swings.IsLow)},
		indicators.NamedSeries{Name: "swing_strengths", Values: result.Swings.Strength},
	)

	result.add(CalculatePivots(high, low, close).Named()...)

	fib := CalculateFibonacci(high, low, cfg.Window)
	result.add(fib.Named()...)
	result.Fallbacks.FibonacciRange = fib.Substituted

	result.Psychological = PsychologicalLevels(close, cfg.PsychologicalCount)
	result.add(psychologicalSeries(result.Psychological, n)...)

	if bars.HasVolume() {
		vol := CalculateVolumeLevels(high, low, close, bars.Volume, cfg)
		result.add(
			indicators.NamedSeries{Name: "vwap", Values: vol.VWAP},
			indicators.NamedSeries{Name: "volume_weighted_high", Values: vol.WeightedHigh},
			indicators.NamedSeries{Name: "volume_weighted_low", Values: vol.WeightedLow},
		)
		result.add(profileSeries(vol.Profile, n)...)
		result.VolumeProfile = vol.Profile
		result.Fallbacks.VWAPUniform = vol.UniformBars
		result.Fallbacks.VolumeProfile = vol.ProfileFallback
		if vol.ProfileFallback {
			e.logger.Debug().Err(vol.ProfileErr).Msg("Volume profile collapsed to a single bucket")
		}
	}

	bands := CalculateDynamicBands(high, low, close, cfg.Window, cfg.StdMultiplier)
	result.add(bands.Named()...)
	result.Fallbacks.StdDev = bands.StdSubstituted
	result.Fallbacks.ATR = bands.ATRSubstituted

	support, resistance := traditional.Support[0], traditional.Resistance[0]

	result.Strength = ScoreStrength(high, low, close, bars.Volume, support, resistance, cfg)
	result.add(
		indicators.NamedSeries{Name: "support_strength", Values: intSeries(result.Strength.Support)},
		indicators.NamedSeries{Name: "resistance_strength", Values: intSeries(result.Strength.Resistance)},
		indicators.NamedSeries{Name: "volume_confirmation", Values: intSeries(result.Strength.VolumeConfirmation)},
	)

	result.Nearest = ResolveNearest(FusionInput{
		Close:         close,
		Support:       support,
		Resistance:    resistance,
		Fibonacci:     fib.Named(),
		Psychological: result.Psychological,
	})
	result.add(
		indicators.NamedSeries{Name: "nearest_support", Values: result.Nearest.Support},
		indicators.NamedSeries{Name: "nearest_resistance", Values: result.Nearest.Resistance},
	)

	e.logFallbacks(n, result.Fallbacks)

	return result, nil
}

func (r *Result) add(series ...indicators.NamedSeries) {
	for _, s := range series {
		r.Series[s.Name] = s.Values
	}
}

func (e *Engine) logFallbacks(n int, f Fallbacks) {
	if f == (Fallbacks{}) {
		return
	}
	e.logger.Debug().
		Int("bars", n).
		Int("fib_range_substituted", f.FibonacciRange).
		Int("vwap_uniform", f.VWAPUniform).
		Bool("volume_profile_fallback", f.VolumeProfile).
		Int("stddev_substituted", f.StdDev).
		Int("atr_substituted", f.ATR).
		Bool("price_gaps_filled", f.FilledPriceGaps).
		Msg("Level fallbacks applied")
}

func hasGaps(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
