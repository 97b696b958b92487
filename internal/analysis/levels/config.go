package levels

import (
	"fmt"

	apperrors "pricelevels/internal/errors"
)

// Config holds every tunable of the level engine. It is passed explicitly to
// each calculator so a call can override any of them.
type Config struct {
	Window           int     `mapstructure:"window"`
	SwingWindow      int     `mapstructure:"swing_window"`
	StdMultiplier    float64 `mapstructure:"std_multiplier"`
	MinSwingStrength float64 `mapstructure:"min_swing_strength"`

	StrengthLookback       int     `mapstructure:"strength_lookback"`
	TouchTolerance         float64 `mapstructure:"touch_tolerance"`
	VolumeBonusCap         float64 `mapstructure:"volume_bonus_cap"`
	VolumeConfirmThreshold float64 `mapstructure:"volume_confirm_threshold"`

	VolumeProfileBuckets int `mapstructure:"volume_profile_buckets"`
	VolumeProfileTop     int `mapstructure:"volume_profile_top"`

	PsychologicalCount int `mapstructure:"psychological_count"`

	WeekBars      int   `mapstructure:"week_bars"`
	MonthBars     int   `mapstructure:"month_bars"`
	SwingHorizons []int `mapstructure:"swing_horizons"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Window:                 20,
		SwingWindow:            5,
		StdMultiplier:          2.0,
		MinSwingStrength:       0.02,
		StrengthLookback:       20,
		TouchTolerance:         0.01,
		VolumeBonusCap:         2.0,
		VolumeConfirmThreshold: 1.5,
		VolumeProfileBuckets:   20,
		VolumeProfileTop:       3,
		PsychologicalCount:     5,
		WeekBars:               5,
		MonthBars:              21,
		SwingHorizons:          []int{5, 10, 20},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"window", c.Window},
		{"swing_window", c.SwingWindow},
		{"strength_lookback", c.StrengthLookback},
		{"volume_profile_buckets", c.VolumeProfileBuckets},
		{"volume_profile_top", c.VolumeProfileTop},
		{"week_bars", c.WeekBars},
		{"month_bars", c.MonthBars},
	}
	for _, p := range positive {
		if p.value < 1 {
			return apperrors.NewValidationError(p.name, p.value, "must be at least 1", apperrors.ErrConfigInvalid)
		}
	}

	if c.PsychologicalCount < 0 {
		return apperrors.NewValidationError("psychological_count", c.PsychologicalCount, "must be non-negative", apperrors.ErrConfigInvalid)
	}
	if c.StdMultiplier < 0 {
		return apperrors.NewValidationError("std_multiplier", c.StdMultiplier, "must be non-negative", apperrors.ErrConfigInvalid)
	}
	if c.MinSwingStrength < 0 {
		return apperrors.NewValidationError("min_swing_strength", c.MinSwingStrength, "must be non-negative", apperrors.ErrConfigInvalid)
	}
	if c.TouchTolerance <= 0 || c.TouchTolerance >= 1 {
		return apperrors.NewValidationError("touch_tolerance", c.TouchTolerance, "must be in (0, 1)", apperrors.ErrConfigInvalid)
	}
	if c.VolumeBonusCap < 0 {
		return apperrors.NewValidationError("volume_bonus_cap", c.VolumeBonusCap, "must be non-negative", apperrors.ErrConfigInvalid)
	}
	if c.VolumeConfirmThreshold < 0 {
		return apperrors.NewValidationError("volume_confirm_threshold", c.VolumeConfirmThreshold, "must be non-negative", apperrors.ErrConfigInvalid)
	}
	for _, h := range c.SwingHorizons {
		if h < 1 {
			return apperrors.NewValidationError("swing_horizons", h, fmt.Sprintf("horizon %d must be at least 1", h), apperrors.ErrConfigInvalid)
		}
	}

	return nil
}
