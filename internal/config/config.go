// Package config provides configuration management for the price-level engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"pricelevels/internal/analysis/levels"
	apperrors "pricelevels/internal/errors"
	"pricelevels/internal/logging"
)

// FileName is the config file name without extension.
const FileName = "config"

// Config holds all application configuration.
type Config struct {
	Levels  levels.Config     `mapstructure:"levels"`
	Logging logging.LogConfig `mapstructure:"logging"`
	Store   StoreConfig       `mapstructure:"store"`
	Batch   BatchConfig       `mapstructure:"batch"`
}

// StoreConfig holds the bar store configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// BatchConfig holds multi-ticker computation settings.
type BatchConfig struct {
	Workers int           `mapstructure:"workers"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/pricelevels"
	}
	return filepath.Join(home, ".config", "pricelevels")
}

// Path returns the config file path inside configDir.
func Path(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, FileName+".toml")
}

// Default returns the configuration used when no file overrides a key.
func Default(configDir string) *Config {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	logCfg := logging.DefaultLogConfig()
	logCfg.FilePath = filepath.Join(configDir, "logs", "pricelevels.log")

	return &Config{
		Levels:  levels.DefaultConfig(),
		Logging: logCfg,
		Store: StoreConfig{
			Path: filepath.Join(configDir, "bars.db"),
		},
		Batch: BatchConfig{
			Workers: 4,
			Timeout: 5 * time.Minute,
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config file is replaced by the commented template before loading.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName(FileName)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, Default(configDir))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s: %w", Path(configDir), err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("levels.window", d.Levels.Window)
	v.SetDefault("levels.swing_window", d.Levels.SwingWindow)
	v.SetDefault("levels.std_multiplier", d.Levels.StdMultiplier)
	v.SetDefault("levels.min_swing_strength", d.Levels.MinSwingStrength)
	v.SetDefault("levels.strength_lookback", d.Levels.StrengthLookback)
	v.SetDefault("levels.touch_tolerance", d.Levels.TouchTolerance)
	v.SetDefault("levels.volume_bonus_cap", d.Levels.VolumeBonusCap)
	v.SetDefault("levels.volume_confirm_threshold", d.Levels.VolumeConfirmThreshold)
	v.SetDefault("levels.volume_profile_buckets", d.Levels.VolumeProfileBuckets)
	v.SetDefault("levels.volume_profile_top", d.Levels.VolumeProfileTop)
	v.SetDefault("levels.psychological_count", d.Levels.PsychologicalCount)
	v.SetDefault("levels.week_bars", d.Levels.WeekBars)
	v.SetDefault("levels.month_bars", d.Levels.MonthBars)
	v.SetDefault("levels.swing_horizons", d.Levels.SwingHorizons)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.console", d.Logging.Console)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.file_path", d.Logging.FilePath)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)

	v.SetDefault("store.path", d.Store.Path)

	v.SetDefault("batch.workers", d.Batch.Workers)
	v.SetDefault("batch.timeout", d.Batch.Timeout)
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PRICELEVELS_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("PRICELEVELS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PRICELEVELS_WORKERS"); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.NewValidationError("PRICELEVELS_WORKERS", v, "must be an integer", apperrors.ErrConfigInvalid)
		}
		cfg.Batch.Workers = workers
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Levels.Validate(); err != nil {
		return err
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return apperrors.NewValidationError("logging.level", c.Logging.Level, "must be debug, info, warn or error", apperrors.ErrConfigInvalid)
	}
	if c.Store.Path == "" {
		return apperrors.NewValidationError("store.path", c.Store.Path, "must not be empty", apperrors.ErrConfigInvalid)
	}
	if c.Batch.Workers < 1 {
		return apperrors.NewValidationError("batch.workers", c.Batch.Workers, "must be at least 1", apperrors.ErrConfigInvalid)
	}
	if c.Batch.Timeout < 0 {
		return apperrors.NewValidationError("batch.timeout", c.Batch.Timeout, "must be non-negative", apperrors.ErrConfigInvalid)
	}
	return nil
}
