// Package cli provides the command-line interface for the price-level engine.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pricelevels/internal/analysis/levels"
	"pricelevels/internal/config"
	"pricelevels/internal/logging"
	"pricelevels/internal/models"
	"pricelevels/internal/store"
	"pricelevels/pkg/utils"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	configDir string
	store     store.CandleStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "levels",
		Short: "Technical support and resistance level detection",
		Long: `levels computes support and resistance levels for a price series.

It runs swing, pivot, Fibonacci, psychological, volume and volatility-band
calculators over every bar and fuses them into the nearest support and
resistance with a strength score.

Bars come from a CSV file or from the local bar store ('levels import').`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("config")
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			app.Config = cfg
			app.configDir = dir

			// Handle debug flag
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Logging.Level = "debug"
			}
			app.Logger = logging.NewLoggerWithConfig(cfg.Logging)
			app.Logger.Debug().Str("config_dir", dir).Msg("Configuration loaded")
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/pricelevels)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newComputeCmd(app))
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newBatchCmd(app))

	return rootCmd
}

// openStore opens the bar store on first use.
func (a *App) openStore() (store.CandleStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	path := a.Config.Store.Path
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Str("path", path).Msg("SQLite store initialized")
	a.store = s
	return s, nil
}

// storeRetry retries store calls that hit a locked database.
func storeRetry() utils.RetryConfig {
	cfg := utils.DefaultRetryConfig()
	cfg.Retryable = store.IsBusy
	return cfg
}

// loadBars reads stored bars, retrying while another process holds the database.
func loadBars(ctx context.Context, s store.CandleStore, symbol, timeframe string, from, to time.Time) (models.Bars, error) {
	return utils.RetryWithResult(ctx, storeRetry(), func() (models.Bars, error) {
		return store.LoadBars(ctx, s, symbol, timeframe, from, to)
	})
}

// engine builds a level engine from the loaded configuration.
func (a *App) engine() (*levels.Engine, error) {
	return levels.NewEngine(a.Config.Levels, levels.WithLogger(a.Logger))
}

// Close releases the store if it was opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("levels v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the engine configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.Path(app.configDir)})
			} else {
				output.Println(config.Path(app.configDir))
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	l := cfg.Levels
	output.Bold("Level Engine")
	output.Printf("  Window:           %d\n", l.Window)
	output.Printf("  Swing Window:     %d\n", l.SwingWindow)
	output.Printf("  Std Multiplier:   %.2f\n", l.StdMultiplier)
	output.Printf("  Min Swing:        %.2f%%\n", l.MinSwingStrength*100)
	output.Printf("  Swing Horizons:   %v\n", l.SwingHorizons)
	output.Printf("  Week/Month Bars:  %d/%d\n", l.WeekBars, l.MonthBars)
	output.Println()

	output.Bold("Strength")
	output.Printf("  Lookback:         %d\n", l.StrengthLookback)
	output.Printf("  Touch Tolerance:  %.2f%%\n", l.TouchTolerance*100)
	output.Printf("  Volume Bonus Cap: %.2f\n", l.VolumeBonusCap)
	output.Printf("  Confirm Above:    %.2f\n", l.VolumeConfirmThreshold)
	output.Println()

	output.Bold("Volume Profile")
	output.Printf("  Buckets:          %d\n", l.VolumeProfileBuckets)
	output.Printf("  Top:              %d\n", l.VolumeProfileTop)
	output.Printf("  Psych Levels:     %d\n", l.PsychologicalCount)
	output.Println()

	output.Bold("Runtime")
	output.Printf("  Store:            %s\n", cfg.Store.Path)
	output.Printf("  Batch Workers:    %d\n", cfg.Batch.Workers)
	output.Printf("  Batch Timeout:    %s\n", cfg.Batch.Timeout)
	output.Printf("  Log Level:        %s\n", cfg.Logging.Level)
	if cfg.Logging.File {
		output.Printf("  Log File:         %s\n", cfg.Logging.FilePath)
	}
}
