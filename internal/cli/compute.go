package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pricelevels/internal/analysis/levels"
	apperrors "pricelevels/internal/errors"
	"pricelevels/internal/logging"
	"pricelevels/internal/models"
	"pricelevels/internal/security"
	"pricelevels/internal/store"
)

// barReport is the JSON form of one bar's fused levels. Missing values are null.
type barReport struct {
	Time               *time.Time `json:"time,omitempty"`
	Close              *float64   `json:"close"`
	NearestSupport     *float64   `json:"nearest_support"`
	NearestResistance  *float64   `json:"nearest_resistance"`
	SupportSource      string     `json:"support_source,omitempty"`
	ResistanceSource   string     `json:"resistance_source,omitempty"`
	SupportStrength    int        `json:"support_strength"`
	ResistanceStrength int        `json:"resistance_strength"`
	VolumeConfirmation int        `json:"volume_confirmation"`
	LevelType          string     `json:"level_type,omitempty"`
}

type psychReport struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
}

type bucketReport struct {
	Price  float64 `json:"price"`
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Volume float64 `json:"volume"`
}

type fallbackReport struct {
	FibonacciRange  int  `json:"fibonacci_range_bars"`
	VWAPUniform     int  `json:"vwap_uniform_bars"`
	VolumeProfile   bool `json:"volume_profile"`
	StdDev          int  `json:"stddev_bars"`
	ATR             int  `json:"atr_bars"`
	FilledPriceGaps bool `json:"filled_price_gaps"`
}

// levelReport is the JSON document printed by compute --json.
type levelReport struct {
	Symbol        string              `json:"symbol"`
	Bars          int                 `json:"bars"`
	Rows          []barReport         `json:"rows"`
	Latest        map[string]*float64 `json:"latest,omitempty"`
	Psychological []psychReport       `json:"psychological"`
	VolumeProfile []bucketReport      `json:"volume_profile,omitempty"`
	Fallbacks     fallbackReport      `json:"fallbacks"`
	Duration      string              `json:"duration"`
	// NewestStored is the newest bar in the store, which --to may have excluded.
	NewestStored *time.Time `json:"newest_stored,omitempty"`
}

func newComputeCmd(app *App) *cobra.Command {
	var (
		csvPath   string
		timeframe string
		fromFlag  string
		toFlag    string
		last      int
		series    bool
	)

	cmd := &cobra.Command{
		Use:   "compute [symbol]",
		Short: "Compute support and resistance levels",
		Long: `Compute support and resistance levels for a symbol.

Bars are read from --csv when given, otherwise from the bar store.
The last N bars are printed with their nearest support and resistance.`,
		Example: `  levels compute --csv aapl.csv
  levels compute AAPL --last 20
  levels compute AAPL --from 2024-01-01 --series --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := ""
			if len(args) == 1 {
				if err := security.ValidateSymbol(args[0]); err != nil {
					return err
				}
				symbol = strings.ToUpper(args[0])
			}

			var bars models.Bars
			var newest time.Time
			var err error
			switch {
			case csvPath != "":
				if symbol == "" {
					symbol = symbolFromPath(csvPath)
				}
				bars, err = loadCSVBars(csvPath)
			case symbol == "":
				return apperrors.NewValidationError("symbol", "", "a symbol or --csv is required", apperrors.ErrInvalidInput)
			default:
				if err := security.ValidateTimeframe(timeframe); err != nil {
					return err
				}
				bars, newest, err = app.loadStoredBars(cmd.Context(), symbol, timeframe, fromFlag, toFlag)
			}
			if err != nil {
				output.Error("Failed to load bars for %s: %v", symbol, err)
				return err
			}

			engine, err := app.engine()
			if err != nil {
				return err
			}

			logger := logging.WithOperation(logging.WithSymbol(app.Logger, symbol), "compute")
			start := time.Now()
			result, err := engine.Compute(bars)
			duration := time.Since(start)
			if err != nil {
				logging.LogComputation(logger, symbol, bars.Len(), 0, duration, err)
				output.Error("Level computation failed: %v", err)
				return err
			}
			logging.LogComputation(logger, symbol, bars.Len(), len(result.Series), duration, nil)

			report := buildReport(symbol, bars, result, last, series, duration)
			if !newest.IsZero() {
				report.NewestStored = &newest
			}
			if output.IsJSON() {
				return output.JSON(report)
			}
			displayReport(output, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "read bars from a CSV file")
	cmd.Flags().StringVar(&timeframe, "timeframe", store.DefaultTimeframe, "stored bar timeframe")
	cmd.Flags().StringVar(&fromFlag, "from", "", "first stored bar to load (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toFlag, "to", "", "last stored bar to load (YYYY-MM-DD)")
	cmd.Flags().IntVar(&last, "last", 10, "number of trailing bars to print")
	cmd.Flags().BoolVar(&series, "series", false, "also print the latest value of every output series")

	return cmd
}

func loadCSVBars(path string) (models.Bars, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Bars{}, fmt.Errorf("failed to open CSV: %w", err)
	}
	defer f.Close()

	candles, err := ParseCandlesCSV(f)
	if err != nil {
		return models.Bars{}, err
	}
	return models.BarsFromCandles(candles), nil
}

// loadStoredBars reads the requested range and the timestamp of the newest stored bar.
func (a *App) loadStoredBars(ctx context.Context, symbol, timeframe, fromFlag, toFlag string) (models.Bars, time.Time, error) {
	from, err := parseDateFlag("from", fromFlag)
	if err != nil {
		return models.Bars{}, time.Time{}, err
	}
	to, err := parseDateFlag("to", toFlag)
	if err != nil {
		return models.Bars{}, time.Time{}, err
	}
	s, err := a.openStore()
	if err != nil {
		return models.Bars{}, time.Time{}, err
	}
	bars, err := loadBars(ctx, s, symbol, timeframe, from, to)
	if err != nil {
		return models.Bars{}, time.Time{}, err
	}
	newest, err := s.GetCandlesFreshness(ctx, symbol, timeframe)
	if err != nil {
		return models.Bars{}, time.Time{}, err
	}
	return bars, newest, nil
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := parseCSVTime(value)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(name, value, "expected YYYY-MM-DD", apperrors.ErrInvalidInput)
	}
	return t, nil
}

func symbolFromPath(path string) string {
	base := filepath.Base(path)
	return security.SanitizeSymbol(strings.TrimSuffix(base, filepath.Ext(base)))
}

func buildReport(symbol string, bars models.Bars, result *levels.Result, last int, withSeries bool, duration time.Duration) levelReport {
	report := levelReport{
		Symbol:   symbol,
		Bars:     result.Len,
		Duration: FormatDuration(duration),
		Fallbacks: fallbackReport{
			FibonacciRange:  result.Fallbacks.FibonacciRange,
			VWAPUniform:     result.Fallbacks.VWAPUniform,
			VolumeProfile:   result.Fallbacks.VolumeProfile,
			StdDev:          result.Fallbacks.StdDev,
			ATR:             result.Fallbacks.ATR,
			FilledPriceGaps: result.Fallbacks.FilledPriceGaps,
		},
	}

	start := 0
	if last > 0 && last < result.Len {
		start = result.Len - last
	}
	for i := start; i < result.Len; i++ {
		at := result.At(i)
		row := barReport{
			Close:              jsonFloat(bars.Close[i]),
			NearestSupport:     jsonFloat(at.NearestSupport),
			NearestResistance:  jsonFloat(at.NearestResistance),
			SupportSource:      string(result.Nearest.SupportSource[i]),
			ResistanceSource:   string(result.Nearest.ResistanceSource[i]),
			SupportStrength:    at.SupportStrength,
			ResistanceStrength: at.ResistanceStrength,
			VolumeConfirmation: at.VolumeConfirmation,
			LevelType:          string(at.LevelType),
		}
		if i < len(bars.Timestamps) && !bars.Timestamps[i].IsZero() {
			ts := bars.Timestamps[i]
			row.Time = &ts
		}
		report.Rows = append(report.Rows, row)
	}

	for _, p := range result.Psychological {
		report.Psychological = append(report.Psychological, psychReport{Name: p.Name, Price: jsonFloat(p.Price)})
	}
	for _, b := range result.VolumeProfile {
		report.VolumeProfile = append(report.VolumeProfile, bucketReport{Price: b.Price, Low: b.Low, High: b.High, Volume: b.Volume})
	}

	if withSeries && result.Len > 0 {
		report.Latest = make(map[string]*float64, len(result.Series))
		for _, name := range result.Names() {
			s, _ := result.Get(name)
			report.Latest[name] = jsonFloat(s[result.Len-1])
		}
	}
	return report
}

// jsonFloat maps missing values to null; encoding/json rejects NaN.
func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func displayReport(output *Output, report levelReport) {
	output.Bold("%s: %d bars", report.Symbol, report.Bars)
	output.Println()

	output.Printf("%s %s %s %s %s %s %s\n",
		PadRight("DATE", 16),
		PadLeft("CLOSE", 10),
		PadLeft("SUPPORT", 10),
		PadRight(" SOURCE", 18),
		PadLeft("RESIST", 10),
		PadRight(" SOURCE", 18),
		"NEAREST",
	)
	output.Println(strings.Repeat("-", 98))

	for _, row := range report.Rows {
		date := "-"
		if row.Time != nil {
			date = FormatDate(*row.Time)
		}
		vol := ""
		if row.VolumeConfirmation == 1 {
			vol = output.ColoredString(color.FgYellow, " vol")
		}
		output.Printf("%s %s %s %s %s %s %s%s\n",
			PadRight(date, 16),
			PadLeft(FormatPrice(deref(row.Close)), 10),
			PadLeft(FormatPrice(deref(row.NearestSupport)), 10),
			" "+output.LevelTag(row.SupportSource, row.SupportStrength, 17),
			PadLeft(FormatPrice(deref(row.NearestResistance)), 10),
			" "+output.LevelTag(row.ResistanceSource, row.ResistanceStrength, 17),
			levelSide(row.LevelType),
			vol,
		)
	}

	if len(report.Rows) > 0 {
		latest := report.Rows[len(report.Rows)-1]
		close := deref(latest.Close)
		output.Println()
		output.Printf("Support strength:    %s  (%s)\n", FormatStrength(latest.SupportStrength), FormatDistance(deref(latest.NearestSupport), close))
		output.Printf("Resistance strength: %s  (%s)\n", FormatStrength(latest.ResistanceStrength), FormatDistance(deref(latest.NearestResistance), close))
	}

	if len(report.Psychological) > 0 {
		output.Println()
		output.Bold("Psychological Levels")
		for _, p := range report.Psychological {
			output.Printf("  %s %s\n", PadRight(p.Name, 10), FormatPrice(deref(p.Price)))
		}
	}

	if len(report.VolumeProfile) > 0 {
		output.Println()
		output.Bold("Volume Profile")
		for _, b := range report.VolumeProfile {
			output.Printf("  %s  [%s - %s]  %s\n", PadLeft(FormatPrice(b.Price), 10), FormatPrice(b.Low), FormatPrice(b.High), FormatVolume(b.Volume))
		}
	}

	if len(report.Latest) > 0 {
		output.Println()
		output.Bold("Latest Series Values")
		names := make([]string, 0, len(report.Latest))
		for name := range report.Latest {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			output.Printf("  %s %s\n", PadRight(name, 28), FormatPrice(deref(report.Latest[name])))
		}
	}

	displayFallbacks(output, report.Fallbacks)
	if report.NewestStored != nil {
		output.Dim("Newest stored bar %s", FormatDate(*report.NewestStored))
	}
	output.Dim("Computed in %s", report.Duration)
}

func levelSide(levelType string) string {
	if levelType == "" {
		return "-"
	}
	return levelType
}

func displayFallbacks(output *Output, f fallbackReport) {
	var notes []string
	if f.FilledPriceGaps {
		notes = append(notes, "price gaps filled")
	}
	if f.FibonacciRange > 0 {
		notes = append(notes, fmt.Sprintf("flat Fibonacci range on %d bars", f.FibonacciRange))
	}
	if f.VWAPUniform > 0 {
		notes = append(notes, fmt.Sprintf("zero-volume VWAP on %d bars", f.VWAPUniform))
	}
	if f.VolumeProfile {
		notes = append(notes, "volume profile collapsed")
	}
	if f.StdDev > 0 {
		notes = append(notes, fmt.Sprintf("zero deviation on %d bars", f.StdDev))
	}
	if f.ATR > 0 {
		notes = append(notes, fmt.Sprintf("zero true range on %d bars", f.ATR))
	}
	if len(notes) == 0 {
		return
	}
	output.Println()
	output.Warning("Fallbacks: %s", strings.Join(notes, "; "))
}
