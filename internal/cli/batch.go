package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
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

type batchRow struct {
	Symbol             string   `json:"symbol"`
	Bars               int      `json:"bars"`
	Close              *float64 `json:"close"`
	NearestSupport     *float64 `json:"nearest_support"`
	NearestResistance  *float64 `json:"nearest_resistance"`
	SupportStrength    int      `json:"support_strength"`
	ResistanceStrength int      `json:"resistance_strength"`
	LevelType          string   `json:"level_type,omitempty"`
	Duration           string   `json:"duration,omitempty"`
	Error              string   `json:"error,omitempty"`
}

func newBatchCmd(app *App) *cobra.Command {
	var timeframe string

	cmd := &cobra.Command{
		Use:   "batch [symbols...]",
		Short: "Compute levels for many stored symbols in parallel",
		Long: `Compute the latest support and resistance for several symbols.

Without arguments every symbol stored for --timeframe is processed. A symbol
whose bars cannot be loaded or are rejected is reported without stopping the run.`,
		Example: `  levels batch
  levels batch AAPL MSFT NVDA --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := security.ValidateTimeframe(timeframe); err != nil {
				return err
			}
			for _, arg := range args {
				if err := security.ValidateSymbol(arg); err != nil {
					return err
				}
			}

			s, err := app.openStore()
			if err != nil {
				return err
			}
			engine, err := app.engine()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if app.Config.Batch.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, app.Config.Batch.Timeout)
				defer cancel()
			}
			ctx = logging.WithLogger(ctx, logging.WithOperation(app.Logger, "batch"))

			symbols := make([]string, 0, len(args))
			for _, arg := range args {
				symbols = append(symbols, strings.ToUpper(arg))
			}
			if len(symbols) == 0 {
				if symbols, err = s.ListSymbols(ctx, timeframe); err != nil {
					return err
				}
			}
			if len(symbols) == 0 {
				output.Warning("No stored symbols for timeframe %s", timeframe)
				return nil
			}

			inputs, loadErrs := loadBatchInputs(ctx, s, symbols, timeframe)

			batch := levels.NewBatchEngine(engine, app.Config.Batch.Workers, app.Logger)
			results, err := batch.ComputeAll(ctx, inputs)
			if err != nil {
				output.Error("Batch run aborted: %v", err)
				return err
			}

			rows := batchRows(inputs, results, loadErrs)
			if output.IsJSON() {
				return output.JSON(rows)
			}
			displayBatch(output, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&timeframe, "timeframe", store.DefaultTimeframe, "stored bar timeframe")

	return cmd
}

// loadBatchInputs reads every symbol's bars; failures are returned per symbol.
func loadBatchInputs(ctx context.Context, s store.CandleStore, symbols []string, timeframe string) (map[string]models.Bars, map[string]error) {
	logger := logging.FromContext(ctx)
	inputs := make(map[string]models.Bars, len(symbols))
	loadErrs := make(map[string]error)
	for _, symbol := range symbols {
		bars, err := loadBars(ctx, s, symbol, timeframe, time.Time{}, time.Time{})
		if err != nil {
			if apperrors.Is(err, apperrors.ErrDataNotFound) {
				logger.Info().Str("symbol", symbol).Msg("No stored bars")
			} else {
				logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to load bars")
			}
			loadErrs[symbol] = err
			continue
		}
		inputs[symbol] = bars
	}
	return inputs, loadErrs
}

func batchRows(inputs map[string]models.Bars, results []levels.BatchResult, loadErrs map[string]error) []batchRow {
	rows := make([]batchRow, 0, len(results)+len(loadErrs))
	for _, r := range results {
		row := batchRow{Symbol: r.Symbol, Bars: inputs[r.Symbol].Len(), Duration: FormatDuration(r.Duration)}
		if r.Err != nil {
			row.Error = r.Err.Error()
			rows = append(rows, row)
			continue
		}
		i := r.Result.Len - 1
		at := r.Result.At(i)
		row.Close = jsonFloat(inputs[r.Symbol].Close[i])
		row.NearestSupport = jsonFloat(at.NearestSupport)
		row.NearestResistance = jsonFloat(at.NearestResistance)
		row.SupportStrength = at.SupportStrength
		row.ResistanceStrength = at.ResistanceStrength
		row.LevelType = string(at.LevelType)
		rows = append(rows, row)
	}
	for symbol, err := range loadErrs {
		rows = append(rows, batchRow{Symbol: symbol, Error: err.Error()})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })
	return rows
}

func displayBatch(output *Output, rows []batchRow) {
	output.Printf("%s %s %s %s %s %s %s %s\n",
		PadRight("SYMBOL", 10),
		PadLeft("BARS", 6),
		PadLeft("CLOSE", 10),
		PadLeft("SUPPORT", 10),
		PadLeft("RESIST", 10),
		PadLeft("STR", 6),
		PadRight("NEAREST", 18),
		PadLeft("TIME", 8),
	)
	output.Println(strings.Repeat("-", 84))

	failed := 0
	for _, row := range rows {
		if row.Error != "" {
			failed++
			output.Printf("%s %s\n", PadRight(row.Symbol, 10), output.ColoredString(color.FgRed, TruncateString(row.Error, 58)))
			continue
		}
		output.Printf("%s %s %s %s %s %s %s %s\n",
			PadRight(row.Symbol, 10),
			PadLeft(strconv.Itoa(row.Bars), 6),
			PadLeft(FormatPrice(deref(row.Close)), 10),
			PadLeft(FormatPrice(deref(row.NearestSupport)), 10),
			PadLeft(FormatPrice(deref(row.NearestResistance)), 10),
			PadLeft(fmt.Sprintf("%d/%d", row.SupportStrength, row.ResistanceStrength), 6),
			PadRight(levelSide(row.LevelType), 18),
			PadLeft(row.Duration, 8),
		)
	}

	output.Println()
	if failed > 0 {
		output.Warning("%d of %d symbols failed", failed, len(rows))
	} else {
		output.Success("%d symbols computed", len(rows))
	}
}
