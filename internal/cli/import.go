package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	apperrors "pricelevels/internal/errors"
	"pricelevels/internal/logging"
	"pricelevels/internal/models"
	"pricelevels/internal/security"
	"pricelevels/internal/store"
	"pricelevels/pkg/utils"
)

func newImportCmd(app *App) *cobra.Command {
	var timeframe string

	cmd := &cobra.Command{
		Use:   "import <symbol> <file.csv>",
		Short: "Import bars from CSV into the bar store",
		Long: `Import bars from a CSV file into the local bar store.

The header must name a close column; timestamp (or date), high, low and
volume are optional. Bars already stored at the same timestamp are replaced.`,
		Example: `  levels import AAPL aapl.csv
  levels import EURUSD eurusd_1h.csv --timeframe 1hour`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := security.ValidateSymbol(args[0]); err != nil {
				return err
			}
			if err := security.ValidateTimeframe(timeframe); err != nil {
				return err
			}
			symbol := strings.ToUpper(args[0])
			path := args[1]

			f, err := os.Open(path)
			if err != nil {
				output.Error("Failed to open %s: %v", path, err)
				return apperrors.Wrap(err, "open csv")
			}
			defer f.Close()

			candles, err := ParseCandlesCSV(f)
			if err != nil {
				output.Error("Failed to parse %s: %v", path, err)
				return apperrors.Wrapf(err, "parse %s", path)
			}
			latest, ok := models.Latest(candles)
			if !ok {
				return apperrors.NewDataError("candles", symbol, "no rows in "+path, apperrors.ErrEmptySeries)
			}

			s, err := app.openStore()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			err = utils.Retry(ctx, storeRetry(), func() error {
				return s.SaveCandles(ctx, symbol, timeframe, candles)
			})
			if err != nil {
				output.Error("Failed to store bars: %v", err)
				return err
			}
			logging.LogImport(app.Logger, symbol, path, len(candles))

			first, last := candles[0].Timestamp, latest.Timestamp
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":    symbol,
					"timeframe": timeframe,
					"rows":      len(candles),
					"first":     first,
					"last":      last,
				})
			}
			output.Success("Imported %d %s bars for %s", len(candles), timeframe, symbol)
			output.Dim("%s to %s", FormatDate(first), FormatDate(last))
			return nil
		},
	}

	cmd.Flags().StringVar(&timeframe, "timeframe", store.DefaultTimeframe, "bar timeframe")

	return cmd
}
