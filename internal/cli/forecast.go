package cli

import (
	"github.com/spf13/cobra"

	"consumption-analytics/internal/app"
)

var (
	forecastPattern      string
	forecastStart        string
	forecastEnd          string
	forecastBaselineFrom string
	forecastBaselineTo   string
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Display the organic-growth forecast scenario by year bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ForecastOptions{
			AccountPattern: forecastPattern,
		}

		var err error
		if opts.Start, err = parseDateFlag("start", forecastStart); err != nil {
			return err
		}
		if opts.End, err = parseDateFlag("end", forecastEnd); err != nil {
			return err
		}
		if opts.BaselineFrom, err = parseDateFlag("baseline-from", forecastBaselineFrom); err != nil {
			return err
		}
		if opts.BaselineTo, err = parseDateFlag("baseline-to", forecastBaselineTo); err != nil {
			return err
		}

		return getApp().Forecast(cmd.Context(), opts)
	},
}

func init() {
	forecastCmd.Flags().StringVar(&forecastPattern, "account", "", "Account name pattern (ILIKE)")
	forecastCmd.Flags().StringVar(&forecastStart, "start", "", "Forecast start month (YYYY-MM-DD, defaults to next month)")
	forecastCmd.Flags().StringVar(&forecastEnd, "end", "", "Forecast end month (YYYY-MM-DD, defaults to the configured horizon)")
	forecastCmd.Flags().StringVar(&forecastBaselineFrom, "baseline-from", "", "Baseline window start (YYYY-MM-DD)")
	forecastCmd.Flags().StringVar(&forecastBaselineTo, "baseline-to", "", "Baseline window end (YYYY-MM-DD)")
}
