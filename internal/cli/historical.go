package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"consumption-analytics/internal/app"
)

var (
	historicalPattern   string
	historicalFrom      string
	historicalTo        string
	historicalMinGrowth string
	historicalLimit     int
)

var historicalCmd = &cobra.Command{
	Use:   "historical",
	Short: "Display historical consumption with MoM growth",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.HistoricalOptions{
			AccountPattern: historicalPattern,
			Limit:          historicalLimit,
		}

		var err error
		if opts.From, err = parseDateFlag("from", historicalFrom); err != nil {
			return err
		}
		if opts.To, err = parseDateFlag("to", historicalTo); err != nil {
			return err
		}

		if historicalMinGrowth != "" {
			min, err := strconv.ParseFloat(historicalMinGrowth, 64)
			if err != nil {
				return fmt.Errorf("invalid --min-growth value: %w", err)
			}
			opts.MinGrowthPct = &min
		}

		return getApp().Historical(cmd.Context(), opts)
	},
}

func init() {
	historicalCmd.Flags().StringVar(&historicalPattern, "account", "", "Account name pattern (ILIKE, e.g. %Kroger%)")
	historicalCmd.Flags().StringVar(&historicalFrom, "from", "", "Historical start month (YYYY-MM-DD)")
	historicalCmd.Flags().StringVar(&historicalTo, "to", "", "Historical end month (YYYY-MM-DD)")
	historicalCmd.Flags().StringVar(&historicalMinGrowth, "min-growth", "", "Minimum MoM growth % filter (rows without a growth figure always pass)")
	historicalCmd.Flags().IntVar(&historicalLimit, "limit", 0, "Maximum rows to display (defaults to config)")
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s value: %w", name, err)
	}
	return &t, nil
}
