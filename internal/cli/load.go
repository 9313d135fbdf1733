package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"consumption-analytics/internal/app"
)

var (
	loadPath   string
	loadStrict bool
	loadDryRun bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load monthly consumption facts from a CSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loadPath == "" {
			return fmt.Errorf("--file must be provided")
		}

		opts := app.LoadOptions{
			Path:   loadPath,
			Strict: loadStrict,
			DryRun: loadDryRun,
		}

		return getApp().Load(cmd.Context(), opts)
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadPath, "file", "", "CSV file with columns account_id,account_name,business_unit,period,amount")
	loadCmd.Flags().BoolVar(&loadStrict, "strict", false, "Fail the whole batch if any row is malformed")
	loadCmd.Flags().BoolVar(&loadDryRun, "dry-run", false, "Validate without writing to storage")
}
