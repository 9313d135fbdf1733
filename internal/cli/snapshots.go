package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"consumption-analytics/internal/app"
)

var (
	snapshotsLimit int
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Display materialised per-account growth snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		if snapshotsLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.SnapshotsOptions{
			Limit: snapshotsLimit,
		}

		return getApp().Snapshots(cmd.Context(), opts)
	},
}

func init() {
	snapshotsCmd.Flags().IntVar(&snapshotsLimit, "limit", 50, "Number of snapshots to display")
}
