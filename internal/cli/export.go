package cli

import (
	"github.com/spf13/cobra"

	"consumption-analytics/internal/app"
)

var (
	exportKind     string
	exportPattern  string
	exportFrom     string
	exportTo       string
	exportCSVPath  string
	exportXLSXPath string
	exportPNGPath  string
	exportMaxRows  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export report data as CSV, XLSX, and/or a PNG trend chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			Kind:           exportKind,
			AccountPattern: exportPattern,
			CSVPath:        exportCSVPath,
			XLSXPath:       exportXLSXPath,
			PNGPath:        exportPNGPath,
			MaxRows:        exportMaxRows,
		}

		var err error
		if opts.From, err = parseDateFlag("from", exportFrom); err != nil {
			return err
		}
		if opts.To, err = parseDateFlag("to", exportTo); err != nil {
			return err
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportKind, "kind", app.ExportHistorical, "Report to export: historical or forecast")
	exportCmd.Flags().StringVar(&exportPattern, "account", "", "Account name pattern (ILIKE)")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Window start (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Window end (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().StringVar(&exportXLSXPath, "xlsx", "", "Path to write an XLSX spreadsheet")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write a PNG trend chart")
	exportCmd.Flags().IntVar(&exportMaxRows, "max-rows", 0, "Maximum rows to export (defaults to config)")
}
