package app

import (
	"context"
	"errors"
	"fmt"

	"consumption-analytics/internal/export"
)

// Export kinds.
const (
	ExportHistorical = "historical"
	ExportForecast   = "forecast"
)

// Export writes report data as CSV, XLSX, and/or a PNG trend chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.XLSXPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv, --xlsx, or --png must be provided")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	limit := opts.MaxRows
	if limit <= 0 {
		limit = a.Config.Export.MaxRows
	}

	switch opts.Kind {
	case ExportHistorical:
		result, err := a.runHistorical(ctx, store, HistoricalOptions{
			AccountPattern: opts.AccountPattern,
			From:           opts.From,
			To:             opts.To,
			Limit:          limit,
		})
		if err != nil {
			return err
		}
		if len(result.Rows) == 0 {
			a.Logger.Info().Msg("no rows found for export window")
			return nil
		}
		a.Logger.Info().Int("rows", len(result.Rows)).Msg("exporting historical report")

		if opts.CSVPath != "" {
			if err := export.WriteGrowthCSV(opts.CSVPath, result.Rows); err != nil {
				return err
			}
		}
		if opts.XLSXPath != "" {
			if err := export.WriteGrowthXLSX(opts.XLSXPath, result.Rows); err != nil {
				return err
			}
		}
		if opts.PNGPath != "" {
			if err := export.WriteTrendPNG(opts.PNGPath, result.Rows, nil); err != nil {
				return err
			}
		}
		return nil

	case ExportForecast:
		result, err := a.runForecast(ctx, store, ForecastOptions{
			AccountPattern: opts.AccountPattern,
			Start:          opts.From,
			End:            opts.To,
		})
		if err != nil {
			return err
		}
		if len(result.Rows) == 0 {
			a.Logger.Info().Msg("no forecast months for export window")
			return nil
		}
		a.Logger.Info().Int("rows", len(result.Rows)).Msg("exporting forecast scenario")

		if opts.CSVPath != "" {
			if err := export.WriteForecastCSV(opts.CSVPath, result.Rows); err != nil {
				return err
			}
		}
		if opts.XLSXPath != "" {
			if err := export.WriteForecastXLSX(opts.XLSXPath, result.Rows); err != nil {
				return err
			}
		}
		if opts.PNGPath != "" {
			if err := export.WriteTrendPNG(opts.PNGPath, nil, result.Rows); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown export kind %q (want %s or %s)", opts.Kind, ExportHistorical, ExportForecast)
	}
}
