package app

import (
	"context"
	"errors"

	"consumption-analytics/internal/render"
	"consumption-analytics/internal/report"
	"consumption-analytics/internal/storage"
)

// Forecast runs the organic-growth scenario and renders it as a console table.
func (a *App) Forecast(ctx context.Context, opts ForecastOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot resolve baseline")
	}
	if closeStore != nil {
		defer closeStore()
	}

	result, err := a.runForecast(ctx, store, opts)
	if err != nil {
		return err
	}

	return render.ForecastTable(result.Baseline, result.Rows)
}

func (a *App) runForecast(ctx context.Context, store *storage.Store, opts ForecastOptions) (*report.ForecastReport, error) {
	svc := a.newService(store, nil, nil)

	pattern := opts.AccountPattern
	if pattern == "" {
		pattern = a.Config.Query.DefaultAccountPattern
	}

	baselineFrom, baselineTo := a.historicalWindow(opts.BaselineFrom, opts.BaselineTo)
	start, end := a.forecastWindow(opts.Start, opts.End)

	return svc.Forecast(ctx, report.ForecastParams{
		AccountPattern: pattern,
		BaselineFrom:   baselineFrom,
		BaselineTo:     baselineTo,
		Start:          start,
		End:            end,
	})
}
