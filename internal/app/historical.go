package app

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"consumption-analytics/internal/render"
	"consumption-analytics/internal/report"
	"consumption-analytics/internal/storage"
)

// Historical runs the MoM growth report and renders it as a console table.
func (a *App) Historical(ctx context.Context, opts HistoricalOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot query consumption")
	}
	if closeStore != nil {
		defer closeStore()
	}

	result, err := a.runHistorical(ctx, store, opts)
	if err != nil {
		return err
	}

	return render.GrowthTable(result.Rows)
}

func (a *App) runHistorical(ctx context.Context, store *storage.Store, opts HistoricalOptions) (*report.HistoricalReport, error) {
	svc := a.newService(store, nil, nil)
	from, to := a.historicalWindow(opts.From, opts.To)

	pattern := opts.AccountPattern
	if pattern == "" {
		pattern = a.Config.Query.DefaultAccountPattern
	}

	var minGrowth *decimal.Decimal
	if opts.MinGrowthPct != nil {
		min := decimal.NewFromFloat(*opts.MinGrowthPct)
		minGrowth = &min
	}

	return svc.Historical(ctx, report.HistoricalParams{
		AccountPattern: pattern,
		From:           from,
		To:             to,
		MinGrowthPct:   minGrowth,
		Limit:          a.Config.ClampLimit(opts.Limit),
	})
}
