package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"consumption-analytics/internal/growth"
)

// SimulateAlert drives the contraction-alert path with a synthetic
// prior/current amount pair, without touching the warehouse.
func (a *App) SimulateAlert(ctx context.Context, prior, current decimal.Decimal) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is not enabled")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no alert channel configured")
	}

	svc := a.newService(nil, nil, notifier)

	period := growth.MonthStart(time.Now().UTC())
	row := growth.GrowthRow{
		AccountID:   "simulated",
		AccountName: "Simulated Account",
		Period:      period,
		Amount:      current.Round(2),
	}
	priorRounded := prior.Round(2)
	row.PriorAmount = &priorRounded
	if prior.IsPositive() {
		pct := current.Sub(prior).Div(prior).Mul(decimal.NewFromInt(100)).Round(2)
		row.GrowthPct = &pct
	}

	sent, err := svc.AlertIfContracting(ctx, row)
	if err != nil {
		return err
	}
	if !sent {
		a.Logger.Info().Msg("growth above contraction threshold; no alert emitted")
	}
	return nil
}
