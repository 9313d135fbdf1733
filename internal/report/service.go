package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"consumption-analytics/internal/alerting"
	"consumption-analytics/internal/config"
	"consumption-analytics/internal/forecast"
	"consumption-analytics/internal/growth"
	"consumption-analytics/internal/scheduler"
	"consumption-analytics/internal/storage"
)

// Run kinds recorded in the report_runs audit table.
const (
	KindHistorical = "historical"
	KindForecast   = "forecast"
	KindRefresh    = "refresh"
)

// HistoricalParams select the historical consumption window.
type HistoricalParams struct {
	AccountPattern string
	From           time.Time
	To             time.Time
	MinGrowthPct   *decimal.Decimal
	Limit          int
}

// HistoricalReport is the computed MoM growth view.
type HistoricalReport struct {
	Params HistoricalParams
	Rows   []growth.GrowthRow
}

// ForecastParams select the baseline window and the projection horizon.
type ForecastParams struct {
	AccountPattern string
	BaselineFrom   time.Time
	BaselineTo     time.Time
	Start          time.Time
	End            time.Time
}

// ForecastReport is the projected organic-growth scenario.
type ForecastReport struct {
	Params   ForecastParams
	Baseline decimal.Decimal
	Rows     []forecast.ForecastRow
}

// Service orchestrates fact fetching, growth computation, projection,
// snapshot refreshes, and contraction alerting.
type Service struct {
	scheduler *scheduler.Scheduler
	facts     storage.FactStore
	snapshots storage.SnapshotStore
	runs      storage.RunStore
	notifier  alerting.Notifier
	logger    zerolog.Logger

	rates          map[int]decimal.Decimal
	projectorOpts  forecast.Options
	threshold      decimal.Decimal
	channels       []string
	alertsOn       bool
	lookbackMonths int
	locker         storage.AdvisoryLocker
	lockKey        int64
}

// New constructs the reporting service.
func New(cfg *config.Config, sched *scheduler.Scheduler, facts storage.FactStore, snapshots storage.SnapshotStore, runs storage.RunStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	rates := make(map[int]decimal.Decimal)
	for bucket, rate := range cfg.GrowthRates() {
		rates[bucket] = decimal.NewFromFloat(rate)
	}

	var locker storage.AdvisoryLocker
	if l, ok := facts.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		scheduler:      sched,
		facts:          facts,
		snapshots:      snapshots,
		runs:           runs,
		notifier:       notifier,
		logger:         logger.With().Str("component", "report").Logger(),
		rates:          rates,
		projectorOpts:  forecast.Options{AllowZeroBaseline: cfg.Forecast.AllowZeroBaseline},
		threshold:      decimal.NewFromFloat(cfg.Alerting.ContractionPct),
		channels:       cfg.Alerting.Channels,
		alertsOn:       cfg.Alerting.Enabled,
		lookbackMonths: cfg.Query.LookbackMonths,
		locker:         locker,
		lockKey:        cfg.Refresh.AdvisoryLockKey,
	}
}

// Historical fetches the consumption series and computes the MoM growth view.
func (s *Service) Historical(ctx context.Context, params HistoricalParams) (*HistoricalReport, error) {
	if s.facts == nil {
		return nil, fmt.Errorf("fact store not configured")
	}

	facts, err := s.facts.ListFacts(ctx, storage.FactFilter{
		AccountPattern: params.AccountPattern,
		From:           params.From,
		To:             params.To,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch facts: %w", err)
	}

	rows, err := growth.Compute(facts, growth.Options{
		MinGrowthPct: params.MinGrowthPct,
		RowLimit:     params.Limit,
	})
	if err != nil {
		return nil, err
	}

	s.recordRun(ctx, storage.ReportRun{
		Kind:           KindHistorical,
		AccountPattern: params.AccountPattern,
		WindowStart:    params.From,
		WindowEnd:      params.To,
		RowCount:       len(rows),
		Status:         "complete",
	})

	return &HistoricalReport{Params: params, Rows: rows}, nil
}

// Forecast resolves the baseline from the most recent historical month and
// projects the organic-growth scenario across the requested horizon.
func (s *Service) Forecast(ctx context.Context, params ForecastParams) (*ForecastReport, error) {
	if s.facts == nil {
		return nil, fmt.Errorf("fact store not configured")
	}

	baseline, err := s.facts.BaselineAmount(ctx, storage.FactFilter{
		AccountPattern: params.AccountPattern,
		From:           params.BaselineFrom,
		To:             params.BaselineTo,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve baseline: %w", err)
	}

	projector, err := forecast.New(s.rates, s.projectorOpts)
	if err != nil {
		return nil, err
	}
	rows := projector.Project(params.Start, params.End, baseline)

	s.recordRun(ctx, storage.ReportRun{
		Kind:           KindForecast,
		AccountPattern: params.AccountPattern,
		WindowStart:    params.Start,
		WindowEnd:      params.End,
		RowCount:       len(rows),
		Status:         "complete",
	})

	return &ForecastReport{Params: params, Baseline: baseline, Rows: rows}, nil
}

// Run begins the aligned snapshot refresh loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.RefreshBucket)
}

// RefreshBucket recomputes every account's latest growth row and materialises
// it as a snapshot, alerting on contractions. Guarded by an advisory lock so
// only one instance refreshes per bucket.
func (s *Service) RefreshBucket(ctx context.Context, bucket time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("bucket", bucket).Msg("skip refresh because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	return s.executeRefresh(ctx, bucket)
}

func (s *Service) executeRefresh(ctx context.Context, bucket time.Time) error {
	if s.facts == nil {
		return fmt.Errorf("fact store not configured")
	}

	now := growth.MonthStart(bucket)
	from := now.AddDate(0, -s.lookbackMonths, 0)

	facts, err := s.facts.ListFacts(ctx, storage.FactFilter{
		AccountPattern: "%",
		From:           from,
		To:             now,
	})
	if err != nil {
		return fmt.Errorf("fetch facts for refresh: %w", err)
	}
	if len(facts) == 0 {
		s.logger.Info().Time("bucket", bucket).Msg("no facts in refresh window")
		return nil
	}

	rows, err := growth.Compute(facts, growth.Options{RowLimit: len(facts)})
	if err != nil {
		return err
	}

	refreshed := time.Now().UTC()
	updated := 0
	alerted := 0
	// Rows are ordered account asc, period desc: the first row per account is
	// its latest month.
	for i, row := range rows {
		if i > 0 && rows[i-1].AccountID == row.AccountID {
			continue
		}

		if s.snapshots != nil {
			snapshot := storage.GrowthSnapshot{
				AccountID:   row.AccountID,
				AccountName: row.AccountName,
				Period:      row.Period,
				Amount:      row.Amount,
				PriorAmount: row.PriorAmount,
				GrowthPct:   row.GrowthPct,
				RefreshedAt: refreshed,
			}
			if err := s.snapshots.UpsertGrowthSnapshot(ctx, snapshot); err != nil {
				s.logger.Error().Err(err).Str("account_id", row.AccountID).Msg("failed to upsert growth snapshot")
				continue
			}
			updated++
		}

		sent, err := s.AlertIfContracting(ctx, row)
		if err != nil {
			s.logger.Error().Err(err).Str("account_id", row.AccountID).Msg("failed to dispatch contraction alert")
		}
		if sent {
			alerted++
		}
	}

	s.recordRun(ctx, storage.ReportRun{
		Kind:           KindRefresh,
		AccountPattern: "%",
		WindowStart:    from,
		WindowEnd:      now,
		RowCount:       updated,
		Status:         "complete",
	})

	s.logger.Info().Time("bucket", bucket).
		Int("accounts", updated).
		Int("alerts", alerted).
		Msg("growth snapshots refreshed")
	return nil
}

// AlertIfContracting emits a contraction alert when the row's growth is at or
// below the configured threshold. Returns whether an alert was sent.
func (s *Service) AlertIfContracting(ctx context.Context, row growth.GrowthRow) (bool, error) {
	if !s.alertsOn || s.notifier == nil || row.GrowthPct == nil || row.PriorAmount == nil {
		return false, nil
	}
	if row.GrowthPct.GreaterThan(s.threshold) {
		return false, nil
	}

	note := alerting.Notification{
		AccountID:    row.AccountID,
		AccountName:  row.AccountName,
		Period:       row.Period,
		Amount:       row.Amount,
		PriorAmount:  *row.PriorAmount,
		GrowthPct:    *row.GrowthPct,
		ThresholdPct: s.threshold,
		Channels:     s.channels,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) recordRun(ctx context.Context, run storage.ReportRun) {
	if s.runs == nil {
		return
	}
	if _, err := s.runs.InsertReportRun(ctx, run); err != nil {
		s.logger.Error().Err(err).Str("kind", run.Kind).Msg("failed to record report run")
	}
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
