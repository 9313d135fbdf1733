package report

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"consumption-analytics/internal/alerting"
	"consumption-analytics/internal/config"
	"consumption-analytics/internal/growth"
	"consumption-analytics/internal/storage"
)

type fakeFactStore struct {
	facts    []growth.MonthlyFact
	baseline decimal.Decimal
}

func (f *fakeFactStore) ListFacts(ctx context.Context, filter storage.FactFilter) ([]growth.MonthlyFact, error) {
	return f.facts, nil
}

func (f *fakeFactStore) UpsertFact(ctx context.Context, fact growth.MonthlyFact) error {
	f.facts = append(f.facts, fact)
	return nil
}

func (f *fakeFactStore) BaselineAmount(ctx context.Context, filter storage.FactFilter) (decimal.Decimal, error) {
	return f.baseline, nil
}

func (f *fakeFactStore) CountFacts(ctx context.Context) (int64, error) {
	return int64(len(f.facts)), nil
}

type fakeSnapshotStore struct {
	upserts []storage.GrowthSnapshot
}

func (f *fakeSnapshotStore) UpsertGrowthSnapshot(ctx context.Context, snapshot storage.GrowthSnapshot) error {
	f.upserts = append(f.upserts, snapshot)
	return nil
}

func (f *fakeSnapshotStore) ListGrowthSnapshots(ctx context.Context, limit int) ([]storage.GrowthSnapshot, error) {
	return f.upserts, nil
}

type fakeRunStore struct {
	runs []storage.ReportRun
}

func (f *fakeRunStore) InsertReportRun(ctx context.Context, run storage.ReportRun) (storage.ReportRun, error) {
	run.ID = int64(len(f.runs) + 1)
	f.runs = append(f.runs, run)
	return run, nil
}

func (f *fakeRunStore) ListRecentRuns(ctx context.Context, limit int) ([]storage.ReportRun, error) {
	return f.runs, nil
}

func (f *fakeRunStore) DeleteRunsBefore(ctx context.Context, olderThan time.Time) error {
	return nil
}

type fakeNotifier struct {
	notes []alerting.Notification
}

func (f *fakeNotifier) Notify(ctx context.Context, note alerting.Notification) error {
	f.notes = append(f.notes, note)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Query: config.QueryConfig{
			DefaultAccountPattern: "%",
			DefaultLimit:          500,
			MaxLimit:              10000,
			LookbackMonths:        12,
		},
		Forecast: config.ForecastConfig{
			GrowthPctByYear: []float64{10.0, 10.0},
			HorizonMonths:   36,
		},
		Alerting: config.AlertingConfig{
			Enabled:        true,
			ContractionPct: -15.0,
			Channels:       []string{"telegram"},
		},
	}
}

func monthlyFact(account string, year int, m time.Month, amount float64) growth.MonthlyFact {
	return growth.MonthlyFact{
		AccountID:   account,
		AccountName: account,
		Period:      time.Date(year, m, 1, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromFloat(amount),
	}
}

func TestHistoricalComputesGrowthAndRecordsRun(t *testing.T) {
	facts := &fakeFactStore{facts: []growth.MonthlyFact{
		monthlyFact("acme", 2025, time.January, 100),
		monthlyFact("acme", 2025, time.February, 150),
	}}
	runs := &fakeRunStore{}

	svc := New(testConfig(), nil, facts, nil, runs, nil, zerolog.Nop())

	result, err := svc.Historical(context.Background(), HistoricalParams{
		AccountPattern: "%",
		From:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		To:             time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		Limit:          500,
	})
	if err != nil {
		t.Fatalf("Historical failed: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	if result.Rows[0].GrowthPct == nil || result.Rows[0].GrowthPct.StringFixed(2) != "50.00" {
		t.Fatalf("expected 50.00%% growth on the latest row, got %+v", result.Rows[0].GrowthPct)
	}

	if len(runs.runs) != 1 || runs.runs[0].Kind != KindHistorical {
		t.Fatalf("expected one historical run record, got %+v", runs.runs)
	}
	if runs.runs[0].RowCount != 2 {
		t.Fatalf("run record should carry the row count, got %d", runs.runs[0].RowCount)
	}
}

func TestForecastCompoundsFromStoredBaseline(t *testing.T) {
	facts := &fakeFactStore{baseline: decimal.NewFromInt(1000)}
	runs := &fakeRunStore{}

	svc := New(testConfig(), nil, facts, nil, runs, nil, zerolog.Nop())

	result, err := svc.Forecast(context.Background(), ForecastParams{
		AccountPattern: "%",
		Start:          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	if !result.Baseline.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected baseline 1000, got %s", result.Baseline)
	}
	if len(result.Rows) != 13 {
		t.Fatalf("expected 13 forecast months, got %d", len(result.Rows))
	}

	last := result.Rows[12]
	if last.YearBucket != "Yr2" {
		t.Fatalf("month 13 should be Yr2, got %s", last.YearBucket)
	}
	if last.ProjectedAmount.StringFixed(2) != "1210.00" {
		t.Fatalf("Yr1 growth must compound before the Yr2 rate: want 1210.00, got %s", last.ProjectedAmount.StringFixed(2))
	}

	if len(runs.runs) != 1 || runs.runs[0].Kind != KindForecast {
		t.Fatalf("expected one forecast run record, got %+v", runs.runs)
	}
}

func TestRefreshBucketSnapshotsLatestMonthAndAlerts(t *testing.T) {
	facts := &fakeFactStore{facts: []growth.MonthlyFact{
		monthlyFact("acme", 2025, time.April, 1000),
		monthlyFact("acme", 2025, time.May, 700), // -30%: contraction
		monthlyFact("globex", 2025, time.April, 500),
		monthlyFact("globex", 2025, time.May, 550), // +10%: healthy
	}}
	snapshots := &fakeSnapshotStore{}
	runs := &fakeRunStore{}
	notifier := &fakeNotifier{}

	svc := New(testConfig(), nil, facts, snapshots, runs, notifier, zerolog.Nop())

	bucket := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := svc.RefreshBucket(context.Background(), bucket); err != nil {
		t.Fatalf("RefreshBucket failed: %v", err)
	}

	if len(snapshots.upserts) != 2 {
		t.Fatalf("expected one snapshot per account, got %d", len(snapshots.upserts))
	}
	for _, snap := range snapshots.upserts {
		if snap.Period.Month() != time.May {
			t.Fatalf("snapshot should hold the latest month, got %s for %s", snap.Period, snap.AccountID)
		}
	}

	if len(notifier.notes) != 1 {
		t.Fatalf("expected exactly one contraction alert, got %d", len(notifier.notes))
	}
	if notifier.notes[0].AccountID != "acme" {
		t.Fatalf("the contracting account should alert, got %s", notifier.notes[0].AccountID)
	}
	if notifier.notes[0].GrowthPct.StringFixed(2) != "-30.00" {
		t.Fatalf("expected -30.00%% growth in the alert, got %s", notifier.notes[0].GrowthPct)
	}

	if len(runs.runs) != 1 || runs.runs[0].Kind != KindRefresh {
		t.Fatalf("expected one refresh run record, got %+v", runs.runs)
	}
}

func TestAlertIfContractingRespectsThreshold(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := New(testConfig(), nil, nil, nil, nil, notifier, zerolog.Nop())

	prior := decimal.NewFromInt(1000)
	mild := decimal.NewFromInt(-10)
	row := growth.GrowthRow{
		AccountID:   "acme",
		AccountName: "acme",
		Period:      time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromInt(900),
		PriorAmount: &prior,
		GrowthPct:   &mild,
	}

	sent, err := svc.AlertIfContracting(context.Background(), row)
	if err != nil {
		t.Fatalf("AlertIfContracting failed: %v", err)
	}
	if sent {
		t.Fatal("-10% is above the -15% threshold; no alert expected")
	}

	severe := decimal.NewFromInt(-40)
	row.GrowthPct = &severe
	sent, err = svc.AlertIfContracting(context.Background(), row)
	if err != nil {
		t.Fatalf("AlertIfContracting failed: %v", err)
	}
	if !sent {
		t.Fatal("-40% should trigger the contraction alert")
	}
}
