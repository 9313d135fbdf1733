package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"consumption-analytics/internal/growth"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	listFactsSQL = `SELECT
        account_id,
        account_name,
        business_unit,
        period,
        amount
    FROM consumption_monthly
    WHERE account_name ILIKE $1
      AND period >= $2
      AND period <= $3
    ORDER BY account_id, period;`

	upsertFactSQL = `INSERT INTO consumption_monthly (
        account_id,
        account_name,
        business_unit,
        period,
        amount
    ) VALUES (
        $1,$2,$3,$4,$5
    )
    ON CONFLICT (account_id, period) DO UPDATE
    SET account_name  = EXCLUDED.account_name,
        business_unit = EXCLUDED.business_unit,
        amount        = EXCLUDED.amount;`

	baselineAmountSQL = `SELECT COALESCE(SUM(amount), 0)
    FROM consumption_monthly
    WHERE account_name ILIKE $1
      AND period >= $2
      AND period <= $3
      AND period = (
          SELECT MAX(period)
          FROM consumption_monthly
          WHERE account_name ILIKE $1
            AND period >= $2
            AND period <= $3
      );`

	countFactsSQL = `SELECT COUNT(*) FROM consumption_monthly;`

	upsertSnapshotSQL = `INSERT INTO growth_snapshots (
        account_id,
        account_name,
        period,
        amount,
        prior_amount,
        growth_pct,
        refreshed_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    ON CONFLICT (account_id) DO UPDATE
    SET account_name = EXCLUDED.account_name,
        period       = EXCLUDED.period,
        amount       = EXCLUDED.amount,
        prior_amount = EXCLUDED.prior_amount,
        growth_pct   = EXCLUDED.growth_pct,
        refreshed_at = EXCLUDED.refreshed_at;`

	listSnapshotsSQL = `SELECT
        account_id,
        account_name,
        period,
        amount,
        prior_amount,
        growth_pct,
        refreshed_at
    FROM growth_snapshots
    ORDER BY account_id
    LIMIT $1;`

	insertReportRunSQL = `INSERT INTO report_runs (
        kind,
        account_pattern,
        window_start,
        window_end,
        row_count,
        status,
        error
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    RETURNING id, kind, account_pattern, window_start, window_end, row_count, status, error, created_at;`

	listRecentRunsSQL = `SELECT
        id,
        kind,
        account_pattern,
        window_start,
        window_end,
        row_count,
        status,
        error,
        created_at
    FROM report_runs
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteRunsBeforeSQL = `DELETE FROM report_runs WHERE created_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// FactStore defines read/write access to monthly consumption facts.
type FactStore interface {
	ListFacts(ctx context.Context, filter FactFilter) ([]growth.MonthlyFact, error)
	UpsertFact(ctx context.Context, fact growth.MonthlyFact) error
	BaselineAmount(ctx context.Context, filter FactFilter) (decimal.Decimal, error)
	CountFacts(ctx context.Context) (int64, error)
}

// SnapshotStore persists materialised growth snapshots.
type SnapshotStore interface {
	UpsertGrowthSnapshot(ctx context.Context, snapshot GrowthSnapshot) error
	ListGrowthSnapshots(ctx context.Context, limit int) ([]GrowthSnapshot, error)
}

// RunStore defines operations for report-run auditing.
type RunStore interface {
	InsertReportRun(ctx context.Context, run ReportRun) (ReportRun, error)
	ListRecentRuns(ctx context.Context, limit int) ([]ReportRun, error)
	DeleteRunsBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates warehouse access for facts, snapshots, and run audits.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// Unlock is best effort; the lock dies with the session anyway.
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// ListFacts fetches month-normalised consumption facts matching the filter,
// ordered by account then period ascending.
func (s *Store) ListFacts(ctx context.Context, filter FactFilter) ([]growth.MonthlyFact, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	pattern := filter.AccountPattern
	if pattern == "" {
		pattern = "%"
	}

	rows, queryErr := pool.Query(ctx, listFactsSQL, pattern, filter.From, filter.To)
	if queryErr != nil {
		return nil, fmt.Errorf("list facts: %w", queryErr)
	}
	defer rows.Close()

	facts := make([]growth.MonthlyFact, 0)
	for rows.Next() {
		fact, scanErr := scanFact(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		facts = append(facts, fact)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return facts, nil
}

// UpsertFact persists or updates one account-month of consumption.
func (s *Store) UpsertFact(ctx context.Context, fact growth.MonthlyFact) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, upsertFactSQL,
		fact.AccountID,
		fact.AccountName,
		fact.BusinessUnit,
		fact.Period,
		fact.Amount.String(),
	)
	if execErr != nil {
		return fmt.Errorf("upsert fact: %w", execErr)
	}
	return nil
}

// BaselineAmount sums the amounts of the most recent month inside the filter
// window. Returns zero when the window holds no facts.
func (s *Store) BaselineAmount(ctx context.Context, filter FactFilter) (decimal.Decimal, error) {
	pool, err := s.getPool()
	if err != nil {
		return decimal.Decimal{}, err
	}

	pattern := filter.AccountPattern
	if pattern == "" {
		pattern = "%"
	}

	var baselineStr string
	if scanErr := pool.QueryRow(ctx, baselineAmountSQL, pattern, filter.From, filter.To).Scan(&baselineStr); scanErr != nil {
		return decimal.Decimal{}, fmt.Errorf("baseline amount: %w", scanErr)
	}

	baseline, convErr := decimal.NewFromString(baselineStr)
	if convErr != nil {
		return decimal.Decimal{}, fmt.Errorf("parse baseline amount: %w", convErr)
	}
	return baseline, nil
}

// CountFacts counts stored facts.
func (s *Store) CountFacts(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countFactsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count facts: %w", scanErr)
	}
	return count, nil
}

// UpsertGrowthSnapshot persists or updates an account's latest growth row.
func (s *Store) UpsertGrowthSnapshot(ctx context.Context, snapshot GrowthSnapshot) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var prior interface{}
	if snapshot.PriorAmount != nil {
		prior = snapshot.PriorAmount.String()
	}
	var growthPct interface{}
	if snapshot.GrowthPct != nil {
		growthPct = snapshot.GrowthPct.String()
	}

	_, execErr := pool.Exec(ctx, upsertSnapshotSQL,
		snapshot.AccountID,
		snapshot.AccountName,
		snapshot.Period,
		snapshot.Amount.String(),
		prior,
		growthPct,
		snapshot.RefreshedAt,
	)
	if execErr != nil {
		return fmt.Errorf("upsert growth snapshot: %w", execErr)
	}
	return nil
}

// ListGrowthSnapshots lists materialised snapshots ordered by account.
func (s *Store) ListGrowthSnapshots(ctx context.Context, limit int) ([]GrowthSnapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSnapshotsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list growth snapshots: %w", queryErr)
	}
	defer rows.Close()

	snapshots := make([]GrowthSnapshot, 0, limit)
	for rows.Next() {
		snapshot, scanErr := scanSnapshot(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		snapshots = append(snapshots, snapshot)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return snapshots, nil
}

// InsertReportRun persists a report-run audit row.
func (s *Store) InsertReportRun(ctx context.Context, run ReportRun) (ReportRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return ReportRun{}, err
	}

	var errMsg interface{}
	if run.Error != nil {
		errMsg = *run.Error
	}

	row := pool.QueryRow(ctx, insertReportRunSQL,
		run.Kind,
		run.AccountPattern,
		run.WindowStart,
		run.WindowEnd,
		run.RowCount,
		run.Status,
		errMsg,
	)

	rec, scanErr := scanReportRun(row)
	if scanErr != nil {
		return ReportRun{}, fmt.Errorf("insert report run: %w", scanErr)
	}
	return rec, nil
}

// ListRecentRuns lists most recent report runs.
func (s *Store) ListRecentRuns(ctx context.Context, limit int) ([]ReportRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentRunsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent runs: %w", queryErr)
	}
	defer rows.Close()

	runs := make([]ReportRun, 0, limit)
	for rows.Next() {
		rec, scanErr := scanReportRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		runs = append(runs, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return runs, nil
}

// DeleteRunsBefore deletes historical report runs.
func (s *Store) DeleteRunsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteRunsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete runs before: %w", execErr)
	}
	return nil
}

var (
	_ FactStore      = (*Store)(nil)
	_ SnapshotStore  = (*Store)(nil)
	_ RunStore       = (*Store)(nil)
	_ AdvisoryLocker = (*Store)(nil)
)

func scanFact(rows pgx.Rows) (growth.MonthlyFact, error) {
	var (
		fact         growth.MonthlyFact
		businessUnit sql.NullString
		amountStr    string
	)

	if err := rows.Scan(
		&fact.AccountID,
		&fact.AccountName,
		&businessUnit,
		&fact.Period,
		&amountStr,
	); err != nil {
		return growth.MonthlyFact{}, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return growth.MonthlyFact{}, fmt.Errorf("parse amount: %w", err)
	}
	fact.Amount = amount
	if businessUnit.Valid {
		fact.BusinessUnit = businessUnit.String
	}
	return fact, nil
}

func scanSnapshot(rows pgx.Rows) (GrowthSnapshot, error) {
	var (
		snapshot  GrowthSnapshot
		amountStr string
		priorStr  sql.NullString
		pctStr    sql.NullString
	)

	if err := rows.Scan(
		&snapshot.AccountID,
		&snapshot.AccountName,
		&snapshot.Period,
		&amountStr,
		&priorStr,
		&pctStr,
		&snapshot.RefreshedAt,
	); err != nil {
		return GrowthSnapshot{}, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return GrowthSnapshot{}, fmt.Errorf("parse snapshot amount: %w", err)
	}
	snapshot.Amount = amount

	if priorStr.Valid {
		prior, convErr := decimal.NewFromString(priorStr.String)
		if convErr != nil {
			return GrowthSnapshot{}, fmt.Errorf("parse prior amount: %w", convErr)
		}
		snapshot.PriorAmount = &prior
	}
	if pctStr.Valid {
		pct, convErr := decimal.NewFromString(pctStr.String)
		if convErr != nil {
			return GrowthSnapshot{}, fmt.Errorf("parse growth pct: %w", convErr)
		}
		snapshot.GrowthPct = &pct
	}
	return snapshot, nil
}

func scanReportRun(row pgx.Row) (ReportRun, error) {
	var (
		rec    ReportRun
		errMsg sql.NullString
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Kind,
		&rec.AccountPattern,
		&rec.WindowStart,
		&rec.WindowEnd,
		&rec.RowCount,
		&rec.Status,
		&errMsg,
		&rec.CreatedAt,
	); err != nil {
		return ReportRun{}, err
	}
	if errMsg.Valid {
		msg := errMsg.String
		rec.Error = &msg
	}
	return rec, nil
}
