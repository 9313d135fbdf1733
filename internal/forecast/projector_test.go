package forecast

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func rates(pairs map[int]float64) map[int]decimal.Decimal {
	out := make(map[int]decimal.Decimal, len(pairs))
	for bucket, rate := range pairs {
		out[bucket] = decimal.NewFromFloat(rate)
	}
	return out
}

func TestNewRejectsEmptyRates(t *testing.T) {
	_, err := New(nil, Options{})
	require.Error(t, err)
	_, err = New(map[int]decimal.Decimal{}, Options{})
	require.Error(t, err)
}

func TestNewRejectsInvalidBucket(t *testing.T) {
	_, err := New(rates(map[int]float64{0: 0.05}), Options{})
	require.Error(t, err)
}

func TestProjectSingleMonth(t *testing.T) {
	p, err := New(rates(map[int]float64{1: 0.05}), Options{})
	require.NoError(t, err)

	rows := p.Project(month(2025, time.January), month(2025, time.January), decimal.NewFromInt(1000))
	require.Len(t, rows, 1)
	require.Equal(t, "Yr1", rows[0].YearBucket)
	require.Equal(t, "1050.00", rows[0].ProjectedAmount.StringFixed(2))
	require.Equal(t, "5.00", rows[0].GrowthPctApplied.StringFixed(2))
}

func TestProjectCompoundsAtYearBoundary(t *testing.T) {
	p, err := New(rates(map[int]float64{1: 0.10, 2: 0.10}), Options{})
	require.NoError(t, err)

	rows := p.Project(month(2025, time.January), month(2026, time.January), decimal.NewFromInt(1000))
	require.Len(t, rows, 13)

	// Every Yr1 month projects baseline * 1.10.
	for _, row := range rows[:12] {
		require.Equal(t, "Yr1", row.YearBucket)
		require.Equal(t, "1100.00", row.ProjectedAmount.StringFixed(2))
	}

	// First Yr2 month: prior year's growth has compounded before the Yr2
	// rate applies.
	yr2 := rows[12]
	require.Equal(t, "Yr2", yr2.YearBucket)
	require.True(t, yr2.Period.Equal(month(2026, time.January)))
	require.Equal(t, "1210.00", yr2.ProjectedAmount.StringFixed(2))
}

func TestProjectEmptyWhenEndBeforeStart(t *testing.T) {
	p, err := New(rates(map[int]float64{1: 0.05}), Options{})
	require.NoError(t, err)

	rows := p.Project(month(2025, time.June), month(2025, time.January), decimal.NewFromInt(1000))
	require.Empty(t, rows)
}

func TestProjectFallsBackToHighestConfiguredBucket(t *testing.T) {
	p, err := New(rates(map[int]float64{1: 0.05, 2: 0.05}), Options{})
	require.NoError(t, err)

	// 2027-06 is a bucket-3 month for a 2025-01 start.
	rows := p.Project(month(2025, time.January), month(2027, time.June), decimal.NewFromInt(1000))
	last := rows[len(rows)-1]
	require.Equal(t, "Yr3", last.YearBucket)
	require.Equal(t, "5.00", last.GrowthPctApplied.StringFixed(2), "missing bucket must fall back to the highest configured rate, not zero")

	// compound = 1.05 (after Yr1) * 1.05 (after Yr2); * 1.05 Yr3 rate.
	require.Equal(t, "1157.63", last.ProjectedAmount.StringFixed(2))
}

func TestProjectZeroBaselinePlaceholder(t *testing.T) {
	p, err := New(rates(map[int]float64{1: 0.05}), Options{})
	require.NoError(t, err)

	rows := p.Project(month(2025, time.January), month(2025, time.January), decimal.Zero)
	require.Len(t, rows, 1)
	require.Equal(t, "1.05", rows[0].ProjectedAmount.StringFixed(2))
}

func TestProjectZeroBaselineOptOut(t *testing.T) {
	p, err := New(rates(map[int]float64{1: 0.05}), Options{AllowZeroBaseline: true})
	require.NoError(t, err)

	rows := p.Project(month(2025, time.January), month(2025, time.January), decimal.Zero)
	require.Len(t, rows, 1)
	require.True(t, rows[0].ProjectedAmount.IsZero())
}

func TestProjectNegativeBaselinePassesThrough(t *testing.T) {
	p, err := New(rates(map[int]float64{1: 0.10}), Options{})
	require.NoError(t, err)

	rows := p.Project(month(2025, time.January), month(2025, time.January), decimal.NewFromInt(-100))
	require.Len(t, rows, 1)
	require.Equal(t, "-110.00", rows[0].ProjectedAmount.StringFixed(2))
}

func TestProjectTruncatesMidMonthDates(t *testing.T) {
	p, err := New(rates(map[int]float64{1: 0.05}), Options{})
	require.NoError(t, err)

	rows := p.Project(
		time.Date(2025, time.January, 17, 13, 45, 0, 0, time.UTC),
		time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC),
		decimal.NewFromInt(1000),
	)
	require.Len(t, rows, 3)
	require.True(t, rows[0].Period.Equal(month(2025, time.January)))
	require.True(t, rows[2].Period.Equal(month(2025, time.March)))
}

func TestBucketLabel(t *testing.T) {
	start := month(2025, time.January)
	cases := []struct {
		month time.Time
		want  string
	}{
		{month(2024, time.December), "Historical"},
		{month(2025, time.January), "Yr1"},
		{month(2025, time.December), "Yr1"},
		{month(2026, time.January), "Yr2"},
		{month(2027, time.January), "Yr3"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, BucketLabel(start, tc.month), "month %s", tc.month)
	}
}
