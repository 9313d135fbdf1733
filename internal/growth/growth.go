package growth

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyFact is one account-month of consumption, period normalised to the
// first day of the month.
type MonthlyFact struct {
	AccountID    string
	AccountName  string
	BusinessUnit string
	Period       time.Time
	Amount       decimal.Decimal
}

// GrowthRow is a computed historical row: the fact plus its prior-month amount
// and month-over-month growth. PriorAmount is nil for the first observation of
// an account; GrowthPct is nil whenever the prior amount is absent or not
// strictly positive.
type GrowthRow struct {
	AccountID    string
	AccountName  string
	BusinessUnit string
	Period       time.Time
	Amount       decimal.Decimal
	PriorAmount  *decimal.Decimal
	GrowthPct    *decimal.Decimal
}

// Options tune a Compute invocation.
type Options struct {
	// MinGrowthPct filters output to rows whose growth is at least this value.
	// Rows without a growth figure always pass.
	MinGrowthPct *decimal.Decimal
	// RowLimit caps the number of returned rows, applied after sorting and
	// filtering. Must be positive.
	RowLimit int
}

var hundred = decimal.NewFromInt(100)

// Compute derives month-over-month growth rows from a consumption series.
//
// Facts are grouped by account and sorted by period ascending internally; the
// caller does not need to pre-sort. "Prior" means the previous row in the
// sorted series for the account, not the previous calendar month, matching the
// LAG() window the warehouse view uses over a possibly sparse series. Zero and
// negative amounts participate as priors but are excluded from the output.
// Amounts and percentages are rounded to 2 decimal places, half away from
// zero. Output is ordered by account ascending, then period descending.
func Compute(facts []MonthlyFact, opts Options) ([]GrowthRow, error) {
	if opts.RowLimit <= 0 {
		return nil, fmt.Errorf("growth: row limit must be greater than zero, got %d", opts.RowLimit)
	}

	series := make([]MonthlyFact, len(facts))
	copy(series, facts)
	for i := range series {
		series[i].Period = MonthStart(series[i].Period)
	}

	sort.SliceStable(series, func(i, j int) bool {
		if series[i].AccountID != series[j].AccountID {
			return series[i].AccountID < series[j].AccountID
		}
		return series[i].Period.Before(series[j].Period)
	})

	rows := make([]GrowthRow, 0, len(series))
	for i, fact := range series {
		row := GrowthRow{
			AccountID:    fact.AccountID,
			AccountName:  fact.AccountName,
			BusinessUnit: fact.BusinessUnit,
			Period:       fact.Period,
			Amount:       fact.Amount.Round(2),
		}

		if i > 0 && series[i-1].AccountID == fact.AccountID {
			prior := series[i-1].Amount.Round(2)
			row.PriorAmount = &prior
			if series[i-1].Amount.IsPositive() {
				pct := fact.Amount.Sub(series[i-1].Amount).
					Div(series[i-1].Amount).
					Mul(hundred).
					Round(2)
				row.GrowthPct = &pct
			}
		}

		if !fact.Amount.IsPositive() {
			continue
		}
		if opts.MinGrowthPct != nil && row.GrowthPct != nil && row.GrowthPct.LessThan(*opts.MinGrowthPct) {
			continue
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AccountID != rows[j].AccountID {
			return rows[i].AccountID < rows[j].AccountID
		}
		return rows[i].Period.After(rows[j].Period)
	})

	if len(rows) > opts.RowLimit {
		rows = rows[:opts.RowLimit]
	}
	return rows, nil
}

// MonthStart truncates a timestamp to the first day of its month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
