package growth

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func fact(account string, year int, month time.Month, amount float64) MonthlyFact {
	return MonthlyFact{
		AccountID:   account,
		AccountName: account,
		Period:      time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromFloat(amount),
	}
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestComputeGrowthPct(t *testing.T) {
	rows, err := Compute([]MonthlyFact{
		fact("acme", 2025, time.January, 100),
		fact("acme", 2025, time.February, 150),
	}, Options{RowLimit: 100})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Most recent month first.
	feb := rows[0]
	require.Equal(t, time.February, feb.Period.Month())
	require.NotNil(t, feb.PriorAmount)
	require.True(t, feb.PriorAmount.Equal(dec(100)), "prior = %s", feb.PriorAmount)
	require.NotNil(t, feb.GrowthPct)
	require.Equal(t, "50.00", feb.GrowthPct.StringFixed(2))

	jan := rows[1]
	require.Nil(t, jan.PriorAmount)
	require.Nil(t, jan.GrowthPct)
}

func TestComputeSingleFactHasNoGrowth(t *testing.T) {
	rows, err := Compute([]MonthlyFact{fact("solo", 2025, time.March, 42)}, Options{RowLimit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Nil(t, rows[0].PriorAmount)
	require.Nil(t, rows[0].GrowthPct)
}

func TestComputeZeroPriorYieldsAbsentGrowth(t *testing.T) {
	rows, err := Compute([]MonthlyFact{
		fact("acme", 2025, time.January, 0),
		fact("acme", 2025, time.February, 50),
	}, Options{RowLimit: 10})
	require.NoError(t, err)

	// The zero month is dropped from output but still serves as prior.
	require.Len(t, rows, 1)
	require.Equal(t, time.February, rows[0].Period.Month())
	require.NotNil(t, rows[0].PriorAmount)
	require.True(t, rows[0].PriorAmount.IsZero())
	require.Nil(t, rows[0].GrowthPct, "growth against a zero prior must be absent, not infinite")
}

func TestComputeDropsNonPositiveAmounts(t *testing.T) {
	rows, err := Compute([]MonthlyFact{
		fact("acme", 2025, time.January, 100),
		fact("acme", 2025, time.February, 0),
		fact("acme", 2025, time.March, -5),
		fact("acme", 2025, time.April, 80),
	}, Options{RowLimit: 10})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	for _, row := range rows {
		require.True(t, row.Amount.IsPositive())
	}
}

func TestComputeSparseSeriesUsesRowAdjacency(t *testing.T) {
	// March has no record; May's prior is the nearest earlier fetched row,
	// not the previous calendar month.
	rows, err := Compute([]MonthlyFact{
		fact("acme", 2025, time.February, 200),
		fact("acme", 2025, time.May, 300),
	}, Options{RowLimit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	may := rows[0]
	require.NotNil(t, may.PriorAmount)
	require.True(t, may.PriorAmount.Equal(dec(200)))
	require.Equal(t, "50.00", may.GrowthPct.StringFixed(2))
}

func TestComputeMinGrowthFilter(t *testing.T) {
	min := dec(20)
	rows, err := Compute([]MonthlyFact{
		fact("acme", 2025, time.January, 100), // no growth figure: passes
		fact("acme", 2025, time.February, 110), // +10%: filtered
		fact("acme", 2025, time.March, 165),    // +50%: passes
	}, Options{RowLimit: 10, MinGrowthPct: &min})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	require.Equal(t, time.March, rows[0].Period.Month())
	require.Equal(t, time.January, rows[1].Period.Month())
}

func TestComputeOrderingAndLimit(t *testing.T) {
	input := []MonthlyFact{
		fact("beta", 2025, time.January, 10),
		fact("acme", 2025, time.February, 20),
		fact("beta", 2025, time.February, 30),
		fact("acme", 2025, time.January, 40),
	}

	rows, err := Compute(input, Options{RowLimit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// Account ascending, period descending within account.
	require.Equal(t, "acme", rows[0].AccountID)
	require.Equal(t, time.February, rows[0].Period.Month())
	require.Equal(t, "acme", rows[1].AccountID)
	require.Equal(t, time.January, rows[1].Period.Month())
	require.Equal(t, "beta", rows[2].AccountID)
	require.Equal(t, time.February, rows[2].Period.Month())

	// Truncation happens only after sorting.
	limited, err := Compute(input, Options{RowLimit: 3})
	require.NoError(t, err)
	require.Len(t, limited, 3)
	require.Equal(t, rows[:3], limited)
}

func TestComputeIsIdempotentAcrossInputOrder(t *testing.T) {
	shuffled := []MonthlyFact{
		fact("beta", 2025, time.March, 75),
		fact("acme", 2025, time.January, 100),
		fact("beta", 2025, time.February, 50),
		fact("acme", 2025, time.February, 120),
	}
	ordered := []MonthlyFact{
		fact("acme", 2025, time.January, 100),
		fact("acme", 2025, time.February, 120),
		fact("beta", 2025, time.February, 50),
		fact("beta", 2025, time.March, 75),
	}

	a, err := Compute(shuffled, Options{RowLimit: 100})
	require.NoError(t, err)
	b, err := Compute(ordered, Options{RowLimit: 100})
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestComputeRoundingIsHalfAwayFromZero(t *testing.T) {
	rows, err := Compute([]MonthlyFact{
		fact("acme", 2025, time.January, 3),
		fact("acme", 2025, time.February, 3.125),
	}, Options{RowLimit: 10})
	require.NoError(t, err)

	feb := rows[0]
	require.Equal(t, "3.13", feb.Amount.StringFixed(2))
	// (3.125-3)/3*100 = 4.1666... -> 4.17
	require.Equal(t, "4.17", feb.GrowthPct.StringFixed(2))
}

func TestComputeRejectsNonPositiveRowLimit(t *testing.T) {
	_, err := Compute(nil, Options{RowLimit: 0})
	require.Error(t, err)
	_, err = Compute(nil, Options{RowLimit: -1})
	require.Error(t, err)
}
