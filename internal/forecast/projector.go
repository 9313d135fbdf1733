package forecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"consumption-analytics/internal/growth"
)

// HistoricalBucket labels months that fall before the forecast start.
const HistoricalBucket = "Historical"

// ForecastRow is one projected month of the organic-growth scenario.
type ForecastRow struct {
	Period           time.Time
	YearBucket       string
	GrowthPctApplied decimal.Decimal
	ProjectedAmount  decimal.Decimal
}

// Options tune projector behaviour.
type Options struct {
	// AllowZeroBaseline disables the placeholder substitution for a zero
	// baseline, letting projections collapse to zero rows instead.
	AllowZeroBaseline bool
}

// Projector applies per-year organic growth rates to a baseline amount across
// a forecast horizon. Rates are fractions (0.05 = 5%) keyed by year bucket
// number starting at 1.
type Projector struct {
	rates     map[int]decimal.Decimal
	maxBucket int
	opts      Options
}

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// zeroBaselinePlaceholder keeps growth visible when there is no historical
// spend to project from. Callers that need true zero baselines set
// Options.AllowZeroBaseline.
var zeroBaselinePlaceholder = decimal.NewFromInt(1)

// New validates the growth-rate table and builds a projector. At least one
// bucket rate is required: months beyond the highest configured bucket fall
// back to that bucket's rate.
func New(rates map[int]decimal.Decimal, opts Options) (*Projector, error) {
	if len(rates) == 0 {
		return nil, errors.New("forecast: at least one year-bucket growth rate is required")
	}
	copied := make(map[int]decimal.Decimal, len(rates))
	maxBucket := 0
	for bucket, rate := range rates {
		if bucket < 1 {
			return nil, fmt.Errorf("forecast: invalid year bucket %d, buckets start at 1", bucket)
		}
		copied[bucket] = rate
		if bucket > maxBucket {
			maxBucket = bucket
		}
	}
	return &Projector{rates: copied, maxBucket: maxBucket, opts: opts}, nil
}

// Project enumerates every month from start to end inclusive and computes the
// compounded organic projection for each. An end before start yields an empty
// slice. Each completed year's growth compounds into all later months;
// projected amounts and applied rates are rounded to 2 decimal places, half
// away from zero.
func (p *Projector) Project(start, end time.Time, baseline decimal.Decimal) []ForecastRow {
	startMonth := growth.MonthStart(start)
	endMonth := growth.MonthStart(end)

	if baseline.IsZero() && !p.opts.AllowZeroBaseline {
		baseline = zeroBaselinePlaceholder
	}

	rows := make([]ForecastRow, 0)
	compound := one
	for m := startMonth; !m.After(endMonth); m = m.AddDate(0, 1, 0) {
		bucket := BucketNumber(startMonth, m)
		if bucket < 1 {
			// Cannot happen once the range is month-aligned, but kept as a
			// guard against a misaligned start.
			continue
		}

		offset := monthsBetween(startMonth, m)
		if offset%12 == 0 && bucket > 1 {
			compound = compound.Mul(one.Add(p.rateFor(bucket - 1)))
		}

		rate := p.rateFor(bucket)
		projected := baseline.Mul(compound).Mul(one.Add(rate))

		rows = append(rows, ForecastRow{
			Period:           m,
			YearBucket:       BucketLabel(startMonth, m),
			GrowthPctApplied: rate.Mul(hundred).Round(2),
			ProjectedAmount:  projected.Round(2),
		})
	}
	return rows
}

func (p *Projector) rateFor(bucket int) decimal.Decimal {
	if rate, ok := p.rates[bucket]; ok {
		return rate
	}
	return p.rates[p.maxBucket]
}

// BucketNumber returns the 1-based forecast year a month belongs to, or 0 for
// months before the forecast start.
func BucketNumber(forecastStart, month time.Time) int {
	forecastStart = growth.MonthStart(forecastStart)
	month = growth.MonthStart(month)
	if month.Before(forecastStart) {
		return 0
	}
	return monthsBetween(forecastStart, month)/12 + 1
}

// BucketLabel categorises a month as "Historical" or "Yr1", "Yr2", …
// relative to the forecast start.
func BucketLabel(forecastStart, month time.Time) string {
	n := BucketNumber(forecastStart, month)
	if n < 1 {
		return HistoricalBucket
	}
	return fmt.Sprintf("Yr%d", n)
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
