package render

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"

	"consumption-analytics/internal/forecast"
	"consumption-analytics/internal/growth"
	"consumption-analytics/internal/storage"
)

const periodFormat = "2006-01"

// GrowthTable prints the historical MoM growth view as a console table.
func GrowthTable(rows []growth.GrowthRow) error {
	if len(rows) == 0 {
		pterm.Warning.Println("no consumption rows for the selected window")
		return nil
	}

	tableData := pterm.TableData{
		{"Account", "Month", "Spend", "Prior Month", "MoM Growth %", "Business Unit"},
	}
	for _, row := range rows {
		tableData = append(tableData, []string{
			row.AccountName,
			row.Period.Format(periodFormat),
			row.Amount.StringFixed(2),
			optionalDecimal(row.PriorAmount),
			colorGrowth(row.GrowthPct),
			row.BusinessUnit,
		})
	}

	return pterm.DefaultTable.
		WithHasHeader().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(tableData).
		Render()
}

// ForecastTable prints the organic-growth scenario as a console table.
func ForecastTable(baseline decimal.Decimal, rows []forecast.ForecastRow) error {
	if len(rows) == 0 {
		pterm.Warning.Println("no forecast months in range")
		return nil
	}

	pterm.Info.Printfln("baseline spend: %s", baseline.StringFixed(2))

	tableData := pterm.TableData{
		{"Month", "Year Bucket", "Organic Growth %", "Projected Spend"},
	}
	for _, row := range rows {
		tableData = append(tableData, []string{
			row.Period.Format(periodFormat),
			row.YearBucket,
			row.GrowthPctApplied.StringFixed(2),
			row.ProjectedAmount.StringFixed(2),
		})
	}

	return pterm.DefaultTable.
		WithHasHeader().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(tableData).
		Render()
}

// SnapshotTable prints materialised growth snapshots.
func SnapshotTable(snapshots []storage.GrowthSnapshot) error {
	if len(snapshots) == 0 {
		pterm.Warning.Println("no growth snapshots; run a refresh first")
		return nil
	}

	tableData := pterm.TableData{
		{"Account", "Month", "Spend", "Prior Month", "MoM Growth %", "Refreshed"},
	}
	for _, snap := range snapshots {
		tableData = append(tableData, []string{
			snap.AccountName,
			snap.Period.Format(periodFormat),
			snap.Amount.StringFixed(2),
			optionalDecimal(snap.PriorAmount),
			colorGrowth(snap.GrowthPct),
			snap.RefreshedAt.UTC().Format(time.RFC3339),
		})
	}

	return pterm.DefaultTable.
		WithHasHeader().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(tableData).
		Render()
}

func optionalDecimal(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}

func colorGrowth(pct *decimal.Decimal) string {
	if pct == nil {
		return "-"
	}
	s := pct.StringFixed(2)
	switch pct.Sign() {
	case 1:
		return pterm.FgGreen.Sprint(s)
	case -1:
		return pterm.FgRed.Sprint(s)
	default:
		return s
	}
}
