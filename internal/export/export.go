package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/xuri/excelize/v2"

	"consumption-analytics/internal/forecast"
	"consumption-analytics/internal/growth"
)

const (
	periodFormat = "2006-01-02"
	sheetName    = "Data"
)

var growthHeader = []string{"account_id", "account_name", "month", "amount", "prior_month_amount", "mom_growth_pct", "business_unit"}
var forecastHeader = []string{"month", "year_bucket", "organic_growth_pct", "projected_amount"}

// WriteGrowthCSV writes the historical MoM growth view as CSV.
func WriteGrowthCSV(path string, rows []growth.GrowthRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(growthHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(growthRecord(row)); err != nil {
			return err
		}
	}
	return writer.Error()
}

// WriteForecastCSV writes the organic-growth scenario as CSV.
func WriteForecastCSV(path string, rows []forecast.ForecastRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(forecastHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(forecastRecord(row)); err != nil {
			return err
		}
	}
	return writer.Error()
}

// WriteGrowthXLSX writes the historical view as a spreadsheet, matching the
// dashboard's download format.
func WriteGrowthXLSX(path string, rows []growth.GrowthRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, growthRecord(row))
	}
	return writeXLSX(path, growthHeader, records)
}

// WriteForecastXLSX writes the forecast scenario as a spreadsheet.
func WriteForecastXLSX(path string, rows []forecast.ForecastRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, forecastRecord(row))
	}
	return writeXLSX(path, forecastHeader, records)
}

// WriteTrendPNG renders monthly total spend alongside the projection as a
// line chart.
func WriteTrendPNG(path string, historical []growth.GrowthRow, projected []forecast.ForecastRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	histX, histY := monthlyTotals(historical)
	if len(histX) < 2 && len(projected) < 2 {
		return fmt.Errorf("not enough data points to chart")
	}

	series := make([]chart.Series, 0, 2)
	if len(histX) >= 2 {
		series = append(series, chart.TimeSeries{
			Name:    "Actual",
			XValues: histX,
			YValues: histY,
		})
	}
	if len(projected) >= 2 {
		fx := make([]time.Time, len(projected))
		fy := make([]float64, len(projected))
		for i, row := range projected {
			fx[i] = row.Period
			fy[i] = row.ProjectedAmount.InexactFloat64()
		}
		series = append(series, chart.TimeSeries{
			Name:    "Organic projection",
			XValues: fx,
			YValues: fy,
		})
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Spend ($)",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.2f")
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func growthRecord(row growth.GrowthRow) []string {
	prior := ""
	if row.PriorAmount != nil {
		prior = row.PriorAmount.StringFixed(2)
	}
	pct := ""
	if row.GrowthPct != nil {
		pct = row.GrowthPct.StringFixed(2)
	}
	return []string{
		row.AccountID,
		row.AccountName,
		row.Period.Format(periodFormat),
		row.Amount.StringFixed(2),
		prior,
		pct,
		row.BusinessUnit,
	}
}

func forecastRecord(row forecast.ForecastRow) []string {
	return []string{
		row.Period.Format(periodFormat),
		row.YearBucket,
		row.GrowthPctApplied.StringFixed(2),
		row.ProjectedAmount.StringFixed(2),
	}
}

func writeXLSX(path string, header []string, records [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := setStringRow(f, 1, header); err != nil {
		return err
	}
	for i, record := range records {
		if err := setStringRow(f, i+2, record); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func setStringRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	converted := make([]interface{}, len(values))
	for i, v := range values {
		converted[i] = v
	}
	return f.SetSheetRow(sheetName, cell, &converted)
}

// monthlyTotals sums historical amounts per month, ascending.
func monthlyTotals(rows []growth.GrowthRow) ([]time.Time, []float64) {
	totals := make(map[time.Time]float64)
	for _, row := range rows {
		totals[row.Period] += row.Amount.InexactFloat64()
	}

	months := make([]time.Time, 0, len(totals))
	for month := range totals {
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	values := make([]float64, len(months))
	for i, month := range months {
		values[i] = totals[month]
	}
	return months, values
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
