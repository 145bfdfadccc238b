// Package report renders the computed tables as shareable artifacts: an
// XLSX workbook with one sheet per table, and a compact PDF summary.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/offshore-downtime/internal/aggregate"
	"github.com/couchcryptid/offshore-downtime/internal/domain"
	"github.com/couchcryptid/offshore-downtime/internal/pipeline"
)

// BuildWorkbook renders the full result as an XLSX workbook.
func BuildWorkbook(res *pipeline.Result) ([]byte, error) {
	f := excelize.NewFile()

	f.SetSheetName("Sheet1", "summary")
	for _, sheet := range []string{"daily", "monthly", "yearly", "seasonality", "trends", "warnings"} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", sheet, err)
		}
	}

	writeSummarySheet(f, res)
	writeDailySheet(f, res.Tables.Daily)
	writeSummaryTable(f, "monthly", res.Tables.Monthly, true)
	writeSummaryTable(f, "yearly", res.Tables.Yearly, false)
	writeSeasonalitySheet(f, res.Tables.Seasonality)
	writeTrendsSheet(f, res.Tables.Trends)
	writeWarningsSheet(f, res)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, res *pipeline.Result) {
	setRow(f, "summary", 1, []any{"Offshore Downtime Result"})
	setRow(f, "summary", 3, []any{"Generated", res.GeneratedAt.UTC().Format(time.RFC3339)})
	setRow(f, "summary", 4, []any{"Records", res.Records})
	setRow(f, "summary", 5, []any{"Files parsed", res.FilesParsed})
	setRow(f, "summary", 6, []any{"Files skipped", res.FilesSkipped})
	setRow(f, "summary", 7, []any{"Rows skipped", res.RowsSkipped})
	setRow(f, "summary", 8, []any{"Duplicate hours", res.DuplicateHours})
	setRow(f, "summary", 9, []any{"Downtime days", res.Tables.DowntimeDayCount()})
}

func writeDailySheet(f *excelize.File, rows []aggregate.DailyDowntime) {
	setRow(f, "daily", 1, []any{
		"Station", "Date", "Operation", "Status",
		"Exceeded hours", "Known hours", "Unknown hours",
		"Max wind (m/s)", "Max gust (m/s)", "Precip total (mm)",
	})
	for i, d := range rows {
		setRow(f, "daily", i+2, []any{
			d.Station, d.Date.String(), d.Operation, d.Status.String(),
			d.ExceededHours, d.KnownHours, d.UnknownHours,
			cellValue(d.MaxWind), cellValue(d.MaxGust), cellValue(d.PrecipTotal),
		})
	}
}

func writeSummaryTable(f *excelize.File, sheet string, rows []aggregate.PeriodSummary, withMonth bool) {
	header := []any{"Station", "Operation", "Year"}
	if withMonth {
		header = append(header, "Month")
	}
	header = append(header,
		"Evaluable days", "Downtime days", "Insufficient days",
		"Downtime fraction", "Mean wind (m/s)", "Max gust (m/s)",
	)
	setRow(f, sheet, 1, header)

	for i, p := range rows {
		row := []any{p.Station, p.Operation, p.Year}
		if withMonth {
			row = append(row, int(p.Month))
		}
		row = append(row,
			p.EvaluableDays, p.DowntimeDays, p.InsufficientDays,
			cellValue(p.DowntimeFraction), cellValue(p.MeanWind), cellValue(p.MaxGust),
		)
		setRow(f, sheet, i+2, row)
	}
}

func writeSeasonalitySheet(f *excelize.File, rows []aggregate.SeasonSummary) {
	setRow(f, "seasonality", 1, []any{
		"Station", "Operation", "Month",
		"Evaluable days", "Downtime days", "Insufficient days", "Downtime fraction",
	})
	for i, p := range rows {
		setRow(f, "seasonality", i+2, []any{
			p.Station, p.Operation, int(p.Month),
			p.EvaluableDays, p.DowntimeDays, p.InsufficientDays, cellValue(p.DowntimeFraction),
		})
	}
}

func writeTrendsSheet(f *excelize.File, rows []aggregate.Trend) {
	setRow(f, "trends", 1, []any{"Station", "Operation", "First year", "Last year", "Slope per year"})
	for i, tr := range rows {
		setRow(f, "trends", i+2, []any{
			tr.Station, tr.Operation, tr.FirstYear, tr.LastYear, cellValue(tr.Slope),
		})
	}
}

func writeWarningsSheet(f *excelize.File, res *pipeline.Result) {
	setRow(f, "warnings", 1, []any{"File", "Station", "Reason"})
	for i, w := range res.Warnings {
		setRow(f, "warnings", i+2, []any{w.File, w.Station, w.Reason})
	}
}

// setRow writes values left to right starting at column A; nil values leave
// the cell empty.
func setRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			continue
		}
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// cellValue maps an invalid reading to an empty cell.
func cellValue(r domain.Reading) any {
	if !r.Valid {
		return nil
	}
	return r.Value
}

// BuildReport renders a compact PDF: run metadata, then coastline and
// per-station downtime by year.
func BuildReport(res *pipeline.Result) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Offshore Operability Downtime Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", res.GeneratedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Records: %d (files parsed: %d, skipped: %d)", res.Records, res.FilesParsed, res.FilesSkipped))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Stations: %d", len(res.Tables.StationCodes())))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Coastline downtime by year")
	pdf.Ln(7)
	writeYearTable(pdf, res.Tables.Yearly, func(p aggregate.PeriodSummary) bool {
		return p.Station == aggregate.AllStations
	})

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Station downtime by year")
	pdf.Ln(7)
	writeYearTable(pdf, res.Tables.Yearly, func(p aggregate.PeriodSummary) bool {
		return p.Station != aggregate.AllStations
	})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeYearTable(pdf *gofpdf.Fpdf, rows []aggregate.PeriodSummary, keep func(aggregate.PeriodSummary) bool) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(25, 6, "Station", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Operation", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Year", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Evaluable", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Downtime", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Fraction", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, p := range rows {
		if !keep(p) {
			continue
		}
		pdf.CellFormat(25, 6, p.Station, "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, p.Operation, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", p.Year), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", p.EvaluableDays), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", p.DowntimeDays), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, percent(p.DowntimeFraction), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
}

// percent formats a downtime fraction for print, "n/a" when no day was
// evaluable.
func percent(r domain.Reading) string {
	if !r.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", 100*r.Value)
}
