// Package tablecsv writes the computed tables as plain CSV files, one file
// per table with a stable column order, for spreadsheet and notebook use.
package tablecsv

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/offshore-downtime/internal/aggregate"
	"github.com/couchcryptid/offshore-downtime/internal/domain"
	"github.com/couchcryptid/offshore-downtime/internal/pipeline"
)

// Writer dumps each run's tables into a directory, replacing the previous
// files.
type Writer struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

func (w *Writer) Load(_ context.Context, res *pipeline.Result) error {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", w.dir, err)
	}

	files := []struct {
		name  string
		write func(*csv.Writer) error
	}{
		{"daily.csv", func(cw *csv.Writer) error { return writeDaily(cw, res.Tables.Daily) }},
		{"monthly.csv", func(cw *csv.Writer) error { return writePeriods(cw, res.Tables.Monthly, true) }},
		{"yearly.csv", func(cw *csv.Writer) error { return writePeriods(cw, res.Tables.Yearly, false) }},
		{"seasonality.csv", func(cw *csv.Writer) error { return writeSeasonality(cw, res.Tables.Seasonality) }},
		{"trends.csv", func(cw *csv.Writer) error { return writeTrends(cw, res.Tables.Trends) }},
	}
	for _, file := range files {
		if err := w.writeFile(file.name, file.write); err != nil {
			return err
		}
	}

	w.logger.Info("tables written", "dir", w.dir, "files", len(files))
	return nil
}

func (w *Writer) writeFile(name string, write func(*csv.Writer) error) error {
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	cw := csv.NewWriter(f)
	if err := write(cw); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func writeDaily(cw *csv.Writer, rows []aggregate.DailyDowntime) error {
	if err := cw.Write([]string{
		"station", "date", "operation", "status",
		"exceeded_hours", "known_hours", "unknown_hours",
		"max_wind_ms", "max_gust_ms", "precip_total_mm",
	}); err != nil {
		return err
	}
	for _, d := range rows {
		if err := cw.Write([]string{
			d.Station, d.Date.String(), d.Operation, d.Status.String(),
			strconv.Itoa(d.ExceededHours), strconv.Itoa(d.KnownHours), strconv.Itoa(d.UnknownHours),
			cell(d.MaxWind), cell(d.MaxGust), cell(d.PrecipTotal),
		}); err != nil {
			return err
		}
	}
	return nil
}

func writePeriods(cw *csv.Writer, rows []aggregate.PeriodSummary, withMonth bool) error {
	header := []string{"station", "operation", "year"}
	if withMonth {
		header = append(header, "month")
	}
	header = append(header,
		"evaluable_days", "downtime_days", "insufficient_days",
		"downtime_fraction", "mean_wind_ms", "max_gust_ms",
	)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, p := range rows {
		row := []string{p.Station, p.Operation, strconv.Itoa(p.Year)}
		if withMonth {
			row = append(row, strconv.Itoa(int(p.Month)))
		}
		row = append(row,
			strconv.Itoa(p.EvaluableDays), strconv.Itoa(p.DowntimeDays), strconv.Itoa(p.InsufficientDays),
			cell(p.DowntimeFraction), cell(p.MeanWind), cell(p.MaxGust),
		)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeSeasonality(cw *csv.Writer, rows []aggregate.SeasonSummary) error {
	if err := cw.Write([]string{
		"station", "operation", "month",
		"evaluable_days", "downtime_days", "insufficient_days", "downtime_fraction",
	}); err != nil {
		return err
	}
	for _, p := range rows {
		if err := cw.Write([]string{
			p.Station, p.Operation, strconv.Itoa(int(p.Month)),
			strconv.Itoa(p.EvaluableDays), strconv.Itoa(p.DowntimeDays), strconv.Itoa(p.InsufficientDays),
			cell(p.DowntimeFraction),
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeTrends(cw *csv.Writer, rows []aggregate.Trend) error {
	if err := cw.Write([]string{"station", "operation", "first_year", "last_year", "slope_per_year"}); err != nil {
		return err
	}
	for _, tr := range rows {
		if err := cw.Write([]string{
			tr.Station, tr.Operation,
			strconv.Itoa(tr.FirstYear), strconv.Itoa(tr.LastYear),
			cell(tr.Slope),
		}); err != nil {
			return err
		}
	}
	return nil
}

// cell renders an invalid reading as an empty field, never NaN.
func cell(r domain.Reading) string {
	if !r.Valid {
		return ""
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}
