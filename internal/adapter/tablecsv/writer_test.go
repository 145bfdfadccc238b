package tablecsv_test

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/offshore-downtime/internal/adapter/tablecsv"
	"github.com/couchcryptid/offshore-downtime/internal/aggregate"
	"github.com/couchcryptid/offshore-downtime/internal/domain"
	"github.com/couchcryptid/offshore-downtime/internal/pipeline"
)

func testResult(t *testing.T) *pipeline.Result {
	t.Helper()

	day := time.Date(2023, time.July, 14, 0, 0, 0, 0, time.UTC)
	var recs []domain.Record
	for h := 0; h < 24; h++ {
		wind := 2.0
		if h < 4 {
			wind = 13.4
		}
		recs = append(recs, domain.Record{
			Station:   "A602",
			Time:      day.Add(time.Duration(h) * time.Hour),
			WindSpeed: domain.NewReading(wind),
			GustSpeed: domain.NewReading(wind + 1),
			Precip:    domain.NewReading(0),
		})
	}

	catalog := domain.DefaultCatalog()
	hours := domain.ClassifyRecords(recs, catalog)
	return &pipeline.Result{
		Tables:      aggregate.Build(recs, hours, catalog, aggregate.DefaultMinKnownHours),
		Records:     len(recs),
		GeneratedAt: time.Date(2024, time.April, 26, 15, 0, 0, 0, time.UTC),
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestLoad_WritesAllFiles(t *testing.T) {
	dir := t.TempDir()
	res := testResult(t)

	require.NoError(t, tablecsv.New(dir, slog.Default()).Load(context.Background(), res))

	wantRows := map[string]int{
		"daily.csv":       len(res.Tables.Daily),
		"monthly.csv":     len(res.Tables.Monthly),
		"yearly.csv":      len(res.Tables.Yearly),
		"seasonality.csv": len(res.Tables.Seasonality),
		"trends.csv":      len(res.Tables.Trends),
	}
	for name, want := range wantRows {
		rows := readCSV(t, filepath.Join(dir, name))
		assert.Lenf(t, rows, want+1, "%s row count", name)
	}
}

func TestLoad_DailyColumns(t *testing.T) {
	dir := t.TempDir()
	res := testResult(t)

	require.NoError(t, tablecsv.New(dir, slog.Default()).Load(context.Background(), res))

	rows := readCSV(t, filepath.Join(dir, "daily.csv"))
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{
		"station", "date", "operation", "status",
		"exceeded_hours", "known_hours", "unknown_hours",
		"max_wind_ms", "max_gust_ms", "precip_total_mm",
	}, rows[0])

	// Table order fixes the first row: first station, first date, first
	// catalog operation. Four gale hours make it a downtime day.
	ops := domain.DefaultCatalog().Operations()
	assert.Equal(t, []string{
		"A602", "2023-07-14", ops[0], "downtime",
		"4", "24", "0",
		"13.4", "14.4", "0",
	}, rows[1])
}

func TestLoad_InvalidReadingsStayEmpty(t *testing.T) {
	dir := t.TempDir()
	res := testResult(t)
	res.Tables.Trends = []aggregate.Trend{{
		Station: "A602", Operation: "crane-lifting", FirstYear: 2023, LastYear: 2023,
	}}

	require.NoError(t, tablecsv.New(dir, slog.Default()).Load(context.Background(), res))

	rows := readCSV(t, filepath.Join(dir, "trends.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"A602", "crane-lifting", "2023", "2023", ""}, rows[1])
}

func TestLoad_EmptyTablesStillWriteHeaders(t *testing.T) {
	dir := t.TempDir()
	res := &pipeline.Result{Tables: aggregate.Build(nil, nil, domain.DefaultCatalog(), aggregate.DefaultMinKnownHours)}

	require.NoError(t, tablecsv.New(dir, slog.Default()).Load(context.Background(), res))

	for _, name := range []string{"daily.csv", "monthly.csv", "yearly.csv", "seasonality.csv", "trends.csv"} {
		rows := readCSV(t, filepath.Join(dir, name))
		assert.Lenf(t, rows, 1, "%s should hold only the header", name)
	}
}

func TestLoad_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports", "csv")

	require.NoError(t, tablecsv.New(dir, slog.Default()).Load(context.Background(), testResult(t)))

	_, err := os.Stat(filepath.Join(dir, "daily.csv"))
	assert.NoError(t, err)
}
