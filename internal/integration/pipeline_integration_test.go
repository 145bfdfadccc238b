//go:build integration

// End-to-end run over a real directory layout: INMET files on disk in,
// SQLite rows, CSV tables, and report artifacts out, with the HTTP API
// serving the same result.
package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/offshore-downtime/internal/adapter/csvdir"
	"github.com/couchcryptid/offshore-downtime/internal/adapter/httpapi"
	"github.com/couchcryptid/offshore-downtime/internal/adapter/report"
	"github.com/couchcryptid/offshore-downtime/internal/adapter/sqlite"
	"github.com/couchcryptid/offshore-downtime/internal/adapter/tablecsv"
	"github.com/couchcryptid/offshore-downtime/internal/domain"
	"github.com/couchcryptid/offshore-downtime/internal/observability"
	"github.com/couchcryptid/offshore-downtime/internal/pipeline"
)

// stationFile renders one INMET export: a full day of calm hours, with the
// first galeHours hours blowing 13.4 m/s (gust 14.4).
func stationFile(code string, galeHours int) string {
	var b strings.Builder
	b.WriteString("REGIAO:;SE\n")
	b.WriteString("UF:;RJ\n")
	b.WriteString("CODIGO (WMO):;" + code + "\n")
	b.WriteString("Data;Hora UTC;PRECIPITACAO TOTAL, HORARIO (mm);" +
		"TEMPERATURA DO AR - BULBO SECO, HORARIA (C);" +
		"UMIDADE RELATIVA DO AR, HORARIA (%);" +
		"VENTO, DIRECAO HORARIA (gr) (gr);" +
		"VENTO, RAJADA MAXIMA (m/s);" +
		"VENTO, VELOCIDADE HORARIA (m/s);\n")
	for h := 0; h < 24; h++ {
		wind, gust := "2,0", "3,0"
		if h < galeHours {
			wind, gust = "13,4", "14,4"
		}
		fmt.Fprintf(&b, "2023/07/14;%02d00 UTC;0;24,0;75;120;%s;%s;\n", h, gust, wind)
	}
	return b.String()
}

func TestFullRun(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))

	// A602 has a downtime day for the lighter operations; A627 stays calm.
	require.NoError(t, os.WriteFile(
		filepath.Join(dataDir, "A602_MARAMBAIA_2023.csv"), []byte(stationFile("A602", 4)), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dataDir, "A627_NITEROI_2023.csv"), []byte(stationFile("A627", 0)), 0o644))

	logger := slog.Default()
	catalog := domain.DefaultCatalog()

	store, err := sqlite.New(filepath.Join(root, "downtime.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	csvDir := filepath.Join(root, "tables")
	xlsxPath := filepath.Join(root, "downtime.xlsx")
	pdfPath := filepath.Join(root, "downtime.pdf")

	p := pipeline.New(
		csvdir.New(dataDir, logger),
		pipeline.NewTransform(catalog, 4),
		[]pipeline.Loader{
			store,
			tablecsv.New(csvDir, logger),
			report.NewXLSXWriter(xlsxPath, logger),
			report.NewPDFWriter(pdfPath, logger),
		},
		logger,
		observability.NewMetricsForTesting(),
	)

	ctx := context.Background()
	res, err := p.Run(ctx)
	require.NoError(t, err)

	// 2 stations x 24 hours in, 2 stations x 1 date x 4 operations out.
	assert.Equal(t, 48, res.Records)
	assert.Len(t, res.Tables.Daily, 2*catalog.Len())
	// 13.4 m/s sustained trips every operation except general-deck-ops.
	assert.Equal(t, 3, res.Tables.DowntimeDayCount())

	var dailyRows, runs int
	require.NoError(t, store.QueryRowContext(ctx, "SELECT COUNT(*) FROM daily_downtime").Scan(&dailyRows))
	require.NoError(t, store.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&runs))
	assert.Equal(t, 2*catalog.Len(), dailyRows)
	assert.Equal(t, 1, runs)

	var status string
	require.NoError(t, store.QueryRowContext(ctx,
		"SELECT status FROM daily_downtime WHERE station = 'A602' AND operation = 'crane-lifting'").Scan(&status))
	assert.Equal(t, "downtime", status)

	for _, path := range []string{
		filepath.Join(csvDir, "daily.csv"),
		filepath.Join(csvDir, "monthly.csv"),
		xlsxPath,
		pdfPath,
	} {
		info, err := os.Stat(path)
		require.NoErrorf(t, err, "missing artifact %s", path)
		assert.NotZero(t, info.Size())
	}

	// The API serves the same result the sinks received.
	srv := httpapi.NewServer(":0", p, catalog, logger)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary?level=yearly&station=A602&operation=crane-lifting", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []struct {
		DowntimeDays int `json:"downtime_days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].DowntimeDays)
}

func TestRerunReplacesTables(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dataDir, "A602_MARAMBAIA_2023.csv"), []byte(stationFile("A602", 4)), 0o644))

	logger := slog.Default()
	catalog := domain.DefaultCatalog()

	store, err := sqlite.New(filepath.Join(root, "downtime.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	p := pipeline.New(
		csvdir.New(dataDir, logger),
		pipeline.NewTransform(catalog, 4),
		[]pipeline.Loader{store},
		logger,
		observability.NewMetricsForTesting(),
	)

	ctx := context.Background()
	_, err = p.Run(ctx)
	require.NoError(t, err)

	// A second station appears between runs.
	require.NoError(t, os.WriteFile(
		filepath.Join(dataDir, "A627_NITEROI_2023.csv"), []byte(stationFile("A627", 0)), 0o644))
	_, err = p.Run(ctx)
	require.NoError(t, err)

	var dailyRows, runs int
	require.NoError(t, store.QueryRowContext(ctx, "SELECT COUNT(*) FROM daily_downtime").Scan(&dailyRows))
	require.NoError(t, store.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&runs))

	// Tables are replaced wholesale; the run log keeps history.
	assert.Equal(t, 2*catalog.Len(), dailyRows)
	assert.Equal(t, 2, runs)
}
