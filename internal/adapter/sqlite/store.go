// Package sqlite persists computed downtime tables as a queryable SQLite
// artifact. Every load replaces the table contents wholesale, mirroring the
// full-recompute model; the runs table keeps one row per load for audit.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/offshore-downtime/internal/aggregate"
	"github.com/couchcryptid/offshore-downtime/internal/domain"
	"github.com/couchcryptid/offshore-downtime/internal/pipeline"
)

// Store wraps the SQL database connection.
type Store struct {
	*sql.DB
	path   string
	logger *slog.Logger
}

// New opens (or creates) the database at path and initializes the schema.
func New(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{
		DB:     db,
		path:   path,
		logger: logger,
	}
	if err := s.configure(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}
	if err := s.createSchema(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := s.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) createSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		generated_at TEXT NOT NULL,
		records INTEGER NOT NULL,
		files_parsed INTEGER NOT NULL,
		files_skipped INTEGER NOT NULL,
		rows_skipped INTEGER NOT NULL,
		duplicate_hours INTEGER NOT NULL,
		downtime_days INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS daily_downtime (
		station TEXT NOT NULL,
		date TEXT NOT NULL,
		operation TEXT NOT NULL,
		exceeded_hours INTEGER NOT NULL,
		known_hours INTEGER NOT NULL,
		unknown_hours INTEGER NOT NULL,
		status TEXT NOT NULL,
		max_wind_ms REAL,
		max_gust_ms REAL,
		precip_total_mm REAL,
		PRIMARY KEY (station, date, operation)
	);
	CREATE TABLE IF NOT EXISTS period_summary (
		level TEXT NOT NULL,
		station TEXT NOT NULL,
		operation TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		evaluable_days INTEGER NOT NULL,
		downtime_days INTEGER NOT NULL,
		insufficient_days INTEGER NOT NULL,
		downtime_fraction REAL,
		mean_wind_ms REAL,
		max_gust_ms REAL,
		PRIMARY KEY (level, station, operation, year, month)
	);
	CREATE TABLE IF NOT EXISTS seasonality (
		station TEXT NOT NULL,
		operation TEXT NOT NULL,
		month INTEGER NOT NULL,
		evaluable_days INTEGER NOT NULL,
		downtime_days INTEGER NOT NULL,
		insufficient_days INTEGER NOT NULL,
		downtime_fraction REAL,
		PRIMARY KEY (station, operation, month)
	);
	CREATE TABLE IF NOT EXISTS trends (
		station TEXT NOT NULL,
		operation TEXT NOT NULL,
		first_year INTEGER NOT NULL,
		last_year INTEGER NOT NULL,
		slope_per_year REAL,
		PRIMARY KEY (station, operation)
	);
	CREATE TABLE IF NOT EXISTS warnings (
		run_id INTEGER NOT NULL,
		file TEXT NOT NULL,
		station TEXT,
		reason TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_daily_date ON daily_downtime(date);
	CREATE INDEX IF NOT EXISTS idx_daily_operation ON daily_downtime(operation);
	`
	_, err := s.ExecContext(context.Background(), query)
	return err
}

// Load replaces the stored tables with the given result.
func (s *Store) Load(ctx context.Context, res *pipeline.Result) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"daily_downtime", "period_summary", "seasonality", "trends"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	runRes, err := tx.ExecContext(ctx, `
		INSERT INTO runs (generated_at, records, files_parsed, files_skipped, rows_skipped, duplicate_hours, downtime_days)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.GeneratedAt.UTC().Format("2006-01-02 15:04:05"),
		res.Records,
		res.FilesParsed,
		res.FilesSkipped,
		res.RowsSkipped,
		res.DuplicateHours,
		res.Tables.DowntimeDayCount(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := runRes.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	if err := insertDaily(ctx, tx, res.Tables.Daily); err != nil {
		return err
	}
	if err := insertSummaries(ctx, tx, "monthly", res.Tables.Monthly); err != nil {
		return err
	}
	if err := insertSummaries(ctx, tx, "yearly", res.Tables.Yearly); err != nil {
		return err
	}
	if err := insertSeasonality(ctx, tx, res.Tables.Seasonality); err != nil {
		return err
	}
	if err := insertTrends(ctx, tx, res.Tables.Trends); err != nil {
		return err
	}
	if err := insertWarnings(ctx, tx, runID, res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("sqlite artifact written", "path", s.path, "daily_rows", len(res.Tables.Daily))
	return nil
}

func insertDaily(ctx context.Context, tx *sql.Tx, rows []aggregate.DailyDowntime) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_downtime (station, date, operation, exceeded_hours, known_hours, unknown_hours, status, max_wind_ms, max_gust_ms, precip_total_mm)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare daily: %w", err)
	}
	defer stmt.Close()

	for _, d := range rows {
		_, err := stmt.ExecContext(ctx,
			d.Station,
			d.Date.String(),
			d.Operation,
			d.ExceededHours,
			d.KnownHours,
			d.UnknownHours,
			d.Status.String(),
			nullable(d.MaxWind),
			nullable(d.MaxGust),
			nullable(d.PrecipTotal),
		)
		if err != nil {
			return fmt.Errorf("insert daily %s %s: %w", d.Station, d.Date, err)
		}
	}
	return nil
}

func insertSummaries(ctx context.Context, tx *sql.Tx, level string, rows []aggregate.PeriodSummary) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO period_summary (level, station, operation, year, month, evaluable_days, downtime_days, insufficient_days, downtime_fraction, mean_wind_ms, max_gust_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare %s summary: %w", level, err)
	}
	defer stmt.Close()

	for _, p := range rows {
		_, err := stmt.ExecContext(ctx,
			level,
			p.Station,
			p.Operation,
			p.Year,
			int(p.Month),
			p.EvaluableDays,
			p.DowntimeDays,
			p.InsufficientDays,
			nullable(p.DowntimeFraction),
			nullable(p.MeanWind),
			nullable(p.MaxGust),
		)
		if err != nil {
			return fmt.Errorf("insert %s summary %s %s: %w", level, p.Station, p.Operation, err)
		}
	}
	return nil
}

func insertSeasonality(ctx context.Context, tx *sql.Tx, rows []aggregate.SeasonSummary) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO seasonality (station, operation, month, evaluable_days, downtime_days, insufficient_days, downtime_fraction)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare seasonality: %w", err)
	}
	defer stmt.Close()

	for _, p := range rows {
		_, err := stmt.ExecContext(ctx,
			p.Station,
			p.Operation,
			int(p.Month),
			p.EvaluableDays,
			p.DowntimeDays,
			p.InsufficientDays,
			nullable(p.DowntimeFraction),
		)
		if err != nil {
			return fmt.Errorf("insert seasonality %s %s: %w", p.Station, p.Operation, err)
		}
	}
	return nil
}

func insertTrends(ctx context.Context, tx *sql.Tx, rows []aggregate.Trend) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trends (station, operation, first_year, last_year, slope_per_year)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare trends: %w", err)
	}
	defer stmt.Close()

	for _, tr := range rows {
		_, err := stmt.ExecContext(ctx,
			tr.Station,
			tr.Operation,
			tr.FirstYear,
			tr.LastYear,
			nullable(tr.Slope),
		)
		if err != nil {
			return fmt.Errorf("insert trend %s %s: %w", tr.Station, tr.Operation, err)
		}
	}
	return nil
}

func insertWarnings(ctx context.Context, tx *sql.Tx, runID int64, res *pipeline.Result) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO warnings (run_id, file, station, reason)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare warnings: %w", err)
	}
	defer stmt.Close()

	for _, w := range res.Warnings {
		if _, err := stmt.ExecContext(ctx, runID, w.File, w.Station, w.Reason); err != nil {
			return fmt.Errorf("insert warning %s: %w", w.File, err)
		}
	}
	return nil
}

// nullable maps an invalid reading to SQL NULL.
func nullable(r domain.Reading) any {
	if !r.Valid {
		return nil
	}
	return r.Value
}
