// Package httpapi exposes the engine over HTTP: health, readiness, and
// Prometheus metrics, plus a read-only JSON API over the latest computed
// result and a trigger for recomputation.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/offshore-downtime/internal/aggregate"
	"github.com/couchcryptid/offshore-downtime/internal/domain"
	"github.com/couchcryptid/offshore-downtime/internal/ingest"
	"github.com/couchcryptid/offshore-downtime/internal/pipeline"
)

// Engine is the part of the pipeline the API serves from.
type Engine interface {
	Latest() *pipeline.Result
	Run(ctx context.Context) (*pipeline.Result, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the HTTP endpoints.
type Server struct {
	httpServer *http.Server
	engine     Engine
	catalog    domain.Catalog
	logger     *slog.Logger
}

// NewServer creates an HTTP server with health, metrics, and API routes.
func NewServer(addr string, engine Engine, catalog domain.Catalog, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine:  engine,
		catalog: catalog,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(engine))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/stations", s.handleStations)
	mux.HandleFunc("GET /api/operations", s.handleOperations)
	mux.HandleFunc("GET /api/status", s.withResult(s.handleStatus))
	mux.HandleFunc("GET /api/daily", s.withResult(s.handleDaily))
	mux.HandleFunc("GET /api/summary", s.withResult(s.handleSummary))
	mux.HandleFunc("GET /api/seasonality", s.withResult(s.handleSeasonality))
	mux.HandleFunc("GET /api/trends", s.withResult(s.handleTrends))
	mux.HandleFunc("POST /api/run", s.handleRun)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleStations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Stations())
}

func (s *Server) handleOperations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Thresholds())
}

// runStatus is the run metadata served by /api/status and /api/run.
type runStatus struct {
	GeneratedAt    time.Time        `json:"generated_at"`
	Records        int              `json:"records"`
	FilesParsed    int              `json:"files_parsed"`
	FilesSkipped   int              `json:"files_skipped"`
	RowsSkipped    int              `json:"rows_skipped"`
	DuplicateHours int              `json:"duplicate_hours"`
	DowntimeDays   int              `json:"downtime_days"`
	Stations       []string         `json:"stations"`
	Warnings       []ingest.Warning `json:"warnings"`
}

func statusOf(res *pipeline.Result) runStatus {
	return runStatus{
		GeneratedAt:    res.GeneratedAt,
		Records:        res.Records,
		FilesParsed:    res.FilesParsed,
		FilesSkipped:   res.FilesSkipped,
		RowsSkipped:    res.RowsSkipped,
		DuplicateHours: res.DuplicateHours,
		DowntimeDays:   res.Tables.DowntimeDayCount(),
		Stations:       res.Tables.StationCodes(),
		Warnings:       res.Warnings,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request, res *pipeline.Result) {
	writeJSON(w, http.StatusOK, statusOf(res))
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, filtered(res.Tables.Daily, f.matchDaily))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := res.Tables.Monthly
	switch level := r.URL.Query().Get("level"); level {
	case "", "monthly":
	case "yearly":
		rows = res.Tables.Yearly
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid level %q", level))
		return
	}
	writeJSON(w, http.StatusOK, filtered(rows, f.matchSummary))
}

func (s *Server) handleSeasonality(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, filtered(res.Tables.Seasonality, f.matchSeason))
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, filtered(res.Tables.Trends, f.matchTrend))
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Run(r.Context())
	if err != nil {
		s.logger.Error("triggered run failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusOf(res))
}

// withResult rejects requests until a first run has completed.
func (s *Server) withResult(fn func(http.ResponseWriter, *http.Request, *pipeline.Result)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := s.engine.Latest()
		if res == nil {
			writeError(w, http.StatusServiceUnavailable, "no completed run yet")
			return
		}
		fn(w, r, res)
	}
}

// rowFilter narrows table rows by the shared query parameters.
type rowFilter struct {
	station   string
	operation string
	year      int
	month     time.Month
}

func filterFromQuery(r *http.Request) (rowFilter, error) {
	q := r.URL.Query()
	f := rowFilter{
		station:   q.Get("station"),
		operation: q.Get("operation"),
	}
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("invalid year %q", v)
		}
		f.year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			return f, fmt.Errorf("invalid month %q", v)
		}
		f.month = time.Month(n)
	}
	return f, nil
}

func (f rowFilter) matchDaily(d aggregate.DailyDowntime) bool {
	if f.station != "" && d.Station != f.station {
		return false
	}
	if f.operation != "" && d.Operation != f.operation {
		return false
	}
	if f.year != 0 && d.Date.Year() != f.year {
		return false
	}
	if f.month != 0 && d.Date.Month() != f.month {
		return false
	}
	return true
}

func (f rowFilter) matchSummary(s aggregate.PeriodSummary) bool {
	if f.station != "" && s.Station != f.station {
		return false
	}
	if f.operation != "" && s.Operation != f.operation {
		return false
	}
	if f.year != 0 && s.Year != f.year {
		return false
	}
	if f.month != 0 && s.Month != f.month {
		return false
	}
	return true
}

func (f rowFilter) matchSeason(s aggregate.SeasonSummary) bool {
	if f.station != "" && s.Station != f.station {
		return false
	}
	if f.operation != "" && s.Operation != f.operation {
		return false
	}
	if f.month != 0 && s.Month != f.month {
		return false
	}
	return true
}

func (f rowFilter) matchTrend(t aggregate.Trend) bool {
	if f.station != "" && t.Station != f.station {
		return false
	}
	if f.operation != "" && t.Operation != f.operation {
		return false
	}
	return true
}

// filtered returns the kept rows, empty but non-nil when nothing matches.
func filtered[T any](rows []T, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
