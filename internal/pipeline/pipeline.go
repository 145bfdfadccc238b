package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/offshore-downtime/internal/aggregate"
	"github.com/couchcryptid/offshore-downtime/internal/domain"
	"github.com/couchcryptid/offshore-downtime/internal/ingest"
	"github.com/couchcryptid/offshore-downtime/internal/observability"
)

// Extractor reads every station CSV from the source directory and returns
// the parsed batch.
type Extractor interface {
	Extract(ctx context.Context) (ingest.Batch, error)
}

// Transformer turns a parsed batch into the computed downtime tables.
type Transformer interface {
	Transform(ctx context.Context, batch ingest.Batch) (*aggregate.Tables, error)
}

// Loader writes a completed result to one destination.
type Loader interface {
	Load(ctx context.Context, res *Result) error
}

// Result is one completed run: the computed tables plus run metadata.
type Result struct {
	Tables         *aggregate.Tables `json:"tables"`
	Warnings       []ingest.Warning  `json:"warnings"`
	FilesParsed    int               `json:"files_parsed"`
	FilesSkipped   int               `json:"files_skipped"`
	RowsSkipped    int               `json:"rows_skipped"`
	DuplicateHours int               `json:"duplicate_hours"`
	Records        int               `json:"records"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// Pipeline orchestrates the extract-transform-load run.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	latest      atomic.Pointer[Result]
	runMu       sync.Mutex
}

// New creates a Pipeline with the given stages and observability. Loaders
// run in order after each successful computation.
func New(e Extractor, t Transformer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
	}
}

// Latest returns the most recent completed result, or nil before the first run.
func (p *Pipeline) Latest() *Result {
	return p.latest.Load()
}

// CheckReadiness returns nil once a run has completed, or an error describing
// why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.latest.Load() == nil {
		return errors.New("no completed run yet")
	}
	return nil
}

// Run executes one parse-classify-aggregate-export cycle. Runs are
// serialized; a triggered run waits for the one in flight. The result is
// published before the loaders run, so a failing export never discards an
// otherwise good computation; loader errors are joined and returned.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	start := time.Now()
	p.logger.Info("run started")
	p.metrics.RunsTotal.Inc()
	p.metrics.RunActive.Set(1)
	defer p.metrics.RunActive.Set(0)

	batch, err := p.extractor.Extract(ctx)
	if err != nil {
		p.metrics.RunsFailed.Inc()
		return nil, fmt.Errorf("extract: %w", err)
	}

	for _, w := range batch.Warnings {
		p.logger.Warn("input degraded", "file", w.File, "station", w.Station, "reason", w.Reason)
	}
	p.metrics.FilesParsed.Add(float64(batch.FilesParsed))
	p.metrics.FilesSkipped.Add(float64(batch.FilesSkipped))
	p.metrics.RowsSkipped.Add(float64(batch.RowsSkipped))
	p.metrics.RecordsParsed.Add(float64(len(batch.Records)))

	tables, err := p.transformer.Transform(ctx, batch)
	if err != nil {
		p.metrics.RunsFailed.Inc()
		return nil, fmt.Errorf("transform: %w", err)
	}

	res := &Result{
		Tables:         tables,
		Warnings:       batch.Warnings,
		FilesParsed:    batch.FilesParsed,
		FilesSkipped:   batch.FilesSkipped,
		RowsSkipped:    batch.RowsSkipped,
		DuplicateHours: batch.DuplicateHours,
		Records:        len(batch.Records),
		GeneratedAt:    domain.Now(),
	}
	if res.Warnings == nil {
		res.Warnings = []ingest.Warning{}
	}

	p.latest.Store(res)
	p.observeResult(res)

	var loadErrs []error
	for _, l := range p.loaders {
		if err := l.Load(ctx, res); err != nil {
			p.logger.Error("load failed", "loader", fmt.Sprintf("%T", l), "error", err)
			loadErrs = append(loadErrs, err)
		}
	}
	if len(loadErrs) > 0 {
		p.metrics.RunsFailed.Inc()
		return res, errors.Join(loadErrs...)
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("run complete",
		"files", res.FilesParsed,
		"records", res.Records,
		"stations", len(tables.StationCodes()),
		"downtime_days", tables.DowntimeDayCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// observeResult exposes the latest result through gauges and counters.
func (p *Pipeline) observeResult(res *Result) {
	unknown := 0
	for _, d := range res.Tables.Daily {
		unknown += d.UnknownHours
	}
	p.metrics.UnknownVerdicts.Add(float64(unknown))
	p.metrics.DowntimeDays.Set(float64(res.Tables.DowntimeDayCount()))
	p.metrics.StationsReporting.Set(float64(len(res.Tables.StationCodes())))
	p.metrics.LastRunTimestamp.Set(float64(res.GeneratedAt.Unix()))
}
