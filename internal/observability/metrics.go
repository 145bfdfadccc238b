package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// downtime engine.
type Metrics struct {
	RunsTotal   prometheus.Counter
	RunsFailed  prometheus.Counter
	RunActive   prometheus.Gauge
	RunDuration prometheus.Histogram

	// Ingest metrics.
	FilesParsed   prometheus.Counter
	FilesSkipped  prometheus.Counter
	RowsSkipped   prometheus.Counter
	RecordsParsed prometheus.Counter

	// Result metrics, set from the latest completed run.
	UnknownVerdicts   prometheus.Counter
	DowntimeDays      prometheus.Gauge
	StationsReporting prometheus.Gauge
	LastRunTimestamp  prometheus.Gauge
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "offshore_downtime",
			Name:      "runs_total",
			Help:      "Total pipeline runs started.",
		}),
		RunsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "offshore_downtime",
			Name:      "runs_failed_total",
			Help:      "Total pipeline runs that ended in error.",
		}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "offshore_downtime",
			Name:      "run_active",
			Help:      "1 while a pipeline run is in progress, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "offshore_downtime",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete parse-classify-aggregate-export run.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FilesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "offshore_downtime",
			Name:      "files_parsed_total",
			Help:      "Total station CSV files parsed successfully.",
		}),
		FilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "offshore_downtime",
			Name:      "files_skipped_total",
			Help:      "Total station CSV files skipped as unreadable or unrecognized.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "offshore_downtime",
			Name:      "rows_skipped_total",
			Help:      "Total data rows dropped for missing or malformed timestamps.",
		}),
		RecordsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "offshore_downtime",
			Name:      "records_parsed_total",
			Help:      "Total hourly records parsed into the normalized series.",
		}),
		UnknownVerdicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "offshore_downtime",
			Name:      "unknown_verdicts_total",
			Help:      "Total hourly verdicts left unknown due to missing sensor data.",
		}),
		DowntimeDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "offshore_downtime",
			Name:      "downtime_days",
			Help:      "Downtime days across all stations and operations in the latest result.",
		}),
		StationsReporting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "offshore_downtime",
			Name:      "stations_reporting",
			Help:      "Stations contributing records to the latest result.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "offshore_downtime",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the latest completed run.",
		}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunsFailed,
		m.RunActive,
		m.RunDuration,
		m.FilesParsed,
		m.FilesSkipped,
		m.RowsSkipped,
		m.RecordsParsed,
		m.UnknownVerdicts,
		m.DowntimeDays,
		m.StationsReporting,
		m.LastRunTimestamp,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "offshore_downtime", Name: "runs_total"}),
		RunsFailed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "offshore_downtime", Name: "runs_failed_total"}),
		RunActive:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "offshore_downtime", Name: "run_active"}),
		RunDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "offshore_downtime", Name: "run_duration_seconds"}),
		FilesParsed:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "offshore_downtime", Name: "files_parsed_total"}),
		FilesSkipped:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "offshore_downtime", Name: "files_skipped_total"}),
		RowsSkipped:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "offshore_downtime", Name: "rows_skipped_total"}),
		RecordsParsed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "offshore_downtime", Name: "records_parsed_total"}),
		UnknownVerdicts:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "offshore_downtime", Name: "unknown_verdicts_total"}),
		DowntimeDays:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "offshore_downtime", Name: "downtime_days"}),
		StationsReporting: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "offshore_downtime", Name: "stations_reporting"}),
		LastRunTimestamp:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "offshore_downtime", Name: "last_run_timestamp_seconds"}),
	}
}
