package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/offshore-downtime/internal/adapter/csvdir"
	"github.com/couchcryptid/offshore-downtime/internal/adapter/httpapi"
	"github.com/couchcryptid/offshore-downtime/internal/adapter/report"
	"github.com/couchcryptid/offshore-downtime/internal/adapter/sqlite"
	"github.com/couchcryptid/offshore-downtime/internal/adapter/tablecsv"
	"github.com/couchcryptid/offshore-downtime/internal/adapter/watch"
	"github.com/couchcryptid/offshore-downtime/internal/config"
	"github.com/couchcryptid/offshore-downtime/internal/domain"
	"github.com/couchcryptid/offshore-downtime/internal/observability"
	"github.com/couchcryptid/offshore-downtime/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	catalog, err := loadCatalog(cfg, logger)
	if err != nil {
		logger.Error("failed to load thresholds", "error", err)
		os.Exit(1)
	}

	extractor := csvdir.New(cfg.DataDir, logger)
	transformer := pipeline.NewTransform(catalog, cfg.MinKnownHours)

	// Export sinks, each enabled by its path.
	var loaders []pipeline.Loader
	var store *sqlite.Store
	if cfg.SQLitePath != "" {
		store, err = sqlite.New(cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("failed to open sqlite store", "error", err)
			os.Exit(1)
		}
		loaders = append(loaders, store)
	}
	if cfg.ExportDir != "" {
		loaders = append(loaders, tablecsv.New(cfg.ExportDir, logger))
	}
	if cfg.XLSXPath != "" {
		loaders = append(loaders, report.NewXLSXWriter(cfg.XLSXPath, logger))
	}
	if cfg.PDFPath != "" {
		loaders = append(loaders, report.NewPDFWriter(cfg.PDFPath, logger))
	}
	if len(loaders) == 0 && !cfg.ServeEnabled {
		logger.Warn("no export sinks configured, results will only be logged")
	}

	p := pipeline.New(extractor, transformer, loaders, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One-shot mode: compute, export, exit.
	if !cfg.ServeEnabled {
		_, err := p.Run(ctx)
		closeStore(store, logger)
		if err != nil {
			logger.Error("run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, p, catalog, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// First computation runs in the background so health checks answer
	// immediately; readiness flips once it completes.
	go func() {
		if _, err := p.Run(ctx); err != nil {
			logger.Error("initial run failed", "error", err)
		}
	}()

	var watcher *watch.Watcher
	if cfg.WatchEnabled {
		watcher = watch.New(cfg.DataDir, p, logger)
		if err := watcher.Start(ctx); err != nil {
			logger.Error("failed to start watcher", "error", err)
			os.Exit(1)
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if watcher != nil {
		if err := watcher.Close(); err != nil {
			logger.Error("watcher close error", "error", err)
		}
	}
	closeStore(store, logger)

	logger.Info("shutdown complete")
}

func loadCatalog(cfg *config.Config, logger *slog.Logger) (domain.Catalog, error) {
	if cfg.ThresholdsFile == "" {
		logger.Info("using built-in operational thresholds")
		return domain.DefaultCatalog(), nil
	}
	catalog, err := domain.LoadCatalog(cfg.ThresholdsFile)
	if err != nil {
		return domain.Catalog{}, err
	}
	logger.Info("loaded operational thresholds", "file", cfg.ThresholdsFile, "operations", catalog.Len())
	return catalog, nil
}

func closeStore(store *sqlite.Store, logger *slog.Logger) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logger.Error("sqlite close error", "error", err)
	}
}
