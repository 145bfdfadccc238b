package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/offshore-downtime/internal/pipeline"
)

// XLSXWriter persists each run's workbook to a fixed path, replacing the
// previous one.
type XLSXWriter struct {
	path   string
	logger *slog.Logger
}

func NewXLSXWriter(path string, logger *slog.Logger) *XLSXWriter {
	return &XLSXWriter{path: path, logger: logger}
}

func (w *XLSXWriter) Load(_ context.Context, res *pipeline.Result) error {
	data, err := BuildWorkbook(res)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	if err := writeArtifact(w.path, data); err != nil {
		return err
	}
	w.logger.Info("workbook written", "path", w.path, "bytes", len(data))
	return nil
}

// PDFWriter persists each run's PDF report to a fixed path.
type PDFWriter struct {
	path   string
	logger *slog.Logger
}

func NewPDFWriter(path string, logger *slog.Logger) *PDFWriter {
	return &PDFWriter{path: path, logger: logger}
}

func (w *PDFWriter) Load(_ context.Context, res *pipeline.Result) error {
	data, err := BuildReport(res)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	if err := writeArtifact(w.path, data); err != nil {
		return err
	}
	w.logger.Info("report written", "path", w.path, "bytes", len(data))
	return nil
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
