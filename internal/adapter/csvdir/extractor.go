// Package csvdir reads INMET station CSV files from a directory tree and
// assembles them into one normalized batch.
//
// Files are matched by a .csv extension in any casing, station codes come
// from the filename prefix before the first underscore, and a file that
// cannot be attributed or parsed degrades to a warning rather than failing
// the run. Only the directory itself being unreadable is fatal.
package csvdir

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/offshore-downtime/internal/domain"
	"github.com/couchcryptid/offshore-downtime/internal/ingest"
)

// Extractor walks a data directory and parses every station CSV in it.
type Extractor struct {
	dir    string
	logger *slog.Logger
}

// New creates an Extractor rooted at dir.
func New(dir string, logger *slog.Logger) *Extractor {
	return &Extractor{
		dir:    dir,
		logger: logger,
	}
}

// Extract parses all station CSVs under the directory, in lexical walk
// order. Hours already seen for a station are dropped, so overlapping files
// cannot inflate a day past 24 hours.
func (e *Extractor) Extract(ctx context.Context) (ingest.Batch, error) {
	batch := ingest.Batch{
		Records:  []domain.Record{},
		Warnings: []ingest.Warning{},
	}

	type stationHour struct {
		station string
		t       time.Time
	}
	seen := make(map[stationHour]bool)

	err := filepath.WalkDir(e.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}

		name := d.Name()
		code := stationCode(name)
		station, ok := domain.StationByCode(code)
		if !ok {
			e.warn(&batch, ingest.Warning{File: name, Reason: "unknown station code " + code})
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			e.warn(&batch, ingest.Warning{File: name, Station: station.Code, Reason: err.Error()})
			return nil
		}
		res, err := ingest.Parse(station.Code, f)
		f.Close()
		if err != nil {
			e.warn(&batch, ingest.Warning{File: name, Station: station.Code, Reason: err.Error()})
			return nil
		}

		for _, rec := range res.Records {
			k := stationHour{station: rec.Station, t: rec.Time}
			if seen[k] {
				batch.DuplicateHours++
				continue
			}
			seen[k] = true
			batch.Records = append(batch.Records, rec)
		}
		batch.FilesParsed++
		batch.RowsSkipped += res.RowsSkipped
		batch.DuplicateHours += res.DuplicateHours
		e.logger.Debug("file parsed",
			"file", name,
			"station", station.Code,
			"records", len(res.Records),
			"rows_skipped", res.RowsSkipped,
		)
		return nil
	})
	if err != nil {
		return ingest.Batch{}, fmt.Errorf("walk %s: %w", e.dir, err)
	}

	// Walk order depends on the directory layout; the batch contract does not.
	sort.Slice(batch.Records, func(i, j int) bool {
		a, b := batch.Records[i], batch.Records[j]
		if a.Station != b.Station {
			return a.Station < b.Station
		}
		return a.Time.Before(b.Time)
	})
	return batch, nil
}

func (e *Extractor) warn(batch *ingest.Batch, w ingest.Warning) {
	batch.Warnings = append(batch.Warnings, w)
	batch.FilesSkipped++
}

// stationCode extracts the station code from an INMET file name, the
// segment before the first underscore.
func stationCode(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	code, _, _ := strings.Cut(base, "_")
	return code
}
