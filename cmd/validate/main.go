// Command validate runs integrity checks over a station data directory: it
// ingests every CSV, reclassifies every hour, rebuilds the downtime tables,
// and verifies the internal invariants hold: coverage, verdict logic,
// count arithmetic, and determinism. Intended as a gate after dropping a
// fresh batch of INMET exports.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -data ./data \
//	  -thresholds ./thresholds.yaml \
//	  -min-hours 4
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/couchcryptid/offshore-downtime/internal/adapter/csvdir"
	"github.com/couchcryptid/offshore-downtime/internal/aggregate"
	"github.com/couchcryptid/offshore-downtime/internal/domain"
	"github.com/couchcryptid/offshore-downtime/internal/ingest"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data", "", "directory containing INMET station CSVs")
	thresholdsFile := flag.String("thresholds", "", "optional YAML threshold file (defaults to built-in catalog)")
	minHours := flag.Int("min-hours", aggregate.DefaultMinKnownHours, "known hours required before a day is judged")
	flag.Parse()

	if *dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataDir, *thresholdsFile, *minHours); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir, thresholdsFile string, minHours int) int {
	fmt.Println("=== Downtime Engine Integrity Validation ===")
	fmt.Println()

	catalog := domain.DefaultCatalog()
	if thresholdsFile != "" {
		var err error
		catalog, err = domain.LoadCatalog(thresholdsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load thresholds: %v\n", err)
			return 1
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	batch, err := csvdir.New(dataDir, logger).Extract(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: extract %s: %v\n", dataDir, err)
		return 1
	}

	hours := domain.ClassifyRecords(batch.Records, catalog)
	tables := aggregate.Build(batch.Records, hours, catalog, minHours)

	phases := []*phase{
		validateIngest(batch),
		validateVerdicts(batch.Records, hours, catalog),
		validateDaily(tables.Daily, catalog, minHours),
		validateRollups(tables),
		validateDeterminism(batch, hours, tables, catalog, minHours),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d from %d files (%d skipped, %d bad rows, %d duplicate hours, %d warnings)\n",
		len(batch.Records), batch.FilesParsed, batch.FilesSkipped,
		batch.RowsSkipped, batch.DuplicateHours, len(batch.Warnings))
	fmt.Printf("Tables: %d daily, %d monthly, %d yearly, %d seasonality, %d trends\n",
		len(tables.Daily), len(tables.Monthly), len(tables.Yearly),
		len(tables.Seasonality), len(tables.Trends))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == 20 {
				fmt.Printf("  ... %d more\n", len(p.errors)-i)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Ingest coverage ──
// Every record sits on a whole hour, belongs to a known station, and no
// (station, hour) appears twice.

func validateIngest(batch ingest.Batch) *phase {
	p := &phase{name: "Phase 1: Ingest Coverage"}

	if len(batch.Records) == 0 {
		p.errorf("no records ingested")
		return p
	}

	type stationHour struct {
		station string
		t       time.Time
	}
	seen := make(map[stationHour]bool, len(batch.Records))

	for i, rec := range batch.Records {
		if _, ok := domain.StationByCode(rec.Station); !ok {
			p.errorf("record %d: unknown station %q", i, rec.Station)
		}
		if rec.Time.Location() != time.UTC {
			p.errorf("record %d: timestamp not UTC: %s", i, rec.Time)
		}
		if rec.Time.Minute() != 0 || rec.Time.Second() != 0 {
			p.errorf("record %d: timestamp not on the hour: %s", i, rec.Time)
		}
		key := stationHour{rec.Station, rec.Time}
		if seen[key] {
			p.errorf("record %d: duplicate hour %s %s", i, rec.Station, rec.Time)
		}
		seen[key] = true
	}

	for _, w := range batch.Warnings {
		fmt.Printf("  note: skipped %s: %s\n", w.File, w.Reason)
	}
	return p
}

// ── Phase 2: Verdict logic ──
// Reclassifies every (record, operation) pair and checks the tri-state
// rules: exceeded needs a tripped sensor, clear needs full observation,
// unknown needs a missing one.

func validateVerdicts(records []domain.Record, hours []domain.HourlyExceedance, catalog domain.Catalog) *phase {
	p := &phase{name: "Phase 2: Verdict Logic"}

	if want := len(records) * catalog.Len(); len(hours) != want {
		p.errorf("verdict count: expected %d, got %d", want, len(hours))
		return p
	}

	i := 0
	for _, rec := range records {
		for _, th := range catalog.Thresholds() {
			v := hours[i]
			i++

			if v.Station != rec.Station || !v.Time.Equal(rec.Time) || v.Operation != th.Operation {
				p.errorf("verdict %d: keyed to %s/%s/%s, record is %s/%s/%s",
					i-1, v.Station, v.Time, v.Operation, rec.Station, rec.Time, th.Operation)
				continue
			}

			tripped := rec.WindSpeed.AtLeast(th.WindLimit) ||
				rec.GustSpeed.AtLeast(th.GustLimit) ||
				rec.Precip.AtLeast(th.RainLimit)
			observed := rec.WindSpeed.Valid && rec.GustSpeed.Valid && rec.Precip.Valid

			switch v.Verdict {
			case domain.VerdictExceeded:
				if !tripped {
					p.errorf("%s %s %s: exceeded but no sensor at limit", v.Station, v.Time, v.Operation)
				}
			case domain.VerdictClear:
				if tripped || !observed {
					p.errorf("%s %s %s: clear but tripped=%t observed=%t", v.Station, v.Time, v.Operation, tripped, observed)
				}
			case domain.VerdictUnknown:
				if tripped || observed {
					p.errorf("%s %s %s: unknown but tripped=%t observed=%t", v.Station, v.Time, v.Operation, tripped, observed)
				}
			}
		}
	}
	return p
}

// ── Phase 3: Daily table ──
// Hour counts add up, the status follows the min-hours rules, and weather
// observations stay within physical bounds.

func validateDaily(daily []aggregate.DailyDowntime, catalog domain.Catalog, minHours int) *phase {
	p := &phase{name: "Phase 3: Daily Table"}

	for _, d := range daily {
		id := fmt.Sprintf("%s %s %s", d.Station, d.Date, d.Operation)

		th, ok := catalog.Lookup(d.Operation)
		if !ok {
			p.errorf("%s: operation not in catalog", id)
			continue
		}

		if d.KnownHours+d.UnknownHours > 24 {
			p.errorf("%s: %d known + %d unknown hours exceed 24", id, d.KnownHours, d.UnknownHours)
		}
		if d.ExceededHours > d.KnownHours {
			p.errorf("%s: %d exceeded hours out of %d known", id, d.ExceededHours, d.KnownHours)
		}

		switch d.Status {
		case aggregate.DayInsufficient:
			if d.KnownHours >= minHours {
				p.errorf("%s: insufficient with %d known hours", id, d.KnownHours)
			}
		case aggregate.DayDowntime:
			if d.ExceededHours < th.MinHours {
				p.errorf("%s: downtime with %d exceeded hours (< %d)", id, d.ExceededHours, th.MinHours)
			}
		case aggregate.DayClear:
			if d.ExceededHours >= th.MinHours {
				p.errorf("%s: clear with %d exceeded hours (>= %d)", id, d.ExceededHours, th.MinHours)
			}
			if d.KnownHours < minHours {
				p.errorf("%s: clear with only %d known hours", id, d.KnownHours)
			}
		}

		if d.MaxWind.Valid && (d.MaxWind.Value < 0 || d.MaxWind.Value > 120) {
			p.errorf("%s: max wind %.1f m/s out of range", id, d.MaxWind.Value)
		}
		if d.PrecipTotal.Valid && d.PrecipTotal.Value < 0 {
			p.errorf("%s: negative precipitation total", id)
		}
	}
	return p
}

// ── Phase 4: Roll-ups ──
// Monthly counts re-derived from the daily table must match, fractions stay
// in [0,1], and the coastline union can never show fewer downtime days than
// its busiest station.

func validateRollups(tables *aggregate.Tables) *phase {
	p := &phase{name: "Phase 4: Roll-up Arithmetic"}

	type monthKey struct {
		station, op string
		year        int
		month       time.Month
	}
	counts := make(map[monthKey]*[3]int) // evaluable, downtime, insufficient
	for _, d := range tables.Daily {
		k := monthKey{d.Station, d.Operation, d.Date.Year(), d.Date.Month()}
		c := counts[k]
		if c == nil {
			c = &[3]int{}
			counts[k] = c
		}
		switch d.Status {
		case aggregate.DayDowntime:
			c[0]++
			c[1]++
		case aggregate.DayClear:
			c[0]++
		case aggregate.DayInsufficient:
			c[2]++
		}
	}

	maxStationDowntime := make(map[monthKey]int)
	for _, m := range tables.Monthly {
		id := fmt.Sprintf("%s %s %d-%02d", m.Station, m.Operation, m.Year, m.Month)

		if m.DowntimeFraction.Valid {
			if m.EvaluableDays == 0 {
				p.errorf("%s: fraction %.3f with zero evaluable days", id, m.DowntimeFraction.Value)
			}
			if m.DowntimeFraction.Value < 0 || m.DowntimeFraction.Value > 1 {
				p.errorf("%s: fraction %.3f outside [0,1]", id, m.DowntimeFraction.Value)
			}
		} else if m.EvaluableDays > 0 {
			p.errorf("%s: no fraction despite %d evaluable days", id, m.EvaluableDays)
		}

		if m.Station == aggregate.AllStations {
			continue
		}

		k := monthKey{m.Station, m.Operation, m.Year, m.Month}
		want := counts[k]
		if want == nil {
			p.errorf("%s: monthly row without daily rows", id)
			continue
		}
		if m.EvaluableDays != want[0] || m.DowntimeDays != want[1] || m.InsufficientDays != want[2] {
			p.errorf("%s: counts %d/%d/%d, daily table says %d/%d/%d", id,
				m.EvaluableDays, m.DowntimeDays, m.InsufficientDays, want[0], want[1], want[2])
		}

		uk := monthKey{aggregate.AllStations, m.Operation, m.Year, m.Month}
		if m.DowntimeDays > maxStationDowntime[uk] {
			maxStationDowntime[uk] = m.DowntimeDays
		}
	}

	for _, m := range tables.Monthly {
		if m.Station != aggregate.AllStations {
			continue
		}
		k := monthKey{aggregate.AllStations, m.Operation, m.Year, m.Month}
		if floor := maxStationDowntime[k]; m.DowntimeDays < floor {
			p.errorf("all %s %d-%02d: union has %d downtime days, busiest station has %d",
				m.Operation, m.Year, m.Month, m.DowntimeDays, floor)
		}
	}
	return p
}

// ── Phase 5: Determinism ──
// A second pass over the same batch must reproduce byte-identical tables.

func validateDeterminism(batch ingest.Batch, hours []domain.HourlyExceedance, tables *aggregate.Tables, catalog domain.Catalog, minHours int) *phase {
	p := &phase{name: "Phase 5: Determinism"}

	hours2 := domain.ClassifyRecords(batch.Records, catalog)
	if diff := cmp.Diff(hours, hours2); diff != "" {
		p.errorf("classification not deterministic:\n%s", diff)
	}

	tables2 := aggregate.Build(batch.Records, hours2, catalog, minHours)
	if diff := cmp.Diff(tables, tables2, cmpopts.EquateEmpty()); diff != "" {
		p.errorf("tables not deterministic:\n%s", diff)
	}
	return p
}
