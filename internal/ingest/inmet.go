// Package ingest parses INMET automatic-station CSV exports into normalized
// hourly records. Parsing is pure: callers hand it a byte stream and a
// station code; directory walking and file handling live in the csvdir
// adapter.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/couchcryptid/offshore-downtime/internal/domain"
)

const (
	separator  = ';'
	naSentinel = -9999 // INMET marker for a missing or failed sensor reading
)

var (
	// ErrNoHeader means the stream never produced the "Data;" header line
	// that separates the station metadata preamble from hourly rows.
	ErrNoHeader = errors.New("no \"Data;\" header line found")

	// ErrNoTimestampColumns means the header was found but lacks the date or
	// hour column, so no row can be anchored in time.
	ErrNoTimestampColumns = errors.New("header missing date or hour column")
)

// FileResult is the outcome of parsing one station CSV export.
type FileResult struct {
	Station string
	Records []domain.Record

	// RowsSkipped counts rows dropped for unparseable timestamps or short
	// field lists. A bad row never aborts the file.
	RowsSkipped int

	// DuplicateHours counts rows dropped because an earlier row already
	// claimed the same timestamp. The first occurrence wins.
	DuplicateHours int
}

// Warning describes a file-level ingest problem that did not stop the run.
type Warning struct {
	File    string `json:"file"`
	Station string `json:"station,omitempty"`
	Reason  string `json:"reason"`
}

// Batch is the combined output of extracting a whole data directory, ordered
// by (station, time).
type Batch struct {
	Records  []domain.Record
	Warnings []Warning

	FilesParsed    int
	FilesSkipped   int
	RowsSkipped    int
	DuplicateHours int
}

// Parse reads one INMET station CSV export and returns its hourly records
// sorted by time. The stream is decoded from Latin-1; the metadata preamble
// is skipped up to the "Data;" header; ";"-separated fields with ","
// decimals are parsed with "-9999" and empty cells mapping to invalid
// readings. Rows with unparseable timestamps are dropped and counted, never
// fatal. The error cases are a missing header or a header without timestamp
// columns: then the whole file is unusable.
func Parse(station string, r io.Reader) (FileResult, error) {
	res := FileResult{Station: station}

	lines, headerIdx, err := scanToHeader(r)
	if err != nil {
		return FileResult{}, err
	}

	cr := csv.NewReader(strings.NewReader(strings.Join(lines[headerIdx:], "\n")))
	cr.Comma = separator
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return FileResult{}, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return FileResult{}, ErrNoHeader
	}

	cols := mapColumns(rows[0])
	if cols.date < 0 || cols.hour < 0 {
		return FileResult{}, ErrNoTimestampColumns
	}

	seen := make(map[time.Time]bool, len(rows))
	for _, row := range rows[1:] {
		ts, ok := rowTimestamp(row, cols)
		if !ok {
			res.RowsSkipped++
			continue
		}
		if seen[ts] {
			res.DuplicateHours++
			continue
		}
		seen[ts] = true

		res.Records = append(res.Records, domain.Record{
			Station:     station,
			Time:        ts,
			WindSpeed:   readingAt(row, cols.wind),
			GustSpeed:   readingAt(row, cols.gust),
			Precip:      readingAt(row, cols.precip),
			WindDir:     readingAt(row, cols.windDir),
			Temperature: readingAt(row, cols.temp),
			Humidity:    readingAt(row, cols.humidity),
		})
	}

	sort.Slice(res.Records, func(i, j int) bool {
		return res.Records[i].Time.Before(res.Records[j].Time)
	})

	return res, nil
}

// scanToHeader decodes the stream from Latin-1 and collects lines from the
// "Data;" header onward.
func scanToHeader(r io.Reader) ([]string, int, error) {
	sc := bufio.NewScanner(transform.NewReader(r, charmap.ISO8859_1.NewDecoder()))

	var lines []string
	headerIdx := -1
	for i := 0; sc.Scan(); i++ {
		line := sc.Text()
		if headerIdx < 0 && strings.HasPrefix(line, "Data;") {
			headerIdx = i
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan lines: %w", err)
	}
	if headerIdx < 0 {
		return nil, 0, ErrNoHeader
	}
	return lines, headerIdx, nil
}

// columns holds header indices for the fields the engine uses, -1 when the
// column is absent from this export.
type columns struct {
	date     int
	hour     int
	precip   int
	wind     int
	gust     int
	windDir  int
	temp     int
	humidity int
}

// mapColumns locates columns by prefix/substring match. INMET header labels
// drift across years (accents, unit suffixes), so exact names are useless;
// the match targets are the stable ASCII cores of each label. The first
// matching column wins.
func mapColumns(header []string) columns {
	c := columns{date: -1, hour: -1, precip: -1, wind: -1, gust: -1, windDir: -1, temp: -1, humidity: -1}

	claim := func(dst *int, i int) {
		if *dst < 0 {
			*dst = i
		}
	}

	for i, h := range header {
		name := strings.TrimSpace(h)
		lower := strings.ToLower(name)
		switch {
		case strings.HasPrefix(name, "Data"):
			claim(&c.date, i)
		case strings.HasPrefix(name, "Hora"):
			claim(&c.hour, i)
		case strings.Contains(lower, "precipita"):
			claim(&c.precip, i)
		case strings.Contains(lower, "vento, velocidade"):
			claim(&c.wind, i)
		case strings.Contains(lower, "vento, rajada"):
			claim(&c.gust, i)
		case strings.Contains(lower, "vento, dire"):
			claim(&c.windDir, i)
		case strings.Contains(lower, "temperatura do ar") && strings.Contains(lower, "bulbo seco"):
			claim(&c.temp, i)
		case strings.Contains(lower, "umidade relativa do ar, horaria"):
			claim(&c.humidity, i)
		}
	}
	return c
}

// rowTimestamp combines the date and hour fields into a UTC time.
func rowTimestamp(row []string, cols columns) (time.Time, bool) {
	if cols.date >= len(row) || cols.hour >= len(row) {
		return time.Time{}, false
	}

	day, ok := parseDate(row[cols.date])
	if !ok {
		return time.Time{}, false
	}
	hour, minute, ok := parseHour(row[cols.hour])
	if !ok {
		return time.Time{}, false
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC), true
}

// parseDate accepts "2006/01/02" (current exports) and "02/01/2006" (older).
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006/01/02", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseHour accepts "HHMM UTC", "HHMM", "HH:MM", and short forms ("930").
func parseHour(s string) (hour, minute int, ok bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), " UTC"))
	s = strings.ReplaceAll(s, ":", "")
	if s == "" || len(s) > 4 {
		return 0, 0, false
	}
	for len(s) < 4 {
		s = "0" + s
	}

	h, errH := strconv.Atoi(s[:2])
	m, errM := strconv.Atoi(s[2:])
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// readingAt parses one sensor field into a Reading. Absent columns, empty
// cells, unparseable values, and the -9999 sentinel are all invalid readings.
func readingAt(row []string, idx int) domain.Reading {
	if idx < 0 || idx >= len(row) {
		return domain.Reading{}
	}

	s := strings.TrimSpace(row[idx])
	if s == "" {
		return domain.Reading{}
	}
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v == naSentinel {
		return domain.Reading{}
	}
	return domain.NewReading(v)
}
