// Command genfixtures writes synthetic INMET station CSV exports for local
// runs and load testing. Output is deterministic for a given seed: winds
// follow a seasonal and diurnal cycle with random storm episodes layered on
// top, and a small fraction of readings is dropped or marked -9999 the way
// real station exports are.
//
// Usage:
//
//	go run ./cmd/genfixtures \
//	  -out ./data \
//	  -stations A602,A606,A627 \
//	  -years 2022,2023 \
//	  -seed 1
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/offshore-downtime/internal/domain"
)

const header = "Data;Hora UTC;PRECIPITACAO TOTAL, HORARIO (mm);" +
	"PRESSAO ATMOSFERICA AO NIVEL DA ESTACAO, HORARIA (mB);" +
	"TEMPERATURA DO AR - BULBO SECO, HORARIA (C);" +
	"UMIDADE RELATIVA DO AR, HORARIA (%);" +
	"VENTO, DIRECAO HORARIA (gr) (gr);" +
	"VENTO, RAJADA MAXIMA (m/s);" +
	"VENTO, VELOCIDADE HORARIA (m/s);"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "directory to write station CSVs into")
	stationsArg := flag.String("stations", "A602,A606,A627", "comma-separated station codes")
	yearsArg := flag.String("years", "2022,2023", "comma-separated years")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	stations, err := resolveStations(*stationsArg)
	if err != nil {
		return err
	}
	years, err := parseYears(*yearsArg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	var totalRows, totalStormHours, totalMissing int
	for i, st := range stations {
		for _, year := range years {
			// Per-file seed so adding a station or year never reshuffles
			// the others.
			rng := rand.New(rand.NewSource(*seed + int64(i)*1000003 + int64(year)))

			stats := writeStationYear(*outDir, st, year, rng)
			if stats.err != nil {
				return fmt.Errorf("writing %s %d: %w", st.Code, year, stats.err)
			}

			log.Printf("%s %d: %d rows, %d storm hours, %d missing readings -> %s",
				st.Code, year, stats.rows, stats.stormHours, stats.missing, stats.path)
			totalRows += stats.rows
			totalStormHours += stats.stormHours
			totalMissing += stats.missing
		}
	}

	log.Printf("total: %d rows across %d files, %d storm hours, %d missing readings",
		totalRows, len(stations)*len(years), totalStormHours, totalMissing)
	return nil
}

func resolveStations(arg string) ([]domain.Station, error) {
	var out []domain.Station
	for _, code := range strings.Split(arg, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		st, ok := domain.StationByCode(code)
		if !ok {
			return nil, fmt.Errorf("unknown station code %q", code)
		}
		out = append(out, st)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no stations given")
	}
	return out, nil
}

func parseYears(arg string) ([]int, error) {
	var out []int
	for _, s := range strings.Split(arg, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		y, err := strconv.Atoi(s)
		if err != nil || y < 2000 || y > 2100 {
			return nil, fmt.Errorf("invalid year %q", s)
		}
		out = append(out, y)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no years given")
	}
	return out, nil
}

type fileStats struct {
	path       string
	rows       int
	stormHours int
	missing    int
	err        error
}

func writeStationYear(dir string, st domain.Station, year int, rng *rand.Rand) fileStats {
	var b strings.Builder

	writePreamble(&b, st)
	b.WriteString(header)
	b.WriteString("\n")

	stats := fileStats{}
	var stormLeft int
	var stormPeak float64

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	deadDay := false

	for ts := start; ts.Before(end); ts = ts.Add(time.Hour) {
		if ts.Hour() == 0 {
			// A handful of days a year the whole station is offline.
			deadDay = rng.Float64() < 0.004
		}

		if stormLeft == 0 && rng.Float64() < 0.004 {
			stormLeft = 6 + rng.Intn(18)
			stormPeak = 12 + rng.Float64()*10
		}

		row, rowMissing := buildRow(ts, rng, stormLeft > 0, stormPeak, deadDay)
		if stormLeft > 0 {
			stormLeft--
			stats.stormHours++
		}
		stats.missing += rowMissing
		stats.rows++
		b.WriteString(row)
		b.WriteString("\n")
	}

	name := fmt.Sprintf("%s_%s_%d.csv", st.Code, fileLabel(st.Name), year)
	stats.path = filepath.Join(dir, name)
	stats.err = os.WriteFile(stats.path, []byte(b.String()), 0o644)
	return stats
}

func writePreamble(b *strings.Builder, st domain.Station) {
	fmt.Fprintf(b, "REGIAO:;SE\n")
	fmt.Fprintf(b, "UF:;RJ\n")
	fmt.Fprintf(b, "ESTACAO:;%s\n", strings.ToUpper(st.Name))
	fmt.Fprintf(b, "CODIGO (WMO):;%s\n", st.Code)
	fmt.Fprintf(b, "LATITUDE:;%s\n", dec(st.Lat, 8))
	fmt.Fprintf(b, "LONGITUDE:;%s\n", dec(st.Lon, 8))
	fmt.Fprintf(b, "ALTITUDE:;%s\n", dec(10+math.Abs(st.Lat), 2))
	fmt.Fprintf(b, "DATA DE FUNDACAO:;07/05/07\n")
}

// buildRow renders one hourly line. The second return value counts readings
// emitted as missing.
func buildRow(ts time.Time, rng *rand.Rand, storm bool, stormPeak float64, dead bool) (string, int) {
	date := ts.Format("2006/01/02")
	hour := fmt.Sprintf("%02d00 UTC", ts.Hour())

	if dead {
		na := strconv.Itoa(-9999)
		return fmt.Sprintf("%s;%s;%s;%s;%s;%s;%s;%s;%s;",
			date, hour, na, na, na, na, na, na, na), 7
	}

	doy := float64(ts.YearDay())
	seasonal := math.Sin(2 * math.Pi * (doy - 196) / 365)
	diurnal := math.Sin(2 * math.Pi * float64(ts.Hour()-14) / 24)

	wind := 5 + 2.5*seasonal + 1.5*diurnal + rng.NormFloat64()*1.2
	rain := 0.0
	if storm {
		wind = stormPeak - 2*rng.Float64()
		if rng.Float64() < 0.5 {
			rain = rng.Float64() * 25
		}
	} else if rng.Float64() < 0.06 {
		rain = rng.Float64() * 8
	}
	wind = math.Max(wind, 0)
	gust := wind * (1.15 + rng.Float64()*0.25)

	temp := 24 + 4*(-seasonal) + 3*diurnal + rng.NormFloat64()
	humidity := 60 + rng.Float64()*35
	pressure := 1012 + rng.NormFloat64()*4
	windDir := rng.Float64() * 360

	missing := 0
	windField, gustField := dec(wind, 1), dec(gust, 1)
	if rng.Float64() < 0.015 {
		// Anemometer dropout takes speed and gust together.
		windField, gustField = "-9999", "-9999"
		missing += 2
	}
	rainField := dec(rain, 1)
	if rng.Float64() < 0.01 {
		rainField = ""
		missing++
	}

	row := fmt.Sprintf("%s;%s;%s;%s;%s;%s;%s;%s;%s;",
		date, hour,
		rainField,
		dec(pressure, 1),
		dec(temp, 1),
		dec(humidity, 0),
		dec(windDir, 0),
		gustField,
		windField,
	)
	return row, missing
}

// dec formats a float with the Brazilian decimal comma used by the exports.
func dec(v float64, prec int) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', prec, 64), ".", ",", 1)
}

// fileLabel turns a station name into the uppercase, dash-joined form used
// in export file names.
func fileLabel(name string) string {
	s := strings.ToUpper(name)
	for _, pair := range [][2]string{
		{"Á", "A"}, {"Â", "A"}, {"Ã", "A"}, {"É", "E"}, {"Ê", "E"},
		{"Í", "I"}, {"Ó", "O"}, {"Ô", "O"}, {"Õ", "O"}, {"Ú", "U"}, {"Ç", "C"},
		{" ", "-"}, {"(", ""}, {")", ""},
	} {
		s = strings.ReplaceAll(s, pair[0], pair[1])
	}
	return s
}
