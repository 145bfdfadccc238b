package aggregate

import (
	"sort"
	"time"

	"github.com/couchcryptid/offshore-downtime/internal/domain"
)

// AllStations is the scope label for coastline-wide summaries, the union of
// every station.
const AllStations = "all"

// PeriodSummary is the roll-up for one scope (a station code or AllStations),
// operation, and period. Month 0 means the whole year. Insufficient days are
// surfaced but never enter the fraction's denominator; the fraction itself is
// an invalid reading, not NaN, when no day was evaluable.
type PeriodSummary struct {
	Station          string         `json:"station"`
	Operation        string         `json:"operation"`
	Year             int            `json:"year"`
	Month            time.Month     `json:"month,omitempty"`
	EvaluableDays    int            `json:"evaluable_days"`
	DowntimeDays     int            `json:"downtime_days"`
	InsufficientDays int            `json:"insufficient_days"`
	DowntimeFraction domain.Reading `json:"downtime_fraction"`
	MeanWind         domain.Reading `json:"mean_wind_ms"`
	MaxGust          domain.Reading `json:"max_gust_ms"`
}

// SeasonSummary aggregates a calendar month across all years: the "which
// month hurts this operation most" view.
type SeasonSummary struct {
	Station          string         `json:"station"`
	Operation        string         `json:"operation"`
	Month            time.Month     `json:"month"`
	EvaluableDays    int            `json:"evaluable_days"`
	DowntimeDays     int            `json:"downtime_days"`
	InsufficientDays int            `json:"insufficient_days"`
	DowntimeFraction domain.Reading `json:"downtime_fraction"`
}

type periodCounts struct {
	evaluable    int
	downtime     int
	insufficient int
}

func (c *periodCounts) add(st DayStatus) {
	switch st {
	case DayDowntime:
		c.downtime++
		c.evaluable++
	case DayClear:
		c.evaluable++
	default:
		c.insufficient++
	}
}

func (c periodCounts) fraction() domain.Reading {
	if c.evaluable == 0 {
		return domain.Reading{}
	}
	return domain.NewReading(float64(c.downtime) / float64(c.evaluable))
}

type yearKey struct {
	scope string
	op    string
	year  int
}

type monthKey struct {
	scope string
	op    string
	year  int
	month time.Month
}

type seasonKey struct {
	scope string
	op    string
	month time.Month
}

type scopePeriod struct {
	scope string
	year  int
	month time.Month // 0 for whole-year
}

type weatherStats struct {
	windSum float64
	windN   int
	maxGust domain.Reading
}

// BuildPeriods rolls daily rows up into monthly and yearly summaries per
// station and for the coastline union, plus month-of-year seasonality.
//
// The coastline union counts each (date, operation) once: downtime when any
// station's evaluable day is downtime, clear when at least one station is
// evaluable and none is downtime, insufficient only when every reporting
// station is insufficient.
func BuildPeriods(records []domain.Record, daily []DailyDowntime, catalog domain.Catalog) (monthly, yearly []PeriodSummary, seasonal []SeasonSummary) {
	years := make(map[yearKey]*periodCounts)
	months := make(map[monthKey]*periodCounts)
	seasons := make(map[seasonKey]*periodCounts)

	addDay := func(scope, op string, date Date, st DayStatus) {
		y, m := date.Year(), date.Month()

		yk := yearKey{scope: scope, op: op, year: y}
		if years[yk] == nil {
			years[yk] = &periodCounts{}
		}
		years[yk].add(st)

		mk := monthKey{scope: scope, op: op, year: y, month: m}
		if months[mk] == nil {
			months[mk] = &periodCounts{}
		}
		months[mk].add(st)

		sk := seasonKey{scope: scope, op: op, month: m}
		if seasons[sk] == nil {
			seasons[sk] = &periodCounts{}
		}
		seasons[sk].add(st)
	}

	// Union status per (date, operation). DayStatus is ordered so that the
	// union is simply the maximum across stations.
	type dateOp struct {
		date Date
		op   string
	}
	union := make(map[dateOp]DayStatus)

	for _, d := range daily {
		addDay(d.Station, d.Operation, d.Date, d.Status)

		k := dateOp{date: d.Date, op: d.Operation}
		if st, seen := union[k]; !seen || d.Status > st {
			union[k] = d.Status
		}
	}
	for k, st := range union {
		addDay(AllStations, k.op, k.date, st)
	}

	weather := buildWeatherStats(records)

	opIndex := make(map[string]int, catalog.Len())
	for i, op := range catalog.Operations() {
		opIndex[op] = i
	}

	yearly = make([]PeriodSummary, 0, len(years))
	for k, c := range years {
		w := weather[scopePeriod{scope: k.scope, year: k.year}]
		yearly = append(yearly, PeriodSummary{
			Station:          k.scope,
			Operation:        k.op,
			Year:             k.year,
			EvaluableDays:    c.evaluable,
			DowntimeDays:     c.downtime,
			InsufficientDays: c.insufficient,
			DowntimeFraction: c.fraction(),
			MeanWind:         w.meanWind(),
			MaxGust:          w.gust(),
		})
	}

	monthly = make([]PeriodSummary, 0, len(months))
	for k, c := range months {
		w := weather[scopePeriod{scope: k.scope, year: k.year, month: k.month}]
		monthly = append(monthly, PeriodSummary{
			Station:          k.scope,
			Operation:        k.op,
			Year:             k.year,
			Month:            k.month,
			EvaluableDays:    c.evaluable,
			DowntimeDays:     c.downtime,
			InsufficientDays: c.insufficient,
			DowntimeFraction: c.fraction(),
			MeanWind:         w.meanWind(),
			MaxGust:          w.gust(),
		})
	}

	seasonal = make([]SeasonSummary, 0, len(seasons))
	for k, c := range seasons {
		seasonal = append(seasonal, SeasonSummary{
			Station:          k.scope,
			Operation:        k.op,
			Month:            k.month,
			EvaluableDays:    c.evaluable,
			DowntimeDays:     c.downtime,
			InsufficientDays: c.insufficient,
			DowntimeFraction: c.fraction(),
		})
	}

	sortSummaries(yearly, opIndex)
	sortSummaries(monthly, opIndex)
	sort.Slice(seasonal, func(i, j int) bool {
		a, b := seasonal[i], seasonal[j]
		if a.Station != b.Station {
			return scopeLess(a.Station, b.Station)
		}
		if a.Operation != b.Operation {
			return opIndex[a.Operation] < opIndex[b.Operation]
		}
		return a.Month < b.Month
	})

	return monthly, yearly, seasonal
}

func buildWeatherStats(records []domain.Record) map[scopePeriod]*weatherStats {
	stats := make(map[scopePeriod]*weatherStats)

	touch := func(k scopePeriod) *weatherStats {
		if stats[k] == nil {
			stats[k] = &weatherStats{}
		}
		return stats[k]
	}

	for _, rec := range records {
		y, m := rec.Time.UTC().Year(), rec.Time.UTC().Month()
		for _, scope := range [2]string{rec.Station, AllStations} {
			for _, k := range [2]scopePeriod{
				{scope: scope, year: y},
				{scope: scope, year: y, month: m},
			} {
				w := touch(k)
				if v, ok := rec.WindSpeed.Float(); ok {
					w.windSum += v
					w.windN++
				}
				w.maxGust = domain.MaxReading(w.maxGust, rec.GustSpeed)
			}
		}
	}
	return stats
}

func (w *weatherStats) meanWind() domain.Reading {
	if w == nil || w.windN == 0 {
		return domain.Reading{}
	}
	return domain.NewReading(w.windSum / float64(w.windN))
}

func (w *weatherStats) gust() domain.Reading {
	if w == nil {
		return domain.Reading{}
	}
	return w.maxGust
}

func sortSummaries(s []PeriodSummary, opIndex map[string]int) {
	sort.Slice(s, func(i, j int) bool {
		a, b := s[i], s[j]
		if a.Station != b.Station {
			return scopeLess(a.Station, b.Station)
		}
		if a.Operation != b.Operation {
			return opIndex[a.Operation] < opIndex[b.Operation]
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
}

// scopeLess orders station codes ascending with the coastline union last.
func scopeLess(a, b string) bool {
	if a == AllStations {
		return false
	}
	if b == AllStations {
		return true
	}
	return a < b
}
