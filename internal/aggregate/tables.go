package aggregate

import (
	"github.com/couchcryptid/offshore-downtime/internal/domain"
)

// Tables is the complete computed output: every roll-up level, in fixed
// order, recomputed wholesale on every run. An empty input yields empty (not
// nil) tables so JSON consumers always see arrays.
type Tables struct {
	Daily       []DailyDowntime `json:"daily"`
	Monthly     []PeriodSummary `json:"monthly"`
	Yearly      []PeriodSummary `json:"yearly"`
	Seasonality []SeasonSummary `json:"seasonality"`
	Trends      []Trend         `json:"trends"`
}

// Build computes every table from hourly records and their verdicts.
// Deterministic: identical inputs produce identical tables.
func Build(records []domain.Record, hours []domain.HourlyExceedance, catalog domain.Catalog, minKnownHours int) *Tables {
	daily := BuildDaily(records, hours, catalog, minKnownHours)
	monthly, yearly, seasonality := BuildPeriods(records, daily, catalog)

	return &Tables{
		Daily:       daily,
		Monthly:     monthly,
		Yearly:      yearly,
		Seasonality: seasonality,
		Trends:      BuildTrends(yearly),
	}
}

// DowntimeDayCount sums downtime days in the daily table, one way the latest
// result is surfaced as a gauge.
func (t *Tables) DowntimeDayCount() int {
	n := 0
	for _, d := range t.Daily {
		if d.Status == DayDowntime {
			n++
		}
	}
	return n
}

// StationCodes returns the distinct station codes present in the daily
// table, in order.
func (t *Tables) StationCodes() []string {
	var codes []string
	seen := make(map[string]bool)
	for _, d := range t.Daily {
		if !seen[d.Station] {
			seen[d.Station] = true
			codes = append(codes, d.Station)
		}
	}
	return codes
}
