package aggregate

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/offshore-downtime/internal/domain"
)

// fleetMonth synthesizes July 2023 for two stations: A602 sees four gale
// hours on the first ten days, A627 stays calm, and both lose day 20 to a
// sensor outage.
func fleetMonth() []domain.Record {
	var recs []domain.Record
	for day := 1; day <= 28; day++ {
		date := NewDate(2023, time.July, day)
		for h := 0; h < 24; h++ {
			for _, station := range []string{"A602", "A627"} {
				if day == 20 && h >= 2 {
					recs = append(recs, unknownRecord(station, date, h))
					continue
				}
				wind := calmWind
				if station == "A602" && day <= 10 && h < 4 {
					wind = galeWind
				}
				recs = append(recs, hourRecord(station, date, h, wind))
			}
		}
	}
	return recs
}

func buildTables(t *testing.T, recs []domain.Record) *Tables {
	t.Helper()
	catalog := domain.DefaultCatalog()
	hours := domain.ClassifyRecords(recs, catalog)
	return Build(recs, hours, catalog, DefaultMinKnownHours)
}

func TestBuild_EmptyInputYieldsEmptyTables(t *testing.T) {
	tables := Build(nil, nil, domain.DefaultCatalog(), DefaultMinKnownHours)

	require.NotNil(t, tables)
	assert.NotNil(t, tables.Daily)
	assert.NotNil(t, tables.Monthly)
	assert.NotNil(t, tables.Yearly)
	assert.NotNil(t, tables.Seasonality)
	assert.NotNil(t, tables.Trends)
	assert.Empty(t, tables.Daily)
	assert.Empty(t, tables.Monthly)
	assert.Zero(t, tables.DowntimeDayCount())
	assert.Empty(t, tables.StationCodes())
}

func TestBuild_Deterministic(t *testing.T) {
	recs := fleetMonth()
	first := buildTables(t, recs)
	second := buildTables(t, recs)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("tables differ between identical runs (-first +second):\n%s", diff)
	}
}

func TestBuild_FleetMonth(t *testing.T) {
	tables := buildTables(t, fleetMonth())

	assert.Equal(t, []string{"A602", "A627"}, tables.StationCodes())

	// A602: ten crane downtime days; day 20 insufficient at both stations.
	a602 := findMonthly(t, tables.Monthly, "A602", craneOp, 2023, time.July)
	assert.Equal(t, 27, a602.EvaluableDays)
	assert.Equal(t, 10, a602.DowntimeDays)
	assert.Equal(t, 1, a602.InsufficientDays)
	assert.InEpsilon(t, 10.0/27.0, a602.DowntimeFraction.Value, 1e-9)

	a627 := findMonthly(t, tables.Monthly, "A627", craneOp, 2023, time.July)
	assert.Zero(t, a627.DowntimeDays)
	assert.Equal(t, 27, a627.EvaluableDays)

	// Coastline inherits A602's downtime dates, counted once each.
	all := findMonthly(t, tables.Monthly, AllStations, craneOp, 2023, time.July)
	assert.Equal(t, 27, all.EvaluableDays)
	assert.Equal(t, 10, all.DowntimeDays)
	assert.Equal(t, 1, all.InsufficientDays)

	// 13.4 m/s wind with 14.4 m/s gusts never troubles deck ops.
	deck := findMonthly(t, tables.Monthly, "A602", deckOp, 2023, time.July)
	assert.Zero(t, deck.DowntimeDays)

	// Crane downtime days at A602 plus the personnel-transfer and diving
	// days the same gale hours trip.
	assert.Equal(t, 30, tables.DowntimeDayCount())

	require.NotEmpty(t, tables.Trends)
	for _, tr := range tables.Trends {
		assert.False(t, tr.Slope.Valid, "single year cannot have a slope")
	}
}

func TestBuild_DayCountInvariants(t *testing.T) {
	tables := buildTables(t, fleetMonth())

	require.NotEmpty(t, tables.Monthly)
	for _, m := range tables.Monthly {
		within := CalendarDays(m.Year, m.Month)
		assert.LessOrEqual(t, m.DowntimeDays, m.EvaluableDays, "%s %s", m.Station, m.Operation)
		assert.LessOrEqual(t, m.EvaluableDays+m.InsufficientDays, within, "%s %s", m.Station, m.Operation)
		if m.EvaluableDays == 0 {
			assert.False(t, m.DowntimeFraction.Valid)
		} else {
			assert.GreaterOrEqual(t, m.DowntimeFraction.Value, 0.0)
			assert.LessOrEqual(t, m.DowntimeFraction.Value, 1.0)
		}
	}

	for _, y := range tables.Yearly {
		assert.LessOrEqual(t, y.DowntimeDays, y.EvaluableDays)
		assert.LessOrEqual(t, y.EvaluableDays+y.InsufficientDays, CalendarDays(y.Year, 0))
	}
}
