package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/offshore-downtime/internal/domain"
)

// dayRow builds a daily verdict row with hour counts plausible for the status.
func dayRow(station string, date Date, op string, status DayStatus) DailyDowntime {
	d := DailyDowntime{Station: station, Date: date, Operation: op, Status: status}
	switch status {
	case DayDowntime:
		d.ExceededHours, d.KnownHours = 6, 24
	case DayClear:
		d.KnownHours = 24
	case DayInsufficient:
		d.KnownHours = 2
	}
	return d
}

func findMonthly(t *testing.T, rows []PeriodSummary, station, op string, year int, month time.Month) PeriodSummary {
	t.Helper()
	for _, r := range rows {
		if r.Station == station && r.Operation == op && r.Year == year && r.Month == month {
			return r
		}
	}
	t.Fatalf("no summary for %s %s %d-%d", station, op, year, month)
	return PeriodSummary{}
}

func findSeason(t *testing.T, rows []SeasonSummary, station, op string, month time.Month) SeasonSummary {
	t.Helper()
	for _, r := range rows {
		if r.Station == station && r.Operation == op && r.Month == month {
			return r
		}
	}
	t.Fatalf("no season summary for %s %s %s", station, op, month)
	return SeasonSummary{}
}

func TestBuildPeriods_CoastlineUnionCountsDatesOnce(t *testing.T) {
	catalog := domain.DefaultCatalog()
	july := func(day int) Date { return NewDate(2023, time.July, day) }

	daily := []DailyDowntime{
		// Both stations down: one coastline downtime date, not two.
		dayRow("A602", july(10), craneOp, DayDowntime),
		dayRow("A627", july(10), craneOp, DayDowntime),
		// One down, one clear: still a coastline downtime date.
		dayRow("A602", july(11), craneOp, DayDowntime),
		dayRow("A627", july(11), craneOp, DayClear),
		// Both clear.
		dayRow("A602", july(12), craneOp, DayClear),
		dayRow("A627", july(12), craneOp, DayClear),
		// Insufficient at one station does not poison the union.
		dayRow("A602", july(13), craneOp, DayInsufficient),
		dayRow("A627", july(13), craneOp, DayClear),
		// Every reporting station insufficient: the date is insufficient.
		dayRow("A602", july(14), craneOp, DayInsufficient),
		dayRow("A627", july(14), craneOp, DayInsufficient),
		// Only one station reported at all.
		dayRow("A602", july(15), craneOp, DayDowntime),
	}

	monthly, yearly, _ := BuildPeriods(nil, daily, catalog)

	all := findMonthly(t, monthly, AllStations, craneOp, 2023, time.July)
	assert.Equal(t, 5, all.EvaluableDays)
	assert.Equal(t, 3, all.DowntimeDays)
	assert.Equal(t, 1, all.InsufficientDays)
	require.True(t, all.DowntimeFraction.Valid)
	assert.InEpsilon(t, 0.6, all.DowntimeFraction.Value, 1e-9)

	a602 := findMonthly(t, monthly, "A602", craneOp, 2023, time.July)
	assert.Equal(t, 4, a602.EvaluableDays)
	assert.Equal(t, 3, a602.DowntimeDays)
	assert.Equal(t, 2, a602.InsufficientDays)
	assert.InEpsilon(t, 0.75, a602.DowntimeFraction.Value, 1e-9)

	a627 := findMonthly(t, monthly, "A627", craneOp, 2023, time.July)
	assert.Equal(t, 4, a627.EvaluableDays)
	assert.Equal(t, 1, a627.DowntimeDays)
	assert.InEpsilon(t, 0.25, a627.DowntimeFraction.Value, 1e-9)

	// Yearly rows carry the same counts when the year has a single month.
	allYear := findMonthly(t, yearly, AllStations, craneOp, 2023, 0)
	assert.Equal(t, 5, allYear.EvaluableDays)
	assert.Equal(t, 3, allYear.DowntimeDays)
}

func TestBuildPeriods_NoEvaluableDaysMeansNoFraction(t *testing.T) {
	catalog := domain.DefaultCatalog()
	daily := []DailyDowntime{
		dayRow("A608", NewDate(2022, time.March, 1), craneOp, DayInsufficient),
		dayRow("A608", NewDate(2022, time.March, 2), craneOp, DayInsufficient),
		dayRow("A608", NewDate(2022, time.March, 3), craneOp, DayInsufficient),
	}

	monthly, yearly, _ := BuildPeriods(nil, daily, catalog)

	m := findMonthly(t, monthly, "A608", craneOp, 2022, time.March)
	assert.Zero(t, m.EvaluableDays)
	assert.Equal(t, 3, m.InsufficientDays)
	assert.False(t, m.DowntimeFraction.Valid, "0/0 must not become NaN")

	y := findMonthly(t, yearly, "A608", craneOp, 2022, 0)
	assert.False(t, y.DowntimeFraction.Valid)
}

func TestBuildPeriods_YearlyAndSeasonalRollups(t *testing.T) {
	catalog := domain.DefaultCatalog()
	daily := []DailyDowntime{
		dayRow("A606", NewDate(2022, time.July, 1), craneOp, DayDowntime),
		dayRow("A606", NewDate(2022, time.July, 2), craneOp, DayClear),
		dayRow("A606", NewDate(2022, time.August, 1), craneOp, DayClear),
		dayRow("A606", NewDate(2023, time.July, 5), craneOp, DayDowntime),
	}

	monthly, yearly, seasonal := BuildPeriods(nil, daily, catalog)

	y2022 := findMonthly(t, yearly, "A606", craneOp, 2022, 0)
	assert.Equal(t, 3, y2022.EvaluableDays)
	assert.Equal(t, 1, y2022.DowntimeDays)

	y2023 := findMonthly(t, yearly, "A606", craneOp, 2023, 0)
	assert.Equal(t, 1, y2023.EvaluableDays)
	assert.Equal(t, 1, y2023.DowntimeDays)

	// Seasonality folds July 2022 and July 2023 together.
	julySeason := findSeason(t, seasonal, "A606", craneOp, time.July)
	assert.Equal(t, 3, julySeason.EvaluableDays)
	assert.Equal(t, 2, julySeason.DowntimeDays)
	assert.InEpsilon(t, 2.0/3.0, julySeason.DowntimeFraction.Value, 1e-9)

	augustSeason := findSeason(t, seasonal, "A606", craneOp, time.August)
	assert.Equal(t, 1, augustSeason.EvaluableDays)
	assert.Zero(t, augustSeason.DowntimeDays)

	// Two months in 2022, one in 2023.
	months2022 := 0
	for _, m := range monthly {
		if m.Station == "A606" && m.Year == 2022 {
			months2022++
		}
	}
	assert.Equal(t, 2, months2022)
}

func TestBuildPeriods_WeatherStats(t *testing.T) {
	catalog := domain.DefaultCatalog()
	july := NewDate(2023, time.July, 10)

	recs := []domain.Record{
		hourRecord("A602", july, 0, 4.0),
		hourRecord("A602", july, 1, 6.0),
		hourRecord("A627", july, 0, 10.0),
	}
	recs[1].GustSpeed = domain.NewReading(12.0)
	recs[2].GustSpeed = domain.NewReading(20.0)
	// A gap in the wind sensor must not drag the mean toward zero.
	recs = append(recs, domain.Record{
		Station:   "A602",
		Time:      july.Time.Add(2 * time.Hour),
		GustSpeed: domain.NewReading(30.0),
	})

	daily := []DailyDowntime{
		dayRow("A602", july, craneOp, DayClear),
		dayRow("A627", july, craneOp, DayClear),
	}

	monthly, _, _ := BuildPeriods(recs, daily, catalog)

	a602 := findMonthly(t, monthly, "A602", craneOp, 2023, time.July)
	require.True(t, a602.MeanWind.Valid)
	assert.InEpsilon(t, 5.0, a602.MeanWind.Value, 1e-9)
	require.True(t, a602.MaxGust.Valid)
	assert.InEpsilon(t, 30.0, a602.MaxGust.Value, 1e-9)

	all := findMonthly(t, monthly, AllStations, craneOp, 2023, time.July)
	assert.InEpsilon(t, 20.0/3.0, all.MeanWind.Value, 1e-9)
	assert.InEpsilon(t, 30.0, all.MaxGust.Value, 1e-9)
}

func TestBuildPeriods_NoRecordsMeansInvalidWeather(t *testing.T) {
	catalog := domain.DefaultCatalog()
	daily := []DailyDowntime{
		dayRow("A620", NewDate(2023, time.May, 1), craneOp, DayClear),
	}

	monthly, _, _ := BuildPeriods(nil, daily, catalog)
	m := findMonthly(t, monthly, "A620", craneOp, 2023, time.May)
	assert.False(t, m.MeanWind.Valid)
	assert.False(t, m.MaxGust.Valid)
}

func TestBuildPeriods_Ordering(t *testing.T) {
	catalog := domain.DefaultCatalog()
	d := NewDate(2023, time.July, 1)
	ops := catalog.Operations()

	var daily []DailyDowntime
	for _, st := range []string{"A627", "A602"} {
		for _, op := range []string{ops[1], ops[0]} {
			daily = append(daily, dayRow(st, d, op, DayClear))
		}
	}

	monthly, _, _ := BuildPeriods(nil, daily, catalog)
	require.Len(t, monthly, 6)

	got := make([][2]string, 0, len(monthly))
	for _, m := range monthly {
		got = append(got, [2]string{m.Station, m.Operation})
	}
	want := [][2]string{
		{"A602", ops[0]},
		{"A602", ops[1]},
		{"A627", ops[0]},
		{"A627", ops[1]},
		{AllStations, ops[0]},
		{AllStations, ops[1]},
	}
	assert.Equal(t, want, got, "stations ascending, coastline last, catalog order within")
}

func TestBuildPeriods_EmptyInput(t *testing.T) {
	monthly, yearly, seasonal := BuildPeriods(nil, nil, domain.DefaultCatalog())
	assert.NotNil(t, monthly)
	assert.NotNil(t, yearly)
	assert.NotNil(t, seasonal)
	assert.Empty(t, monthly)
	assert.Empty(t, yearly)
	assert.Empty(t, seasonal)
}
