package aggregate

import (
	"sort"

	"github.com/couchcryptid/offshore-downtime/internal/domain"
)

// DefaultMinKnownHours is the minimum count of known (non-unknown) hourly
// verdicts a day needs before it can be judged at all.
const DefaultMinKnownHours = 4

// DayStatus is the day-level outcome for one station, date, and operation.
type DayStatus int8

const (
	// DayInsufficient means too few known hours to judge the day. Such days
	// are excluded from every summary denominator.
	DayInsufficient DayStatus = iota
	// DayClear means the day was evaluable and below the downtime threshold.
	DayClear
	// DayDowntime means exceeded hours reached the operation's minimum.
	DayDowntime
)

// String returns the status label used in tables and logs.
func (s DayStatus) String() string {
	switch s {
	case DayClear:
		return "clear"
	case DayDowntime:
		return "downtime"
	default:
		return "insufficient_data"
	}
}

// MarshalJSON encodes the status as its string label.
func (s DayStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// DailyDowntime is the day-level roll-up for one station, date, and
// operation. Hour counts split three ways: exceeded and clear hours are
// known; unknown hours sit outside both and never feed a threshold
// comparison. The daily weather observations ride along for reporting.
type DailyDowntime struct {
	Station       string         `json:"station"`
	Date          Date           `json:"date"`
	Operation     string         `json:"operation"`
	ExceededHours int            `json:"exceeded_hours"`
	KnownHours    int            `json:"known_hours"`
	UnknownHours  int            `json:"unknown_hours"`
	Status        DayStatus      `json:"status"`
	MaxWind       domain.Reading `json:"max_wind_ms"`
	MaxGust       domain.Reading `json:"max_gust_ms"`
	PrecipTotal   domain.Reading `json:"precip_total_mm"`
}

type dayKey struct {
	station string
	date    Date
	op      string
}

type stationDate struct {
	station string
	date    Date
}

type dayCounts struct {
	exceeded int
	clear    int
	unknown  int
}

type dayWeather struct {
	maxWind domain.Reading
	maxGust domain.Reading
	precip  domain.Reading
}

// BuildDaily rolls hourly verdicts up to day level. A day is evaluable when
// it has at least minKnownHours known verdicts; an evaluable day is downtime
// when its exceeded-hour count reaches the operation's MinHours. Output is
// ordered by station, date, then catalog operation order.
func BuildDaily(records []domain.Record, hours []domain.HourlyExceedance, catalog domain.Catalog, minKnownHours int) []DailyDowntime {
	if minKnownHours <= 0 {
		minKnownHours = DefaultMinKnownHours
	}

	weather := make(map[stationDate]dayWeather)
	for _, rec := range records {
		k := stationDate{station: rec.Station, date: DateOf(rec.Time)}
		w := weather[k]
		w.maxWind = domain.MaxReading(w.maxWind, rec.WindSpeed)
		w.maxGust = domain.MaxReading(w.maxGust, rec.GustSpeed)
		w.precip = domain.AddReading(w.precip, rec.Precip)
		weather[k] = w
	}

	counts := make(map[dayKey]dayCounts)
	for _, h := range hours {
		k := dayKey{station: h.Station, date: DateOf(h.Time), op: h.Operation}
		c := counts[k]
		switch h.Verdict {
		case domain.VerdictExceeded:
			c.exceeded++
		case domain.VerdictClear:
			c.clear++
		default:
			c.unknown++
		}
		counts[k] = c
	}

	opIndex := make(map[string]int, catalog.Len())
	minHours := make(map[string]int, catalog.Len())
	for i, th := range catalog.Thresholds() {
		opIndex[th.Operation] = i
		minHours[th.Operation] = th.MinHours
	}

	out := make([]DailyDowntime, 0, len(counts))
	for k, c := range counts {
		known := c.exceeded + c.clear

		status := DayInsufficient
		if known >= minKnownHours {
			if c.exceeded >= minHours[k.op] {
				status = DayDowntime
			} else {
				status = DayClear
			}
		}

		w := weather[stationDate{station: k.station, date: k.date}]
		out = append(out, DailyDowntime{
			Station:       k.station,
			Date:          k.date,
			Operation:     k.op,
			ExceededHours: c.exceeded,
			KnownHours:    known,
			UnknownHours:  c.unknown,
			Status:        status,
			MaxWind:       w.maxWind,
			MaxGust:       w.maxGust,
			PrecipTotal:   w.precip,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Station != b.Station {
			return a.Station < b.Station
		}
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return opIndex[a.Operation] < opIndex[b.Operation]
	})

	return out
}
