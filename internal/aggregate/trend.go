package aggregate

import (
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/offshore-downtime/internal/domain"
)

// YearFraction is one year's downtime fraction inside a trend series. Years
// with no evaluable days carry an invalid fraction and are excluded from the
// fit but kept in the series so consumers can see the gap.
type YearFraction struct {
	Year          int            `json:"year"`
	EvaluableDays int            `json:"evaluable_days"`
	Fraction      domain.Reading `json:"fraction"`
}

// Trend is the year-over-year downtime movement for one scope and operation:
// the least-squares slope of the yearly downtime fractions, in fraction
// points per year. The slope is invalid with fewer than two evaluable years.
type Trend struct {
	Station   string         `json:"station"`
	Operation string         `json:"operation"`
	FirstYear int            `json:"first_year"`
	LastYear  int            `json:"last_year"`
	Years     []YearFraction `json:"years"`
	Slope     domain.Reading `json:"slope_per_year"`
}

// BuildTrends derives one trend per (scope, operation) from yearly summaries.
// The input must already be in table order (scope, operation, year), which
// BuildPeriods guarantees; the grouping and output order follow it.
func BuildTrends(yearly []PeriodSummary) []Trend {
	out := make([]Trend, 0)

	for i := 0; i < len(yearly); {
		j := i
		for j < len(yearly) &&
			yearly[j].Station == yearly[i].Station &&
			yearly[j].Operation == yearly[i].Operation {
			j++
		}
		out = append(out, buildTrend(yearly[i:j]))
		i = j
	}
	return out
}

func buildTrend(group []PeriodSummary) Trend {
	t := Trend{
		Station:   group[0].Station,
		Operation: group[0].Operation,
		FirstYear: group[0].Year,
		LastYear:  group[len(group)-1].Year,
		Years:     make([]YearFraction, 0, len(group)),
	}

	var xs, ys []float64
	for _, s := range group {
		t.Years = append(t.Years, YearFraction{
			Year:          s.Year,
			EvaluableDays: s.EvaluableDays,
			Fraction:      s.DowntimeFraction,
		})
		if v, ok := s.DowntimeFraction.Float(); ok {
			xs = append(xs, float64(s.Year))
			ys = append(ys, v)
		}
	}

	if len(xs) >= 2 {
		_, beta := stat.LinearRegression(xs, ys, nil, false)
		t.Slope = domain.NewReading(beta)
	}
	return t
}
