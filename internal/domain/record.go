package domain

import "time"

// Record is one normalized hourly observation from a station. Wind speeds are
// in m/s, precipitation in mm accumulated over the hour. Missing sensor
// values are invalid readings, never zeros.
type Record struct {
	Station     string    `json:"station"` // registry code, e.g. "A627"
	Time        time.Time `json:"time"`    // start of the hour, UTC, never zero
	WindSpeed   Reading   `json:"wind_speed_ms"`
	GustSpeed   Reading   `json:"gust_speed_ms"`
	Precip      Reading   `json:"precip_mm"`
	WindDir     Reading   `json:"wind_dir_deg"`
	Temperature Reading   `json:"temperature_c"`
	Humidity    Reading   `json:"humidity_pct"`
}

// Verdict is the three-valued outcome of judging one hour against one
// operation's limits.
type Verdict int8

const (
	// VerdictUnknown means no valid reading tripped a limit but at least one
	// limit-relevant sensor was missing, so the hour cannot be judged.
	VerdictUnknown Verdict = iota
	// VerdictClear means all three limit-relevant readings were valid and
	// under their limits.
	VerdictClear
	// VerdictExceeded means at least one valid reading was at or above its
	// limit.
	VerdictExceeded
)

// String returns the verdict label used in tables and logs.
func (v Verdict) String() string {
	switch v {
	case VerdictClear:
		return "clear"
	case VerdictExceeded:
		return "exceeded"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the verdict as its string label.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// HourlyExceedance records the verdict for one station-hour under one
// operation.
type HourlyExceedance struct {
	Station   string    `json:"station"`
	Time      time.Time `json:"time"`
	Operation string    `json:"operation"`
	Verdict   Verdict   `json:"verdict"`
}
