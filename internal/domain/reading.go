package domain

import (
	"encoding/json"
	"math"
)

// Reading is a sensor measurement that may be missing. The zero value is an
// invalid (unknown) reading. Invalid readings marshal to JSON null so
// downstream consumers never mistake a dead sensor for a zero measurement.
type Reading struct {
	Value float64
	Valid bool
}

// NewReading returns a valid reading holding v.
func NewReading(v float64) Reading {
	return Reading{Value: v, Valid: true}
}

// Float returns the value and whether it is usable.
func (r Reading) Float() (float64, bool) {
	return r.Value, r.Valid
}

// AtLeast reports whether the reading is valid and >= limit.
func (r Reading) AtLeast(limit float64) bool {
	return r.Valid && r.Value >= limit
}

// MarshalJSON encodes invalid readings as null.
func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.Valid || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON decodes null into an invalid reading.
func (r *Reading) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Reading{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = NewReading(v)
	return nil
}

// MaxReading returns the larger of two readings, ignoring invalid ones.
func MaxReading(a, b Reading) Reading {
	switch {
	case !a.Valid:
		return b
	case !b.Valid:
		return a
	case b.Value > a.Value:
		return b
	default:
		return a
	}
}

// AddReading accumulates b into a, treating invalid readings as absent
// rather than zero. The result is invalid only when both inputs are.
func AddReading(a, b Reading) Reading {
	switch {
	case !a.Valid:
		return b
	case !b.Valid:
		return a
	default:
		return NewReading(a.Value + b.Value)
	}
}
