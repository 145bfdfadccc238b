// Package aggregate rolls classified hours up into day-level downtime flags
// and monthly, yearly, seasonal, and trend summaries per station and for the
// coastline as a whole. Everything here is pure: identical inputs produce
// identical tables, in a fixed order, with no clock or I/O involved.
package aggregate

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a civil date pinned to UTC midnight. It marshals as "YYYY-MM-DD"
// and is safe to use as a map key because every Date is built through DateOf.
type Date struct {
	time.Time
}

// DateOf truncates a timestamp to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// NewDate builds a Date from calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date: not a JSON string: %s", s)
	}
	t, err := time.Parse(dateLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	*d = DateOf(t)
	return nil
}

// CalendarDays returns the number of days in the given period: a whole year
// when month is 0, otherwise the given month of that year.
func CalendarDays(year int, month time.Month) int {
	if month == 0 {
		if isLeapYear(year) {
			return 366
		}
		return 365
	}
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
