package domain

import (
	"fmt"
	"time"
)

// DayLayout is the calendar-day format used for score dates, streak days and
// reading buckets.
const DayLayout = "2006-01-02"

// LocalDay returns the calendar day of t in loc. A nil loc means time.Local.
func LocalDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// ParseDay validates a YYYY-MM-DD string.
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Value: day, Reason: "must be YYYY-MM-DD"}
	}
	return t, nil
}

// AddDays shifts a day string by n calendar days. The input must already be valid.
func AddDays(day string, n int) string {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		panic(fmt.Sprintf("domain: AddDays on invalid day %q", day))
	}
	return t.AddDate(0, 0, n).Format(DayLayout)
}

// PrevDay returns the calendar day before day.
func PrevDay(day string) string {
	return AddDays(day, -1)
}

// TrailingWindow returns the inclusive [from, to] range of n days ending on day.
func TrailingWindow(day string, n int) (from, to string) {
	return AddDays(day, -(n - 1)), day
}
