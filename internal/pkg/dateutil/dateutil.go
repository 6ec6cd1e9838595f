// Package dateutil treats calendar dates as midnight UTC values so they compare
// and hash the same regardless of the zone the timestamp came from.
package dateutil

import "time"

const Layout = "2006-01-02"

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf returns the calendar date of t as observed in t's own location
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// In returns the calendar date of t as observed in loc
func In(t time.Time, loc *time.Location) time.Time {
	return DateOf(t.In(loc))
}

func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.UTC)
}

func Format(d time.Time) string {
	return d.Format(Layout)
}

// Range returns every date from from to to inclusive; nil when to is before from
func Range(from, to time.Time) []time.Time {
	from, to = DateOf(from), DateOf(to)
	if to.Before(from) {
		return nil
	}
	days := make([]time.Time, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// MonthBounds returns the first and last date of a month
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	first := Date(year, month, 1)
	return first, first.AddDate(0, 1, -1)
}
