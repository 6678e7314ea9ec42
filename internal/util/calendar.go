package util

import "time"

// IsTradingDay reports whether t falls on a weekday. FX and futures venues
// have their own session boundaries; for daily-bar generation and range
// clamping a weekday check is sufficient.
func IsTradingDay(t time.Time) bool {
	switch t.UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// NextTradingDay returns the first weekday at or after t, truncated to
// midnight UTC.
func NextTradingDay(t time.Time) time.Time {
	d := t.UTC().Truncate(24 * time.Hour)
	for !IsTradingDay(d) {
		d = d.Add(24 * time.Hour)
	}
	return d
}

// TradingDays returns every weekday in [start, end], truncated to midnight
// UTC, in ascending order.
func TradingDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := NextTradingDay(start); !d.After(end.UTC()); d = d.Add(24 * time.Hour) {
		if IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}
