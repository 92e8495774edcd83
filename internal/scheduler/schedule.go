package scheduler

import "time"

// NextFunc returns the first fire time strictly after now.
type NextFunc func(now time.Time) time.Time

// Every fires on wall-clock multiples of d, so 15m fires at :00, :15, :30 and :45.
func Every(d time.Duration) NextFunc {
	return func(now time.Time) time.Time {
		return now.Truncate(d).Add(d)
	}
}

// HourlyAt fires once an hour at the given minute.
func HourlyAt(minute int) NextFunc {
	return func(now time.Time) time.Time {
		next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(time.Hour)
		}
		return next
	}
}

// DailyAt fires once a day at hour:minute in now's location.
func DailyAt(hour, minute int) NextFunc {
	return func(now time.Time) time.Time {
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}
}
