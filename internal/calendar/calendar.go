// Package calendar answers "is this a trading day, and when does its
// session open and close" for the feeds and timers that need to know.
// Calendar is deliberately small: everything else (last day of the
// week/month/year) is derived from NextDay by the helper functions
// below, the same way a single day-stepping primitive backs every
// calendar query in the system this was learned from.
package calendar

import "time"

// Calendar resolves trading-day and session-hours questions for a
// concrete market. day is assumed to already be a trading day when
// passed to Schedule.
type Calendar interface {
	// NextDay returns the next trading day strictly after day.
	NextDay(day time.Time) (time.Time, error)
	// Schedule returns the opening and closing time of day's session.
	// If day falls after the session's close, the next trading day's
	// session is returned instead (mirroring how a timestamp just past
	// midnight still belongs to the session that is about to open).
	Schedule(day time.Time) (open, close time.Time, err error)
}

// LastWeekday reports whether day is the last trading day of its ISO week.
func LastWeekday(c Calendar, day time.Time) (bool, error) {
	next, err := c.NextDay(day)
	if err != nil {
		return false, err
	}
	_, w1 := day.ISOWeek()
	_, w2 := next.ISOWeek()
	return w1 != w2, nil
}

// LastMonthday reports whether day is the last trading day of its month.
func LastMonthday(c Calendar, day time.Time) (bool, error) {
	next, err := c.NextDay(day)
	if err != nil {
		return false, err
	}
	return day.Month() != next.Month(), nil
}

// LastYearday reports whether day is the last trading day of its year.
func LastYearday(c Calendar, day time.Time) (bool, error) {
	next, err := c.NextDay(day)
	if err != nil {
		return false, err
	}
	return day.Year() != next.Year(), nil
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
