package calendar

import (
	"fmt"
	"sort"
	"time"
)

// Session is the opening and closing time of one trading day, as
// returned by a Provider.
type Session struct {
	Open  time.Time
	Close time.Time
}

// Provider is an external trading-calendar source (an exchange API, a
// vendored holiday table service, ...); Cached wraps one with a
// windowed cache so repeated NextDay/Schedule calls don't hit it once
// per day.
type Provider interface {
	// ValidDays returns every trading day in [from, to), ascending.
	ValidDays(from, to time.Time) ([]time.Time, error)
	// Sessions returns the open/close times for every trading day in
	// [from, to), keyed by the truncated trading date.
	Sessions(from, to time.Time) (map[time.Time]Session, error)
}

// Cached is a Calendar backed by a Provider, fetching and retaining a
// CacheSize-wide window of trading days/sessions at a time instead of
// querying the provider one day at a time.
type Cached struct {
	Provider  Provider
	CacheSize time.Duration // window fetched per provider round-trip, default 365 days

	days     []time.Time
	schedule map[time.Time]Session
}

// NewCached returns a Cached calendar over provider with the default
// one-year fetch window.
func NewCached(provider Provider) *Cached {
	return &Cached{
		Provider:  provider,
		CacheSize: 365 * 24 * time.Hour,
		schedule:  make(map[time.Time]Session),
	}
}

// NextDay implements Calendar, refilling the day cache from Provider
// whenever the requested date falls past its current window.
func (c *Cached) NextDay(day time.Time) (time.Time, error) {
	target := truncateDate(day).AddDate(0, 0, 1)
	for {
		idx := sort.Search(len(c.days), func(i int) bool { return !c.days[i].Before(target) })
		if idx < len(c.days) {
			return c.days[idx], nil
		}
		days, err := c.Provider.ValidDays(target, target.Add(c.CacheSize))
		if err != nil {
			return time.Time{}, fmt.Errorf("calendar: fetch valid days from %s: %w", target, err)
		}
		if len(days) == 0 {
			return time.Time{}, fmt.Errorf("calendar: provider returned no trading days from %s", target)
		}
		c.days = days
	}
}

// Schedule implements Calendar, refilling the session cache from
// Provider whenever day falls past its current window, and rolling
// forward to the next trading day if day is already past that day's
// close.
func (c *Cached) Schedule(day time.Time) (time.Time, time.Time, error) {
	for {
		date := truncateDate(day)
		sess, ok := c.schedule[date]
		if !ok {
			sessions, err := c.Provider.Sessions(date, date.Add(c.CacheSize))
			if err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("calendar: fetch sessions from %s: %w", date, err)
			}
			if len(sessions) == 0 {
				return time.Time{}, time.Time{}, fmt.Errorf("calendar: provider returned no sessions from %s", date)
			}
			for d, s := range sessions {
				c.schedule[d] = s
			}
			sess, ok = c.schedule[date]
			if !ok {
				return time.Time{}, time.Time{}, fmt.Errorf("calendar: %s is not a trading day", date)
			}
		}
		if day.After(sess.Close) {
			next, err := c.NextDay(day)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			day = next
			continue
		}
		return sess.Open, sess.Close, nil
	}
}
