package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDefaultNextDaySkipsWeekends(t *testing.T) {
	c := NewDefault()

	// 2026-03-06 is a Friday.
	next, err := c.NextDay(date(2026, 3, 6))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 3, 9), next, "should skip Saturday/Sunday to Monday")
}

func TestDefaultNextDaySkipsHolidays(t *testing.T) {
	c := NewDefault()
	c.Holidays = []time.Time{date(2026, 3, 10)}

	// 2026-03-09 is a Monday; the 10th is a holiday, so next is the 11th.
	next, err := c.NextDay(date(2026, 3, 9))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 3, 11), next)
}

func TestDefaultScheduleUsesEarlyHoursWhenListed(t *testing.T) {
	c := NewDefault()
	c.Open = 9 * time.Hour
	c.Close = 17 * time.Hour
	c.EarlyDays = []EarlyDay{{Date: date(2026, 3, 9), Open: 9 * time.Hour, Close: 13 * time.Hour}}

	open, close, err := c.Schedule(date(2026, 3, 9).Add(10 * time.Hour))
	require.NoError(t, err)
	_ = open
	assert.Equal(t, date(2026, 3, 9).Add(13*time.Hour), close)
}

func TestDefaultScheduleRollsToNextDayPastClose(t *testing.T) {
	c := NewDefault()
	c.Open = 9 * time.Hour
	c.Close = 17 * time.Hour

	// Friday 6pm is past close; the next session is Monday.
	fridayEvening := date(2026, 3, 6).Add(18 * time.Hour)
	open, _, err := c.Schedule(fridayEvening)
	require.NoError(t, err)
	assert.Equal(t, date(2026, 3, 9).Add(9*time.Hour), open)
}

func TestLastWeekdayAndLastMonthday(t *testing.T) {
	c := NewDefault()

	lastWeek, err := LastWeekday(c, date(2026, 3, 6)) // Friday
	require.NoError(t, err)
	assert.True(t, lastWeek)

	lastMonth, err := LastMonthday(c, date(2026, 3, 31))
	require.NoError(t, err)
	assert.True(t, lastMonth)

	notLastMonth, err := LastMonthday(c, date(2026, 3, 30))
	require.NoError(t, err)
	assert.False(t, notLastMonth)
}

type fakeProvider struct {
	days     []time.Time
	sessions map[time.Time]Session
}

func (p *fakeProvider) ValidDays(from, to time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, d := range p.days {
		if !d.Before(from) && d.Before(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (p *fakeProvider) Sessions(from, to time.Time) (map[time.Time]Session, error) {
	out := make(map[time.Time]Session)
	for d, s := range p.sessions {
		if !d.Before(from) && d.Before(to) {
			out[d] = s
		}
	}
	return out, nil
}

func TestCachedNextDayFallsThroughToProvider(t *testing.T) {
	p := &fakeProvider{days: []time.Time{date(2026, 3, 9), date(2026, 3, 10)}}
	c := NewCached(p)

	next, err := c.NextDay(date(2026, 3, 6))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 3, 9), next)

	// served from the cache without a second provider call this time.
	next2, err := c.NextDay(date(2026, 3, 9))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 3, 10), next2)
}

func TestCachedScheduleRollsForwardPastClose(t *testing.T) {
	p := &fakeProvider{
		days: []time.Time{date(2026, 3, 9)},
		sessions: map[time.Time]Session{
			date(2026, 3, 6): {Open: date(2026, 3, 6).Add(9 * time.Hour), Close: date(2026, 3, 6).Add(17 * time.Hour)},
			date(2026, 3, 9): {Open: date(2026, 3, 9).Add(9 * time.Hour), Close: date(2026, 3, 9).Add(17 * time.Hour)},
		},
	}
	c := NewCached(p)

	open, _, err := c.Schedule(date(2026, 3, 6).Add(18 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 3, 9).Add(9*time.Hour), open)
}
