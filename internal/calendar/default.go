package calendar

import "time"

// EarlyDay overrides the regular session hours for one specific date,
// for half-days around holidays and similar one-off schedules.
type EarlyDay struct {
	Date  time.Time
	Open  time.Duration
	Close time.Duration
}

// Default is a weekday-plus-holiday-list calendar: every day is a
// trading day except the configured OffDays (weekends by default) and
// explicit Holidays, with a regular session of [Open, Close) unless a
// date is listed in EarlyDays.
type Default struct {
	Open  time.Duration // offset into the day the session opens, default 0
	Close time.Duration // offset into the day the session closes, default just under 24h

	Holidays  []time.Time
	EarlyDays []EarlyDay
	OffDays   []time.Weekday // default Saturday/Sunday
}

// NewDefault returns a Default calendar open 00:00-23:59:59.999999 every
// weekday.
func NewDefault() *Default {
	return &Default{
		Close:   24*time.Hour - time.Microsecond,
		OffDays: []time.Weekday{time.Saturday, time.Sunday},
	}
}

func (d *Default) isOffDay(wd time.Weekday) bool {
	for _, o := range d.OffDays {
		if o == wd {
			return true
		}
	}
	return false
}

func (d *Default) isHoliday(day time.Time) bool {
	date := truncateDate(day)
	for _, h := range d.Holidays {
		if truncateDate(h).Equal(date) {
			return true
		}
	}
	return false
}

func (d *Default) earlyHours(date time.Time) (open, close time.Duration, ok bool) {
	for _, e := range d.EarlyDays {
		if truncateDate(e.Date).Equal(date) {
			return e.Open, e.Close, true
		}
	}
	return 0, 0, false
}

// NextDay implements Calendar.
func (d *Default) NextDay(day time.Time) (time.Time, error) {
	next := day
	for {
		next = next.AddDate(0, 0, 1)
		if d.isOffDay(next.Weekday()) || d.isHoliday(next) {
			continue
		}
		return next, nil
	}
}

// Schedule implements Calendar.
func (d *Default) Schedule(day time.Time) (time.Time, time.Time, error) {
	for {
		date := truncateDate(day)
		open, close := d.Open, d.Close
		if o, c, ok := d.earlyHours(date); ok {
			open, close = o, c
		}
		closing := date.Add(close)
		if day.After(closing) {
			next, err := d.NextDay(day)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			day = truncateDate(next)
			continue
		}
		return date.Add(open), closing, nil
	}
}
