// Package timer implements session/weekday/monthday-aware scheduled
// callbacks: a Timer fires once per day at a configured time-of-day
// (optionally restricted to certain weekdays or days of the month, and
// optionally repeating through the remainder of the session), and
// reports whether it fired via Check.
package timer

import (
	"sort"
	"time"

	"github.com/gobacktest/core/internal/numtime"
)

// SessionAnchor is one of the two well-known triggers a Timer can be
// anchored to instead of an explicit time-of-day.
type SessionAnchor int

const (
	SessionStart SessionAnchor = iota
	SessionEnd
)

// Timer fires at When (plus Offset) every day that passes the
// weekday/monthday/Allow filters, optionally repeating every Repeat
// interval until the session ends.
type Timer struct {
	When   time.Duration // time of day to fire at
	Offset time.Duration
	Repeat time.Duration // zero means fire once per day

	Weekdays   []time.Weekday // empty means "every weekday"
	WeekCarry  bool           // carry a missed weekday's fire to the next valid one
	MonthDays  []int          // empty means "every day of the month"
	MonthCarry bool           // carry a missed monthday's fire to the next valid one

	// Allow, if set, is consulted once per calendar day after the
	// weekday/monthday filters pass; returning false suppresses firing
	// for that entire day.
	Allow func(date time.Time) bool

	// EndOfSession resolves the end of the trading session containing
	// date, used to bound repeat firing and to know when to re-arm for
	// a new session. Defaults to the same calendar day's end-of-day.
	EndOfSession func(date time.Time) time.Time

	Cheat bool // not read by Check; the engine's AddTimer cheat argument picks the slot

	lastCall  time.Time
	curDate   time.Time
	nextEOS   time.Time
	curMonth  time.Month
	monthMask []int
	curWeek   int
	weekMask  []int

	dWhen      time.Time
	dtWhen     float64
	haveDtWhen bool

	// LastWhen is the wall-clock time of the most recent successful
	// fire, set by Check when it returns true.
	LastWhen time.Time
}

// New returns a Timer firing at the given time of day. Check sorts the
// weekday/monthday lists when it builds its masks.
func New(when time.Duration) *Timer {
	t := &Timer{When: when, curWeek: -1, curMonth: -1}
	t.EndOfSession = func(date time.Time) time.Time {
		y, m, d := date.Date()
		return time.Date(y, m, d, 23, 59, 59, 999999999, date.Location())
	}
	return t
}

// NewAnchored returns a Timer whose fire time tracks a feed's session
// boundary instead of a fixed time-of-day, for the common "fire at the
// open" / "fire at the close" schedules.
func NewAnchored(anchor SessionAnchor, sessionStart, sessionEnd time.Duration) *Timer {
	if anchor == SessionStart {
		return New(sessionStart)
	}
	return New(sessionEnd)
}

// Check evaluates the timer against the numeric datetime dt (see the
// numtime package for the encoding) and reports whether it fired. It is
// idempotent within the same calendar day once it has fired: a second
// Check call on the same day returns false unless Repeat makes it
// re-arm.
func (t *Timer) Check(dt float64) bool {
	d := numtime.ToTime(dt)
	ddate := truncateDate(d)

	if t.lastCall.Equal(ddate) {
		return false // already fired (or ruled out) today
	}

	if t.nextEOS.IsZero() || d.After(t.nextEOS) {
		t.nextEOS = t.EndOfSession(ddate)
		t.resetWhen(time.Time{})
	}

	if ddate.After(t.curDate) {
		t.curDate = ddate
		ok := t.checkMonth(ddate)
		if ok {
			ok = t.checkWeek(ddate)
		}
		if ok && t.Allow != nil {
			ok = t.Allow(ddate)
		}
		if !ok {
			t.resetWhen(ddate)
			return false
		}
	}

	if !t.haveDtWhen {
		dwhen := time.Date(ddate.Year(), ddate.Month(), ddate.Day(), 0, 0, 0, 0, ddate.Location())
		dwhen = dwhen.Add(t.When).Add(t.Offset)
		t.dWhen = dwhen
		t.dtWhen = numtime.ToFloat(dwhen)
		t.haveDtWhen = true
	}

	if dt < t.dtWhen {
		return false
	}

	t.LastWhen = t.dWhen

	if t.Repeat <= 0 {
		t.resetWhen(ddate)
		return true
	}

	if d.After(t.nextEOS) {
		t.nextEOS = t.EndOfSession(ddate)
	}
	for {
		t.dWhen = t.dWhen.Add(t.Repeat)
		if t.dWhen.After(t.nextEOS) {
			t.resetWhen(ddate)
			break
		}
		if t.dWhen.After(d) {
			t.dtWhen = numtime.ToFloat(t.dWhen)
			break
		}
	}
	return true
}

// resetWhen clears the cached fire time and records ddate as the last
// date this timer was evaluated for — a zero ddate clears that guard
// entirely (used when a new session starts), matching how a day that
// has genuinely been evaluated never carries a zero timestamp.
func (t *Timer) resetWhen(ddate time.Time) {
	t.haveDtWhen = false
	t.lastCall = ddate
}

// checkMonth reports whether ddate passes the monthday filter,
// consuming any stale entries (days already passed this month) from
// the running mask as it goes.
func (t *Timer) checkMonth(ddate time.Time) bool {
	if len(t.MonthDays) == 0 {
		return true
	}
	daycarry := false
	if ddate.Month() != t.curMonth || t.monthMask == nil {
		t.curMonth = ddate.Month()
		daycarry = t.MonthCarry && len(t.monthMask) > 0
		t.monthMask = append([]int(nil), t.MonthDays...)
		sort.Ints(t.monthMask)
	}
	day := ddate.Day()
	idx := sort.SearchInts(t.monthMask, day)
	curday := idx < len(t.monthMask) && t.monthMask[idx] == day
	daycarry = daycarry || (t.MonthCarry && idx > 0)
	if curday {
		idx++
	}
	t.monthMask = t.monthMask[idx:]
	return daycarry || curday
}

// checkWeek reports whether ddate passes the weekday filter, same
// stale-entry bookkeeping as checkMonth but keyed on ISO week number.
func (t *Timer) checkWeek(ddate time.Time) bool {
	if len(t.Weekdays) == 0 {
		return true
	}
	_, week := ddate.ISOWeek()
	wd := isoWeekday(ddate.Weekday())

	daycarry := false
	if week != t.curWeek || t.weekMask == nil {
		t.curWeek = week
		daycarry = t.WeekCarry && len(t.weekMask) > 0
		t.weekMask = isoWeekdayInts(t.Weekdays)
	}
	idx := sort.SearchInts(t.weekMask, wd)
	curday := idx < len(t.weekMask) && t.weekMask[idx] == wd
	daycarry = daycarry || (t.WeekCarry && idx > 0)
	if curday {
		idx++
	}
	t.weekMask = t.weekMask[idx:]
	return daycarry || curday
}

func isoWeekday(w time.Weekday) int {
	if w == time.Sunday {
		return 7
	}
	return int(w)
}

func isoWeekdayInts(ws []time.Weekday) []int {
	out := make([]int, len(ws))
	for i, w := range ws {
		out[i] = isoWeekday(w)
	}
	sort.Ints(out)
	return out
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
