// Package numtime is the single place the engine's numeric time epoch is
// encoded: all conversions between wall-clock time and the engine's wire
// representation go through ToFloat/ToTime so the epoch choice only ever
// needs to be changed in one file.
//
// The wire representation is a single float64: the integer part is the
// day number since the epoch, the fractional part encodes time-of-day in
// [0, 1).
package numtime

import (
	"math"
	"time"
)

// epoch is year 1, day 1 in the proleptic Gregorian calendar — day 0 of
// the engine's numeric timeline. It must never change within a running
// process; a single backtest's serializer and deserializer always agree
// because both go through this same constant.
var epoch = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

const secondsPerDay = 24 * 60 * 60

// ToFloat converts a UTC time.Time into the engine's day-number.fraction
// representation.
func ToFloat(t time.Time) float64 {
	t = t.UTC()
	secs := t.Unix() - epoch.Unix()
	return float64(secs)/secondsPerDay + float64(t.Nanosecond())/(1e9*secondsPerDay)
}

// ToTime converts the engine's numeric representation back into a UTC
// time.Time. For present-day dates float64 limits precision to roughly
// ten microseconds.
func ToTime(f float64) time.Time {
	days, frac := DayFrac(f)
	return epoch.AddDate(0, 0, days).Add(time.Duration(math.Round(frac * secondsPerDay * float64(time.Second))))
}

// Relocalize reinterprets a numeric datetime that was computed as if it
// were already UTC, but whose wall-clock fields actually belong to loc,
// and returns the true UTC-equivalent numeric value. Feeds use this at
// load time when a source's input timezone differs from UTC.
func Relocalize(f float64, loc *time.Location) float64 {
	if loc == nil {
		return f
	}
	naive := ToTime(f)
	local := time.Date(naive.Year(), naive.Month(), naive.Day(),
		naive.Hour(), naive.Minute(), naive.Second(), naive.Nanosecond(), loc)
	return ToFloat(local.UTC())
}

// DayFrac splits f into its whole-day count and its time-of-day fraction,
// useful for session-boundary and timer comparisons that only care about
// time-of-day.
func DayFrac(f float64) (days int, frac float64) {
	d := int64(f)
	if f < 0 && float64(d) != f {
		d--
	}
	return int(d), f - float64(d)
}

// TimeOfDay converts a clock-of-day duration (e.g. 9h30m) into the
// fractional part used on the wire.
func TimeOfDay(d time.Duration) float64 {
	return float64(d) / float64(24*time.Hour)
}
