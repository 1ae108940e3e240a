// Package filter implements the bar-aggregation stages of a feed's
// filter pipeline: Resampler turns a stream of small bars into a stream
// of larger ones, Replayer does the same but also re-delivers the
// still-growing aggregate on every sub-bar so a strategy can watch the
// current bar evolve in real time.
//
// No upstream reference implementation for either filter was available
// to ground this on line by line, only a textual description of the
// aggregation rules; the shape below follows the Filter/LastFlusher
// contract already established by the feed package.
package filter

import (
	"math"

	"github.com/gobacktest/core/internal/feed"
	"github.com/gobacktest/core/internal/numtime"
)

// Period describes the target bar size a Resampler or Replayer
// aggregates into.
type Period struct {
	TimeFrame   feed.TimeFrame
	Compression int
}

// boundary returns the end-of-period numeric datetime that dt belongs
// to, for the configured period. Ticks/Microseconds/Seconds compression
// buckets fall back to whole seconds; Days+ bucket on calendar days
// (weeks/months/years are approximated as day multiples, adequate for a
// backtesting core that does not itself model a trading calendar here —
// that lives in the calendar package).
func (p Period) boundary(dt float64) float64 {
	days, frac := numtime.DayFrac(dt)

	switch p.TimeFrame {
	case feed.Days:
		n := p.Compression
		if n < 1 {
			n = 1
		}
		bucket := (days / n) * n
		end := bucket + n
		return float64(end)
	case feed.Weeks:
		n := 7 * maxInt(p.Compression, 1)
		bucket := (days / n) * n
		return float64(bucket + n)
	case feed.Months:
		n := 30 * maxInt(p.Compression, 1)
		bucket := (days / n) * n
		return float64(bucket + n)
	case feed.Years:
		n := 365 * maxInt(p.Compression, 1)
		bucket := (days / n) * n
		return float64(bucket + n)
	default:
		// Intraday: bucket by seconds-of-day.
		secs := frac * 86400
		step := float64(secondsPerUnit(p.TimeFrame) * maxInt(p.Compression, 1))
		if step <= 0 {
			return dt
		}
		bucketSecs := math.Floor(secs/step)*step + step
		return float64(days) + bucketSecs/86400
	}
}

func secondsPerUnit(tf feed.TimeFrame) int {
	switch tf {
	case feed.Ticks, feed.Microseconds:
		return 1
	case feed.Seconds:
		return 1
	case feed.Minutes:
		return 60
	default:
		return 1
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// pending is the in-progress aggregate a Resampler or Replayer is
// building.
type pending struct {
	open, high, low, close, volume, openInterest float64
	boundary                                     float64
	have                                          bool
}

func (p *pending) start(vals [7]float64, boundary float64) {
	p.open, p.high, p.low, p.close = vals[1], vals[2], vals[3], vals[4]
	p.volume, p.openInterest = vals[5], vals[6]
	p.boundary = boundary
	p.have = true
}

func (p *pending) merge(vals [7]float64) {
	if vals[2] > p.high {
		p.high = vals[2]
	}
	if vals[3] < p.low {
		p.low = vals[3]
	}
	p.close = vals[4]
	p.volume += vals[5]
	p.openInterest = vals[6]
}

func (p *pending) values() [7]float64 {
	return [7]float64{p.boundary, p.open, p.high, p.low, p.close, p.volume, p.openInterest}
}
