package filter

import "github.com/gobacktest/core/internal/feed"

// Resampler aggregates a stream of smaller bars into bars of Period,
// emitting one finished bar per period. It implements feed.Filter and
// feed.LastFlusher.
type Resampler struct {
	Period Period
	agg    pending
}

// NewResampler returns a Resampler targeting the given period.
func NewResampler(p Period) *Resampler { return &Resampler{Period: p} }

// OnBar consumes the bar currently loaded into f. While the bar belongs
// to the period already being aggregated, it is folded into the running
// aggregate and consumed (true). When a bar from the next period
// arrives, the finished aggregate is written into f's current slot
// (with its timestamp aligned to the period's end) so it propagates,
// the just-arrived bar becomes the start of the new aggregate, and OnBar
// returns false.
func (r *Resampler) OnBar(f *feed.Feed) bool {
	vals := f.CurrentValues()
	boundary := r.Period.boundary(vals[0])

	if !r.agg.have {
		r.agg.start(vals, boundary)
		return true
	}

	if boundary == r.agg.boundary {
		r.agg.merge(vals)
		return true
	}

	finished := r.agg.values()
	r.agg.start(vals, boundary)
	f.SetCurrentValues(finished)
	return false
}

// Last flushes a still-open aggregate at end-of-stream, if any.
func (r *Resampler) Last(f *feed.Feed) bool {
	if !r.agg.have {
		return false
	}
	f.SetCurrentValues(r.agg.values())
	r.agg = pending{}
	return true
}
