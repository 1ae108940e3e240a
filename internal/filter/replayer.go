package filter

import "github.com/gobacktest/core/internal/feed"

// Replayer aggregates like Resampler, but instead of waiting for a
// period to finish it re-delivers the still-growing aggregate on every
// sub-bar tick, so a strategy watching the feed sees the current bar's
// high/low/close/volume update in place before the period closes.
//
// Crossing a period boundary needs two outgoing bars from one incoming
// tick: the now-finished previous bar, and the first tick of the new
// one. Since a filter only produces one bar per call, the new partial's
// values are pushed onto the feed's barstash so the very next Load call
// pops them straight back in — pendingEmit marks that re-entry so it is
// delivered as-is instead of merged a second time.
type Replayer struct {
	Period      Period
	agg         pending
	pendingEmit bool
}

// NewReplayer returns a Replayer targeting the given period.
func NewReplayer(p Period) *Replayer { return &Replayer{Period: p} }

func (r *Replayer) OnBar(f *feed.Feed) bool {
	if r.pendingEmit {
		r.pendingEmit = false
		f.SetCurrentValues(r.agg.values())
		return false
	}

	vals := f.CurrentValues()
	boundary := r.Period.boundary(vals[0])

	if !r.agg.have {
		r.agg.start(vals, boundary)
		f.SetCurrentValues(r.agg.values())
		return false
	}

	if boundary == r.agg.boundary {
		r.agg.merge(vals)
		f.SetCurrentValues(r.agg.values())
		return false
	}

	finished := r.agg.values()
	r.agg.start(vals, boundary)
	f.Stash(r.agg.values())
	r.pendingEmit = true
	f.SetCurrentValues(finished)
	return false
}

// Last flushes whatever partial remains at end-of-stream.
func (r *Replayer) Last(f *feed.Feed) bool {
	if r.pendingEmit {
		r.pendingEmit = false
		f.SetCurrentValues(r.agg.values())
		return true
	}
	if !r.agg.have {
		return false
	}
	f.SetCurrentValues(r.agg.values())
	r.agg = pending{}
	return true
}
