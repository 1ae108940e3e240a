package feed

import (
	"log/slog"

	"github.com/gobacktest/core/internal/numtime"
)

// Load attempts to produce exactly one new bar, running it through the
// date range check and the filter pipeline. It returns (true, nil) when a
// bar was delivered, (false, nil) at clean end-of-stream, and (false,
// err) on a source error.
func (f *Feed) Load() (bool, error) {
	for {
		f.Forward(nan, 1)

		if f.fromStack(false, false) {
			f.triStatus = Produced
			return true, nil
		}

		if !f.fromStack(false, true) {
			status, err := f.loadFromSource()
			if err != nil {
				return false, err
			}
			if status != Produced {
				// No bar available (pending or exhausted): undo the
				// speculative Forward so cursor accounting stays correct
				// for the caller (mirrors the source's backwards(force=True)).
				f.Backward(1, true)
				f.triStatus = status
				return false, nil
			}
		}

		dt := f.Datetime(0)

		if f.cfg.InputTZ != nil {
			dt = numtime.Relocalize(dt, f.cfg.InputTZ)
			f.Line(LineDatetime).Set(0, dt)
		}

		if f.cfg.FromDate != 0 && dt < f.cfg.FromDate {
			f.Backward(1, false)
			continue
		}
		if dt > f.cfg.ToDate {
			f.Backward(1, true)
			f.triStatus = Exhausted
			return false, nil
		}

		if f.runFilters() {
			// a filter consumed this bar; loop for the next one
			continue
		}

		f.triStatus = Produced
		return true, nil
	}
}

// TickStatus reports the tri-state outcome of the most recent Load call:
// Produced (a bar was delivered), Pending (a live source has nothing new
// yet but is not done), or Exhausted (no more data will ever arrive). The
// clock synchronizer uses this to tell "wait for live data" apart from
// "this feed is finished".
func (f *Feed) TickStatus() LoadStatus { return f.triStatus }

// runFilters walks the pipeline in order; any filter returning true
// consumed the current bar and the loop in Load must restart.
func (f *Feed) runFilters() bool {
	for _, filt := range f.filters {
		if len(f.barstack) > 0 {
			for range f.barstack {
				f.fromStack(true, false)
				if filt.OnBar(f) {
					return true
				}
			}
			continue
		}
		if filt.OnBar(f) {
			return true
		}
	}
	return false
}

// loadFromSource asks the concrete Source for the next raw bar and writes
// it into the current slot.
func (f *Feed) loadFromSource() (LoadStatus, error) {
	if f.isClone {
		return Exhausted, nil // clones never invoke a loader; they only observe.
	}
	if f.source == nil {
		return Exhausted, nil
	}
	res, err := f.source.LoadNext()
	if err != nil {
		return Exhausted, err
	}
	if res.Status == Produced {
		vals := res.Bar.values()
		for i, l := range f.Lines() {
			l.Set(0, vals[i])
		}
	}
	return res.Status, nil
}

// Last gives every filter a final chance to flush a pending partial bar at
// end-of-stream. Flushed bars are consumed before shutdown.
func (f *Feed) Last() bool {
	flushed := false
	for _, filt := range f.filters {
		if lf, ok := filt.(LastFlusher); ok {
			if lf.Last(f) {
				flushed = true
			}
		}
	}
	for f.fromStack(true, false) {
	}
	return flushed
}

// Check asks every filter that implements Checker to act, used by the
// clock synchronizer when a feed failed to produce a bar on the current
// tick and must be re-prompted against the datetime master.
func (f *Feed) Check(forceMaster bool) {
	for _, filt := range f.filters {
		if c, ok := filt.(Checker); ok {
			c.Check(f, forceMaster)
		}
	}
}

// Preload repeatedly loads until exhaustion, for sources whose bars can be
// eagerly materialized ahead of a run in preload mode.
func (f *Feed) Preload() (int, error) {
	n := 0
	for {
		ok, err := f.Load()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		n++
	}
	f.Last()
	f.Home()
	slog.Debug("feed preloaded", "feed", f.name, "bars", n)
	return n, nil
}

// TickFill derives any missing intra-bar fields from the bar itself —
// used by the clock synchronizer for every feed left at or before the
// master datetime: a feed with only a close price fills open/high/low
// from it so every line stays defined.
func (f *Feed) TickFill() {
	close := f.Close(0)
	if closeIsUndefined(f.Open(0)) {
		f.Line(LineOpen).Set(0, close)
	}
	if closeIsUndefined(f.High(0)) {
		f.Line(LineHigh).Set(0, close)
	}
	if closeIsUndefined(f.Low(0)) {
		f.Line(LineLow).Set(0, close)
	}
}

func closeIsUndefined(v float64) bool { return v != v } // NaN check without importing math twice
